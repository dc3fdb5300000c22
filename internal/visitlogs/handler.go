package visitlogs

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campus-hub/campus-hub/internal/authz"
	"github.com/campus-hub/campus-hub/internal/shared"
	"github.com/campus-hub/campus-hub/internal/view"
)

// Handler serves the visit journal and its statistics pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: guard}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Get("/", h.index)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceVisitLogs, authz.ActionShowStatisticsPage))
		r.Get("/pages", h.pageStats)
		r.Get("/pages/export", h.exportPageStats)
		r.Get("/users", h.userStats)
		r.Get("/users/export", h.exportUserStats)
	})
}

// index shows the whole journal to administrators and the caller's own
// visits to everyone else.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	var onlyUserID *int64
	seesAll, err := h.guard.Engine.Allowed(authz.ResourceVisitLogs, authz.ActionShowAll, actor, authz.Context{})
	if err != nil {
		h.logger.Error("visit log access", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !seesAll {
		id := actor.ID
		onlyUserID = &id
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	list, pagination, err := h.service.List(r.Context(), page, onlyUserID)
	if err != nil {
		h.logger.Error("list visits", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/visitlogs/index.html", map[string]any{
		"Visits":     list,
		"Pagination": pagination,
		"SeesAll":    seesAll,
	})
}

func (h *Handler) pageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CollectStats(r.Context())
	if err != nil {
		h.logger.Error("page stats", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/visitlogs/pages.html", map[string]any{"Stats": stats.Pages})
}

func (h *Handler) userStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CollectStats(r.Context())
	if err != nil {
		h.logger.Error("user stats", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/visitlogs/users.html", map[string]any{"Stats": stats.Users})
}

func (h *Handler) exportPageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CollectStats(r.Context())
	if err != nil {
		h.logger.Error("export page stats", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pages_stat.csv"`)
	if err := WritePageStatsCSV(w, stats.Pages); err != nil {
		h.logger.Error("write page stats csv", slog.Any("error", err))
	}
}

func (h *Handler) exportUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CollectStats(r.Context())
	if err != nil {
		h.logger.Error("export user stats", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="users_stat.csv"`)
	if err := WriteUserStatsCSV(w, stats.Users); err != nil {
		h.logger.Error("write user stats csv", slog.Any("error", err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Журнал посещений", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Actor: authz.ActorFromContext(r.Context()), Data: data}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
