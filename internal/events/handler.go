package events

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campus-hub/campus-hub/internal/authz"
	"github.com/campus-hub/campus-hub/internal/platform/httpx"
	"github.com/campus-hub/campus-hub/internal/shared"
	"github.com/campus-hub/campus-hub/internal/view"
)

const maxPosterSize = 5 << 20

// Handler serves the event pages and the moderation API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     authz.Middleware
	validator *validator.Validate
	uploadDir string
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, guard authz.Middleware, uploadDir string) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		guard:     guard,
		validator: validator.New(),
		uploadDir: uploadDir,
	}
}

// MountRoutes registers event routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceEvents, authz.ActionShow))
		r.Get("/", h.list)
		r.Get("/{eventID}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceEvents, authz.ActionCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceEvents, authz.ActionEdit))
		r.Get("/{eventID}/edit", h.showEditForm)
		r.Post("/{eventID}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceEvents, authz.ActionDelete))
		r.Post("/{eventID}/delete", h.remove)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Post("/{eventID}/register", h.register)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResourceEvents, authz.ActionModerate))
		r.Post("/{eventID}/registrations/{registrationID}", h.moderate)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	list, pagination, err := h.service.List(r.Context(), page)
	if err != nil {
		h.logger.Error("list events", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/events/index.html", map[string]any{
		"Events":     list,
		"Pagination": pagination,
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	data := map[string]any{"Event": event}

	actor := authz.ActorFromContext(r.Context())
	if actor.IsAuthenticated() {
		own, err := h.service.OwnRegistration(r.Context(), event.ID, actor.ID)
		if err != nil {
			h.logger.Error("own registration", slog.Any("error", err))
		}
		data["OwnRegistration"] = own
	}
	if canModerate, _ := h.guard.Engine.Allowed(authz.ResourceEvents, authz.ActionModerate, actor, authz.Context{}); canModerate {
		regs, err := h.service.Registrations(r.Context(), event.ID, r.URL.Query().Get("status"))
		if err != nil {
			h.logger.Error("list registrations", slog.Any("error", err))
		}
		data["Registrations"] = regs
		data["CanModerate"] = true
	}
	h.render(w, r, "pages/events/show.html", data, http.StatusOK)
}

type eventForm struct {
	Title            string `validate:"required,max=150"`
	Description      string `validate:"required"`
	Date             string `validate:"required"`
	Location         string `validate:"required,max=200"`
	VolunteersNeeded int    `validate:"required,min=1"`
}

func (h *Handler) parseEventForm(r *http.Request) (EventInput, map[string]string) {
	needed, _ := strconv.Atoi(r.PostFormValue("volunteers_needed"))
	form := eventForm{
		Title:            r.PostFormValue("title"),
		Description:      r.PostFormValue("description"),
		Date:             r.PostFormValue("date"),
		Location:         r.PostFormValue("location"),
		VolunteersNeeded: needed,
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fieldErr := range fieldErrors {
				formErrors[fieldErr.Field()] = "Проверьте корректность введённых данных"
			}
		}
	}
	date, err := time.ParseInLocation("2006-01-02T15:04", form.Date, time.Local)
	if err != nil {
		formErrors["Date"] = "Некорректная дата"
	}
	return EventInput{
		Title:            form.Title,
		Description:      form.Description,
		Date:             date,
		Location:         form.Location,
		VolunteersNeeded: form.VolunteersNeeded,
	}, formErrors
}

// savePoster stores the uploaded image under a random name and returns it.
// A missing file is not an error, posters are optional.
func (h *Handler) savePoster(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	if header.Size > maxPosterSize {
		return "", shared.NewValidationError("image", "Размер изображения не должен превышать 5 МБ")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return "", shared.NewValidationError("image", "Допустимы изображения PNG, JPEG или WebP")
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return name, nil
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/events/new.html", map[string]any{"Errors": map[string]string{}}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPosterSize); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input, formErrors := h.parseEventForm(r)
	if len(formErrors) > 0 {
		h.render(w, r, "pages/events/new.html", map[string]any{"Errors": formErrors, "Form": input}, http.StatusUnprocessableEntity)
		return
	}
	imageName, err := h.savePoster(r)
	if err != nil {
		h.logger.Error("save poster", slog.Any("error", err))
		h.render(w, r, "pages/events/new.html", map[string]any{
			"Errors": map[string]string{"image": shared.UserSafeMessage(err)},
			"Form":   input,
		}, http.StatusUnprocessableEntity)
		return
	}
	input.ImageName = imageName

	event, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create event", slog.Any("error", err))
		h.render(w, r, "pages/events/new.html", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
			"Form":   input,
		}, http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, fmt.Sprintf("/events/%d", event.ID), "success", "Мероприятие успешно создано.")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/events/edit.html", map[string]any{
		"Event":  event,
		"Errors": map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxPosterSize); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input, formErrors := h.parseEventForm(r)
	if len(formErrors) > 0 {
		h.render(w, r, "pages/events/edit.html", map[string]any{"Event": event, "Errors": formErrors}, http.StatusUnprocessableEntity)
		return
	}
	imageName, err := h.savePoster(r)
	if err != nil {
		h.logger.Error("save poster", slog.Any("error", err))
		h.render(w, r, "pages/events/edit.html", map[string]any{
			"Event":  event,
			"Errors": map[string]string{"image": shared.UserSafeMessage(err)},
		}, http.StatusUnprocessableEntity)
		return
	}
	input.ImageName = imageName

	if err := h.service.Update(r.Context(), event.ID, input); err != nil {
		h.logger.Error("update event", slog.Any("error", err))
		h.redirectWithFlash(w, r, fmt.Sprintf("/events/%d", event.ID), "danger", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, fmt.Sprintf("/events/%d", event.ID), "success", "Мероприятие обновлено.")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), event.ID); err != nil {
		h.logger.Error("delete event", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/events", "danger", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/events", "success", "Мероприятие удалено.")
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	actor := authz.ActorFromContext(r.Context())
	location := fmt.Sprintf("/events/%d", event.ID)
	_, err := h.service.Register(r.Context(), event.ID, actor.ID, r.PostFormValue("contact_info"))
	if err != nil {
		if !shared.IsValidation(err) {
			h.logger.Error("register volunteer", slog.Any("error", err))
		}
		h.redirectWithFlash(w, r, location, "danger", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, location, "success", "Заявка отправлена и ожидает рассмотрения.")
}

type moderateRequest struct {
	Status string `json:"status"`
}

// moderate is a JSON endpoint, the registration table updates in place.
func (h *Handler) moderate(w http.ResponseWriter, r *http.Request) {
	regID, err := strconv.ParseInt(chi.URLParam(r, "registrationID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "not found", "registration not found")
		return
	}
	var req moderateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "bad request", "invalid JSON body")
		return
	}
	if err := h.service.Moderate(r.Context(), regID, req.Status); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "not found", "registration not found")
		case errors.Is(err, ErrQuotaReached):
			httpx.Problem(w, http.StatusConflict, "quota reached", "volunteer quota is already filled")
		case shared.IsValidation(err):
			httpx.Problem(w, http.StatusUnprocessableEntity, "validation failed", shared.UserSafeMessage(err))
		default:
			h.logger.Error("moderate registration", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "internal error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *Handler) loadEvent(w http.ResponseWriter, r *http.Request) (*Event, bool) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	event, err := h.service.Get(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		h.logger.Error("load event", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return event, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Мероприятия", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Actor: authz.ActorFromContext(r.Context()), Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
