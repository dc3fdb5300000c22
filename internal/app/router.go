package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campus-hub/campus-hub/internal/auth"
	"github.com/campus-hub/campus-hub/internal/authz"
	"github.com/campus-hub/campus-hub/internal/courses"
	"github.com/campus-hub/campus-hub/internal/events"
	"github.com/campus-hub/campus-hub/internal/observability"
	"github.com/campus-hub/campus-hub/internal/shared"
	"github.com/campus-hub/campus-hub/internal/users"
	"github.com/campus-hub/campus-hub/internal/view"
	"github.com/campus-hub/campus-hub/internal/visitlogs"
	"github.com/campus-hub/campus-hub/jobs"
	"github.com/campus-hub/campus-hub/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Authz          authz.Middleware
	VisitRecorder  visitlogs.Recorder

	AuthHandler      *auth.Handler
	CoursesHandler   *courses.Handler
	UsersHandler     *users.Handler
	EventsHandler    *events.Handler
	VisitLogsHandler *visitlogs.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Authz.Resolve)
	if params.VisitRecorder != nil {
		r.Use(visitlogs.Middleware(params.VisitRecorder, params.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:       "Главная",
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: r.URL.Path,
			Actor:       authz.ActorFromContext(r.Context()),
		}
		if err := params.Templates.Render(w, "pages/home/index.html", data); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(LoginRateLimit())
		params.AuthHandler.MountRoutes(r)
	})
	r.Route("/courses", params.CoursesHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/events", params.EventsHandler.MountRoutes)
	r.Route("/visit_logs", params.VisitLogsHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.Config != nil && params.Config.UploadDir != "" {
		uploads := http.StripPrefix("/static/uploads/", http.FileServer(http.Dir(params.Config.UploadDir)))
		r.Handle("/static/uploads/*", staticCacheHandler(uploads))
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
