package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campus-hub/campus-hub/internal/app"
	"github.com/campus-hub/campus-hub/internal/auth"
	"github.com/campus-hub/campus-hub/internal/authz"
	"github.com/campus-hub/campus-hub/internal/courses"
	"github.com/campus-hub/campus-hub/internal/events"
	"github.com/campus-hub/campus-hub/internal/observability"
	"github.com/campus-hub/campus-hub/internal/platform/cache"
	"github.com/campus-hub/campus-hub/internal/platform/db"
	"github.com/campus-hub/campus-hub/internal/reviews"
	"github.com/campus-hub/campus-hub/internal/roles"
	"github.com/campus-hub/campus-hub/internal/shared"
	"github.com/campus-hub/campus-hub/internal/users"
	"github.com/campus-hub/campus-hub/internal/view"
	"github.com/campus-hub/campus-hub/internal/visitlogs"
	"github.com/campus-hub/campus-hub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Error("create upload dir", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "campus_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbpool)
	guard := authz.Middleware{
		Engine: authz.NewEngine(authz.DefaultPolicies()),
		Roles:  usersRepo,
		Logger: logger,
	}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, guard)

	rolesService := roles.NewService(roles.NewRepository(dbpool))
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rolesService, templates, csrfManager, guard)

	reviewsService := reviews.NewService(reviews.NewRepository(dbpool))
	coursesService := courses.NewService(courses.NewRepository(dbpool))
	coursesHandler := courses.NewHandler(logger, coursesService, reviewsService, templates, csrfManager, sessionManager, guard)

	eventsService := events.NewService(events.NewRepository(dbpool))
	eventsHandler := events.NewHandler(logger, eventsService, templates, csrfManager, guard, cfg.UploadDir)

	visitsService := visitlogs.NewService(visitlogs.NewRepository(dbpool))
	visitsHandler := visitlogs.NewHandler(logger, visitsService, templates, csrfManager, guard)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Authz:            guard,
		VisitRecorder:    jobClient,
		AuthHandler:      authHandler,
		CoursesHandler:   coursesHandler,
		UsersHandler:     usersHandler,
		EventsHandler:    eventsHandler,
		VisitLogsHandler: visitsHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
