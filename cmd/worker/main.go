package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/campus-hub/campus-hub/internal/app"
	jobmetrics "github.com/campus-hub/campus-hub/internal/jobs"
	"github.com/campus-hub/campus-hub/internal/platform/db"
	"github.com/campus-hub/campus-hub/internal/visitlogs"
	"github.com/campus-hub/campus-hub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)
	visitsService := visitlogs.NewService(visitlogs.NewRepository(pool))

	recordJob := jobs.NewRecordVisitJob(visitsService, logger, metrics)
	pruneJob := jobs.NewPruneVisitsJob(visitsService, logger, metrics)
	recheckJob := jobs.NewRatingsRecheckJob(pool, logger, metrics)

	pruneTask, err := jobs.NewPruneVisitsTask(jobs.PruneVisitsPayload{RetentionDays: cfg.VisitRetentionDays})
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeRecordVisit, Handler: recordJob.Handle},
			{Type: jobs.TaskTypePruneVisits, Handler: pruneJob.Handle},
			{Type: jobs.TaskTypeRatingsRecheck, Handler: recheckJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: jobs.NewRatingsRecheckTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
