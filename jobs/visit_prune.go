package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campus-hub/campus-hub/internal/jobs"
	"github.com/campus-hub/campus-hub/internal/visitlogs"
)

const defaultRetentionDays = 365

// PruneVisitsJob trims old rows from the visit journal.
type PruneVisitsJob struct {
	Service *visitlogs.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPruneVisitsJob initialises the journal retention handler.
func NewPruneVisitsJob(service *visitlogs.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *PruneVisitsJob {
	return &PruneVisitsJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle removes journal rows past the retention window.
func (j *PruneVisitsJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("prune visits: handler not configured")
	}
	var payload PruneVisitsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultRetentionDays
	}

	tracker := j.Metrics.Track(TaskTypePruneVisits)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	retention := time.Duration(payload.RetentionDays) * 24 * time.Hour
	removed, err := j.Service.Prune(ctx, retention)
	if err != nil {
		resultErr = err
		j.Logger.Error("prune visits", slog.Any("error", err))
		return resultErr
	}
	j.Logger.Info("pruned visit journal",
		slog.Int("retention_days", payload.RetentionDays),
		slog.Int64("removed", removed))
	return nil
}
