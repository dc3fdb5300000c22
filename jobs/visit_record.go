package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campus-hub/campus-hub/internal/jobs"
	"github.com/campus-hub/campus-hub/internal/visitlogs"
)

// RecordVisitJob journals page views submitted through the queue.
type RecordVisitJob struct {
	Service *visitlogs.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRecordVisitJob initialises the visit journal handler.
func NewRecordVisitJob(service *visitlogs.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *RecordVisitJob {
	return &RecordVisitJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle stores one page view.
func (j *RecordVisitJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("record visit: handler not configured")
	}
	var payload RecordVisitPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTypeRecordVisit)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if resultErr = j.Service.Record(ctx, payload.Path, payload.UserID); resultErr != nil {
		j.Logger.Error("record visit", slog.String("path", payload.Path), slog.Any("error", resultErr))
		return resultErr
	}
	return nil
}
