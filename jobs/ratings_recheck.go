package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/campus-hub/campus-hub/internal/jobs"
)

// RatingsRecheckJob compares the stored course rating counters with the
// review table and repairs any drift. The counters are maintained
// transactionally, so repairs point at bugs or manual data edits.
type RatingsRecheckJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRatingsRecheckJob initialises the aggregate integrity handler.
func NewRatingsRecheckJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *RatingsRecheckJob {
	return &RatingsRecheckJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle recomputes the counters from reviews and rewrites drifted rows.
func (j *RatingsRecheckJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("ratings recheck: handler not configured")
	}

	tracker := j.Metrics.Track(TaskTypeRatingsRecheck)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	tag, err := j.Pool.Exec(ctx, `
		UPDATE courses c
		SET rating_sum = agg.rating_sum, rating_num = agg.rating_num
		FROM (
			SELECT c.id,
			       COALESCE(SUM(r.rating), 0) AS rating_sum,
			       COUNT(r.id)               AS rating_num
			FROM courses c
			LEFT JOIN reviews r ON r.course_id = c.id
			GROUP BY c.id
		) agg
		WHERE agg.id = c.id
		  AND (c.rating_sum <> agg.rating_sum OR c.rating_num <> agg.rating_num)`)
	if err != nil {
		resultErr = err
		j.Logger.Error("ratings recheck", slog.Any("error", err))
		return resultErr
	}

	if repaired := tag.RowsAffected(); repaired > 0 {
		j.Metrics.AddRepairedRatings(repaired)
		j.Logger.Warn("repaired drifted course ratings", slog.Int64("courses", repaired))
	} else {
		j.Logger.Info("course rating counters consistent")
	}
	return nil
}
