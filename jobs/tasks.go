package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRecordVisit journals one page view.
	TaskTypeRecordVisit = "visits:record"
	// TaskTypePruneVisits trims the visit journal to its retention window.
	TaskTypePruneVisits = "visits:prune"
	// TaskTypeRatingsRecheck repairs drifted course rating aggregates.
	TaskTypeRatingsRecheck = "ratings:recheck"
)

// RecordVisitPayload describes one page view to journal.
type RecordVisitPayload struct {
	Path       string    `json:"path"`
	UserID     *int64    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewRecordVisitTask constructs an Asynq task.
func NewRecordVisitTask(payload RecordVisitPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRecordVisit, data, asynq.Queue(QueueDefault)), nil
}

// PruneVisitsPayload carries the journal retention window in days.
type PruneVisitsPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewPruneVisitsTask constructs an Asynq task.
func NewPruneVisitsTask(payload PruneVisitsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePruneVisits, data, asynq.Queue(QueueDefault)), nil
}

// NewRatingsRecheckTask constructs an Asynq task.
func NewRatingsRecheckTask() *asynq.Task {
	return asynq.NewTask(TaskTypeRatingsRecheck, nil, asynq.Queue(QueueDefault))
}
