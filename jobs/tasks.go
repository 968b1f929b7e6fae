package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRetention prunes expired security audit entries.
	TaskAuditRetention = "audit:retention"
	// TaskRateLimitPrune drops stale rate-limit records.
	TaskRateLimitPrune = "ratelimit:prune"
)

// RetentionPayload carries the retention horizon for prune tasks.
type RetentionPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditRetentionTask constructs the audit prune task.
func NewAuditRetentionTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(RetentionPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// NewRateLimitPruneTask constructs the rate-limit prune task.
func NewRateLimitPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(RetentionPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRateLimitPrune, data), nil
}
