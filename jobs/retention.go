package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/chairside/chairside/internal/secure"
)

// NewAuditRetentionHandler deletes security audit entries older than the
// payload's retention horizon.
func NewAuditRetentionHandler(db secure.DB, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RetentionPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		cutoff := time.Now().Add(-payload.Retention)
		tag, err := db.Exec(ctx,
			`DELETE FROM security_audit_logs WHERE created_at < $1`, cutoff)
		if err != nil {
			logger.Error("audit retention", slog.Any("error", err))
			return err
		}
		logger.Info("audit retention",
			slog.Int64("deleted", tag.RowsAffected()),
			slog.Time("cutoff", cutoff),
		)
		return nil
	}
}

// NewRateLimitPruneHandler drops rate-limit records outside the retention
// horizon across every tracked key.
func NewRateLimitPruneHandler(limiter *secure.Limiter, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RetentionPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		cutoff := time.Now().Add(-payload.Retention)
		if err := limiter.PruneBefore(ctx, cutoff); err != nil {
			logger.Error("rate limit prune", slog.Any("error", err))
			return err
		}
		logger.Info("rate limit prune", slog.Time("cutoff", cutoff))
		return nil
	}
}
