package secure

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter throttles sensitive operations with a sliding-window counter
// over redis sorted sets, one set per (identity, operation). The check is
// read-then-append and deliberately not atomic: two concurrent calls for
// the same identity can both pass the count before either append lands.
// That tolerance is inherited from the original design; callers needing a
// hard ceiling must serialize externally.
type Limiter struct {
	client *redis.Client
	audit  AuditSink
	now    func() time.Time
}

// NewLimiter constructs a Limiter.
func NewLimiter(client *redis.Client, audit AuditSink) *Limiter {
	return &Limiter{client: client, audit: audit, now: time.Now}
}

// Check counts attempts for (identityID, operation) inside the trailing
// window. At or past the limit it records a rate_limit_exceeded audit
// entry and returns false; otherwise it appends a record for this attempt
// and returns true.
func (l *Limiter) Check(ctx context.Context, identityID uuid.UUID, operation string, limit int, window time.Duration) (bool, error) {
	key := rateLimitKey(identityID, operation)
	now := l.now()
	windowStart := now.Add(-window)

	count, err := l.client.ZCount(ctx, key,
		strconv.FormatInt(windowStart.UnixMilli(), 10), "+inf",
	).Result()
	if err != nil {
		return false, fmt.Errorf("secure: rate limit count: %w", err)
	}

	if count >= int64(limit) {
		l.audit.Log(ctx, AuditEntry{
			IdentityID:   identityID.String(),
			Action:       AuditRateLimitExceeded,
			Resource:     operation,
			ErrorMessage: fmt.Sprintf("rate limit exceeded: %d/%d in %s", count, limit, window),
		})
		return false, nil
	}

	err = l.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	}).Err()
	if err != nil {
		return false, fmt.Errorf("secure: rate limit append: %w", err)
	}
	// Keep the set from growing unbounded between retention runs.
	l.client.Expire(ctx, key, 2*window)

	return true, nil
}

// PruneBefore drops records older than cutoff for every tracked key. Used
// by the retention job.
func (l *Limiter) PruneBefore(ctx context.Context, cutoff time.Time) error {
	iter := l.client.Scan(ctx, 0, rateLimitKeyPrefix+"*", 0).Iterator()
	max := strconv.FormatInt(cutoff.UnixMilli(), 10)
	for iter.Next(ctx) {
		if err := l.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", "("+max).Err(); err != nil {
			return fmt.Errorf("secure: rate limit prune: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("secure: rate limit scan: %w", err)
	}
	return nil
}

const rateLimitKeyPrefix = "ratelimit:"

func rateLimitKey(identityID uuid.UUID, operation string) string {
	return rateLimitKeyPrefix + identityID.String() + ":" + operation
}
