package secure

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*Limiter, *captureSink) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sink := &captureSink{}
	return NewLimiter(client, sink), sink
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	limiter, sink := newTestLimiter(t)
	id := uuid.New()
	ctx := context.Background()

	const limit = 5
	for i := 0; i < limit; i++ {
		ok, err := limiter.Check(ctx, id, "booking_create", limit, time.Minute)
		if err != nil {
			t.Fatalf("check %d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("call %d/%d should pass", i+1, limit)
		}
	}

	ok, err := limiter.Check(ctx, id, "booking_create", limit, time.Minute)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ok {
		t.Fatalf("call %d should be limited", limit+1)
	}
	exceeded := sink.byAction(AuditRateLimitExceeded)
	if len(exceeded) != 1 {
		t.Fatalf("expected 1 rate_limit_exceeded entry, got %d", len(exceeded))
	}
	if exceeded[0].Resource != "booking_create" {
		t.Fatalf("entry resource = %s", exceeded[0].Resource)
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	id := uuid.New()
	ctx := context.Background()

	base := time.Now()
	limiter.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		if ok, err := limiter.Check(ctx, id, "otp_send", 3, time.Minute); err != nil || !ok {
			t.Fatalf("warmup call %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := limiter.Check(ctx, id, "otp_send", 3, time.Minute); ok {
		t.Fatalf("should be limited inside window")
	}

	// After the window has elapsed the old records fall out of the count.
	limiter.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	ok, err := limiter.Check(ctx, id, "otp_send", 3, time.Minute)
	if err != nil {
		t.Fatalf("check after window: %v", err)
	}
	if !ok {
		t.Fatalf("call after window should pass")
	}
}

func TestLimiterIsolatesIdentityAndOperation(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()

	if ok, _ := limiter.Check(ctx, first, "export", 1, time.Minute); !ok {
		t.Fatalf("first call should pass")
	}
	if ok, _ := limiter.Check(ctx, first, "export", 1, time.Minute); ok {
		t.Fatalf("first identity should now be limited")
	}
	if ok, _ := limiter.Check(ctx, second, "export", 1, time.Minute); !ok {
		t.Fatalf("other identity must not be affected")
	}
	if ok, _ := limiter.Check(ctx, first, "import", 1, time.Minute); !ok {
		t.Fatalf("other operation must not be affected")
	}
}

func TestLimiterPruneBefore(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	id := uuid.New()
	ctx := context.Background()

	base := time.Now()
	limiter.now = func() time.Time { return base }
	if ok, _ := limiter.Check(ctx, id, "export", 10, time.Minute); !ok {
		t.Fatalf("seed call should pass")
	}

	if err := limiter.PruneBefore(ctx, base.Add(time.Second)); err != nil {
		t.Fatalf("prune: %v", err)
	}

	// With the old record pruned, a limit of 1 still admits a new call.
	limiter.now = func() time.Time { return base.Add(2 * time.Second) }
	if ok, _ := limiter.Check(ctx, id, "export", 1, time.Minute); !ok {
		t.Fatalf("pruned history should not count against the limit")
	}
}
