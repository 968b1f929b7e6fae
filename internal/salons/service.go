package salons

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chairside/chairside/internal/platform/httpx"
	"github.com/chairside/chairside/internal/secure"
)

const profileTTL = 5 * time.Minute

// Service exposes salon operations through the secure access pipeline.
type Service struct {
	deps  *secure.Deps
	store Store
}

// NewService constructs a Service.
func NewService(deps *secure.Deps, store Store) *Service {
	return &Service{deps: deps, store: store}
}

func profileKey(id uuid.UUID) string {
	return "salon:" + id.String()
}

// Profile returns the salon profile, cached per salon. Staff-only columns
// are stripped before the value enters the cache, so no caller ever sees
// them regardless of cache state.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	return secure.CachedQuery(ctx, s.deps, profileKey(id), profileTTL, secure.KindSalon,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (map[string]any, error) {
			return s.store.Profile(ctx, db, id)
		})
}

// Update edits the salon profile. Row-level tenancy is enforced through
// the salon ownership predicate; a successful update invalidates the
// cached profile.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Salon, error) {
	salon, err := secure.Mutate(ctx, s.deps, secure.KindSalon, secure.ActionUpdate, input,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, input UpdateInput) (*Salon, error) {
			allowed, err := s.deps.Authz.VerifyResourceAccess(ctx, sess, secure.KindSalon, id)
			if err != nil {
				return nil, fmt.Errorf("salons: verify access: %w", err)
			}
			if !allowed {
				return nil, httpx.ErrNotFound
			}
			return s.store.Update(ctx, db, id, input)
		})
	if err != nil {
		return nil, err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.InvalidateTag(ctx, profileKey(id)); err != nil {
			s.deps.Logger.Warn("salon cache invalidation failed",
				slog.String("salon_id", id.String()), slog.Any("error", err))
		}
	}
	return salon, nil
}

// List pages through all salons. The salon read grant reaches down to the
// guest role, so this also serves the public directory.
func (s *Service) List(ctx context.Context, page, pageSize int) (secure.PageResult[Salon], error) {
	return secure.PaginatedQuery(ctx, s.deps, secure.KindSalon, page, pageSize,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (int, error) {
			return s.store.Count(ctx, db)
		},
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, offset, limit int) ([]Salon, error) {
			return s.store.List(ctx, db, offset, limit)
		})
}
