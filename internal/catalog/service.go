package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chairside/chairside/internal/platform/httpx"
	"github.com/chairside/chairside/internal/secure"
)

const menuTTL = 2 * time.Minute

// Service exposes the treatment menu through the secure access pipeline.
type Service struct {
	deps  *secure.Deps
	store Store
}

// NewService constructs a Service.
func NewService(deps *secure.Deps, store Store) *Service {
	return &Service{deps: deps, store: store}
}

func menuKey(salonID uuid.UUID) string {
	return "salon-menu:" + salonID.String()
}

// Menu returns the active treatments of one salon, cached per salon.
func (s *Service) Menu(ctx context.Context, salonID uuid.UUID) ([]Treatment, error) {
	return secure.CachedQuery(ctx, s.deps, menuKey(salonID), menuTTL, secure.KindService,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) ([]Treatment, error) {
			return s.store.Menu(ctx, db, salonID)
		})
}

// List pages through all treatments of one salon, active or not.
func (s *Service) List(ctx context.Context, salonID uuid.UUID, page, pageSize int) (secure.PageResult[Treatment], error) {
	return secure.PaginatedQuery(ctx, s.deps, secure.KindService, page, pageSize,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (int, error) {
			return s.store.CountBySalon(ctx, db, salonID)
		},
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, offset, limit int) ([]Treatment, error) {
			return s.store.ListBySalon(ctx, db, salonID, offset, limit)
		})
}

// Create adds a treatment to the caller's own salon menu.
func (s *Service) Create(ctx context.Context, salonID uuid.UUID, input TreatmentInput) (*Treatment, error) {
	treatment, err := secure.Mutate(ctx, s.deps, secure.KindService, secure.ActionManage, input,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, input TreatmentInput) (*Treatment, error) {
			if !tenantAllowed(sess, salonID) {
				return nil, httpx.ErrNotFound
			}
			tr := &Treatment{
				SalonID:     salonID,
				Name:        input.Name,
				Description: input.Description,
				DurationMin: input.DurationMin,
				PriceCents:  input.PriceCents,
			}
			if err := s.store.Insert(ctx, db, tr); err != nil {
				return nil, err
			}
			return tr, nil
		})
	if err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx, salonID)
	return treatment, nil
}

// Update edits a treatment on the caller's own salon menu.
func (s *Service) Update(ctx context.Context, salonID, id uuid.UUID, input TreatmentInput) (*Treatment, error) {
	treatment, err := secure.Mutate(ctx, s.deps, secure.KindService, secure.ActionManage, input,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, input TreatmentInput) (*Treatment, error) {
			if !tenantAllowed(sess, salonID) {
				return nil, httpx.ErrNotFound
			}
			return s.store.Update(ctx, db, id, input)
		})
	if err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx, salonID)
	return treatment, nil
}

// Deactivate takes a treatment off the menu without deleting its history.
func (s *Service) Deactivate(ctx context.Context, salonID, id uuid.UUID) error {
	_, err := secure.Mutate(ctx, s.deps, secure.KindService, secure.ActionDelete, id,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, id uuid.UUID) (struct{}, error) {
			if !tenantAllowed(sess, salonID) {
				return struct{}{}, httpx.ErrNotFound
			}
			return struct{}{}, s.store.Deactivate(ctx, db, id)
		})
	if err != nil {
		return err
	}
	s.invalidateMenu(ctx, salonID)
	return nil
}

// tenantAllowed confines menu writes to the caller's own salon; admins
// and universal sessions may edit any salon.
func tenantAllowed(sess *secure.VerifiedSession, salonID uuid.UUID) bool {
	if sess.Permissions.Universal() || sess.IsAdmin {
		return true
	}
	return sess.SalonID.Valid && sess.SalonID.UUID == salonID
}

func (s *Service) invalidateMenu(ctx context.Context, salonID uuid.UUID) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.InvalidateTag(ctx, menuKey(salonID)); err != nil {
		s.deps.Logger.Warn("menu cache invalidation failed",
			slog.String("salon_id", salonID.String()), slog.Any("error", err))
	}
}
