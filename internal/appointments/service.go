package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chairside/chairside/internal/platform/httpx"
	"github.com/chairside/chairside/internal/secure"
)

// Service exposes appointment operations. Every store interaction runs
// through the secure access pipeline, so authorization, sanitization and
// auditing apply uniformly.
type Service struct {
	deps  *secure.Deps
	store Store
}

// NewService constructs a Service.
func NewService(deps *secure.Deps, store Store) *Service {
	return &Service{deps: deps, store: store}
}

// Get loads one appointment. Row-level access is verified through the
// ownership predicates; callers outside the row see a not-found, never a
// confirmation that the row exists.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return secure.Query(ctx, s.deps, secure.KindAppointment,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (*Appointment, error) {
			allowed, err := s.deps.Authz.VerifyResourceAccess(ctx, sess, secure.KindAppointment, id)
			if err != nil {
				return nil, fmt.Errorf("appointments: verify access: %w", err)
			}
			if !allowed {
				return nil, httpx.ErrNotFound
			}
			return s.store.Get(ctx, db, id)
		})
}

// List returns the page of appointments visible to the session: customers
// see their own rows, staff and owners their salon, admins everything.
func (s *Service) List(ctx context.Context, page, pageSize int) (secure.PageResult[Appointment], error) {
	return secure.PaginatedQuery(ctx, s.deps, secure.KindAppointment, page, pageSize,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (int, error) {
			return s.store.CountVisible(ctx, db, sess)
		},
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, offset, limit int) ([]Appointment, error) {
			return s.store.ListVisible(ctx, db, sess, offset, limit)
		})
}

// Book creates a pending appointment priced from the salon's service
// menu. Customer sessions are always booked as themselves regardless of
// the payload. Billing is settled at completion, not at booking.
func (s *Service) Book(ctx context.Context, input BookingInput) (*Appointment, error) {
	return secure.Mutate(ctx, s.deps, secure.KindAppointment, secure.ActionWrite, input,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, input BookingInput) (*Appointment, error) {
			priceCents, durationMin, err := s.store.ServiceRate(ctx, db, input.ServiceID)
			if err != nil {
				return nil, err
			}

			customerID := uuid.NullUUID{}
			if sess.IsCustomer {
				customerID = uuid.NullUUID{UUID: sess.IdentityID, Valid: true}
			}

			appt := &Appointment{
				SalonID:    input.SalonID,
				CustomerID: customerID,
				StaffID:    input.StaffID,
				ServiceID:  input.ServiceID,
				StartsAt:   input.StartsAt,
				EndsAt:     input.StartsAt.Add(time.Duration(durationMin) * time.Minute),
				Status:     StatusPending,
				Notes:      input.Notes,
				PriceCents: priceCents,
			}
			if err := s.store.Insert(ctx, db, appt); err != nil {
				return nil, err
			}
			return appt, nil
		})
}

// Confirm moves a pending appointment to confirmed. Requires the manage
// action, so customers cannot self-confirm.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, secure.ActionManage, StatusConfirmed)
}

// Cancel cancels an appointment the caller owns or hosts.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, secure.ActionUpdate, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, action secure.Action, to Status) (*Appointment, error) {
	return secure.Mutate(ctx, s.deps, secure.KindAppointment, action, id,
		func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, id uuid.UUID) (*Appointment, error) {
			allowed, err := s.deps.Authz.VerifyResourceAccess(ctx, sess, secure.KindAppointment, id)
			if err != nil {
				return nil, fmt.Errorf("appointments: verify access: %w", err)
			}
			if !allowed {
				return nil, httpx.ErrNotFound
			}
			return s.store.UpdateStatus(ctx, db, id, to)
		})
}

// Complete marks the appointment completed and writes its billing record.
// Both steps are permission-gated up front; the billing write requires the
// billing grant, which keeps completion an owner-level operation.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var (
		appt *Appointment
		bill *BillingRecord
	)
	ops := []secure.TxOp{
		{
			Kind:   secure.KindAppointment,
			Action: secure.ActionUpdate,
			Op: func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (any, error) {
				allowed, err := s.deps.Authz.VerifyResourceAccess(ctx, sess, secure.KindAppointment, id)
				if err != nil {
					return nil, fmt.Errorf("appointments: verify access: %w", err)
				}
				if !allowed {
					return nil, httpx.ErrNotFound
				}
				appt, err = s.store.UpdateStatus(ctx, db, id, StatusCompleted)
				return appt, err
			},
		},
		{
			Kind:   secure.KindBilling,
			Action: secure.ActionWrite,
			Op: func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (any, error) {
				bill = &BillingRecord{
					AppointmentID: appt.ID,
					CustomerID:    appt.CustomerID,
					SalonID:       appt.SalonID,
					AmountCents:   appt.PriceCents,
					Status:        BillingPending,
				}
				if err := s.store.InsertBilling(ctx, db, bill); err != nil {
					return nil, err
				}
				return bill, nil
			},
		},
	}
	if _, err := secure.Transaction(ctx, s.deps, ops); err != nil {
		return nil, err
	}
	return &Booking{Appointment: appt, Billing: bill}, nil
}

// Dashboard aggregates the salon's workload and revenue in one batch. The
// batch is all-or-nothing: a session missing any of the grants sees none
// of the panels.
func (s *Service) Dashboard(ctx context.Context) (map[string]any, error) {
	now := time.Now()
	items := []secure.BatchItem{
		{
			Kind: secure.KindAppointment,
			Query: func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (any, error) {
				salonID, err := sessionSalon(sess)
				if err != nil {
					return nil, err
				}
				count, err := s.store.CountUpcoming(ctx, db, salonID, now)
				if err != nil {
					return nil, err
				}
				return map[string]any{"upcoming_appointments": count}, nil
			},
		},
		{
			Kind: secure.KindBilling,
			Query: func(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (any, error) {
				salonID, err := sessionSalon(sess)
				if err != nil {
					return nil, err
				}
				cents, err := s.store.RevenueSince(ctx, db, salonID, now.AddDate(0, 0, -30))
				if err != nil {
					return nil, err
				}
				return map[string]any{"revenue_cents_30d": cents}, nil
			},
		},
	}

	results, err := secure.BatchQuery(ctx, s.deps, items)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	for _, res := range results {
		panel, ok := res.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range panel {
			out[k] = v
		}
	}
	return out, nil
}

func sessionSalon(sess *secure.VerifiedSession) (uuid.UUID, error) {
	if !sess.SalonID.Valid {
		return uuid.Nil, fmt.Errorf("%w: session has no salon", httpx.ErrValidation)
	}
	return sess.SalonID.UUID, nil
}
