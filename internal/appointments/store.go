package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chairside/chairside/internal/platform/httpx"
	"github.com/chairside/chairside/internal/secure"
)

// Store is the persistence surface behind the service. Every method takes
// the store handle supplied by the secure access pipeline so no query can
// bypass it.
type Store interface {
	Get(ctx context.Context, db secure.DB, id uuid.UUID) (*Appointment, error)
	CountVisible(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (int, error)
	ListVisible(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, offset, limit int) ([]Appointment, error)
	Insert(ctx context.Context, db secure.DB, appt *Appointment) error
	UpdateStatus(ctx context.Context, db secure.DB, id uuid.UUID, status Status) (*Appointment, error)
	InsertBilling(ctx context.Context, db secure.DB, rec *BillingRecord) error
	ServiceRate(ctx context.Context, db secure.DB, serviceID uuid.UUID) (priceCents int64, durationMin int, err error)
	CountUpcoming(ctx context.Context, db secure.DB, salonID uuid.UUID, from time.Time) (int, error)
	RevenueSince(ctx context.Context, db secure.DB, salonID uuid.UUID, since time.Time) (int64, error)
}

type pgStore struct{}

// NewStore returns the postgres-backed Store.
func NewStore() Store {
	return pgStore{}
}

const appointmentColumns = `id, salon_id, customer_id, staff_id, service_id,
	starts_at, ends_at, status, notes, price_cents, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.SalonID, &a.CustomerID, &a.StaffID, &a.ServiceID,
		&a.StartsAt, &a.EndsAt, &a.Status, &a.Notes, &a.PriceCents, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (pgStore) Get(ctx context.Context, db secure.DB, id uuid.UUID) (*Appointment, error) {
	appt, err := scanAppointment(db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return appt, nil
}

// visibleWhere scopes list queries to the rows the session may see.
func visibleWhere(sess *secure.VerifiedSession) (string, []any) {
	switch {
	case sess.Permissions.Universal() || sess.IsAdmin:
		return "TRUE", nil
	case (sess.IsStaff || sess.IsSalonOwner) && sess.SalonID.Valid:
		return "salon_id = $1", []any{sess.SalonID.UUID}
	default:
		return "customer_id = $1", []any{sess.IdentityID}
	}
}

func (pgStore) CountVisible(ctx context.Context, db secure.DB, sess *secure.VerifiedSession) (int, error) {
	where, args := visibleWhere(sess)
	var count int
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("appointments: count: %w", err)
	}
	return count, nil
}

func (pgStore) ListVisible(ctx context.Context, db secure.DB, sess *secure.VerifiedSession, offset, limit int) ([]Appointment, error) {
	where, args := visibleWhere(sess)
	args = append(args, limit, offset)
	rows, err := db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM appointments WHERE %s
		 ORDER BY starts_at DESC LIMIT $%d OFFSET $%d`,
			appointmentColumns, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *appt)
	}
	return out, rows.Err()
}

func (pgStore) Insert(ctx context.Context, db secure.DB, appt *Appointment) error {
	err := db.QueryRow(ctx,
		`INSERT INTO appointments
		 (salon_id, customer_id, staff_id, service_id, starts_at, ends_at, status, notes, price_cents)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		appt.SalonID, appt.CustomerID, appt.StaffID, appt.ServiceID,
		appt.StartsAt, appt.EndsAt, appt.Status, appt.Notes, appt.PriceCents,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

func (pgStore) UpdateStatus(ctx context.Context, db secure.DB, id uuid.UUID, status Status) (*Appointment, error) {
	appt, err := scanAppointment(db.QueryRow(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+appointmentColumns, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return appt, nil
}

func (pgStore) InsertBilling(ctx context.Context, db secure.DB, rec *BillingRecord) error {
	err := db.QueryRow(ctx,
		`INSERT INTO billing_records (appointment_id, customer_id, salon_id, amount_cents, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		rec.AppointmentID, rec.CustomerID, rec.SalonID, rec.AmountCents, rec.Status,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("appointments: insert billing: %w", err)
	}
	return nil
}

func (pgStore) ServiceRate(ctx context.Context, db secure.DB, serviceID uuid.UUID) (int64, int, error) {
	var (
		priceCents  int64
		durationMin int
	)
	err := db.QueryRow(ctx,
		`SELECT price_cents, duration_min FROM salon_services WHERE id = $1 AND active`,
		serviceID,
	).Scan(&priceCents, &durationMin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, httpx.ErrNotFound
		}
		return 0, 0, fmt.Errorf("appointments: service rate: %w", err)
	}
	return priceCents, durationMin, nil
}

func (pgStore) CountUpcoming(ctx context.Context, db secure.DB, salonID uuid.UUID, from time.Time) (int, error) {
	var count int
	err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments
		 WHERE salon_id = $1 AND starts_at >= $2 AND status IN ('pending', 'confirmed')`,
		salonID, from,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("appointments: count upcoming: %w", err)
	}
	return count, nil
}

func (pgStore) RevenueSince(ctx context.Context, db secure.DB, salonID uuid.UUID, since time.Time) (int64, error) {
	var cents int64
	err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM billing_records
		 WHERE salon_id = $1 AND status = 'paid' AND created_at >= $2`,
		salonID, since,
	).Scan(&cents)
	if err != nil {
		return 0, fmt.Errorf("appointments: revenue: %w", err)
	}
	return cents, nil
}
