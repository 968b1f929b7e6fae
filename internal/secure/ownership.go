package secure

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AppointmentOwnership carries the ownership fields of one appointment.
type AppointmentOwnership struct {
	CustomerID uuid.UUID
	StaffID    uuid.NullUUID
	SalonID    uuid.UUID
}

// SalonOwnership carries the ownership fields of one salon.
type SalonOwnership struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
}

// BillingOwnership carries the ownership fields of one billing record.
type BillingOwnership struct {
	CustomerID uuid.UUID
	SalonID    uuid.UUID
}

// StaffOwnership carries the ownership fields of one staff record.
type StaffOwnership struct {
	IdentityID uuid.UUID
	SalonID    uuid.UUID
}

// OwnershipSource fetches minimal ownership fields per resource kind.
// Implementations return (nil, nil) for missing rows.
type OwnershipSource interface {
	AppointmentOwnership(ctx context.Context, id uuid.UUID) (*AppointmentOwnership, error)
	SalonOwnership(ctx context.Context, id uuid.UUID) (*SalonOwnership, error)
	BillingOwnership(ctx context.Context, id uuid.UUID) (*BillingOwnership, error)
	StaffOwnership(ctx context.Context, id uuid.UUID) (*StaffOwnership, error)
}

// PgOwnershipSource reads ownership fields from the relational store.
type PgOwnershipSource struct {
	db DB
}

// NewPgOwnershipSource constructs a PgOwnershipSource.
func NewPgOwnershipSource(db DB) *PgOwnershipSource {
	return &PgOwnershipSource{db: db}
}

func (s *PgOwnershipSource) AppointmentOwnership(ctx context.Context, id uuid.UUID) (*AppointmentOwnership, error) {
	var row AppointmentOwnership
	err := s.db.QueryRow(ctx,
		`SELECT customer_id, staff_id, salon_id FROM appointments WHERE id = $1`, id,
	).Scan(&row.CustomerID, &row.StaffID, &row.SalonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("secure: appointment ownership: %w", err)
	}
	return &row, nil
}

func (s *PgOwnershipSource) SalonOwnership(ctx context.Context, id uuid.UUID) (*SalonOwnership, error) {
	var row SalonOwnership
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id FROM salons WHERE id = $1`, id,
	).Scan(&row.ID, &row.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("secure: salon ownership: %w", err)
	}
	return &row, nil
}

func (s *PgOwnershipSource) BillingOwnership(ctx context.Context, id uuid.UUID) (*BillingOwnership, error) {
	var row BillingOwnership
	err := s.db.QueryRow(ctx,
		`SELECT customer_id, salon_id FROM billing_records WHERE id = $1`, id,
	).Scan(&row.CustomerID, &row.SalonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("secure: billing ownership: %w", err)
	}
	return &row, nil
}

func (s *PgOwnershipSource) StaffOwnership(ctx context.Context, id uuid.UUID) (*StaffOwnership, error) {
	var row StaffOwnership
	err := s.db.QueryRow(ctx,
		`SELECT identity_id, salon_id FROM staff_members WHERE id = $1`, id,
	).Scan(&row.IdentityID, &row.SalonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("secure: staff ownership: %w", err)
	}
	return &row, nil
}
