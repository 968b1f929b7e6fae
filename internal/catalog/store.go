package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chairside/chairside/internal/platform/httpx"
	"github.com/chairside/chairside/internal/secure"
)

// Store is the persistence surface behind the service.
type Store interface {
	Menu(ctx context.Context, db secure.DB, salonID uuid.UUID) ([]Treatment, error)
	CountBySalon(ctx context.Context, db secure.DB, salonID uuid.UUID) (int, error)
	ListBySalon(ctx context.Context, db secure.DB, salonID uuid.UUID, offset, limit int) ([]Treatment, error)
	Insert(ctx context.Context, db secure.DB, treatment *Treatment) error
	Update(ctx context.Context, db secure.DB, id uuid.UUID, input TreatmentInput) (*Treatment, error)
	Deactivate(ctx context.Context, db secure.DB, id uuid.UUID) error
}

type pgStore struct{}

// NewStore returns the postgres-backed Store.
func NewStore() Store {
	return pgStore{}
}

const treatmentColumns = `id, salon_id, name, description, duration_min,
	price_cents, active, created_at, updated_at`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var tr Treatment
	err := row.Scan(&tr.ID, &tr.SalonID, &tr.Name, &tr.Description,
		&tr.DurationMin, &tr.PriceCents, &tr.Active, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func collectTreatments(rows pgx.Rows) ([]Treatment, error) {
	defer rows.Close()
	var out []Treatment
	for rows.Next() {
		tr, err := scanTreatment(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		out = append(out, *tr)
	}
	return out, rows.Err()
}

func (pgStore) Menu(ctx context.Context, db secure.DB, salonID uuid.UUID) ([]Treatment, error) {
	rows, err := db.Query(ctx,
		`SELECT `+treatmentColumns+` FROM salon_services
		 WHERE salon_id = $1 AND active ORDER BY name`, salonID)
	if err != nil {
		return nil, fmt.Errorf("catalog: menu: %w", err)
	}
	return collectTreatments(rows)
}

func (pgStore) CountBySalon(ctx context.Context, db secure.DB, salonID uuid.UUID) (int, error) {
	var count int
	err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM salon_services WHERE salon_id = $1`, salonID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return count, nil
}

func (pgStore) ListBySalon(ctx context.Context, db secure.DB, salonID uuid.UUID, offset, limit int) ([]Treatment, error) {
	rows, err := db.Query(ctx,
		`SELECT `+treatmentColumns+` FROM salon_services
		 WHERE salon_id = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		salonID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return collectTreatments(rows)
}

func (pgStore) Insert(ctx context.Context, db secure.DB, treatment *Treatment) error {
	err := db.QueryRow(ctx,
		`INSERT INTO salon_services (salon_id, name, description, duration_min, price_cents, active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 RETURNING id, active, created_at, updated_at`,
		treatment.SalonID, treatment.Name, treatment.Description,
		treatment.DurationMin, treatment.PriceCents,
	).Scan(&treatment.ID, &treatment.Active, &treatment.CreatedAt, &treatment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: insert: %w", err)
	}
	return nil
}

func (pgStore) Update(ctx context.Context, db secure.DB, id uuid.UUID, input TreatmentInput) (*Treatment, error) {
	tr, err := scanTreatment(db.QueryRow(ctx,
		`UPDATE salon_services
		 SET name = $2, description = $3, duration_min = $4, price_cents = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+treatmentColumns,
		id, input.Name, input.Description, input.DurationMin, input.PriceCents))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("catalog: update: %w", err)
	}
	return tr, nil
}

func (pgStore) Deactivate(ctx context.Context, db secure.DB, id uuid.UUID) error {
	tag, err := db.Exec(ctx,
		`UPDATE salon_services SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
