package salons

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
	Profile(ctx context.Context, db secure.DB, id uuid.UUID) (map[string]any, error)
	Update(ctx context.Context, db secure.DB, id uuid.UUID, input UpdateInput) (*Salon, error)
	Count(ctx context.Context, db secure.DB) (int, error)
	List(ctx context.Context, db secure.DB, offset, limit int) ([]Salon, error)
}

type pgStore struct{}

// NewStore returns the postgres-backed Store.
func NewStore() Store {
	return pgStore{}
}

// Profile returns the salon row as a map so the secure DTO pass can strip
// staff-only columns before the result is cached or returned.
func (pgStore) Profile(ctx context.Context, db secure.DB, id uuid.UUID) (map[string]any, error) {
	var (
		salon         Salon
		internalNotes string
	)
	err := db.QueryRow(ctx,
		`SELECT id, owner_id, name, slug, phone, address, timezone,
		        COALESCE(internal_notes, ''), created_at, updated_at
		 FROM salons WHERE id = $1`, id,
	).Scan(&salon.ID, &salon.OwnerID, &salon.Name, &salon.Slug, &salon.Phone,
		&salon.Address, &salon.Timezone, &internalNotes, &salon.CreatedAt, &salon.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("salons: profile: %w", err)
	}
	return map[string]any{
		"id":             salon.ID.String(),
		"owner_id":       salon.OwnerID.String(),
		"name":           salon.Name,
		"slug":           salon.Slug,
		"phone":          salon.Phone,
		"address":        salon.Address,
		"timezone":       salon.Timezone,
		"internal_notes": internalNotes,
		"created_at":     salon.CreatedAt,
		"updated_at":     salon.UpdatedAt,
	}, nil
}

func (pgStore) Update(ctx context.Context, db secure.DB, id uuid.UUID, input UpdateInput) (*Salon, error) {
	var salon Salon
	err := db.QueryRow(ctx,
		`UPDATE salons SET name = $2, phone = $3, address = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, owner_id, name, slug, phone, address, timezone, created_at, updated_at`,
		id, input.Name, input.Phone, input.Address,
	).Scan(&salon.ID, &salon.OwnerID, &salon.Name, &salon.Slug, &salon.Phone,
		&salon.Address, &salon.Timezone, &salon.CreatedAt, &salon.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("salons: update: %w", err)
	}
	return &salon, nil
}

func (pgStore) Count(ctx context.Context, db secure.DB) (int, error) {
	var count int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM salons`).Scan(&count); err != nil {
		return 0, fmt.Errorf("salons: count: %w", err)
	}
	return count, nil
}

func (pgStore) List(ctx context.Context, db secure.DB, offset, limit int) ([]Salon, error) {
	rows, err := db.Query(ctx,
		`SELECT id, owner_id, name, slug, phone, address, timezone, created_at, updated_at
		 FROM salons ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("salons: list: %w", err)
	}
	defer rows.Close()

	var out []Salon
	for rows.Next() {
		var salon Salon
		err := rows.Scan(&salon.ID, &salon.OwnerID, &salon.Name, &salon.Slug, &salon.Phone,
			&salon.Address, &salon.Timezone, &salon.CreatedAt, &salon.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("salons: scan: %w", err)
		}
		out = append(out, salon)
	}
	return out, rows.Err()
}
