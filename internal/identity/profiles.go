package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chairside/chairside/internal/secure"
)

// Profiles loads the mutable profile rows backing secure.ProfileStore.
type Profiles struct {
	db secure.DB
}

// NewProfiles constructs a Profiles store.
func NewProfiles(db secure.DB) *Profiles {
	return &Profiles{db: db}
}

// Get returns the profile for an identity, or secure.ErrProfileNotFound.
func (p *Profiles) Get(ctx context.Context, id uuid.UUID) (*secure.Profile, error) {
	var (
		prof secure.Profile
		role *string
	)
	err := p.db.QueryRow(ctx,
		`SELECT id, email, display_name, role, salon_id FROM profiles WHERE id = $1`,
		id,
	).Scan(&prof.ID, &prof.Email, &prof.DisplayName, &role, &prof.SalonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, secure.ErrProfileNotFound
		}
		return nil, fmt.Errorf("identity: load profile: %w", err)
	}
	if role != nil {
		// The profile role is only a fallback; unknown values are dropped
		// here and the resolver applies the customer default.
		if parsed, ok := secure.ParseRole(*role); ok {
			prof.Role = parsed
		}
	}
	return &prof, nil
}
