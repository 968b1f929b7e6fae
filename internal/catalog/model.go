package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Treatment is one bookable entry on a salon's service menu.
type Treatment struct {
	ID          uuid.UUID `json:"id"`
	SalonID     uuid.UUID `json:"salon_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DurationMin int       `json:"duration_min"`
	PriceCents  int64     `json:"price_cents"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TreatmentInput is the client payload for creating or editing a
// treatment.
type TreatmentInput struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=2000"`
	DurationMin int    `json:"duration_min" validate:"required,min=5,max=480"`
	PriceCents  int64  `json:"price_cents" validate:"required,min=0"`
}
