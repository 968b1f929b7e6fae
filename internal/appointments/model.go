package appointments

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Appointment struct {
	ID         uuid.UUID     `json:"id"`
	SalonID    uuid.UUID     `json:"salon_id"`
	CustomerID uuid.NullUUID `json:"customer_id,omitempty"`
	StaffID    uuid.NullUUID `json:"staff_id,omitempty"`
	ServiceID  uuid.UUID     `json:"service_id"`
	StartsAt   time.Time     `json:"starts_at"`
	EndsAt     time.Time     `json:"ends_at"`
	Status     Status        `json:"status"`
	Notes      string        `json:"notes,omitempty"`
	PriceCents int64         `json:"price_cents"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type BillingStatus string

const (
	BillingPending BillingStatus = "pending"
	BillingPaid    BillingStatus = "paid"
	BillingVoid    BillingStatus = "void"
)

type BillingRecord struct {
	ID            uuid.UUID     `json:"id"`
	AppointmentID uuid.UUID     `json:"appointment_id"`
	CustomerID    uuid.NullUUID `json:"customer_id,omitempty"`
	SalonID       uuid.UUID     `json:"salon_id"`
	AmountCents   int64         `json:"amount_cents"`
	Status        BillingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// BookingInput is the client payload for booking an appointment. The
// secure mutation pipeline sanitizes Notes before it reaches the store.
type BookingInput struct {
	SalonID   uuid.UUID     `json:"salon_id" validate:"required"`
	ServiceID uuid.UUID     `json:"service_id" validate:"required"`
	StaffID   uuid.NullUUID `json:"staff_id"`
	StartsAt  time.Time     `json:"starts_at" validate:"required"`
	Notes     string        `json:"notes" validate:"max=2000"`
}

// Booking bundles the two rows a booking produces.
type Booking struct {
	Appointment *Appointment   `json:"appointment"`
	Billing     *BillingRecord `json:"billing"`
}
