package identity

import (
	"time"

	"github.com/google/uuid"
)

// Account is an authenticatable identity row. Authorization claims (role,
// salon) live in their own table, written only by administrative tooling,
// so a caller editing their profile can never change them.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
