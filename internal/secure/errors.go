package secure

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates the request carries no verified identity.
	ErrUnauthenticated = errors.New("secure: no verified identity")
	// ErrProfileNotFound indicates the identity has no profile record.
	ErrProfileNotFound = errors.New("secure: profile not found")
	// ErrRateLimited indicates the caller exceeded an operation limit.
	ErrRateLimited = errors.New("secure: rate limit exceeded")
)

// AuthorizationError is returned when a permission or resource-access
// check denies the caller. Permission carries the attempted key in
// "kind:action" form.
type AuthorizationError struct {
	Permission string
}

func (e *AuthorizationError) Error() string {
	return "secure: permission denied: " + e.Permission
}

// DataAccessError wraps a store failure raised by a caller-supplied
// operation inside a secure access pattern.
type DataAccessError struct {
	Kind Kind
	Err  error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("secure: %s access failed: %v", e.Kind, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}
