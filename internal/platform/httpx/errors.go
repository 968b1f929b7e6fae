// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/chairside/chairside/internal/secure"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
)

// RespondError maps domain and secure-core errors to HTTP responses using
// RFC7807. Authorization denials never confirm that the resource exists.
func RespondError(w http.ResponseWriter, err error) {
	var authzErr *secure.AuthorizationError
	switch {
	case errors.Is(err, secure.ErrUnauthenticated),
		errors.Is(err, secure.ErrProfileNotFound):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case errors.As(err, &authzErr):
		Problem(w, http.StatusForbidden, "Forbidden", authzErr.Error())
	case errors.Is(err, secure.ErrRateLimited):
		Problem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
