package secure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Identity is the result of verifying a caller against the identity store.
// Role and SalonID come from immutable claims the caller cannot edit.
type Identity struct {
	ID      uuid.UUID
	Email   string
	Role    Role
	SalonID uuid.NullUUID
}

// IdentityVerifier checks a bearer token against the identity store.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Profile is the mutable per-identity row. Its role and salon fields are
// fallbacks only; the immutable claim always wins.
type Profile struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Role        Role
	SalonID     uuid.NullUUID
}

// ProfileStore loads profiles by identity id.
type ProfileStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Profile, error)
}

// Resolver turns an ambient request into a VerifiedSession. Resolution is
// memoized per request through the context cell installed by Middleware,
// so the identity store is hit at most once per logical request.
type Resolver struct {
	identities IdentityVerifier
	profiles   ProfileStore
	audit      AuditSink
	logger     *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(identities IdentityVerifier, profiles ProfileStore, audit AuditSink, logger *slog.Logger) *Resolver {
	return &Resolver{identities: identities, profiles: profiles, audit: audit, logger: logger}
}

// Resolve returns the verified session for the current request, resolving
// it on first use and reusing the memoized result afterwards.
func (r *Resolver) Resolve(ctx context.Context) (*VerifiedSession, error) {
	if cell := sessionCacheFromContext(ctx); cell != nil {
		cell.once.Do(func() {
			cell.sess, cell.err = r.resolve(ctx)
		})
		return cell.sess, cell.err
	}
	return r.resolve(ctx)
}

func (r *Resolver) resolve(ctx context.Context) (*VerifiedSession, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		r.audit.Log(ctx, AuditEntry{
			Action:       AuditAuthFailure,
			Resource:     "session",
			ErrorMessage: "no bearer token",
		})
		return nil, ErrUnauthenticated
	}

	ident, err := r.identities.Verify(ctx, token)
	if err != nil || ident == nil {
		msg := "identity verification failed"
		if err != nil {
			msg = err.Error()
		}
		r.audit.Log(ctx, AuditEntry{
			Action:       AuditAuthFailure,
			Resource:     "session",
			ErrorMessage: msg,
		})
		return nil, ErrUnauthenticated
	}

	profile, err := r.profiles.Get(ctx, ident.ID)
	if err != nil || profile == nil {
		msg := "profile not found"
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			msg = err.Error()
		}
		r.audit.Log(ctx, AuditEntry{
			IdentityID:   ident.ID.String(),
			Action:       AuditProfileFetchFailure,
			Resource:     "profile",
			ErrorMessage: msg,
		})
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			return nil, fmt.Errorf("secure: load profile: %w", err)
		}
		return nil, ErrProfileNotFound
	}

	// Role precedence: immutable claim, then the mutable profile row, then
	// the customer default. Reading the claim first prevents privilege
	// escalation through a self-edited profile.
	role := ident.Role
	if role == "" {
		role = profile.Role
	}
	if _, ok := ParseRole(string(role)); !ok {
		role = RoleCustomer
	}

	salonID := profile.SalonID
	if !salonID.Valid {
		salonID = ident.SalonID
	}

	email := ident.Email
	if email == "" {
		email = profile.Email
	}

	return newVerifiedSession(ident.ID, email, role, salonID), nil
}

// Middleware prepares each request for lazy session resolution: it
// extracts the bearer token, captures client metadata for audit entries,
// and installs the per-request memoization cell. No identity store call
// happens here; resolution stays lazy.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if token := bearerToken(r); token != "" {
			ctx = ContextWithToken(ctx, token)
		}
		ctx = ContextWithRequestMeta(ctx, RequestMeta{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})
		ctx = ContextWithSessionCache(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
