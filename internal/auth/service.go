package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chairside/chairside/internal/identity"
	"github.com/chairside/chairside/internal/secure"
)

// ErrInvalidCredentials covers unknown accounts, inactive accounts and
// password mismatches alike so responses cannot be used to probe emails.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

const loginOperation = "login"

// Accounts is the identity surface the service needs. *identity.Store
// satisfies it.
type Accounts interface {
	FindByEmail(ctx context.Context, email string) (*identity.Account, error)
	IssueToken(ctx context.Context, identityID uuid.UUID, ttl time.Duration) (string, error)
	RevokeToken(ctx context.Context, token string) error
}

// Service wraps authentication business rules.
type Service struct {
	accounts Accounts
	limiter  *secure.Limiter
	audit    secure.AuditSink

	tokenTTL    time.Duration
	loginLimit  int
	loginWindow time.Duration
}

// NewService constructs a new Service.
func NewService(accounts Accounts, limiter *secure.Limiter, audit secure.AuditSink, tokenTTL time.Duration, loginLimit int, loginWindow time.Duration) *Service {
	return &Service{
		accounts:    accounts,
		limiter:     limiter,
		audit:       audit,
		tokenTTL:    tokenTTL,
		loginLimit:  loginLimit,
		loginWindow: loginWindow,
	}
}

// Login validates credentials and issues an API token. Attempts are
// throttled per account; a throttled attempt never reaches the bcrypt
// comparison.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.accounts.FindByEmail(ctx, secure.SanitizeString(email))
	if err != nil {
		s.audit.Log(ctx, secure.AuditEntry{
			Action:       secure.AuditAuthFailure,
			Resource:     loginOperation,
			ErrorMessage: "unknown account",
		})
		return "", ErrInvalidCredentials
	}
	if !account.IsActive {
		s.audit.Log(ctx, secure.AuditEntry{
			IdentityID:   account.ID.String(),
			Action:       secure.AuditAuthFailure,
			Resource:     loginOperation,
			ErrorMessage: "account inactive",
		})
		return "", ErrInvalidCredentials
	}

	allowed, err := s.limiter.Check(ctx, account.ID, loginOperation, s.loginLimit, s.loginWindow)
	if err != nil {
		return "", fmt.Errorf("auth: login throttle: %w", err)
	}
	if !allowed {
		return "", secure.ErrRateLimited
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.audit.Log(ctx, secure.AuditEntry{
			IdentityID:   account.ID.String(),
			Action:       secure.AuditAuthFailure,
			Resource:     loginOperation,
			ErrorMessage: "password mismatch",
		})
		return "", ErrInvalidCredentials
	}

	token, err := s.accounts.IssueToken(ctx, account.ID, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("auth: issue token: %w", err)
	}
	return token, nil
}

// Logout revokes the presented token. Revoking an already-revoked or
// unknown token is a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return secure.ErrUnauthenticated
	}
	if err := s.accounts.RevokeToken(ctx, token); err != nil {
		return fmt.Errorf("auth: logout: %w", err)
	}
	return nil
}
