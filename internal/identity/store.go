package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chairside/chairside/internal/secure"
)

var (
	// ErrTokenInvalid indicates an unknown, expired or revoked token.
	ErrTokenInvalid = errors.New("identity: token invalid")
	// ErrAccountNotFound indicates no account matches the lookup.
	ErrAccountNotFound = errors.New("identity: account not found")
)

// Store verifies tokens and loads accounts and immutable claims from
// postgres. It implements secure.IdentityVerifier.
type Store struct {
	db secure.DB
}

// NewStore constructs a Store.
func NewStore(db secure.DB) *Store {
	return &Store{db: db}
}

// Verify resolves a bearer token to an identity with its immutable
// claims. Tokens are matched by digest so the raw value never reaches the
// store.
func (s *Store) Verify(ctx context.Context, token string) (*secure.Identity, error) {
	digest := hashToken(token)

	var (
		ident   secure.Identity
		role    *string
		salonID uuid.NullUUID
	)
	err := s.db.QueryRow(ctx,
		`SELECT i.id, i.email, c.role, c.salon_id
		 FROM api_tokens t
		 JOIN identities i ON i.id = t.identity_id AND i.is_active
		 LEFT JOIN identity_claims c ON c.identity_id = i.id
		 WHERE t.token_hash = $1 AND t.revoked_at IS NULL AND t.expires_at > NOW()`,
		digest,
	).Scan(&ident.ID, &ident.Email, &role, &salonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("identity: verify token: %w", err)
	}
	if role != nil {
		if parsed, ok := secure.ParseRole(*role); ok {
			ident.Role = parsed
		}
	}
	ident.SalonID = salonID
	return &ident, nil
}

// FindByEmail loads an active account for credential checks.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var acc Account
	err := s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, is_active, created_at
		 FROM identities WHERE lower(email) = lower($1)`,
		email,
	).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.IsActive, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("identity: find account: %w", err)
	}
	return &acc, nil
}

// IssueToken mints a random API token for the identity, stores its digest
// and returns the plaintext exactly once.
func (s *Store) IssueToken(ctx context.Context, identityID uuid.UUID, ttl time.Duration) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("identity: token entropy: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_tokens (token_hash, identity_id, expires_at, created_at)
		 VALUES ($1, $2, $3, NOW())`,
		hashToken(token), identityID, time.Now().Add(ttl),
	)
	if err != nil {
		return "", fmt.Errorf("identity: issue token: %w", err)
	}
	return token, nil
}

// RevokeToken invalidates a token by digest.
func (s *Store) RevokeToken(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE api_tokens SET revoked_at = NOW() WHERE token_hash = $1 AND revoked_at IS NULL`,
		hashToken(token),
	)
	if err != nil {
		return fmt.Errorf("identity: revoke token: %w", err)
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
