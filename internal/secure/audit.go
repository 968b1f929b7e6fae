package secure

import (
	"context"
	"log/slog"
	"time"
)

// Audit action names recorded by the core.
const (
	AuditAuthFailure         = "auth_failure"
	AuditProfileFetchFailure = "profile_fetch_failure"
	AuditPermissionDenied    = "permission_denied"
	AuditRateLimitExceeded   = "rate_limit_exceeded"
)

// anonymousActor is recorded when no identity could be resolved.
const anonymousActor = "anonymous"

// AuditEntry is one row of the append-only security trail.
type AuditEntry struct {
	IdentityID   string
	Action       string
	Resource     string
	ResourceID   string
	Success      bool
	ErrorMessage string
	At           time.Time
	IPAddress    string
	UserAgent    string
}

// AuditSink accepts audit entries. Implementations must never fail the
// caller; delivery is best effort.
type AuditSink interface {
	Log(ctx context.Context, entry AuditEntry)
}

// AuditLogger appends entries to security_audit_logs. Write failures are
// swallowed and reported to the diagnostic logger instead; audit delivery
// never blocks or fails the primary operation.
type AuditLogger struct {
	db     DB
	logger *slog.Logger
}

// NewAuditLogger constructs an AuditLogger.
func NewAuditLogger(db DB, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{db: db, logger: logger}
}

// Log appends the entry. Network/client metadata is filled in from the
// request context when the entry does not carry it.
func (l *AuditLogger) Log(ctx context.Context, entry AuditEntry) {
	if l == nil || l.db == nil {
		return
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	if entry.IdentityID == "" {
		entry.IdentityID = anonymousActor
	}
	if meta := RequestMetaFromContext(ctx); meta != nil {
		if entry.IPAddress == "" {
			entry.IPAddress = meta.IPAddress
		}
		if entry.UserAgent == "" {
			entry.UserAgent = meta.UserAgent
		}
	}

	_, err := l.db.Exec(ctx,
		`INSERT INTO security_audit_logs (identity_id, action, resource, resource_id, success, error_message, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9)`,
		entry.IdentityID, entry.Action, entry.Resource, entry.ResourceID,
		entry.Success, entry.ErrorMessage, entry.IPAddress, entry.UserAgent, entry.At,
	)
	if err != nil && l.logger != nil {
		l.logger.Warn("audit write failed",
			slog.String("action", entry.Action),
			slog.String("resource", entry.Resource),
			slog.Any("error", err),
		)
	}
}
