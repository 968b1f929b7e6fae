package secure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubDB struct {
	execErr  error
	execs    int
	lastSQL  string
	lastArgs []any
}

func (s *stubDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execs++
	s.lastSQL = sql
	s.lastArgs = args
	return pgconn.CommandTag{}, s.execErr
}

func (s *stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (s *stubDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestAuditLoggerWritesEntry(t *testing.T) {
	db := &stubDB{}
	logger := NewAuditLogger(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := ContextWithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.1", UserAgent: "agent"})
	logger.Log(ctx, AuditEntry{
		IdentityID: "id-1",
		Action:     AuditPermissionDenied,
		Resource:   "appointment",
	})

	if db.execs != 1 {
		t.Fatalf("expected 1 insert, got %d", db.execs)
	}
	// identity, action, resource, resource_id, success, error, ip, ua, at
	if len(db.lastArgs) != 9 {
		t.Fatalf("args = %d", len(db.lastArgs))
	}
	if db.lastArgs[0] != "id-1" || db.lastArgs[1] != AuditPermissionDenied {
		t.Fatalf("args = %v", db.lastArgs)
	}
	if db.lastArgs[6] != "10.0.0.1" || db.lastArgs[7] != "agent" {
		t.Fatalf("request meta not applied: %v", db.lastArgs)
	}
}

func TestAuditLoggerDefaultsAnonymous(t *testing.T) {
	db := &stubDB{}
	logger := NewAuditLogger(db, nil)
	logger.Log(context.Background(), AuditEntry{Action: AuditAuthFailure, Resource: "session"})
	if db.lastArgs[0] != "anonymous" {
		t.Fatalf("identity = %v", db.lastArgs[0])
	}
}

func TestAuditLoggerSwallowsWriteFailure(t *testing.T) {
	db := &stubDB{execErr: errors.New("sink down")}
	logger := NewAuditLogger(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Log must not panic or surface the failure in any way.
	logger.Log(context.Background(), AuditEntry{Action: AuditAuthFailure, Resource: "session"})
	if db.execs != 1 {
		t.Fatalf("expected attempted insert")
	}
}
