package secure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

type stubVerifier struct {
	ident *Identity
	err   error
	calls int
}

func (s *stubVerifier) Verify(context.Context, string) (*Identity, error) {
	s.calls++
	return s.ident, s.err
}

type stubProfiles struct {
	profile *Profile
	err     error
	calls   int
}

func (s *stubProfiles) Get(context.Context, uuid.UUID) (*Profile, error) {
	s.calls++
	return s.profile, s.err
}

func TestResolveNoTokenFails(t *testing.T) {
	sink := &captureSink{}
	r := NewResolver(&stubVerifier{}, &stubProfiles{}, sink, nil)

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	failures := sink.byAction(AuditAuthFailure)
	if len(failures) != 1 {
		t.Fatalf("expected auth_failure audit entry, got %d", len(failures))
	}
	if failures[0].IdentityID != "anonymous" {
		t.Fatalf("entry identity = %s", failures[0].IdentityID)
	}
}

func TestResolveInvalidTokenFails(t *testing.T) {
	sink := &captureSink{}
	r := NewResolver(&stubVerifier{err: errors.New("token revoked")}, &stubProfiles{}, sink, nil)

	ctx := ContextWithToken(context.Background(), "bad-token")
	_, err := r.Resolve(ctx)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if len(sink.byAction(AuditAuthFailure)) != 1 {
		t.Fatalf("expected auth_failure entry")
	}
}

func TestResolveMissingProfileFails(t *testing.T) {
	id := uuid.New()
	sink := &captureSink{}
	r := NewResolver(
		&stubVerifier{ident: &Identity{ID: id, Email: "a@b.c", Role: RoleStaff}},
		&stubProfiles{err: ErrProfileNotFound},
		sink, nil,
	)

	ctx := ContextWithToken(context.Background(), "tok")
	_, err := r.Resolve(ctx)
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err = %v, want ErrProfileNotFound", err)
	}
	failures := sink.byAction(AuditProfileFetchFailure)
	if len(failures) != 1 || failures[0].IdentityID != id.String() {
		t.Fatalf("expected profile_fetch_failure for %s, got %+v", id, failures)
	}
}

func TestResolveClaimRoleWinsOverProfile(t *testing.T) {
	id := uuid.New()
	r := NewResolver(
		&stubVerifier{ident: &Identity{ID: id, Email: "o@b.c", Role: RoleOwner}},
		// A self-edited profile claiming platform_admin must not win.
		&stubProfiles{profile: &Profile{ID: id, Role: RolePlatformAdmin}},
		&captureSink{}, nil,
	)

	sess, err := r.Resolve(ContextWithToken(context.Background(), "tok"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.Role != RoleOwner {
		t.Fatalf("role = %s, want owner", sess.Role)
	}
	if sess.Permissions.Universal() {
		t.Fatalf("profile row must not escalate to universal access")
	}
	if !sess.IsSalonOwner || sess.IsAdmin {
		t.Fatalf("flags = %+v", sess)
	}
}

func TestResolveProfileRoleFallback(t *testing.T) {
	id := uuid.New()
	r := NewResolver(
		&stubVerifier{ident: &Identity{ID: id, Email: "s@b.c"}},
		&stubProfiles{profile: &Profile{ID: id, Role: RoleManager}},
		&captureSink{}, nil,
	)
	sess, err := r.Resolve(ContextWithToken(context.Background(), "tok"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.Role != RoleManager {
		t.Fatalf("role = %s, want manager fallback", sess.Role)
	}
}

func TestResolveDefaultsToCustomer(t *testing.T) {
	id := uuid.New()
	r := NewResolver(
		&stubVerifier{ident: &Identity{ID: id, Email: "c@b.c"}},
		&stubProfiles{profile: &Profile{ID: id}},
		&captureSink{}, nil,
	)
	sess, err := r.Resolve(ContextWithToken(context.Background(), "tok"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.Role != RoleCustomer || !sess.IsCustomer {
		t.Fatalf("role = %s, want customer default", sess.Role)
	}
}

func TestResolveMemoizedPerRequest(t *testing.T) {
	id := uuid.New()
	verifier := &stubVerifier{ident: &Identity{ID: id, Role: RoleStaff}}
	profiles := &stubProfiles{profile: &Profile{ID: id}}
	r := NewResolver(verifier, profiles, &captureSink{}, nil)

	ctx := ContextWithSessionCache(ContextWithToken(context.Background(), "tok"))
	first, err := r.Resolve(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := r.Resolve(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first != second {
		t.Fatalf("memoized resolve should return the same session")
	}
	if verifier.calls != 1 || profiles.calls != 1 {
		t.Fatalf("stores hit more than once: verifier=%d profiles=%d", verifier.calls, profiles.calls)
	}

	// A fresh request context resolves independently.
	ctx2 := ContextWithSessionCache(ContextWithToken(context.Background(), "tok"))
	if _, err := r.Resolve(ctx2); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if verifier.calls != 2 {
		t.Fatalf("new request should resolve again, calls=%d", verifier.calls)
	}
}

func TestMiddlewareInstallsTokenAndCache(t *testing.T) {
	var gotToken string
	var hadCell bool
	var meta *RequestMeta
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = TokenFromContext(r.Context())
		hadCell = sessionCacheFromContext(r.Context()) != nil
		meta = RequestMetaFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	req.Header.Set("User-Agent", "chairside-test")
	Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	if gotToken != "tok-123" {
		t.Fatalf("token = %q", gotToken)
	}
	if !hadCell {
		t.Fatalf("session cache cell not installed")
	}
	if meta == nil || meta.UserAgent != "chairside-test" {
		t.Fatalf("request meta = %+v", meta)
	}
}
