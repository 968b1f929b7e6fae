package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chairside/chairside/internal/platform/httpx"
	"github.com/chairside/chairside/internal/secure"
)

type stubVerifier struct {
	identity *secure.Identity
}

func (s stubVerifier) Verify(context.Context, string) (*secure.Identity, error) {
	return s.identity, nil
}

type stubProfiles struct {
	profile *secure.Profile
}

func (s stubProfiles) Get(context.Context, uuid.UUID) (*secure.Profile, error) {
	return s.profile, nil
}

type noopAudit struct{}

func (noopAudit) Log(context.Context, secure.AuditEntry) {}

type mockStore struct {
	menuCalls   int
	treatments  []Treatment
	inserted    *Treatment
	updated     *TreatmentInput
	deactivated []uuid.UUID
}

func (m *mockStore) Menu(context.Context, secure.DB, uuid.UUID) ([]Treatment, error) {
	m.menuCalls++
	return m.treatments, nil
}

func (m *mockStore) CountBySalon(context.Context, secure.DB, uuid.UUID) (int, error) {
	return len(m.treatments), nil
}

func (m *mockStore) ListBySalon(context.Context, secure.DB, uuid.UUID, int, int) ([]Treatment, error) {
	return m.treatments, nil
}

func (m *mockStore) Insert(_ context.Context, _ secure.DB, tr *Treatment) error {
	tr.ID = uuid.New()
	tr.Active = true
	m.inserted = tr
	return nil
}

func (m *mockStore) Update(_ context.Context, _ secure.DB, id uuid.UUID, input TreatmentInput) (*Treatment, error) {
	m.updated = &input
	return &Treatment{ID: id, Name: input.Name, DurationMin: input.DurationMin, PriceCents: input.PriceCents, Active: true}, nil
}

func (m *mockStore) Deactivate(_ context.Context, _ secure.DB, id uuid.UUID) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

type fixture struct {
	service *Service
	store   *mockStore
	salonID uuid.UUID
}

func newFixture(t *testing.T, role secure.Role, sameSalon bool) (*fixture, context.Context) {
	t.Helper()
	identityID := uuid.New()
	salonID := uuid.New()
	sessionSalon := salonID
	if !sameSalon {
		sessionSalon = uuid.New()
	}
	nullSalon := uuid.NullUUID{UUID: sessionSalon, Valid: true}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := secure.NewResolver(
		stubVerifier{identity: &secure.Identity{ID: identityID, Email: "t@example.com", Role: role, SalonID: nullSalon}},
		stubProfiles{profile: &secure.Profile{ID: identityID, Email: "t@example.com", SalonID: nullSalon}},
		noopAudit{}, logger,
	)
	deps := &secure.Deps{
		Resolver: resolver,
		Authz:    secure.NewEvaluator(nil, noopAudit{}, logger),
		Cache:    secure.NewCache(client),
		Logger:   logger,
	}

	store := &mockStore{treatments: []Treatment{
		{ID: uuid.New(), SalonID: salonID, Name: "Balayage", DurationMin: 90, PriceCents: 12000, Active: true},
	}}
	ctx := secure.ContextWithSessionCache(secure.ContextWithToken(context.Background(), "token"))
	return &fixture{service: NewService(deps, store), store: store, salonID: salonID}, ctx
}

func freshCtx() context.Context {
	return secure.ContextWithSessionCache(secure.ContextWithToken(context.Background(), "token"))
}

func TestMenuIsCachedPerSalon(t *testing.T) {
	f, ctx := newFixture(t, secure.RoleGuest, true)

	menu, err := f.service.Menu(ctx, f.salonID)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Balayage", menu[0].Name)

	_, err = f.service.Menu(freshCtx(), f.salonID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.menuCalls)

	// A different salon misses the cache.
	_, err = f.service.Menu(freshCtx(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.menuCalls)
}

func TestCreateInvalidatesMenu(t *testing.T) {
	f, ctx := newFixture(t, secure.RoleManager, true)

	_, err := f.service.Menu(ctx, f.salonID)
	require.NoError(t, err)

	_, err = f.service.Create(freshCtx(), f.salonID, TreatmentInput{
		Name: "Hot Towel Shave", DurationMin: 30, PriceCents: 3500,
	})
	require.NoError(t, err)
	require.NotNil(t, f.store.inserted)
	assert.Equal(t, f.salonID, f.store.inserted.SalonID)

	_, err = f.service.Menu(freshCtx(), f.salonID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.menuCalls)
}

func TestCreateOutsideTenantHidesSalon(t *testing.T) {
	f, ctx := newFixture(t, secure.RoleManager, false)

	_, err := f.service.Create(ctx, f.salonID, TreatmentInput{
		Name: "Hot Towel Shave", DurationMin: 30, PriceCents: 3500,
	})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Nil(t, f.store.inserted)
}

func TestCreateDeniedForStaff(t *testing.T) {
	f, ctx := newFixture(t, secure.RoleStaff, true)

	_, err := f.service.Create(ctx, f.salonID, TreatmentInput{
		Name: "Hot Towel Shave", DurationMin: 30, PriceCents: 3500,
	})
	var authzErr *secure.AuthorizationError
	require.ErrorAs(t, err, &authzErr)
	assert.Equal(t, "service:manage", authzErr.Permission)
}

func TestUpdateSanitizesDescription(t *testing.T) {
	f, ctx := newFixture(t, secure.RoleOwner, true)

	_, err := f.service.Update(ctx, f.salonID, uuid.New(), TreatmentInput{
		Name:        "Balayage",
		Description: `great for <a href="javascript:steal()">everyone</a>`,
		DurationMin: 90,
		PriceCents:  12000,
	})
	require.NoError(t, err)
	require.NotNil(t, f.store.updated)
	assert.Equal(t, "great for everyone", f.store.updated.Description)
}

func TestDeactivateRemovesFromMenu(t *testing.T) {
	f, ctx := newFixture(t, secure.RoleOwner, true)
	id := f.store.treatments[0].ID

	require.NoError(t, f.service.Deactivate(ctx, f.salonID, id))
	assert.Equal(t, []uuid.UUID{id}, f.store.deactivated)
}
