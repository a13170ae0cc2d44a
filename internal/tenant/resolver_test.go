package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"permission-service/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTenantStore struct {
	byID    map[string]*model.Tenant
	bySlug  map[string]*model.Tenant
	touched []string
}

func newFakeTenantStore(tenants ...*model.Tenant) *fakeTenantStore {
	s := &fakeTenantStore{
		byID:   map[string]*model.Tenant{},
		bySlug: map[string]*model.Tenant{},
	}
	for _, t := range tenants {
		s.byID[t.ID] = t
		s.bySlug[t.Slug] = t
	}
	return s
}

func (s *fakeTenantStore) TenantByID(_ context.Context, id string) (*model.Tenant, error) {
	return s.byID[id], nil
}

func (s *fakeTenantStore) TenantBySlug(_ context.Context, slug string) (*model.Tenant, error) {
	return s.bySlug[slug], nil
}

func (s *fakeTenantStore) TouchLastActive(_ context.Context, tenantID string) error {
	s.touched = append(s.touched, tenantID)
	return nil
}

func newRequestContext(target string, header map[string]string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestExtractIdentifierPrecedence(t *testing.T) {
	// path parameter wins over everything
	c := newRequestContext("/api/tenants?tenant_id=from-query", map[string]string{
		HeaderTenantID: "from-header",
	})
	c.SetParamNames("tenant_id")
	c.SetParamValues("from-path")
	assert.Equal(t, "from-path", ExtractIdentifier(c))

	// then query parameter
	c = newRequestContext("/api/tenants?tenant_id=from-query", map[string]string{
		HeaderTenantID: "from-header",
	})
	assert.Equal(t, "from-query", ExtractIdentifier(c))

	// then the header, even when the host carries a slug
	c = newRequestContext("/api/tenants", map[string]string{
		HeaderTenantID: "from-header",
	})
	c.Request().Host = "acme.example.com"
	assert.Equal(t, "from-header", ExtractIdentifier(c))

	// then the host sub-domain
	c = newRequestContext("/api/tenants", nil)
	c.Request().Host = "acme.example.com"
	assert.Equal(t, "acme", ExtractIdentifier(c))

	// and finally the default tenant
	c = newRequestContext("/api/tenants", nil)
	c.Request().Host = "example.com"
	assert.Equal(t, DefaultTenantID, ExtractIdentifier(c))
}

func TestSlugFromHost(t *testing.T) {
	assert.Equal(t, "acme", SlugFromHost("acme.example.com"))
	assert.Equal(t, "acme", SlugFromHost("acme.example.com:8082"))
	assert.Equal(t, "", SlugFromHost("example.com"))
	assert.Equal(t, "", SlugFromHost("localhost:8082"))

	// reserved labels never name a tenant
	for _, label := range []string{"www", "api", "admin", "app"} {
		assert.Equal(t, "", SlugFromHost(label+".example.com"), label)
	}
}

func TestResolveByIDAndSlug(t *testing.T) {
	active := &model.Tenant{
		ID:     "22222222-2222-2222-2222-222222222222",
		Slug:   "acme",
		Status: model.TenantStatusActive,
	}
	store := newFakeTenantStore(active)
	r := NewResolver(store, nil)

	// UUID-shaped identifiers are looked up by id
	got, err := r.Resolve(context.Background(), active.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	// everything else by slug
	got, err = r.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	// successful resolution stamps activity
	assert.Equal(t, []string{active.ID, active.ID}, store.touched)
}

func TestResolveNotFound(t *testing.T) {
	r := NewResolver(newFakeTenantStore(), nil)

	_, err := r.Resolve(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = r.Resolve(context.Background(), "33333333-3333-3333-3333-333333333333")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveInactiveTenants(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)

	suspended := &model.Tenant{ID: "a1", Slug: "suspended", Status: model.TenantStatusSuspended}
	archived := &model.Tenant{ID: "a2", Slug: "archived", Status: model.TenantStatusArchived}
	expired := &model.Tenant{ID: "a3", Slug: "expired", Status: model.TenantStatusActive, ExpiresAt: &past}
	trialOver := &model.Tenant{ID: "a4", Slug: "trial-over", Status: model.TenantStatusTrial, TrialEndsAt: &past}

	store := newFakeTenantStore(suspended, archived, expired, trialOver)
	r := NewResolver(store, nil)

	for _, slug := range []string{"suspended", "archived", "expired", "trial-over"} {
		_, err := r.Resolve(context.Background(), slug)
		assert.ErrorIs(t, err, ErrTenantInactive, slug)
	}

	// inactive tenants never get an activity stamp
	assert.Empty(t, store.touched)
}

func TestResolveTrialInsideWindow(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	trial := &model.Tenant{ID: "b1", Slug: "trial", Status: model.TenantStatusTrial, TrialEndsAt: &future}
	r := NewResolver(newFakeTenantStore(trial), nil)

	got, err := r.Resolve(context.Background(), "trial")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)
}
