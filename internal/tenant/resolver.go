package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"permission-service/internal/model"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HeaderTenantID carries the tenant identifier on requests and mirrors the
// resolved tenant id on every response.
const HeaderTenantID = "X-Tenant-ID"

// DefaultTenantID is the well-known tenant used when a request carries no
// tenant identifier at all.
const DefaultTenantID = "00000000-0000-0000-0000-000000000001"

// ErrTenantNotFound means the identifier resolved to no tenant record.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrTenantInactive means the tenant exists but is suspended, archived,
// expired or past its trial window.
var ErrTenantInactive = errors.New("tenant is not active")

// reservedLabels are sub-domain labels that never name a tenant.
var reservedLabels = map[string]bool{
	"www":   true,
	"api":   true,
	"admin": true,
	"app":   true,
}

// Store is the lookup contract the resolver depends on.
type Store interface {
	TenantByID(ctx context.Context, id string) (*model.Tenant, error)
	TenantBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	TouchLastActive(ctx context.Context, tenantID string) error
}

// Resolver turns a tenant identifier into a validated tenant record.
type Resolver struct {
	store Store
	log   *zap.Logger
}

// NewResolver creates a tenant resolver over the given store.
func NewResolver(store Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// ExtractIdentifier pulls the tenant identifier from a request. Precedence:
// path parameter, query parameter, tenant header, host sub-domain, default
// tenant.
func ExtractIdentifier(c echo.Context) string {
	if id := c.Param("tenant_id"); id != "" {
		return id
	}
	if id := c.QueryParam("tenant_id"); id != "" {
		return id
	}
	if id := c.Request().Header.Get(HeaderTenantID); id != "" {
		return id
	}
	if slug := SlugFromHost(c.Request().Host); slug != "" {
		return slug
	}
	return DefaultTenantID
}

// SlugFromHost extracts a tenant slug from a host header of the form
// {slug}.example.com. Reserved labels and bare domains yield "".
func SlugFromHost(host string) string {
	host, _, _ = strings.Cut(host, ":")
	parts := strings.Split(host, ".")
	// slug.domain.tld at minimum
	if len(parts) < 3 {
		return ""
	}
	if reservedLabels[parts[0]] {
		return ""
	}
	return parts[0]
}

// Resolve loads and validates the tenant named by identifier. A UUID-shaped
// identifier is looked up by id, anything else by slug. The tenant's
// last-active time is stamped on success.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*model.Tenant, error) {
	var (
		tenant *model.Tenant
		err    error
	)
	if _, parseErr := uuid.Parse(identifier); parseErr == nil {
		tenant, err = r.store.TenantByID(ctx, identifier)
	} else {
		tenant, err = r.store.TenantBySlug(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, identifier)
	}

	if !tenant.IsActive() {
		r.log.Warn("tenant not active",
			zap.String("tenant_id", tenant.ID),
			zap.String("status", tenant.Status))
		return nil, fmt.Errorf("%w: %s", ErrTenantInactive, tenant.ID)
	}

	if err := r.store.TouchLastActive(ctx, tenant.ID); err != nil {
		// Activity stamping is diagnostic only, never a reason to fail the
		// request.
		r.log.Warn("failed to update tenant last active time",
			zap.String("tenant_id", tenant.ID), zap.Error(err))
	}

	return tenant, nil
}
