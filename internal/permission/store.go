package permission

import (
	"context"

	"permission-service/internal/model"
)

// ResourceRef identifies a typed resource inside a tenant.
type ResourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Grantee is the target of a permission grant: a user, a role or a
// department. Kind selects which of the three it is.
type Grantee struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Matches reports whether the stored grant row targets this grantee.
func (g Grantee) Matches(p *model.ResourcePermission) bool {
	return p.GranteeType == g.Kind && p.GranteeID == g.ID
}

// Store is the read contract the resolver depends on. Implementations must
// not filter expired grants; expiry is evaluated by the resolver.
type Store interface {
	// IsPlatformAdmin reports whether the user is registered as a platform
	// admin of any platform role.
	IsPlatformAdmin(ctx context.Context, userID uint) (bool, error)

	// Membership returns the user's active membership in the tenant with its
	// role preloaded, or nil when no active membership exists.
	Membership(ctx context.Context, tenantID string, userID uint) (*model.TenantMembership, error)

	// GrantsFor returns the grants attached directly to the exact resource
	// whose grantee matches any element of grantees.
	GrantsFor(ctx context.Context, tenantID string, resource ResourceRef, grantees []Grantee) ([]model.ResourcePermission, error)

	// ParentOf returns the immediate parent of the resource, or nil at the
	// root. Unknown resources are reported as having no parent.
	ParentOf(ctx context.Context, tenantID string, resource ResourceRef) (*ResourceRef, error)
}

// GrantStore is the write contract the grant manager depends on.
type GrantStore interface {
	// Upsert atomically creates the grant or overwrites bitmask, provenance
	// and expiry of the existing row with the same
	// (tenant, resource type, resource id, grantee type, grantee id) key.
	Upsert(ctx context.Context, grant *model.ResourcePermission) error

	// Delete removes at most one grant matching the key and reports whether
	// a row was deleted.
	Delete(ctx context.Context, tenantID string, resource ResourceRef, grantee Grantee) (bool, error)

	// ListForResource returns every grant attached directly to the exact
	// resource, in no particular order.
	ListForResource(ctx context.Context, tenantID string, resource ResourceRef) ([]model.ResourcePermission, error)
}
