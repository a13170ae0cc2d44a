package permission

import (
	"context"
	"time"

	"permission-service/internal/model"

	"go.uber.org/zap"
)

// Manager performs grant and revoke operations over the grant store. Both are
// idempotent on the (tenant, resource, grantee) key; uniqueness is enforced
// by the store's atomic upsert, not by application locking.
type Manager struct {
	store GrantStore
	log   *zap.Logger
}

// NewManager creates a grant manager over the given store.
func NewManager(store GrantStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, log: log}
}

// Grant upserts a permission grant. An existing grant for the same key has
// its bitmask, provenance and expiry overwritten in place.
func (m *Manager) Grant(ctx context.Context, tenantID string, resource ResourceRef, grantee Grantee, mask Bitmask, grantedBy uint, expiresAt *time.Time) (*model.ResourcePermission, error) {
	grant := &model.ResourcePermission{
		TenantID:     tenantID,
		ResourceType: resource.Type,
		ResourceID:   resource.ID,
		GranteeType:  grantee.Kind,
		GranteeID:    grantee.ID,
		Permission:   int(mask),
		Inherit:      true,
		GrantedBy:    &grantedBy,
		GrantedAt:    time.Now().UTC(),
		ExpiresAt:    expiresAt,
	}
	if err := m.store.Upsert(ctx, grant); err != nil {
		return nil, err
	}

	m.log.Info("permission granted",
		zap.String("tenant_id", tenantID),
		zap.String("resource_type", resource.Type),
		zap.String("resource_id", resource.ID),
		zap.String("grantee_type", grantee.Kind),
		zap.String("grantee_id", grantee.ID),
		zap.String("permission", mask.String()),
		zap.Uint("granted_by", grantedBy))
	return grant, nil
}

// Revoke deletes the grant matching the key and reports whether one existed.
func (m *Manager) Revoke(ctx context.Context, tenantID string, resource ResourceRef, grantee Grantee) (bool, error) {
	deleted, err := m.store.Delete(ctx, tenantID, resource, grantee)
	if err != nil {
		return false, err
	}
	if deleted {
		m.log.Info("permission revoked",
			zap.String("tenant_id", tenantID),
			zap.String("resource_type", resource.Type),
			zap.String("resource_id", resource.ID),
			zap.String("grantee_type", grantee.Kind),
			zap.String("grantee_id", grantee.ID))
	}
	return deleted, nil
}

// ListForResource returns the grants attached directly to the exact resource.
// No inheritance walk is performed.
func (m *Manager) ListForResource(ctx context.Context, tenantID string, resource ResourceRef) ([]model.ResourcePermission, error) {
	return m.store.ListForResource(ctx, tenantID, resource)
}
