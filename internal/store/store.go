// Package store provides the gorm-backed implementation of the data-access
// contracts consumed by the permission resolver, the grant manager and the
// tenant resolver.
package store

import (
	"context"
	"errors"
	"time"

	"permission-service/internal/model"
	"permission-service/internal/permission"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm handle. All methods scope their queries by tenant where
// the schema partitions by tenant.
type Store struct {
	db *gorm.DB
}

// New creates a store over the given database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// IsPlatformAdmin reports whether the user appears in the platform admin
// registry, regardless of platform role.
func (s *Store) IsPlatformAdmin(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.PlatformAdmin{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Membership returns the user's active membership in the tenant with role and
// department preloaded, or nil when none exists.
func (s *Store) Membership(ctx context.Context, tenantID string, userID uint) (*model.TenantMembership, error) {
	var membership model.TenantMembership
	err := s.db.WithContext(ctx).
		Preload("Role").
		Preload("Department").
		Where("tenant_id = ? AND user_id = ? AND status = ?", tenantID, userID, model.MembershipStatusActive).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// GrantsFor returns grants attached directly to the exact resource whose
// grantee matches any of the given grantees. Expired rows are returned as-is;
// the resolver evaluates expiry.
func (s *Store) GrantsFor(ctx context.Context, tenantID string, resource permission.ResourceRef, grantees []permission.Grantee) ([]model.ResourcePermission, error) {
	if len(grantees) == 0 {
		return nil, nil
	}

	granteeCond := s.db.Where("grantee_type = ? AND grantee_id = ?", grantees[0].Kind, grantees[0].ID)
	for _, g := range grantees[1:] {
		granteeCond = granteeCond.Or("grantee_type = ? AND grantee_id = ?", g.Kind, g.ID)
	}

	var grants []model.ResourcePermission
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND resource_type = ? AND resource_id = ?", tenantID, resource.Type, resource.ID).
		Where(granteeCond).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// ParentOf resolves the immediate parent of a resource: document to its
// folder, folder to its parent folder, nil at the root. Unknown resources are
// treated as having no parent rather than as errors.
func (s *Store) ParentOf(ctx context.Context, tenantID string, resource permission.ResourceRef) (*permission.ResourceRef, error) {
	switch resource.Type {
	case model.ResourceTypeDocument:
		var doc model.Document
		err := s.db.WithContext(ctx).
			Select("folder_id").
			Where("tenant_id = ? AND id = ?", tenantID, resource.ID).
			First(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if doc.FolderID == nil {
			return nil, nil
		}
		return &permission.ResourceRef{Type: model.ResourceTypeFolder, ID: *doc.FolderID}, nil

	case model.ResourceTypeFolder:
		var folder model.Folder
		err := s.db.WithContext(ctx).
			Select("parent_id").
			Where("tenant_id = ? AND id = ?", tenantID, resource.ID).
			First(&folder).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if folder.ParentID == nil {
			return nil, nil
		}
		return &permission.ResourceRef{Type: model.ResourceTypeFolder, ID: *folder.ParentID}, nil
	}

	// Workspaces are the root of the hierarchy.
	return nil, nil
}

// Upsert writes a grant, overwriting bitmask, provenance and expiry of an
// existing row with the same (tenant, resource, grantee) key. The conflict
// target is the unique index on that key, so the operation is a single atomic
// statement. The struct is re-read afterwards so it carries the stored row.
func (s *Store) Upsert(ctx context.Context, grant *model.ResourcePermission) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "resource_type"},
			{Name: "resource_id"},
			{Name: "grantee_type"},
			{Name: "grantee_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"permission", "granted_by", "granted_at", "expires_at", "updated_at",
		}),
	}).Create(grant).Error
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).
		Where("tenant_id = ? AND resource_type = ? AND resource_id = ? AND grantee_type = ? AND grantee_id = ?",
			grant.TenantID, grant.ResourceType, grant.ResourceID, grant.GranteeType, grant.GranteeID).
		First(grant).Error
}

// Delete removes the grant matching the key, reporting whether a row existed.
func (s *Store) Delete(ctx context.Context, tenantID string, resource permission.ResourceRef, grantee permission.Grantee) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND resource_type = ? AND resource_id = ? AND grantee_type = ? AND grantee_id = ?",
			tenantID, resource.Type, resource.ID, grantee.Kind, grantee.ID).
		Delete(&model.ResourcePermission{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListForResource returns every grant attached directly to the resource.
func (s *Store) ListForResource(ctx context.Context, tenantID string, resource permission.ResourceRef) ([]model.ResourcePermission, error) {
	var grants []model.ResourcePermission
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND resource_type = ? AND resource_id = ?", tenantID, resource.Type, resource.ID).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// TenantByID looks a tenant up by primary key; nil when absent.
func (s *Store) TenantByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// TenantBySlug looks a tenant up by its sub-domain slug; nil when absent.
func (s *Store) TenantBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// TouchLastActive stamps the tenant's last-active time.
func (s *Store) TouchLastActive(ctx context.Context, tenantID string) error {
	return s.db.WithContext(ctx).
		Model(&model.Tenant{}).
		Where("id = ?", tenantID).
		Update("last_active_at", time.Now().UTC()).Error
}
