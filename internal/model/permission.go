package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource types. Documents live in folders, folders in parent folders or a
// workspace; the workspace is the root of the hierarchy walk.
const (
	ResourceTypeWorkspace = "workspace"
	ResourceTypeFolder    = "folder"
	ResourceTypeDocument  = "document"
)

// Grantee kinds a permission grant can target.
const (
	GranteeTypeUser       = "user"
	GranteeTypeRole       = "role"
	GranteeTypeDepartment = "department"
)

// ResourcePermission binds a grantee to a capability bitmask on one specific
// resource, optionally time-bounded. At most one row exists per
// (tenant, resource type, resource id, grantee type, grantee id).
type ResourcePermission struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID string `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_resource_grantee,priority:1;index:idx_resource_lookup,priority:1"`

	ResourceType string `json:"resource_type" gorm:"type:varchar(20);not null;uniqueIndex:idx_resource_grantee,priority:2;index:idx_resource_lookup,priority:2"`
	ResourceID   string `json:"resource_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_resource_grantee,priority:3;index:idx_resource_lookup,priority:3"`

	GranteeType string `json:"grantee_type" gorm:"type:varchar(20);not null;uniqueIndex:idx_resource_grantee,priority:4"`
	GranteeID   string `json:"grantee_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_resource_grantee,priority:5"`

	Permission int `json:"permission" gorm:"not null;default:33"`

	// Inherit is persisted for future use; the resolver does not consult it.
	Inherit bool `json:"inherit" gorm:"not null;default:true"`

	GrantedBy *uint     `json:"granted_by,omitempty"`
	GrantedAt time.Time `json:"granted_at"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *ResourcePermission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.GrantedAt.IsZero() {
		p.GrantedAt = time.Now().UTC()
	}
	return nil
}

// IsExpired reports whether the grant has an expiry in the past. Expiry is
// evaluated lazily at resolution time; expired rows are never swept.
func (p *ResourcePermission) IsExpired() bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(time.Now().UTC())
}
