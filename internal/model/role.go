package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantAdminRoleName is treated specially by the permission resolver: a
// member holding this role bypasses all resource-level checks inside its own
// tenant.
const TenantAdminRoleName = "tenant_admin"

// TenantRole defines a named role inside a tenant. Role names are unique per
// tenant. System roles are seeded at tenant creation and cannot be deleted.
type TenantRole struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID string `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_tenant_role_name,priority:1"`

	Name        string `json:"name" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_role_name,priority:2"`
	DisplayName string `json:"display_name" gorm:"type:varchar(100);not null"`
	Description string `json:"description" gorm:"type:text"`

	// Level orders roles within a tenant; higher means more authority.
	Level int `json:"level" gorm:"not null;default:0"`

	// Permissions is the default capability bitmask applied when no resource
	// grant matches during resolution.
	Permissions int `json:"permissions" gorm:"not null;default:33"`

	IsSystem  bool `json:"is_system" gorm:"not null;default:false"`
	IsDefault bool `json:"is_default" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *TenantRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
