package model

import "time"

// Platform roles. Platform admins operate across tenants; super_admin
// bypasses every tenant-level check.
const (
	PlatformRoleSuperAdmin = "super_admin"
	PlatformRoleOps        = "ops"
	PlatformRoleSupport    = "support"
	PlatformRoleAuditor    = "auditor"
)

// PlatformAdmin maps a user to a platform-wide role, independent of any
// tenant membership.
type PlatformAdmin struct {
	UserID uint   `json:"user_id" gorm:"primaryKey"`
	Role   string `json:"role" gorm:"type:varchar(20);not null;default:'support'"`

	// Scope optionally restricts the admin to specific tenants (JSON array).
	Scope string `json:"scope,omitempty" gorm:"type:text"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}
