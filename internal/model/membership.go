package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership statuses.
const (
	MembershipStatusActive   = "active"
	MembershipStatusDisabled = "disabled"
	MembershipStatusInvited  = "invited"
)

// TenantMembership links a user to a tenant with an optional role and
// department. At most one membership exists per (tenant, user) pair.
type TenantMembership struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID string `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_tenant_member,priority:1"`
	UserID   uint   `json:"user_id" gorm:"not null;uniqueIndex:idx_tenant_member,priority:2"`

	RoleID       *string `json:"role_id,omitempty" gorm:"type:uuid"`
	DepartmentID *string `json:"department_id,omitempty" gorm:"type:uuid"`

	Status string `json:"status" gorm:"type:varchar(20);not null;default:'active'"`

	InvitedBy *uint      `json:"invited_by,omitempty"`
	InvitedAt *time.Time `json:"invited_at,omitempty"`
	JoinedAt  time.Time  `json:"joined_at"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`

	// Relations
	Tenant     Tenant      `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	User       User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Role       *TenantRole `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	Department *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
}

func (m *TenantMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	return nil
}

// IsActive reports whether the membership grants access to the tenant.
func (m *TenantMembership) IsActive() bool {
	return m.Status == MembershipStatusActive
}
