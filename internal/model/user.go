package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database. Tenant affiliation
// lives in TenantMembership; DefaultTenantID only picks the tenant used when
// a login request does not name one.
type User struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Email           string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password        string         `json:"-" gorm:"type:varchar(255)"`
	DisplayName     string         `json:"display_name" gorm:"type:varchar(100)"`
	DefaultTenantID *string        `json:"default_tenant_id,omitempty" gorm:"type:uuid"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
