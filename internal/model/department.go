package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department is a hierarchical grouping of members inside a tenant. It is
// only used as a grantee kind for permission grants, never as a resource.
type Department struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID string `json:"tenant_id" gorm:"type:uuid;not null;index"`

	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`

	ParentID *string `json:"parent_id,omitempty" gorm:"type:uuid"`
	// Path is the materialized path from the root department, Level its depth.
	Path  string `json:"path" gorm:"type:varchar(1000);not null;index"`
	Level int    `json:"level" gorm:"not null;default:0"`

	ManagerID *uint `json:"manager_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
