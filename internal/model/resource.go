package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Folder is a node in the resource hierarchy. A folder without a parent sits
// directly under the tenant workspace.
type Folder struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID string `json:"tenant_id" gorm:"type:uuid;not null;index"`

	Name     string  `json:"name" gorm:"type:varchar(255);not null"`
	ParentID *string `json:"parent_id,omitempty" gorm:"type:uuid;index"`

	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// Document is a leaf of the resource hierarchy. Ingestion, parsing and search
// are handled by external services; this service only needs identity and the
// containing folder.
type Document struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID string `json:"tenant_id" gorm:"type:uuid;not null;index"`

	Title    string  `json:"title" gorm:"type:varchar(500);not null"`
	FolderID *string `json:"folder_id,omitempty" gorm:"type:uuid;index"`

	SizeBytes int64     `json:"size_bytes" gorm:"not null;default:0"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
