package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant statuses. A tenant is only usable while active or inside its trial
// window; suspended and archived tenants keep their data but reject requests.
const (
	TenantStatusActive    = "active"
	TenantStatusTrial     = "trial"
	TenantStatusSuspended = "suspended"
	TenantStatusArchived  = "archived"
)

// Tenant represents the top-level isolation unit. Every membership, role,
// department, resource and grant is partitioned by tenant ID.
type Tenant struct {
	ID          string `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Slug        string `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`

	Status      string     `json:"status" gorm:"type:varchar(20);not null;default:'trial'"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`

	// Resource quotas and current usage counters.
	StorageQuotaBytes int64 `json:"storage_quota_bytes" gorm:"not null;default:10737418240"`
	StorageUsedBytes  int64 `json:"storage_used_bytes" gorm:"not null;default:0"`
	UserQuota         int   `json:"user_quota" gorm:"not null;default:10"`
	UserCount         int   `json:"user_count" gorm:"not null;default:0"`
	DocumentQuota     int   `json:"document_quota" gorm:"not null;default:1000"`
	DocumentCount     int   `json:"document_count" gorm:"not null;default:0"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsActive reports whether the tenant may serve requests: status must be
// active or trial, the subscription must not be past its expiry, and a trial
// tenant must still be inside its trial window.
func (t *Tenant) IsActive() bool {
	if t.Status != TenantStatusActive && t.Status != TenantStatusTrial {
		return false
	}
	now := time.Now().UTC()
	if t.ExpiresAt != nil && t.ExpiresAt.Before(now) {
		return false
	}
	if t.Status == TenantStatusTrial && t.TrialEndsAt != nil && t.TrialEndsAt.Before(now) {
		return false
	}
	return true
}

// IsQuotaExceeded checks a usage counter against its quota.
func (t *Tenant) IsQuotaExceeded(quota string) bool {
	switch quota {
	case "storage":
		return t.StorageUsedBytes >= t.StorageQuotaBytes
	case "user":
		return t.UserCount >= t.UserQuota
	case "document":
		return t.DocumentCount >= t.DocumentQuota
	}
	return false
}
