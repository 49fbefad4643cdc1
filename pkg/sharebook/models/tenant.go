package models

import (
	"time"

	"gorm.io/gorm"
)

// TenantStatus represents a tenant's lifecycle state
type TenantStatus string

const (
	TenantStatusPending   TenantStatus = "PENDING"
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
	TenantStatusCancelled TenantStatus = "CANCELLED" // terminal
)

// Tenant represents one organization running its own share circles.
// Every other entity belongs to exactly one tenant; no cross-tenant
// visibility is ever permitted.
type Tenant struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"` // URL-safe identifier, unique across all tenants
	Status    TenantStatus   `gorm:"type:varchar(20);default:'PENDING'" json:"status"`

	// Relationships
	Users   []User       `gorm:"foreignKey:TenantID" json:"users,omitempty"`
	Members []Member     `gorm:"foreignKey:TenantID" json:"members,omitempty"`
	Groups  []ShareGroup `gorm:"foreignKey:TenantID" json:"groups,omitempty"`
}

// CanTransitionTo reports whether the tenant may move to the given status.
// CANCELLED is terminal; PENDING can only activate or cancel.
func (t *Tenant) CanTransitionTo(next TenantStatus) bool {
	if t.Status == TenantStatusCancelled {
		return false
	}
	switch next {
	case TenantStatusActive:
		return t.Status == TenantStatusPending || t.Status == TenantStatusSuspended
	case TenantStatusSuspended:
		return t.Status == TenantStatusActive
	case TenantStatusCancelled:
		return true
	}
	return false
}
