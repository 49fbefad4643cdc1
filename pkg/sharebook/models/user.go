package models

import (
	"time"

	"gorm.io/gorm"
)

// Role represents a user's role within a tenant
type Role string

const (
	// RoleAdmin is the host/operator role; it can manage everything in-tenant.
	RoleAdmin Role = "ADMIN"
	// RoleUser is a login-capable but functionally inert role. Login is
	// rejected for this role; the accounts exist only as records.
	RoleUser Role = "USER"
	// RoleSuperAdmin is the platform operator, outside any tenant (TenantID 0).
	RoleSuperAdmin Role = "SUPERADMIN"
)

// User represents an authenticating principal within a tenant
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	TenantID     uint           `gorm:"index;uniqueIndex:idx_tenant_phone" json:"tenant_id"`
	Name         string         `gorm:"not null" json:"name"`
	Phone        string         `gorm:"not null;uniqueIndex:idx_tenant_phone" json:"phone"` // unique per tenant
	Email        string         `gorm:"index" json:"email,omitempty"` // globally unique if present, checked on write
	PasswordHash string         `json:"-"`
	Role         Role           `gorm:"type:varchar(20);default:'USER'" json:"role"`

	// Relationships
	Tenant Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}
