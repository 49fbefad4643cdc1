package models

import (
	"time"

	"gorm.io/gorm"
)

// Member represents a cataloged payee (ลูกแชร์) who is not a login principal.
// Members are identified per tenant by a generated code (A001..A999, B001..);
// the sequence always derives from the highest existing code and never reuses
// a retired one.
type Member struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	TenantID   uint           `gorm:"not null;uniqueIndex:idx_tenant_member_code" json:"tenant_id"`
	MemberCode string         `gorm:"not null;uniqueIndex:idx_tenant_member_code" json:"member_code"`
	Nickname   string         `gorm:"not null" json:"nickname"`
	Phone      string         `json:"phone,omitempty"`
	LineID     string         `json:"line_id,omitempty"`
	Address    string         `json:"address,omitempty"`

	// Relationships
	Tenant Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}
