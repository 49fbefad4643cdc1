package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType classifies lifecycle events surfaced to a tenant's host
type NotificationType string

const (
	NotificationWinnerRecorded NotificationType = "WINNER_RECORDED"
	NotificationGroupCompleted NotificationType = "GROUP_COMPLETED"
	NotificationRoundDue       NotificationType = "ROUND_DUE"
)

// Notification is a fire-and-forget record informing a tenant's host user of
// round/group lifecycle events. Delivery is best-effort: writing one must
// never fail the business operation that triggered it.
type Notification struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
	TenantID  uint             `gorm:"not null;index" json:"tenant_id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Body      string           `json:"body,omitempty"`
	Read      bool             `gorm:"default:false" json:"read"`
}
