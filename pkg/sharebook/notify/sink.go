// Package notify is the best-effort notification side channel. The engine
// calls the sink after its transaction commits; a failed write is logged and
// swallowed, never surfaced to the request that triggered it.
package notify

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
)

// Event is a notification payload destined for a tenant's host user
type Event struct {
	TenantID uint
	UserID   uint
	Type     models.NotificationType
	Title    string
	Body     string
}

// Sink receives lifecycle events. Implementations make at most one delivery
// attempt and must not propagate failures to callers.
type Sink interface {
	Notify(event Event)
}

// DBSink persists notifications as rows for later polling
type DBSink struct {
	db *gorm.DB
}

// NewDBSink creates a notification sink backed by the database
func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db}
}

// Notify writes one notification row. Errors are logged and dropped.
func (s *DBSink) Notify(event Event) {
	n := models.Notification{
		TenantID: event.TenantID,
		UserID:   event.UserID,
		Type:     event.Type,
		Title:    event.Title,
		Body:     event.Body,
	}
	if err := s.db.Create(&n).Error; err != nil {
		zap.L().Warn("notification write failed",
			zap.Uint("tenant_id", event.TenantID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
