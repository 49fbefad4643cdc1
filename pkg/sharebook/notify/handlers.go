package notify

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// Handler serves the notification inbox and the operator-triggered due check
type Handler struct {
	db   *gorm.DB
	sink Sink
}

// NewHandler creates a new notifications handler
func NewHandler(db *gorm.DB, sink Sink) *Handler {
	return &Handler{db: db, sink: sink}
}

// List returns the caller's notifications, newest first
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	tenantID, _ := auth.GetTenantID(c)

	var notifications []models.Notification
	if err := h.db.Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC").Limit(100).
		Find(&notifications).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}

	respond.OK(c, notifications)
}

// MarkRead marks one notification as read
func (h *Handler) MarkRead(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	tenantID, _ := auth.GetTenantID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	res := h.db.Model(&models.Notification{}).
		Where("id = ? AND tenant_id = ? AND user_id = ?", id, tenantID, userID).
		Update("read", true)
	if res.Error != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	if res.RowsAffected == 0 {
		respond.Fail(c, http.StatusNotFound, "Notification not found")
		return
	}

	respond.OKMessage(c, nil, "Notification marked as read")
}

// Check scans for pending rounds due within the window (default 3 days) and
// emits a reminder per round to the group's host. Triggered by an operator,
// not an internal timer.
func (h *Handler) Check(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)

	days := 3
	if v := c.Query("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}
	cutoff := time.Now().AddDate(0, 0, days)

	var groupIDs []uint
	if err := h.db.Model(&models.ShareGroup{}).
		Where("tenant_id = ?", tenantID).
		Pluck("id", &groupIDs).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to check rounds")
		return
	}

	var due []models.Round
	if len(groupIDs) > 0 {
		if err := h.db.Preload("Group").
			Where("group_id IN ? AND status = ? AND due_date <= ?", groupIDs, models.RoundStatusPending, cutoff).
			Find(&due).Error; err != nil {
			respond.Fail(c, http.StatusInternalServerError, "Failed to check rounds")
			return
		}
	}

	for _, r := range due {
		h.sink.Notify(Event{
			TenantID: tenantID,
			UserID:   r.Group.HostUserID,
			Type:     models.NotificationRoundDue,
			Title:    fmt.Sprintf("Round %d of %s is due", r.RoundNumber, r.Group.Name),
			Body:     fmt.Sprintf("Due date: %s", r.DueDate.Format("2006-01-02")),
		})
	}

	respond.OKMessage(c, gin.H{"rounds_due": len(due)}, "Due-round check completed")
}

// RegisterRoutes registers notification routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PUT("/:id/read", h.MarkRead)
	rg.POST("/check", h.Check)
}
