package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// Handler serves the tenant overview aggregation
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new dashboard handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// Summary is the tenant overview payload
type Summary struct {
	GroupsByStatus map[string]int64 `json:"groups_by_status"`
	MemberCount    int64            `json:"member_count"`
	RoundsDueSoon  []models.Round   `json:"rounds_due_soon"`
	RecentWinners  []models.Round   `json:"recent_winners"`
}

// Get aggregates the tenant's current state in one payload
// @Summary Tenant dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} Summary
// @Security BearerAuth
// @Router /dashboard [get]
func (h *Handler) Get(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)

	summary := Summary{GroupsByStatus: map[string]int64{}}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := h.db.Model(&models.ShareGroup{}).
		Select("status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&counts).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to aggregate groups")
		return
	}
	for _, sc := range counts {
		summary.GroupsByStatus[sc.Status] = sc.Count
	}

	h.db.Model(&models.Member{}).Where("tenant_id = ?", tenantID).Count(&summary.MemberCount)

	var groupIDs []uint
	h.db.Model(&models.ShareGroup{}).Where("tenant_id = ?", tenantID).Pluck("id", &groupIDs)

	if len(groupIDs) > 0 {
		cutoff := time.Now().AddDate(0, 0, 7)
		h.db.Preload("Group").
			Where("group_id IN ? AND status = ? AND due_date <= ?", groupIDs, models.RoundStatusPending, cutoff).
			Order("due_date").Limit(10).
			Find(&summary.RoundsDueSoon)

		h.db.Preload("Group").Preload("Winner").Preload("Winner.User").Preload("Winner.Member").
			Where("group_id IN ? AND status = ?", groupIDs, models.RoundStatusCompleted).
			Order("updated_at DESC").Limit(10).
			Find(&summary.RecentWinners)
	}

	respond.OK(c, summary)
}

// RegisterRoutes registers dashboard routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
}
