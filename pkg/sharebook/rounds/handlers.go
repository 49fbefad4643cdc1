package rounds

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/notify"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// Handler handles round requests
type Handler struct {
	db   *gorm.DB
	sink notify.Sink
}

// NewHandler creates a new rounds handler
func NewHandler(db *gorm.DB, sink notify.Sink) *Handler {
	return &Handler{db: db, sink: sink}
}

// GenerateRequest optionally overrides computed due dates per round number
type GenerateRequest struct {
	CustomDates map[string]time.Time `json:"custom_dates"` // round number -> due date
}

// UpdateRoundRequest edits a round before completion
type UpdateRoundRequest struct {
	DueDate  *time.Time `json:"due_date"`
	WinnerID *uint      `json:"winner_id"`
	Interest *int64     `json:"interest"`
}

// WinnerRequest declares a round's winner
type WinnerRequest struct {
	GroupMemberID uint  `json:"group_member_id" binding:"required"`
	Interest      int64 `json:"interest"`
}

// RoundDetail is the round payload with derived fields
type RoundDetail struct {
	Round            models.Round         `json:"round"`
	AvailableMembers []models.GroupMember `json:"available_members"`
	TotalPool        int64                `json:"total_pool"`
	TemplateSum      int64                `json:"template_sum"`
	DeductionSum     int64                `json:"deduction_sum"`
	IsTailRound      bool                 `json:"is_tail_round"`
}

// findTenantRound loads a round with its group, reporting cross-tenant
// access identically to absence.
func (h *Handler) findTenantRound(tenantID uint, roundID uint) (*models.Round, error) {
	var round models.Round
	if err := h.db.Preload("Group").First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, respond.NotFound("Round not found")
		}
		return nil, err
	}
	if round.Group.TenantID != tenantID {
		return nil, respond.NotFound("Round not found")
	}
	return &round, nil
}

// Generate creates the round schedule for a group if not yet created
// @Summary Generate round schedule
// @Tags rounds
// @Accept json
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 201 {array} models.Round
// @Failure 400 {object} map[string]string "Already scheduled"
// @Security BearerAuth
// @Router /rounds/generate/{groupId} [post]
func (h *Handler) Generate(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	groupID, err := strconv.ParseUint(c.Param("groupId"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var req GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	overrides := make(map[int]time.Time, len(req.CustomDates))
	for k, v := range req.CustomDates {
		number, err := strconv.Atoi(k)
		if err != nil || number < 1 {
			respond.Fail(c, http.StatusBadRequest, "Invalid round number in custom dates")
			return
		}
		overrides[number] = v
	}

	var group models.ShareGroup
	if err := h.db.Where("id = ? AND tenant_id = ?", groupID, tenantID).First(&group).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Group not found")
		return
	}

	host, err := HostSlot(h.db, group.ID)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Group has no host slot")
		return
	}

	var created []models.Round
	err = h.db.Transaction(func(tx *gorm.DB) error {
		created, err = GenerateSchedule(tx, &group, host.ID, overrides)
		return err
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.Created(c, created)
}

// Get returns round detail including eligible members and computed totals
// @Summary Get round detail
// @Tags rounds
// @Produce json
// @Param id path int true "Round ID"
// @Success 200 {object} RoundDetail
// @Security BearerAuth
// @Router /rounds/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid round ID")
		return
	}

	round, err := h.findTenantRound(tenantID, uint(roundID))
	if err != nil {
		respond.Err(c, err)
		return
	}

	if err := h.db.Preload("Winner").Preload("Winner.User").Preload("Winner.Member").
		Preload("Deductions").First(round, round.ID).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to load round")
		return
	}
	// Preload above replaces the association loaded by findTenantRound
	if err := h.db.First(&round.Group, round.GroupID).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to load round")
		return
	}

	available, err := EligibleMembers(h.db, round)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to compute eligible members")
		return
	}

	var templateSum int64
	h.db.Model(&models.GroupDeductionTemplate{}).
		Where("group_id = ?", round.GroupID).
		Select("COALESCE(SUM(amount), 0)").Scan(&templateSum)

	var deductionSum int64
	h.db.Model(&models.Deduction{}).
		Where("round_id = ?", round.ID).
		Select("COALESCE(SUM(amount), 0)").Scan(&deductionSum)

	respond.OK(c, RoundDetail{
		Round:            *round,
		AvailableMembers: available,
		TotalPool:        round.Group.PrincipalAmount * int64(round.Group.MaxMembers),
		TemplateSum:      templateSum,
		DeductionSum:     deductionSum,
		IsTailRound:      round.Group.IsTailRound(round.RoundNumber),
	})
}

// Update edits due date, provisional winner, or declared interest while the
// round is still PENDING. Round 1's winner is fixed to the host.
// @Summary Update a round
// @Tags rounds
// @Accept json
// @Produce json
// @Param id path int true "Round ID"
// @Success 200 {object} models.Round
// @Failure 400 {object} map[string]string "Round already completed"
// @Security BearerAuth
// @Router /rounds/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid round ID")
		return
	}

	var req UpdateRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	round, err := h.findTenantRound(tenantID, uint(roundID))
	if err != nil {
		respond.Err(c, err)
		return
	}

	if round.Status != models.RoundStatusPending {
		respond.Fail(c, http.StatusBadRequest, "Completed rounds cannot be edited")
		return
	}

	updates := map[string]interface{}{}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Interest != nil {
		if *req.Interest < 0 {
			respond.Fail(c, http.StatusBadRequest, "Interest must not be negative")
			return
		}
		updates["winning_bid"] = *req.Interest
	}
	if req.WinnerID != nil {
		var candidate models.GroupMember
		if err := h.db.Where("id = ? AND group_id = ?", *req.WinnerID, round.GroupID).First(&candidate).Error; err != nil {
			respond.Fail(c, http.StatusBadRequest, "Candidate is not a member of this group")
			return
		}
		if round.RoundNumber == 1 && !candidate.IsHost() {
			respond.Fail(c, http.StatusBadRequest, "Round 1 winner must be the host")
			return
		}
		var priorWins int64
		h.db.Model(&models.Round{}).
			Where("group_id = ? AND id <> ? AND winner_id = ?", round.GroupID, round.ID, candidate.ID).
			Count(&priorWins)
		if priorWins > 0 {
			respond.Fail(c, http.StatusBadRequest, "Member has already won a round in this group")
			return
		}
		updates["winner_id"] = candidate.ID
	}

	if len(updates) > 0 {
		if err := h.db.Model(&models.Round{}).Where("id = ?", round.ID).Updates(updates).Error; err != nil {
			respond.Fail(c, http.StatusInternalServerError, "Failed to update round")
			return
		}
	}

	var updated models.Round
	if err := h.db.Preload("Winner").First(&updated, round.ID).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to load round")
		return
	}
	respond.OK(c, updated)
}

// Winner resolves a PENDING round: computes the payout, writes the deduction
// ledger and completes the round, all in one transaction.
// @Summary Record round winner
// @Tags rounds
// @Accept json
// @Produce json
// @Param id path int true "Round ID"
// @Param request body WinnerRequest true "Winner declaration"
// @Success 200 {object} WinnerResult
// @Failure 400 {object} map[string]string "Business-rule violation"
// @Security BearerAuth
// @Router /rounds/{id}/winner [post]
func (h *Handler) Winner(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid round ID")
		return
	}

	var req WinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := RecordWinner(h.db, tenantID, uint(roundID), req.GroupMemberID, req.Interest)
	if err != nil {
		respond.Err(c, err)
		return
	}

	// Post-commit side channel; failures are the sink's problem, not ours.
	group := result.Round.Group
	if group.ID == 0 {
		h.db.First(&group, result.Round.GroupID)
	}
	h.sink.Notify(notify.Event{
		TenantID: tenantID,
		UserID:   group.HostUserID,
		Type:     models.NotificationWinnerRecorded,
		Title:    fmt.Sprintf("Round %d winner recorded for %s", result.Round.RoundNumber, group.Name),
		Body:     fmt.Sprintf("Payout amount: %d", result.Round.PayoutAmount),
	})
	if result.GroupCompleted {
		h.sink.Notify(notify.Event{
			TenantID: tenantID,
			UserID:   group.HostUserID,
			Type:     models.NotificationGroupCompleted,
			Title:    fmt.Sprintf("Share group %s completed", group.Name),
		})
	}

	respond.OKMessage(c, result, "Winner recorded")
}

// ListForGroup returns all rounds of a group ordered by round number
// @Summary List rounds of a group
// @Tags rounds
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {array} models.Round
// @Security BearerAuth
// @Router /rounds/group/{groupId} [get]
func (h *Handler) ListForGroup(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	groupID, err := strconv.ParseUint(c.Param("groupId"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var group models.ShareGroup
	if err := h.db.Where("id = ? AND tenant_id = ?", groupID, tenantID).First(&group).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Group not found")
		return
	}

	var list []models.Round
	if err := h.db.Preload("Winner").Preload("Winner.User").Preload("Winner.Member").
		Where("group_id = ?", groupID).
		Order("round_number").
		Find(&list).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch rounds")
		return
	}

	respond.OK(c, list)
}

// RegisterRoutes registers round routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generate/:groupId", h.Generate)
	rg.GET("/group/:groupId", h.ListForGroup)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/winner", h.Winner)
}
