package sharegroups

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
	"github.com/prasertk/sharebook/pkg/sharebook/rounds"
)

// Handler handles share group requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new share groups handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// TemplateInput is one recurring deduction attached at creation
type TemplateInput struct {
	Name   string `json:"name" binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// SlotInput is one payee slot attached at creation
type SlotInput struct {
	MemberID      uint   `json:"member_id" binding:"required"`
	Nickname      string `json:"nickname"`
	PaymentAmount int64  `json:"payment_amount"`
}

// CreateGroupRequest creates a circle with its templates, slots and schedule
type CreateGroupRequest struct {
	Name                string          `json:"name" binding:"required"`
	Type                string          `json:"type" binding:"required,oneof=STEP_INTEREST FIXED_INTEREST BID_INTEREST BID_PRINCIPAL BID_PRINCIPAL_FIRST"`
	MaxMembers          int             `json:"max_members" binding:"required,min=2"`
	PrincipalAmount     int64           `json:"principal_amount" binding:"required,gt=0"`
	ManagementFee       int64           `json:"management_fee"`
	InterestRate        float64         `json:"interest_rate"`
	CycleType           string          `json:"cycle_type" binding:"required,oneof=DAILY WEEKLY MONTHLY"`
	CycleDays           int             `json:"cycle_days"`
	StartDate           time.Time       `json:"start_date" binding:"required"`
	TailDeductionRounds int             `json:"tail_deduction_rounds"`
	HostNickname        string          `json:"host_nickname"`
	Draft               bool            `json:"draft"` // keep as DRAFT without a schedule
	Templates           []TemplateInput `json:"templates"`
	Members             []SlotInput     `json:"members"`
}

// UpdateGroupRequest edits group configuration. Structural fields are only
// honored while the group is still DRAFT.
type UpdateGroupRequest struct {
	Name                *string    `json:"name"`
	Type                *string    `json:"type"`
	MaxMembers          *int       `json:"max_members"`
	PrincipalAmount     *int64     `json:"principal_amount"`
	ManagementFee       *int64     `json:"management_fee"`
	InterestRate        *float64   `json:"interest_rate"`
	CycleType           *string    `json:"cycle_type"`
	CycleDays           *int       `json:"cycle_days"`
	StartDate           *time.Time `json:"start_date"`
	TailDeductionRounds *int       `json:"tail_deduction_rounds"`
	Status              *string    `json:"status"`
}

// Create creates a group plus templates, member slots, the full round
// schedule and the host's round-1 assignment in one transaction.
// @Summary Create a share group
// @Tags share-groups
// @Accept json
// @Produce json
// @Param request body CreateGroupRequest true "Group configuration"
// @Success 201 {object} models.ShareGroup
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /share-groups [post]
func (h *Handler) Create(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	userID, _ := auth.GetUserID(c)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Members)+1 > req.MaxMembers {
		respond.Fail(c, http.StatusBadRequest, "Too many member slots for the group size")
		return
	}
	for _, m := range req.Members {
		if m.PaymentAmount < 0 {
			respond.Fail(c, http.StatusBadRequest, "Payment amount must not be negative")
			return
		}
		var member models.Member
		if err := h.db.Where("id = ? AND tenant_id = ?", m.MemberID, tenantID).First(&member).Error; err != nil {
			respond.Fail(c, http.StatusBadRequest, "Unknown member in slot list")
			return
		}
	}

	status := models.GroupStatusOpen
	if req.Draft {
		status = models.GroupStatusDraft
	}

	var group models.ShareGroup
	err := h.db.Transaction(func(tx *gorm.DB) error {
		group = models.ShareGroup{
			TenantID:            tenantID,
			HostUserID:          userID,
			Name:                req.Name,
			Type:                models.GroupType(req.Type),
			MaxMembers:          req.MaxMembers,
			PrincipalAmount:     req.PrincipalAmount,
			ManagementFee:       req.ManagementFee,
			InterestRate:        req.InterestRate,
			CycleType:           models.CycleType(req.CycleType),
			CycleDays:           req.CycleDays,
			StartDate:           req.StartDate,
			TailDeductionRounds: req.TailDeductionRounds,
			Status:              status,
		}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		for _, t := range req.Templates {
			template := models.GroupDeductionTemplate{GroupID: group.ID, Name: t.Name, Amount: t.Amount}
			if err := tx.Create(&template).Error; err != nil {
				return err
			}
		}

		hostSlot := models.NewHostSlot(group.ID, userID)
		hostSlot.Nickname = req.HostNickname
		if err := tx.Create(&hostSlot).Error; err != nil {
			return err
		}

		for _, m := range req.Members {
			slot := models.NewPayeeSlot(group.ID, m.MemberID)
			slot.Nickname = m.Nickname
			slot.PaymentAmount = m.PaymentAmount
			if err := tx.Create(&slot).Error; err != nil {
				return err
			}
		}

		if req.Draft {
			return nil
		}
		_, err := rounds.GenerateSchedule(tx, &group, hostSlot.ID, nil)
		return err
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	if err := h.db.Preload("Templates").Preload("Members").Preload("Rounds").
		First(&group, group.ID).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to load group")
		return
	}
	respond.Created(c, group)
}

// List returns the tenant's groups, optionally filtered by status
// @Summary List share groups
// @Tags share-groups
// @Produce json
// @Success 200 {array} models.ShareGroup
// @Security BearerAuth
// @Router /share-groups [get]
func (h *Handler) List(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)

	q := h.db.Where("tenant_id = ?", tenantID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var groups []models.ShareGroup
	if err := q.Order("created_at DESC").Find(&groups).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch groups")
		return
	}

	respond.OK(c, groups)
}

// Get returns one group with templates, slots and rounds
// @Summary Get a share group
// @Tags share-groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} models.ShareGroup
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /share-groups/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var group models.ShareGroup
	if err := h.db.Preload("Templates").
		Preload("Members").Preload("Members.User").Preload("Members.Member").
		Preload("Rounds", func(db *gorm.DB) *gorm.DB { return db.Order("round_number") }).
		Where("id = ? AND tenant_id = ?", groupID, tenantID).
		First(&group).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Group not found")
		return
	}

	respond.OK(c, group)
}

// Update edits group configuration. Structural fields (type, size,
// principal, cycle, start date) are immutable once the group leaves DRAFT;
// COMPLETED is derived by the engine and cannot be set by a client.
// @Summary Update a share group
// @Tags share-groups
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} models.ShareGroup
// @Failure 400 {object} map[string]string "Structural edit after DRAFT"
// @Security BearerAuth
// @Router /share-groups/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var group models.ShareGroup
	if err := h.db.Where("id = ? AND tenant_id = ?", groupID, tenantID).First(&group).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Group not found")
		return
	}

	structural := req.Type != nil || req.MaxMembers != nil || req.PrincipalAmount != nil ||
		req.CycleType != nil || req.CycleDays != nil || req.StartDate != nil
	if structural && group.Status != models.GroupStatusDraft {
		respond.Fail(c, http.StatusBadRequest, "Structural fields can only be edited while the group is a draft")
		return
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Type != nil {
		group.Type = models.GroupType(*req.Type)
	}
	if req.MaxMembers != nil {
		if *req.MaxMembers < 2 {
			respond.Fail(c, http.StatusBadRequest, "Group needs at least two slots")
			return
		}
		group.MaxMembers = *req.MaxMembers
	}
	if req.PrincipalAmount != nil {
		if *req.PrincipalAmount <= 0 {
			respond.Fail(c, http.StatusBadRequest, "Principal must be positive")
			return
		}
		group.PrincipalAmount = *req.PrincipalAmount
	}
	if req.ManagementFee != nil {
		group.ManagementFee = *req.ManagementFee
	}
	if req.InterestRate != nil {
		group.InterestRate = *req.InterestRate
	}
	if req.CycleType != nil {
		group.CycleType = models.CycleType(*req.CycleType)
	}
	if req.CycleDays != nil {
		group.CycleDays = *req.CycleDays
	}
	if req.StartDate != nil {
		group.StartDate = *req.StartDate
	}
	if req.TailDeductionRounds != nil {
		group.TailDeductionRounds = *req.TailDeductionRounds
	}
	if req.Status != nil {
		next := models.GroupStatus(*req.Status)
		if next == models.GroupStatusCompleted {
			respond.Fail(c, http.StatusBadRequest, "Completion is derived from round resolution")
			return
		}
		switch next {
		case models.GroupStatusDraft, models.GroupStatusOpen, models.GroupStatusInProgress, models.GroupStatusCancelled:
			group.Status = next
		default:
			respond.Fail(c, http.StatusBadRequest, "Invalid group status")
			return
		}
	}

	if err := h.db.Save(&group).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to update group")
		return
	}

	respond.OK(c, group)
}

// Delete cancels a group. Completed groups stay on record.
// @Summary Cancel a share group
// @Tags share-groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} map[string]string "Group cancelled"
// @Security BearerAuth
// @Router /share-groups/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var group models.ShareGroup
	if err := h.db.Where("id = ? AND tenant_id = ?", groupID, tenantID).First(&group).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Group not found")
		return
	}

	if group.Status == models.GroupStatusCompleted {
		respond.Fail(c, http.StatusBadRequest, "Completed groups cannot be cancelled")
		return
	}

	if err := h.db.Model(&group).Update("status", models.GroupStatusCancelled).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to cancel group")
		return
	}

	respond.OKMessage(c, nil, "Group cancelled")
}

// RegisterRoutes registers share group routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
