package sharegroups

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// AddSlotRequest adds a payee slot to a group
type AddSlotRequest struct {
	MemberID      uint   `json:"member_id" binding:"required"`
	Nickname      string `json:"nickname"`
	PaymentAmount int64  `json:"payment_amount"`
}

// UpdateSlotRequest edits a slot's nickname or contribution
type UpdateSlotRequest struct {
	Nickname      *string `json:"nickname"`
	PaymentAmount *int64  `json:"payment_amount"`
}

// ListSlots returns all payout slots of a group
func (h *Handler) ListSlots(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	group, ok := h.tenantGroup(c, tenantID)
	if !ok {
		return
	}

	var slots []models.GroupMember
	if err := h.db.Preload("User").Preload("Member").
		Where("group_id = ?", group.ID).Order("id").
		Find(&slots).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch slots")
		return
	}

	respond.OK(c, slots)
}

// AddSlot adds a payee slot while the roster is still editable
func (h *Handler) AddSlot(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	group, ok := h.tenantGroup(c, tenantID)
	if !ok {
		return
	}

	if group.Status != models.GroupStatusDraft && group.Status != models.GroupStatusOpen {
		respond.Fail(c, http.StatusBadRequest, "Roster is locked once the group is in progress")
		return
	}

	var req AddSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.PaymentAmount < 0 {
		respond.Fail(c, http.StatusBadRequest, "Payment amount must not be negative")
		return
	}

	var member models.Member
	if err := h.db.Where("id = ? AND tenant_id = ?", req.MemberID, tenantID).First(&member).Error; err != nil {
		respond.Fail(c, http.StatusBadRequest, "Unknown member")
		return
	}

	var count int64
	h.db.Model(&models.GroupMember{}).Where("group_id = ?", group.ID).Count(&count)
	if int(count) >= group.MaxMembers {
		respond.Fail(c, http.StatusBadRequest, "Group is full")
		return
	}

	var existing models.GroupMember
	if err := h.db.Where("group_id = ? AND member_id = ?", group.ID, req.MemberID).First(&existing).Error; err == nil {
		respond.Fail(c, http.StatusBadRequest, "Member already has a slot in this group")
		return
	}

	slot := models.NewPayeeSlot(group.ID, req.MemberID)
	slot.Nickname = req.Nickname
	slot.PaymentAmount = req.PaymentAmount
	if err := h.db.Create(&slot).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to add slot")
		return
	}

	respond.Created(c, slot)
}

// UpdateSlot edits a slot's nickname or per-round contribution
func (h *Handler) UpdateSlot(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	group, ok := h.tenantGroup(c, tenantID)
	if !ok {
		return
	}
	slotID, err := strconv.ParseUint(c.Param("slotId"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid slot ID")
		return
	}

	var req UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var slot models.GroupMember
	if err := h.db.Where("id = ? AND group_id = ?", slotID, group.ID).First(&slot).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Slot not found")
		return
	}

	if req.Nickname != nil {
		slot.Nickname = *req.Nickname
	}
	if req.PaymentAmount != nil {
		if *req.PaymentAmount < 0 {
			respond.Fail(c, http.StatusBadRequest, "Payment amount must not be negative")
			return
		}
		slot.PaymentAmount = *req.PaymentAmount
	}

	if err := h.db.Save(&slot).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to update slot")
		return
	}

	respond.OK(c, slot)
}

// RemoveSlot removes a payee slot that has not won and is not round 1's host
func (h *Handler) RemoveSlot(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	group, ok := h.tenantGroup(c, tenantID)
	if !ok {
		return
	}
	slotID, err := strconv.ParseUint(c.Param("slotId"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid slot ID")
		return
	}

	var slot models.GroupMember
	if err := h.db.Where("id = ? AND group_id = ?", slotID, group.ID).First(&slot).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Slot not found")
		return
	}

	if slot.IsHost() {
		respond.Fail(c, http.StatusBadRequest, "The host slot cannot be removed")
		return
	}

	var wins int64
	h.db.Model(&models.Round{}).Where("group_id = ? AND winner_id = ?", group.ID, slot.ID).Count(&wins)
	if wins > 0 {
		respond.Fail(c, http.StatusBadRequest, "Slot has already won a round")
		return
	}

	if err := h.db.Delete(&slot).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to remove slot")
		return
	}

	respond.OKMessage(c, nil, "Slot removed")
}

// tenantGroup resolves the :id param to a group in the caller's tenant
func (h *Handler) tenantGroup(c *gin.Context, tenantID uint) (*models.ShareGroup, bool) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid group ID")
		return nil, false
	}

	var group models.ShareGroup
	if err := h.db.Where("id = ? AND tenant_id = ?", groupID, tenantID).First(&group).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Group not found")
		return nil, false
	}
	return &group, true
}

// RegisterSlotRoutes registers slot management routes
func (h *Handler) RegisterSlotRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/members", h.ListSlots)
	rg.POST("/:id/members", h.AddSlot)
	rg.PUT("/:id/members/:slotId", h.UpdateSlot)
	rg.DELETE("/:id/members/:slotId", h.RemoveSlot)
}
