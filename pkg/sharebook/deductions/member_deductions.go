package deductions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// MemberDeductionInput is one per-payee adjustment entry. A zero or negative
// amount deletes any existing row for that (round, slot) key.
type MemberDeductionInput struct {
	GroupMemberID uint   `json:"group_member_id" binding:"required"`
	Amount        int64  `json:"amount"`
	Note          string `json:"note"`
}

// UpsertMemberDeductionsRequest is a batch of per-payee adjustments
type UpsertMemberDeductionsRequest struct {
	Entries []MemberDeductionInput `json:"entries" binding:"required"`
}

// ListMemberDeductions returns the round's per-payee adjustment ledger
// @Summary List per-member deductions
// @Tags deductions
// @Produce json
// @Param roundId path int true "Round ID"
// @Success 200 {array} models.MemberRoundDeduction
// @Security BearerAuth
// @Router /member-deductions/round/{roundId} [get]
func (h *Handler) ListMemberDeductions(c *gin.Context) {
	round, ok := h.tenantRound(c)
	if !ok {
		return
	}

	var list []models.MemberRoundDeduction
	if err := h.db.Preload("GroupMember").
		Where("round_id = ?", round.ID).Order("group_member_id").
		Find(&list).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch member deductions")
		return
	}

	respond.OK(c, list)
}

// UpsertMemberDeductions applies a batch of per-payee adjustments keyed by
// (round, slot): positive amounts upsert, zero/negative amounts delete. The
// whole batch is validated against the round's group before any write and
// applied in one transaction.
// @Summary Upsert per-member deductions
// @Tags deductions
// @Accept json
// @Produce json
// @Param roundId path int true "Round ID"
// @Param request body UpsertMemberDeductionsRequest true "Adjustment entries"
// @Success 200 {array} models.MemberRoundDeduction
// @Failure 400 {object} map[string]string "Foreign group member in batch"
// @Security BearerAuth
// @Router /member-deductions/round/{roundId} [post]
func (h *Handler) UpsertMemberDeductions(c *gin.Context) {
	round, ok := h.tenantRound(c)
	if !ok {
		return
	}

	var req UpsertMemberDeductionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	for _, e := range req.Entries {
		var slot models.GroupMember
		if err := h.db.Where("id = ? AND group_id = ?", e.GroupMemberID, round.GroupID).First(&slot).Error; err != nil {
			respond.Fail(c, http.StatusBadRequest, "Entry references a member outside this group")
			return
		}
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		for _, e := range req.Entries {
			if e.Amount <= 0 {
				if err := tx.Unscoped().
					Where("round_id = ? AND group_member_id = ?", round.ID, e.GroupMemberID).
					Delete(&models.MemberRoundDeduction{}).Error; err != nil {
					return err
				}
				continue
			}

			var existing models.MemberRoundDeduction
			err := tx.Where("round_id = ? AND group_member_id = ?", round.ID, e.GroupMemberID).
				First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				row := models.MemberRoundDeduction{
					RoundID:       round.ID,
					GroupMemberID: e.GroupMemberID,
					Amount:        e.Amount,
					Note:          e.Note,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			existing.Amount = e.Amount
			existing.Note = e.Note
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to apply member deductions")
		return
	}

	var list []models.MemberRoundDeduction
	if err := h.db.Where("round_id = ?", round.ID).Order("group_member_id").Find(&list).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch member deductions")
		return
	}

	respond.OKMessage(c, list, "Member deductions updated")
}

// RegisterMemberDeductionRoutes registers the per-payee ledger routes
func (h *Handler) RegisterMemberDeductionRoutes(rg *gin.RouterGroup) {
	rg.GET("/round/:roundId", h.ListMemberDeductions)
	rg.POST("/round/:roundId", h.UpsertMemberDeductions)
}
