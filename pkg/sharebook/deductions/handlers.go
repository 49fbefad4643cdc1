package deductions

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// Handler handles deduction ledger requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new deductions handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// DeductionInput is one freeform ledger line
type DeductionInput struct {
	Name   string `json:"name" binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// ReplaceRequest is the complete desired ledger for a round
type ReplaceRequest struct {
	Deductions []DeductionInput `json:"deductions"`
}

// tenantRound resolves :roundId to a round in the caller's tenant
func (h *Handler) tenantRound(c *gin.Context) (*models.Round, bool) {
	tenantID, _ := auth.GetTenantID(c)
	roundID, err := strconv.ParseUint(c.Param("roundId"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid round ID")
		return nil, false
	}

	var round models.Round
	if err := h.db.Preload("Group").First(&round, roundID).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Round not found")
		return nil, false
	}
	if round.Group.TenantID != tenantID {
		respond.Fail(c, http.StatusNotFound, "Round not found")
		return nil, false
	}
	return &round, true
}

// List returns the round's deduction ledger
// @Summary List round deductions
// @Tags deductions
// @Produce json
// @Param roundId path int true "Round ID"
// @Success 200 {array} models.Deduction
// @Security BearerAuth
// @Router /deductions/round/{roundId} [get]
func (h *Handler) List(c *gin.Context) {
	round, ok := h.tenantRound(c)
	if !ok {
		return
	}

	var list []models.Deduction
	if err := h.db.Where("round_id = ?", round.ID).Order("id").Find(&list).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch deductions")
		return
	}

	respond.OK(c, list)
}

// Replace swaps the round's entire deduction ledger for the supplied list:
// delete-all-then-insert in one transaction. Callers resend the complete
// desired set; there is no merge. The total is deliberately not checked
// against the round's pool.
// @Summary Replace round deductions
// @Tags deductions
// @Accept json
// @Produce json
// @Param roundId path int true "Round ID"
// @Param request body ReplaceRequest true "Complete deduction list"
// @Success 200 {array} models.Deduction
// @Security BearerAuth
// @Router /deductions/round/{roundId} [post]
func (h *Handler) Replace(c *gin.Context) {
	round, ok := h.tenantRound(c)
	if !ok {
		return
	}

	var req ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("round_id = ?", round.ID).Delete(&models.Deduction{}).Error; err != nil {
			return err
		}
		for _, d := range req.Deductions {
			row := models.Deduction{
				RoundID: round.ID,
				Type:    models.DeductionOther,
				Amount:  d.Amount,
				Note:    d.Name,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to replace deductions")
		return
	}

	var list []models.Deduction
	if err := h.db.Where("round_id = ?", round.ID).Order("id").Find(&list).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch deductions")
		return
	}

	respond.OKMessage(c, list, "Deductions replaced")
}

// RegisterRoutes registers round ledger routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/round/:roundId", h.List)
	rg.POST("/round/:roundId", h.Replace)
}
