package members

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// codeIssueRetries bounds the re-derive loop under concurrent creation
const codeIssueRetries = 3

// Handler handles member catalog requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new members handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateMemberRequest catalogs a new payee
type CreateMemberRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Phone    string `json:"phone"`
	LineID   string `json:"line_id"`
	Address  string `json:"address"`
}

// UpdateMemberRequest edits a payee's contact details; the code is immutable
type UpdateMemberRequest struct {
	Nickname *string `json:"nickname"`
	Phone    *string `json:"phone"`
	LineID   *string `json:"line_id"`
	Address  *string `json:"address"`
}

// List returns the tenant's member catalog, optionally filtered by a search
// term matched against code, nickname and phone.
// @Summary List members
// @Tags members
// @Produce json
// @Success 200 {array} models.Member
// @Security BearerAuth
// @Router /members [get]
func (h *Handler) List(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)

	q := h.db.Where("tenant_id = ?", tenantID)
	if search := c.Query("q"); search != "" {
		like := "%" + search + "%"
		q = q.Where("member_code LIKE ? OR nickname LIKE ? OR phone LIKE ?", like, like, like)
	}

	var members []models.Member
	if err := q.Order("member_code").Find(&members).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch members")
		return
	}

	respond.OK(c, members)
}

// Create catalogs a payee under the next member code. The code derives from
// the highest existing one inside the insert transaction; the (tenant, code)
// uniqueness constraint backstops concurrent issuance and the loop retries
// on a duplicate.
// @Summary Create a member
// @Tags members
// @Accept json
// @Produce json
// @Param request body CreateMemberRequest true "Member details"
// @Success 201 {object} models.Member
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /members [post]
func (h *Handler) Create(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)

	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var member models.Member
	var err error
	for attempt := 0; attempt < codeIssueRetries; attempt++ {
		err = h.db.Transaction(func(tx *gorm.DB) error {
			code, err := issueMemberCode(tx, tenantID)
			if err != nil {
				return err
			}
			member = models.Member{
				TenantID:   tenantID,
				MemberCode: code,
				Nickname:   req.Nickname,
				Phone:      req.Phone,
				LineID:     req.LineID,
				Address:    req.Address,
			}
			return tx.Create(&member).Error
		})
		if !isDuplicateCode(err) {
			break
		}
	}
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to create member")
		return
	}

	respond.Created(c, member)
}

// Get returns one member
// @Summary Get a member
// @Tags members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} models.Member
// @Failure 404 {object} map[string]string "Member not found"
// @Security BearerAuth
// @Router /members/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	memberID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid member ID")
		return
	}

	var member models.Member
	if err := h.db.Where("id = ? AND tenant_id = ?", memberID, tenantID).First(&member).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Member not found")
		return
	}

	respond.OK(c, member)
}

// Update edits a member's contact details
// @Summary Update a member
// @Tags members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} models.Member
// @Security BearerAuth
// @Router /members/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	memberID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid member ID")
		return
	}

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var member models.Member
	if err := h.db.Where("id = ? AND tenant_id = ?", memberID, tenantID).First(&member).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Member not found")
		return
	}

	if req.Nickname != nil {
		member.Nickname = *req.Nickname
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.LineID != nil {
		member.LineID = *req.LineID
	}
	if req.Address != nil {
		member.Address = *req.Address
	}

	if err := h.db.Save(&member).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to update member")
		return
	}

	respond.OK(c, member)
}

// Delete removes a member from the catalog. Members holding a slot in any
// group are kept; their retired code is never reissued either way.
// @Summary Delete a member
// @Tags members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} map[string]string "Member deleted"
// @Failure 400 {object} map[string]string "Member holds a group slot"
// @Security BearerAuth
// @Router /members/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	memberID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid member ID")
		return
	}

	var member models.Member
	if err := h.db.Where("id = ? AND tenant_id = ?", memberID, tenantID).First(&member).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Member not found")
		return
	}

	var slots int64
	h.db.Model(&models.GroupMember{}).Where("member_id = ?", member.ID).Count(&slots)
	if slots > 0 {
		respond.Fail(c, http.StatusBadRequest, "Member holds a slot in a share group")
		return
	}

	if err := h.db.Delete(&member).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to delete member")
		return
	}

	respond.OKMessage(c, nil, "Member deleted")
}

// RegisterRoutes registers member catalog routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
