package tenants

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// Handler handles platform-level tenant administration
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new tenants handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// UpdateStatusRequest moves a tenant through its lifecycle
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING ACTIVE SUSPENDED CANCELLED"`
}

// TenantResponse is a tenant with its user count
type TenantResponse struct {
	models.Tenant
	UserCount int64 `json:"user_count"`
}

// List returns all tenants with their user counts
// @Summary List tenants
// @Tags admin
// @Produce json
// @Success 200 {array} TenantResponse
// @Security BearerAuth
// @Router /admin/tenants [get]
func (h *Handler) List(c *gin.Context) {
	var tenants []models.Tenant
	if err := h.db.Order("created_at DESC").Find(&tenants).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch tenants")
		return
	}

	out := make([]TenantResponse, len(tenants))
	for i, t := range tenants {
		var count int64
		h.db.Model(&models.User{}).Where("tenant_id = ?", t.ID).Count(&count)
		out[i] = TenantResponse{Tenant: t, UserCount: count}
	}

	respond.OK(c, out)
}

// Get returns one tenant
// @Summary Get a tenant
// @Tags admin
// @Produce json
// @Param id path int true "Tenant ID"
// @Success 200 {object} models.Tenant
// @Security BearerAuth
// @Router /admin/tenants/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	tenantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var tenant models.Tenant
	if err := h.db.First(&tenant, tenantID).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Tenant not found")
		return
	}

	respond.OK(c, tenant)
}

// UpdateStatus transitions a tenant's lifecycle state. CANCELLED is
// terminal; PENDING tenants activate before anything else.
// @Summary Update tenant status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Tenant ID"
// @Param request body UpdateStatusRequest true "Target status"
// @Success 200 {object} models.Tenant
// @Failure 400 {object} map[string]string "Invalid transition"
// @Security BearerAuth
// @Router /admin/tenants/{id}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	tenantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var tenant models.Tenant
	if err := h.db.First(&tenant, tenantID).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "Tenant not found")
		return
	}

	next := models.TenantStatus(req.Status)
	if next != tenant.Status && !tenant.CanTransitionTo(next) {
		respond.Fail(c, http.StatusBadRequest, "Invalid status transition")
		return
	}

	tenant.Status = next
	if err := h.db.Save(&tenant).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to update tenant")
		return
	}

	respond.OK(c, tenant)
}

// RegisterRoutes registers tenant administration routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tenants", h.List)
	rg.GET("/tenants/:id", h.Get)
	rg.PUT("/tenants/:id/status", h.UpdateStatus)
}
