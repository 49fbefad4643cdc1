package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// Handler handles in-tenant user administration
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateUserRequest adds a user account to the tenant. USER-role accounts
// are records only; they cannot log in.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=ADMIN USER"`
}

// UpdateUserRequest edits a user's details
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// UserResponse is a user without credentials
type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

func toResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Phone: u.Phone, Email: u.Email, Role: string(u.Role)}
}

// List returns the tenant's users
func (h *Handler) List(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)

	var users []models.User
	if err := h.db.Where("tenant_id = ?", tenantID).Order("id").Find(&users).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toResponse(u)
	}
	respond.OK(c, out)
}

// Create adds a user to the tenant
func (h *Handler) Create(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var existing models.User
	if err := h.db.Where("tenant_id = ? AND phone = ?", tenantID, req.Phone).First(&existing).Error; err == nil {
		respond.Fail(c, http.StatusBadRequest, "Phone already registered in this tenant")
		return
	}
	if req.Email != "" {
		if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			respond.Fail(c, http.StatusBadRequest, "Email already registered")
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := models.User{
		TenantID:     tenantID,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.Role(req.Role),
	}
	if err := h.db.Create(&user).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	respond.Created(c, toResponse(user))
}

// Get returns one user
func (h *Handler) Get(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND tenant_id = ?", userID, tenantID).First(&user).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "User not found")
		return
	}

	respond.OK(c, toResponse(user))
}

// Update edits a user
func (h *Handler) Update(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND tenant_id = ?", userID, tenantID).First(&user).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "User not found")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			respond.Fail(c, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			respond.Fail(c, http.StatusInternalServerError, "Failed to process password")
			return
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		if *req.Role != string(models.RoleAdmin) && *req.Role != string(models.RoleUser) {
			respond.Fail(c, http.StatusBadRequest, "Invalid role")
			return
		}
		user.Role = models.Role(*req.Role)
	}

	if err := h.db.Save(&user).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to update user")
		return
	}

	respond.OK(c, toResponse(user))
}

// Delete removes a user. Hosts of a share group are kept.
func (h *Handler) Delete(c *gin.Context) {
	tenantID, _ := auth.GetTenantID(c)
	callerID, _ := auth.GetUserID(c)
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if uint(userID) == callerID {
		respond.Fail(c, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND tenant_id = ?", userID, tenantID).First(&user).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "User not found")
		return
	}

	var hosted int64
	h.db.Model(&models.ShareGroup{}).Where("host_user_id = ?", user.ID).Count(&hosted)
	if hosted > 0 {
		respond.Fail(c, http.StatusBadRequest, "User hosts a share group")
		return
	}

	if err := h.db.Delete(&user).Error; err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	respond.OKMessage(c, nil, "User deleted")
}

// RegisterRoutes registers user administration routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
