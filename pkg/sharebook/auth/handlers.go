package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

// Handler handles authentication requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new auth handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterTenantRequest creates a new tenant with its host admin account
type RegisterTenantRequest struct {
	TenantName string `json:"tenant_name" binding:"required"`
	Slug       string `json:"slug" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Email      string `json:"email" binding:"omitempty,email"`
	Password   string `json:"password" binding:"required,min=8"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID       uint   `json:"id"`
	TenantID uint   `json:"tenant_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		TenantID: u.TenantID,
		Name:     u.Name,
		Phone:    u.Phone,
		Role:     string(u.Role),
	}
}

// Login authenticates by phone and password and issues a JWT.
// USER-role accounts exist as records only; login is rejected for them even
// with valid credentials.
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 403 {object} map[string]string "Role not permitted to log in"
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := h.db.Where("phone = ?", req.Phone).First(&user).Error; err != nil {
		respond.Fail(c, http.StatusUnauthorized, "Invalid phone or password")
		return
	}

	if !CheckPassword(req.Password, user.PasswordHash) {
		respond.Fail(c, http.StatusUnauthorized, "Invalid phone or password")
		return
	}

	if user.Role == models.RoleUser {
		respond.Fail(c, http.StatusForbidden, "This account is not permitted to log in")
		return
	}

	if user.Role != models.RoleSuperAdmin {
		var tenant models.Tenant
		if err := h.db.First(&tenant, user.TenantID).Error; err != nil {
			respond.Fail(c, http.StatusUnauthorized, "Invalid phone or password")
			return
		}
		if tenant.Status != models.TenantStatusActive {
			respond.Fail(c, http.StatusForbidden, "Tenant is not active")
			return
		}
	}

	token, err := GenerateToken(user.ID, user.TenantID, string(user.Role))
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respond.OK(c, AuthResponse{Token: token, User: toUserResponse(user)})
}

// RegisterTenant creates a PENDING tenant and its host ADMIN account in one
// transaction. A super admin activates the tenant before it can log in.
// @Summary Register a new tenant
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterTenantRequest true "Tenant and host details"
// @Success 201 {object} UserResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Router /auth/register-tenant [post]
func (h *Handler) RegisterTenant(c *gin.Context) {
	var req RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !validSlug(slug) {
		respond.Fail(c, http.StatusBadRequest, "Slug must be lowercase letters, digits and hyphens")
		return
	}

	var existing models.Tenant
	if err := h.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
		respond.Fail(c, http.StatusBadRequest, "Slug already taken")
		return
	}

	if req.Email != "" {
		var other models.User
		if err := h.db.Where("email = ?", req.Email).First(&other).Error; err == nil {
			respond.Fail(c, http.StatusBadRequest, "Email already registered")
			return
		}
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to process password")
		return
	}

	var user models.User
	err = h.db.Transaction(func(tx *gorm.DB) error {
		tenant := models.Tenant{
			Name:   req.TenantName,
			Slug:   slug,
			Status: models.TenantStatusPending,
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		user = models.User{
			TenantID:     tenant.ID,
			Name:         req.Name,
			Phone:        req.Phone,
			Email:        req.Email,
			PasswordHash: hashedPassword,
			Role:         models.RoleAdmin,
		}
		return tx.Create(&user).Error
	})

	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "Failed to register tenant")
		return
	}

	respond.Created(c, toUserResponse(user))
}

// Me returns the current authenticated user
// @Summary Get current user
// @Tags auth
// @Produce json
// @Success 200 {object} UserResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, exists := GetUserID(c)
	if !exists {
		respond.Fail(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		respond.Fail(c, http.StatusNotFound, "User not found")
		return
	}

	respond.OK(c, toUserResponse(user))
}

func validSlug(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return s[0] != '-' && s[len(s)-1] != '-'
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
	rg.POST("/register-tenant", h.RegisterTenant)
	rg.GET("/me", AuthMiddleware(), h.Me)
}
