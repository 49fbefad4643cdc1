package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyTenantID is the key for tenant ID in gin context
	ContextKeyTenantID = "tenant_id"
	// ContextKeyRole is the key for role in gin context
	ContextKeyRole = "role"
)

// AuthMiddleware validates JWT tokens and sets user/tenant info in context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respond.Fail(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			respond.Fail(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			if err == ErrExpiredToken {
				respond.Fail(c, http.StatusUnauthorized, "Token has expired")
			} else {
				respond.Fail(c, http.StatusUnauthorized, "Invalid token")
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyTenantID, claims.TenantID)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// RequireAdmin checks that the caller holds the tenant host/operator role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextKeyRole)
		if !exists {
			respond.Fail(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		if role != string(models.RoleAdmin) && role != string(models.RoleSuperAdmin) {
			respond.Fail(c, http.StatusForbidden, "Admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireSuperAdmin checks that the caller is the platform operator
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextKeyRole)
		if !exists {
			respond.Fail(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		if role != string(models.RoleSuperAdmin) {
			respond.Fail(c, http.StatusForbidden, "Super admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID returns the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetTenantID returns the tenant ID from the gin context
func GetTenantID(c *gin.Context) (uint, bool) {
	tenantID, exists := c.Get(ContextKeyTenantID)
	if !exists {
		return 0, false
	}
	return tenantID.(uint), true
}

// GetRole returns the role from the gin context
func GetRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return "", false
	}
	return role.(string), true
}
