package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)
	handler.RegisterRoutes(r.Group("/api/auth"))
	return r
}

func createUser(t *testing.T, db *gorm.DB, tenantID uint, phone string, role models.Role) models.User {
	hash, _ := HashPassword("password123")
	user := models.User{
		TenantID:     tenantID,
		Name:         "Test User",
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTenant(t *testing.T, db *gorm.DB, slug string, status models.TenantStatus) models.Tenant {
	tenant := models.Tenant{Name: "Circle " + slug, Slug: slug, Status: status}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}
	return tenant
}

func login(router *gin.Engine, phone, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(LoginRequest{Phone: phone, Password: password})
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if !CheckPassword("secret-password", hash) {
		t.Error("Expected correct password to verify")
	}
	if CheckPassword("wrong-password", hash) {
		t.Error("Expected wrong password to fail")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(7, 3, string(models.RoleAdmin))
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID != 7 || claims.TenantID != 3 || claims.Role != string(models.RoleAdmin) {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("Expected error for malformed token")
	}
}

func TestLoginSuccess(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTenant(t, db, "active-circle", models.TenantStatusActive)
	createUser(t, db, tenant.ID, "0811111111", models.RoleAdmin)

	resp := login(router, "0811111111", "password123")

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var auth AuthResponse
	json.Unmarshal(env.Data, &auth)
	if auth.Token == "" {
		t.Error("Expected a token in the response")
	}
	if auth.User.TenantID != tenant.ID {
		t.Errorf("Expected tenant %d in user payload, got %d", tenant.ID, auth.User.TenantID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTenant(t, db, "active-circle", models.TenantStatusActive)
	createUser(t, db, tenant.ID, "0811111111", models.RoleAdmin)

	resp := login(router, "0811111111", "wrong-password")

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestLoginRejectsUserRole(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTenant(t, db, "active-circle", models.TenantStatusActive)
	createUser(t, db, tenant.ID, "0822222222", models.RoleUser)

	resp := login(router, "0822222222", "password123")

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for USER-role login, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestLoginRejectsInactiveTenant(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	for _, status := range []models.TenantStatus{models.TenantStatusPending, models.TenantStatusSuspended} {
		tenant := createTenant(t, db, "circle-"+string(status), status)
		user := createUser(t, db, tenant.ID, "08"+string(status), models.RoleAdmin)

		resp := login(router, user.Phone, "password123")

		if resp.Code != http.StatusForbidden {
			t.Errorf("%s tenant: expected status 403, got %d", status, resp.Code)
		}
	}
}

func TestLoginSuperAdminSkipsTenantCheck(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createUser(t, db, 0, "0000000000", models.RoleSuperAdmin)

	resp := login(router, "0000000000", "password123")

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 for super admin, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRegisterTenant(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	body, _ := json.Marshal(RegisterTenantRequest{
		TenantName: "Evening Circle",
		Slug:       "evening-circle",
		Name:       "Somchai",
		Phone:      "0811111111",
		Password:   "password123",
	})
	req, _ := http.NewRequest("POST", "/api/auth/register-tenant", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var tenant models.Tenant
	if err := db.Where("slug = ?", "evening-circle").First(&tenant).Error; err != nil {
		t.Fatalf("Tenant not created: %v", err)
	}
	if tenant.Status != models.TenantStatusPending {
		t.Errorf("Expected new tenant PENDING, got %s", tenant.Status)
	}

	var user models.User
	if err := db.Where("tenant_id = ?", tenant.ID).First(&user).Error; err != nil {
		t.Fatalf("Host user not created: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("Expected host role ADMIN, got %s", user.Role)
	}

	// registration alone does not grant login
	loginResp := login(router, "0811111111", "password123")
	if loginResp.Code != http.StatusForbidden {
		t.Errorf("Expected 403 before activation, got %d", loginResp.Code)
	}
}

func TestRegisterTenantRejectsBadSlug(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	for _, slug := range []string{"Has Space", "UPPER", "-leading", "trailing-", "thai-ชื่อ"} {
		body, _ := json.Marshal(RegisterTenantRequest{
			TenantName: "Circle",
			Slug:       slug,
			Name:       "Somchai",
			Phone:      "0811111111",
			Password:   "password123",
		})
		req, _ := http.NewRequest("POST", "/api/auth/register-tenant", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Errorf("Slug %q: expected status 400, got %d", slug, resp.Code)
		}
	}
}

func TestRegisterTenantRejectsDuplicateSlug(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTenant(t, db, "taken", models.TenantStatusActive)

	body, _ := json.Marshal(RegisterTenantRequest{
		TenantName: "Circle",
		Slug:       "taken",
		Name:       "Somchai",
		Phone:      "0811111111",
		Password:   "password123",
	})
	req, _ := http.NewRequest("POST", "/api/auth/register-tenant", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for duplicate slug, got %d", resp.Code)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("GET", "/api/auth/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", resp.Code)
	}
}

func TestMe(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTenant(t, db, "active-circle", models.TenantStatusActive)
	user := createUser(t, db, tenant.ID, "0811111111", models.RoleAdmin)

	token, _ := GenerateToken(user.ID, user.TenantID, string(user.Role))
	req, _ := http.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var me UserResponse
	json.Unmarshal(env.Data, &me)
	if me.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, me.ID)
	}
}

func TestRequireAdminBlocksMissingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin-only", AuthMiddleware(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token, _ := GenerateToken(1, 1, string(models.RoleUser))
	req, _ := http.NewRequest("GET", "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for USER role, got %d", resp.Code)
	}
}

func TestRequireAdminAllowsSuperAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin-only", AuthMiddleware(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token, _ := GenerateToken(1, 0, string(models.RoleSuperAdmin))
	req, _ := http.NewRequest("GET", "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 for super admin, got %d", resp.Code)
	}
}
