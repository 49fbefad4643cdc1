package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
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

	api := r.Group("/api/dashboard")
	api.Use(auth.AuthMiddleware())
	handler.RegisterRoutes(api)

	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func TestDashboardSummary(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	tenant := models.Tenant{Name: "Circle", Slug: "circle", Status: models.TenantStatusActive}
	db.Create(&tenant)
	hash, _ := auth.HashPassword("password123")
	admin := models.User{TenantID: tenant.ID, Name: "Host", Phone: "0811111111", PasswordHash: hash, Role: models.RoleAdmin}
	db.Create(&admin)

	db.Create(&models.Member{TenantID: tenant.ID, MemberCode: "A001", Nickname: "First"})
	db.Create(&models.Member{TenantID: tenant.ID, MemberCode: "A002", Nickname: "Second"})

	open := models.ShareGroup{
		TenantID: tenant.ID, HostUserID: admin.ID, Name: "Open Circle",
		Type: models.GroupTypeFixedInterest, MaxMembers: 3, PrincipalAmount: 1000,
		CycleType: models.CycleMonthly, StartDate: time.Now(), Status: models.GroupStatusOpen,
	}
	db.Create(&open)
	done := models.ShareGroup{
		TenantID: tenant.ID, HostUserID: admin.ID, Name: "Done Circle",
		Type: models.GroupTypeFixedInterest, MaxMembers: 3, PrincipalAmount: 1000,
		CycleType: models.CycleMonthly, StartDate: time.Now(), Status: models.GroupStatusCompleted,
	}
	db.Create(&done)

	// one round due within the week, one outside the window
	db.Create(&models.Round{GroupID: open.ID, RoundNumber: 1, DueDate: time.Now().AddDate(0, 0, 2), Status: models.RoundStatusPending})
	db.Create(&models.Round{GroupID: open.ID, RoundNumber: 2, DueDate: time.Now().AddDate(0, 1, 0), Status: models.RoundStatusPending})

	// a foreign tenant's data must not leak in
	otherTenant := models.Tenant{Name: "Other", Slug: "other", Status: models.TenantStatusActive}
	db.Create(&otherTenant)
	db.Create(&models.Member{TenantID: otherTenant.ID, MemberCode: "A001", Nickname: "Foreign"})

	token, _ := auth.GenerateToken(admin.ID, admin.TenantID, string(admin.Role))
	req, _ := http.NewRequest("GET", "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var summary Summary
	json.Unmarshal(env.Data, &summary)

	if summary.MemberCount != 2 {
		t.Errorf("Expected member count 2, got %d", summary.MemberCount)
	}
	if summary.GroupsByStatus["OPEN"] != 1 || summary.GroupsByStatus["COMPLETED"] != 1 {
		t.Errorf("Unexpected group counts: %v", summary.GroupsByStatus)
	}
	if len(summary.RoundsDueSoon) != 1 {
		t.Errorf("Expected 1 round due soon, got %d", len(summary.RoundsDueSoon))
	}
}
