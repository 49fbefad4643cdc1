package notify

import (
	"encoding/json"
	"fmt"
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
	handler := NewHandler(db, NewDBSink(db))

	api := r.Group("/api/notifications")
	api.Use(auth.AuthMiddleware())
	handler.RegisterRoutes(api)

	return r
}

func createTestAdmin(t *testing.T, db *gorm.DB, tenantID uint) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{
		TenantID:     tenantID,
		Name:         "Host",
		Phone:        "0811111111",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}
	return user
}

func getAuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.TenantID, string(user.Role))
	return "Bearer " + token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func TestDBSinkPersistsEvent(t *testing.T) {
	db := setupTestDB(t)
	sink := NewDBSink(db)

	sink.Notify(Event{
		TenantID: 1,
		UserID:   2,
		Type:     models.NotificationWinnerRecorded,
		Title:    "Round 2 winner recorded",
		Body:     "Payout amount: 24750",
	})

	var n models.Notification
	if err := db.First(&n).Error; err != nil {
		t.Fatalf("Notification not persisted: %v", err)
	}
	if n.Type != models.NotificationWinnerRecorded || n.UserID != 2 || n.Read {
		t.Errorf("Unexpected notification row: %+v", n)
	}
}

func TestListReturnsOwnNotificationsOnly(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestAdmin(t, db, 1)

	db.Create(&models.Notification{TenantID: 1, UserID: user.ID, Type: models.NotificationRoundDue, Title: "Mine"})
	db.Create(&models.Notification{TenantID: 2, UserID: 99, Type: models.NotificationRoundDue, Title: "Theirs"})

	req, _ := http.NewRequest("GET", "/api/notifications", nil)
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var list []models.Notification
	json.Unmarshal(env.Data, &list)
	if len(list) != 1 || list[0].Title != "Mine" {
		t.Errorf("Expected only own notification, got %d", len(list))
	}
}

func TestMarkRead(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestAdmin(t, db, 1)

	n := models.Notification{TenantID: 1, UserID: user.ID, Type: models.NotificationRoundDue, Title: "Due"}
	db.Create(&n)

	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/notifications/%d/read", n.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated models.Notification
	db.First(&updated, n.ID)
	if !updated.Read {
		t.Error("Expected notification marked read")
	}
}

func TestMarkReadForeignNotificationIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestAdmin(t, db, 1)

	n := models.Notification{TenantID: 2, UserID: 99, Type: models.NotificationRoundDue, Title: "Theirs"}
	db.Create(&n)

	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/notifications/%d/read", n.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for foreign notification, got %d", resp.Code)
	}
}

func TestCheckEmitsRemindersForDueRounds(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := models.Tenant{Name: "Circle", Slug: "circle", Status: models.TenantStatusActive}
	db.Create(&tenant)
	user := createTestAdmin(t, db, tenant.ID)

	group := models.ShareGroup{
		TenantID:        tenant.ID,
		HostUserID:      user.ID,
		Name:            "Evening Circle",
		Type:            models.GroupTypeFixedInterest,
		MaxMembers:      3,
		PrincipalAmount: 1000,
		CycleType:       models.CycleMonthly,
		StartDate:       time.Now(),
		Status:          models.GroupStatusInProgress,
	}
	db.Create(&group)

	// one due tomorrow, one far out, one already completed
	db.Create(&models.Round{GroupID: group.ID, RoundNumber: 1, DueDate: time.Now().AddDate(0, 0, 1), Status: models.RoundStatusPending})
	db.Create(&models.Round{GroupID: group.ID, RoundNumber: 2, DueDate: time.Now().AddDate(0, 2, 0), Status: models.RoundStatusPending})
	db.Create(&models.Round{GroupID: group.ID, RoundNumber: 3, DueDate: time.Now().AddDate(0, 0, 1), Status: models.RoundStatusCompleted})

	req, _ := http.NewRequest("POST", "/api/notifications/check", nil)
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var data struct {
		RoundsDue int `json:"rounds_due"`
	}
	json.Unmarshal(env.Data, &data)
	if data.RoundsDue != 1 {
		t.Errorf("Expected 1 due round, got %d", data.RoundsDue)
	}

	var count int64
	db.Model(&models.Notification{}).Where("type = ?", models.NotificationRoundDue).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 reminder notification, got %d", count)
	}
}
