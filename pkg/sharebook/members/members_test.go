package members

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

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

func createTestTenant(t *testing.T, db *gorm.DB) models.Tenant {
	tenant := models.Tenant{Name: "Test Circle", Slug: "test-circle", Status: models.TenantStatusActive}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}
	return tenant
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

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)

	api := r.Group("/api/members")
	api.Use(auth.AuthMiddleware())
	handler.RegisterRoutes(api)

	return r
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

func postMember(t *testing.T, router *gin.Engine, user models.User, nickname string) models.Member {
	body, _ := json.Marshal(CreateMemberRequest{Nickname: nickname})
	req, _ := http.NewRequest("POST", "/api/members", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var member models.Member
	json.Unmarshal(env.Data, &member)
	return member
}

func TestNextMemberCodeSequence(t *testing.T) {
	cases := []struct {
		last string
		want string
	}{
		{"", "A001"},
		{"A001", "A002"},
		{"A099", "A100"},
		{"A999", "B001"},
		{"B042", "B043"},
		{"Y999", "Z001"},
	}
	for _, tc := range cases {
		got, err := NextMemberCode(tc.last)
		if err != nil {
			t.Errorf("NextMemberCode(%q) failed: %v", tc.last, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NextMemberCode(%q) = %q, want %q", tc.last, got, tc.want)
		}
	}
}

func TestNextMemberCodeExhaustion(t *testing.T) {
	if _, err := NextMemberCode("Z999"); err != ErrCodeSpaceExhausted {
		t.Errorf("Expected exhaustion error after Z999, got %v", err)
	}
}

func TestNextMemberCodeMalformed(t *testing.T) {
	for _, bad := range []string{"A1", "1234", "AB01", "A000", "a001"} {
		if _, err := NextMemberCode(bad); err == nil {
			t.Errorf("Expected error for malformed code %q", bad)
		}
	}
}

func TestCreateMemberAssignsSequentialCodes(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTestTenant(t, db)
	admin := createTestAdmin(t, db, tenant.ID)

	first := postMember(t, router, admin, "First")
	second := postMember(t, router, admin, "Second")

	if first.MemberCode != "A001" {
		t.Errorf("Expected first code A001, got %s", first.MemberCode)
	}
	if second.MemberCode != "A002" {
		t.Errorf("Expected second code A002, got %s", second.MemberCode)
	}
}

func TestMemberCodesAreScopedPerTenant(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTestTenant(t, db)
	admin := createTestAdmin(t, db, tenant.ID)

	other := models.Tenant{Name: "Other", Slug: "other", Status: models.TenantStatusActive}
	db.Create(&other)
	hash, _ := auth.HashPassword("password123")
	otherAdmin := models.User{TenantID: other.ID, Name: "Other Host", Phone: "0822222222", PasswordHash: hash, Role: models.RoleAdmin}
	db.Create(&otherAdmin)

	postMember(t, router, admin, "First")
	m := postMember(t, router, otherAdmin, "Their First")

	if m.MemberCode != "A001" {
		t.Errorf("Expected independent sequence per tenant, got %s", m.MemberCode)
	}
}

func TestDeletedCodeIsNeverReissued(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTestTenant(t, db)
	admin := createTestAdmin(t, db, tenant.ID)

	first := postMember(t, router, admin, "First")
	second := postMember(t, router, admin, "Second")

	req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/members/%d", second.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("Failed to delete member: %d %s", resp.Code, resp.Body.String())
	}

	third := postMember(t, router, admin, "Third")
	if third.MemberCode != "A003" {
		t.Errorf("Expected A003 after deleting A002, got %s", third.MemberCode)
	}
	if third.MemberCode == first.MemberCode {
		t.Error("Code reuse detected")
	}
}

func TestListMembersSearch(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTestTenant(t, db)
	admin := createTestAdmin(t, db, tenant.ID)

	postMember(t, router, admin, "Somchai")
	postMember(t, router, admin, "Malee")

	req, _ := http.NewRequest("GET", "/api/members?q=mal", nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var list []models.Member
	json.Unmarshal(env.Data, &list)
	if len(list) != 1 || list[0].Nickname != "Malee" {
		t.Errorf("Expected single search hit for Malee, got %d results", len(list))
	}
}

func TestUpdateMemberKeepsCode(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTestTenant(t, db)
	admin := createTestAdmin(t, db, tenant.ID)

	member := postMember(t, router, admin, "Before")

	newName := "After"
	body, _ := json.Marshal(UpdateMemberRequest{Nickname: &newName})
	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/members/%d", member.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var env envelope
	json.Unmarshal(resp.Body.Bytes(), &env)
	var updated models.Member
	json.Unmarshal(env.Data, &updated)
	if updated.Nickname != "After" {
		t.Errorf("Expected updated nickname, got %s", updated.Nickname)
	}
	if updated.MemberCode != member.MemberCode {
		t.Errorf("Member code changed from %s to %s", member.MemberCode, updated.MemberCode)
	}
}

func TestDeleteMemberBlockedWhileHoldingSlot(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTestTenant(t, db)
	admin := createTestAdmin(t, db, tenant.ID)
	member := postMember(t, router, admin, "Slotted")

	group := models.ShareGroup{
		TenantID:        tenant.ID,
		HostUserID:      admin.ID,
		Name:            "Circle",
		Type:            models.GroupTypeFixedInterest,
		MaxMembers:      3,
		PrincipalAmount: 1000,
		CycleType:       models.CycleMonthly,
		Status:          models.GroupStatusOpen,
	}
	db.Create(&group)
	slot := models.NewPayeeSlot(group.ID, member.ID)
	db.Create(&slot)

	req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/members/%d", member.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(admin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for slotted member delete, got %d", resp.Code)
	}
}

func TestGetMemberCrossTenantIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tenant := createTestTenant(t, db)
	admin := createTestAdmin(t, db, tenant.ID)
	member := postMember(t, router, admin, "Mine")

	other := models.Tenant{Name: "Other", Slug: "other", Status: models.TenantStatusActive}
	db.Create(&other)
	hash, _ := auth.HashPassword("password123")
	otherAdmin := models.User{TenantID: other.ID, Name: "Other Host", Phone: "0822222222", PasswordHash: hash, Role: models.RoleAdmin}
	db.Create(&otherAdmin)

	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/members/%d", member.ID), nil)
	req.Header.Set("Authorization", getAuthHeader(otherAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for cross-tenant read, got %d", resp.Code)
	}
}
