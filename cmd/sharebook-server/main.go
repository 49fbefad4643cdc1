package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prasertk/sharebook/pkg/sharebook/auth"
	"github.com/prasertk/sharebook/pkg/sharebook/config"
	"github.com/prasertk/sharebook/pkg/sharebook/dashboard"
	"github.com/prasertk/sharebook/pkg/sharebook/database"
	"github.com/prasertk/sharebook/pkg/sharebook/deductions"
	"github.com/prasertk/sharebook/pkg/sharebook/logger"
	"github.com/prasertk/sharebook/pkg/sharebook/members"
	"github.com/prasertk/sharebook/pkg/sharebook/models"
	"github.com/prasertk/sharebook/pkg/sharebook/notify"
	"github.com/prasertk/sharebook/pkg/sharebook/respond"
	"github.com/prasertk/sharebook/pkg/sharebook/rounds"
	"github.com/prasertk/sharebook/pkg/sharebook/sharegroups"
	"github.com/prasertk/sharebook/pkg/sharebook/tenants"
	"github.com/prasertk/sharebook/pkg/sharebook/users"
)

// @title Sharebook API
// @version 1.0
// @description Multi-tenant rotating savings circle (share/แชร์) management.

// @license.name MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	if err := logger.Init(&cfg.Log, cfg.Server.Mode); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zap.L().Sync()

	auth.Configure(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	if err := database.Connect(cfg.Database.Path); err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := models.AutoMigrate(database.GetDB()); err != nil {
		zap.L().Fatal("Failed to run migrations", zap.Error(err))
	}
	zap.L().Info("Database migrations completed")

	if err := ensureSuperAdminExists(); err != nil {
		zap.L().Fatal("Failed to ensure super admin exists", zap.Error(err))
	}

	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	db := database.GetDB()
	sink := notify.NewDBSink(db)

	api := r.Group("/api")
	{
		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		authHandler.RegisterRoutes(api.Group("/auth"))

		authed := api.Group("", auth.AuthMiddleware())
		admin := api.Group("", auth.AuthMiddleware(), auth.RequireAdmin())

		// Member catalog (host-only)
		membersHandler := members.NewHandler(db)
		membersHandler.RegisterRoutes(admin.Group("/members"))

		// In-tenant user administration
		usersHandler := users.NewHandler(db)
		usersHandler.RegisterRoutes(admin.Group("/users"))

		// Share groups and payout slots
		groupsHandler := sharegroups.NewHandler(db)
		groupsGroup := admin.Group("/share-groups")
		groupsHandler.RegisterRoutes(groupsGroup)
		groupsHandler.RegisterSlotRoutes(groupsGroup)

		// Rounds: scheduling, detail, the winner-recording engine
		roundsHandler := rounds.NewHandler(db, sink)
		roundsHandler.RegisterRoutes(admin.Group("/rounds"))

		// Deduction ledgers
		deductionsHandler := deductions.NewHandler(db)
		deductionsHandler.RegisterRoutes(admin.Group("/deductions"))
		deductionsHandler.RegisterMemberDeductionRoutes(admin.Group("/member-deductions"))

		// Notifications
		notifyHandler := notify.NewHandler(db, sink)
		notifyHandler.RegisterRoutes(authed.Group("/notifications"))

		// Dashboard
		dashboardHandler := dashboard.NewHandler(db)
		dashboardHandler.RegisterRoutes(authed.Group("/dashboard"))

		// Platform administration (super admin only)
		tenantsHandler := tenants.NewHandler(db)
		tenantsHandler.RegisterRoutes(api.Group("/admin", auth.AuthMiddleware(), auth.RequireSuperAdmin()))
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Fail(c, 404, "Not found")
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	zap.L().Info("Starting sharebook server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		zap.L().Fatal("Failed to start server", zap.Error(err))
	}
}

// ensureSuperAdminExists creates the default platform operator account if no
// super admin exists yet.
func ensureSuperAdminExists() error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	superAdmin := models.User{
		TenantID:     0,
		Name:         "Platform Admin",
		Phone:        "0000000000",
		PasswordHash: hashedPassword,
		Role:         models.RoleSuperAdmin,
	}
	if err := db.Create(&superAdmin).Error; err != nil {
		return err
	}

	zap.L().Info("Created default super admin (phone: 0000000000, password: changeme)")
	return nil
}
