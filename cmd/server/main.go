package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"veritrust/internal/auth"
	"veritrust/internal/cache"
	"veritrust/internal/config"
	"veritrust/internal/db"
	"veritrust/internal/handler"
	"veritrust/internal/model"
	"veritrust/internal/notify"
	"veritrust/internal/repository"
	"veritrust/internal/router"
	"veritrust/internal/service"
)

// @title VeriTrust Back Office API
// @version 1.0
// @description Partner verification back office: users, applications, settings and audit trail with cookie-session authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.AuditLog{},
			&model.SettingChange{},
			&model.Setting{},
			&model.Attachment{},
			&model.Note{},
			&model.StatusHistoryEntry{},
			&model.Application{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Application{},
		&model.StatusHistoryEntry{},
		&model.Note{},
		&model.Attachment{},
		&model.Setting{},
		&model.SettingChange{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	appRepo := repository.NewApplicationRepository(gormDB)
	settingRepo := repository.NewSettingRepository(gormDB)
	auditRepo := repository.NewAuditLogRepository(gormDB)

	// Initialize auth components
	tokenService := auth.NewTokenService(cfg.JWTSecret)

	// Initialize services
	auditService := service.NewAuditService(auditRepo)
	authService := service.NewAuthService(userRepo, tokenService, auditService)
	userService := service.NewUserService(userRepo, cacheClient, auditService, notify.LogMailer{})
	appService := service.NewApplicationService(appRepo, auditService)
	settingService := service.NewSettingService(settingRepo, cacheClient, auditService)

	bootstrapSuperAdmin(cfg, userRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cfg.CookieName)
	userHandler := handler.NewUserHandler(userService)
	partnershipHandler := handler.NewApplicationHandler(appService, model.KindPartnership, cfg.UploadDir)
	registrationHandler := handler.NewApplicationHandler(appService, model.KindRegistration, cfg.UploadDir)
	settingHandler := handler.NewSettingHandler(settingService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Register routes
	router.Register(
		e,
		cfg,
		tokenService,
		authHandler,
		userHandler,
		partnershipHandler,
		registrationHandler,
		settingHandler,
		auditHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}

// bootstrapSuperAdmin guarantees at least one active super admin exists
// on a fresh database. Skipped when any super admin is already present.
func bootstrapSuperAdmin(cfg *config.Config, users repository.UserRepository) {
	ctx := context.Background()
	count, err := users.CountActiveByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		log.Fatalf("count super admins: %v", err)
	}
	if count > 0 {
		return
	}
	if cfg.AdminPass == "" {
		log.Println("Warning: no super admin exists and ADMIN_PASSWORD is unset; run cmd/seed or set ADMIN_PASSWORD")
		return
	}

	hash, err := service.HashPassword(cfg.AdminPass)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	admin := &model.User{
		Name:         "Super Admin",
		Email:        cfg.AdminEmail,
		PasswordHash: &hash,
		Role:         model.RoleSuperAdmin,
		Active:       true,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("bootstrap super admin: %v", err)
	}
	log.Printf("Bootstrapped super admin %s", cfg.AdminEmail)
}
