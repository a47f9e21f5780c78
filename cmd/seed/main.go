package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"veritrust/internal/config"
	"veritrust/internal/db"
	"veritrust/internal/model"
	"veritrust/internal/repository"
	"veritrust/internal/service"
)

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

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
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	appRepo := repository.NewApplicationRepository(gormDB)
	settingRepo := repository.NewSettingRepository(gormDB)

	admin := seedUsers(ctx, cfg, userRepo)
	seedSettings(ctx, settingRepo, admin)
	seedApplications(ctx, appRepo, admin)

	log.Println("Seed completed")
}

func seedUsers(ctx context.Context, cfg *config.Config, repo repository.UserRepository) *model.User {
	adminPass := cfg.AdminPass
	if adminPass == "" {
		adminPass = "ChangeMe123!"
		log.Printf("ADMIN_PASSWORD unset, using default seed password")
	}

	seeds := []struct {
		name     string
		email    string
		role     model.Role
		password string
	}{
		{"Super Admin", cfg.AdminEmail, model.RoleSuperAdmin, adminPass},
		{"Alice Admin", "alice@veritrust.local", model.RoleAdmin, "ChangeMe123!"},
		{"Rita Reviewer", "rita@veritrust.local", model.RoleReviewer, "ChangeMe123!"},
		{"Paul Partner", "paul@veritrust.local", model.RoleUser, "ChangeMe123!"},
	}

	var superAdmin *model.User
	for _, s := range seeds {
		if existing, err := repo.FindByEmail(ctx, s.email); err == nil {
			log.Printf("User %s already exists, skipping", s.email)
			if s.role == model.RoleSuperAdmin {
				superAdmin = existing
			}
			continue
		}
		hash, err := service.HashPassword(s.password)
		if err != nil {
			log.Fatalf("hash password for %s: %v", s.email, err)
		}
		user := &model.User{
			Name:         s.name,
			Email:        s.email,
			PasswordHash: &hash,
			Role:         s.role,
			Active:       true,
		}
		if err := repo.Create(ctx, user); err != nil {
			log.Fatalf("create user %s: %v", s.email, err)
		}
		log.Printf("Created %s user %s", s.role, s.email)
		if s.role == model.RoleSuperAdmin {
			superAdmin = user
		}
	}
	return superAdmin
}

func seedSettings(ctx context.Context, repo repository.SettingRepository, admin *model.User) {
	desc := func(s string) *string { return &s }
	settings := []model.Setting{
		{Key: "site.title", Value: "VeriTrust", Description: desc("Public site title"), Category: "site"},
		{Key: "site.contact_email", Value: "hello@veritrust.local", Description: desc("Public contact address"), Category: "site"},
		{Key: "review.sla_days", Value: "5", Description: desc("Target days to first review"), Category: "review"},
	}
	for _, s := range settings {
		setting := s
		err := repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.SettingRepository) error {
			if err := txRepo.AppendChange(ctx, &model.SettingChange{
				SettingKey: setting.Key,
				NewValue:   setting.Value,
				ActorID:    admin.ID,
			}); err != nil {
				return err
			}
			return txRepo.Upsert(ctx, &setting)
		})
		if err != nil {
			log.Fatalf("seed setting %s: %v", setting.Key, err)
		}
	}
	log.Printf("Seeded %d settings", len(settings))
}

func seedApplications(ctx context.Context, repo repository.ApplicationRepository, admin *model.User) {
	seeds := []struct {
		kind    model.ApplicationKind
		company string
		contact string
		email   string
		revenue string
		chain   []model.ApplicationStatus
	}{
		{model.KindPartnership, "Acme Verifications", "Jane Doe", "jane@acme.test", "120000.00", []model.ApplicationStatus{model.StatusUnderReview}},
		{model.KindPartnership, "Globex Consulting", "Max Mustermann", "max@globex.test", "250000.00", []model.ApplicationStatus{model.StatusUnderReview, model.StatusApproved, model.StatusOnboarding}},
		{model.KindRegistration, "", "Sam Student", "sam@example.test", "", []model.ApplicationStatus{model.StatusSubmitted}},
	}

	for _, s := range seeds {
		revenue := decimal.Zero
		if s.revenue != "" {
			revenue, _ = decimal.NewFromString(s.revenue)
		}
		app := &model.Application{
			Kind:             s.kind,
			CompanyName:      s.company,
			ContactName:      s.contact,
			ContactEmail:     s.email,
			Skills:           []string{"verification", "compliance"},
			Languages:        []string{"en"},
			ProjectedRevenue: revenue,
			Status:           s.kind.InitialStatus(),
		}

		// Each seeded application gets a full, consistent history chain:
		// the fold over entries always matches the final status.
		err := repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.ApplicationRepository) error {
			if err := txRepo.Create(ctx, app); err != nil {
				return err
			}
			if err := txRepo.AppendHistory(ctx, &model.StatusHistoryEntry{
				ApplicationID: app.ID,
				NewStatus:     app.Status,
			}); err != nil {
				return err
			}
			for _, next := range s.chain {
				prev := app.Status
				if err := txRepo.UpdateStatusExpecting(ctx, app.ID, prev, next); err != nil {
					return err
				}
				if err := txRepo.AppendHistory(ctx, &model.StatusHistoryEntry{
					ApplicationID:  app.ID,
					PreviousStatus: &prev,
					NewStatus:      next,
					ActorID:        &admin.ID,
				}); err != nil {
					return err
				}
				app.Status = next
			}
			return nil
		})
		if err != nil {
			log.Fatalf("seed application for %s: %v", s.email, err)
		}
		log.Printf("Seeded %s application %s (%s)", s.kind, app.ID, app.Status)
	}
}
