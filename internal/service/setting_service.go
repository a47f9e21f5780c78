package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"veritrust/internal/auth"
	"veritrust/internal/cache"
	apperrors "veritrust/internal/errors"
	"veritrust/internal/model"
	"veritrust/internal/repository"
)

const settingCacheTTL = 10 * time.Minute

// SettingUpdate is the input for writing a setting value.
type SettingUpdate struct {
	Value       string
	Description *string
	Category    string
}

// SettingService manages admin-editable settings. Every write appends a
// change entry in the same transaction as the value, mirroring the
// application status/history pattern.
type SettingService interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	List(ctx context.Context, category string) ([]model.Setting, error)
	History(ctx context.Context, key string) ([]model.SettingChange, error)
	Update(ctx context.Context, actor auth.Principal, key string, upd SettingUpdate, meta RequestMeta) (*model.Setting, error)
	Delete(ctx context.Context, actor auth.Principal, key string, meta RequestMeta) error
}

type settingService struct {
	repo  repository.SettingRepository
	cache *cache.Client
	audit AuditService
}

// NewSettingService creates a new setting service.
func NewSettingService(repo repository.SettingRepository, cache *cache.Client, audit AuditService) SettingService {
	return &settingService{repo: repo, cache: cache, audit: audit}
}

func (s *settingService) cacheKey(key string) string {
	return "setting:" + key
}

func (s *settingService) Get(ctx context.Context, key string) (*model.Setting, error) {
	var cached model.Setting
	if s.cache.GetJSON(ctx, s.cacheKey(key), &cached) {
		return &cached, nil
	}

	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	s.cache.SetJSON(ctx, s.cacheKey(key), setting, settingCacheTTL)
	return setting, nil
}

func (s *settingService) List(ctx context.Context, category string) ([]model.Setting, error) {
	return s.repo.List(ctx, category)
}

func (s *settingService) History(ctx context.Context, key string) ([]model.SettingChange, error) {
	return s.repo.ListChanges(ctx, key)
}

// Update requires ADMIN. The change entry is appended before the new
// value commits and both roll back together.
func (s *settingService) Update(ctx context.Context, actor auth.Principal, key string, upd SettingUpdate, meta RequestMeta) (*model.Setting, error) {
	if !actor.Role.AtLeast(model.RoleAdmin) {
		return nil, apperrors.ErrForbidden
	}

	category := upd.Category
	if category == "" {
		category = "general"
	}
	setting := &model.Setting{
		Key:         key,
		Value:       upd.Value,
		Description: upd.Description,
		Category:    category,
	}

	var previous *string
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.SettingRepository) error {
		existing, err := txRepo.Get(ctx, key)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load setting: %w", err)
		}
		if existing != nil {
			v := existing.Value
			previous = &v
			if upd.Description == nil {
				setting.Description = existing.Description
			}
			if upd.Category == "" {
				setting.Category = existing.Category
			}
		}

		if err := txRepo.AppendChange(ctx, &model.SettingChange{
			SettingKey:    key,
			PreviousValue: previous,
			NewValue:      upd.Value,
			ActorID:       actor.ID,
		}); err != nil {
			return fmt.Errorf("append change: %w", err)
		}
		return txRepo.Upsert(ctx, setting)
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(key))

	details := map[string]interface{}{"new_value": upd.Value}
	if previous != nil {
		details["previous_value"] = *previous
	}
	s.audit.Record(ctx, model.AuditSettingUpdate, "setting", &key, &actor.ID, details, meta)

	return setting, nil
}

// Delete requires SUPER_ADMIN. Change-log rows for the key stay behind.
func (s *settingService) Delete(ctx context.Context, actor auth.Principal, key string, meta RequestMeta) error {
	if !actor.Role.AtLeast(model.RoleSuperAdmin) {
		return apperrors.ErrForbidden
	}

	if err := s.repo.Delete(ctx, key); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("delete setting: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(key))
	s.audit.Record(ctx, model.AuditSettingDelete, "setting", &key, &actor.ID, nil, meta)
	return nil
}
