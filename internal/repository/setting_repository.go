package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"veritrust/internal/model"
)

// SettingRepository defines settings persistence operations. Value writes
// and change-log appends run through WithTransaction together.
type SettingRepository interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	List(ctx context.Context, category string) ([]model.Setting, error)
	Upsert(ctx context.Context, setting *model.Setting) error
	Delete(ctx context.Context, key string) error
	AppendChange(ctx context.Context, change *model.SettingChange) error
	ListChanges(ctx context.Context, key string) ([]model.SettingChange, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo SettingRepository) error) error
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Get finds a setting by key.
func (r *settingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	var setting model.Setting
	if err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// List returns all settings, optionally filtered by category.
func (r *settingRepository) List(ctx context.Context, category string) ([]model.Setting, error) {
	q := r.db.WithContext(ctx).Order("category, `key`")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var settings []model.Setting
	if err := q.Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// Upsert inserts or updates the setting value for a key.
func (r *settingRepository) Upsert(ctx context.Context, setting *model.Setting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "category", "updated_at"}),
	}).Create(setting).Error
}

// Delete removes a setting row. The change log rows stay.
func (r *settingRepository) Delete(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Where("`key` = ?", key).Delete(&model.Setting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendChange appends one immutable settings change entry.
func (r *settingRepository) AppendChange(ctx context.Context, change *model.SettingChange) error {
	return r.db.WithContext(ctx).Create(change).Error
}

// ListChanges returns the change history for a key, newest first.
func (r *settingRepository) ListChanges(ctx context.Context, key string) ([]model.SettingChange, error) {
	var changes []model.SettingChange
	if err := r.db.WithContext(ctx).
		Where("setting_key = ?", key).
		Order("changed_at DESC").
		Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}

// WithTransaction executes a function within a database transaction.
func (r *settingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo SettingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &settingRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
