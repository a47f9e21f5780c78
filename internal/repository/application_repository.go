package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"veritrust/internal/model"
)

// ApplicationListFilter narrows and pages the application listing.
type ApplicationListFilter struct {
	Kind   model.ApplicationKind
	Status *model.ApplicationStatus
	Search string
	Page   int
	Limit  int
}

// ApplicationRepository defines application persistence operations.
// Status updates and history appends run through WithTransaction so the
// two writes commit or roll back as one unit.
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	List(ctx context.Context, filter ApplicationListFilter) ([]model.Application, int64, error)
	UpdateStatusExpecting(ctx context.Context, id uuid.UUID, expected, next model.ApplicationStatus) error
	AppendHistory(ctx context.Context, entry *model.StatusHistoryEntry) error
	AddNote(ctx context.Context, note *model.Note) error
	AddAttachment(ctx context.Context, att *model.Attachment) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ApplicationRepository) error) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create creates a new application.
func (r *applicationRepository) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

// FindByID loads an application with its history (newest first for
// display), notes and attachments.
func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at DESC")
		}).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Attachments").
		Where("id = ?", id).
		First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns a page of applications matching the filter plus the total count.
func (r *applicationRepository) List(ctx context.Context, filter ApplicationListFilter) ([]model.Application, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("kind = ?", filter.Kind)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("contact_name LIKE ? OR contact_email LIKE ? OR company_name LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var apps []model.Application
	if err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// UpdateStatusExpecting performs a conditional status update keyed on the
// expected current status. Zero matched rows means another writer got
// there first and the caller must re-fetch and retry.
func (r *applicationRepository) UpdateStatusExpecting(ctx context.Context, id uuid.UUID, expected, next model.ApplicationStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]interface{}{
			"status":  next,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleUpdate
	}
	return nil
}

// AppendHistory appends one immutable status history entry.
func (r *applicationRepository) AppendHistory(ctx context.Context, entry *model.StatusHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// AddNote appends a note.
func (r *applicationRepository) AddNote(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

// AddAttachment appends attachment metadata.
func (r *applicationRepository) AddAttachment(ctx context.Context, att *model.Attachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

// WithTransaction executes a function within a database transaction.
func (r *applicationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ApplicationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &applicationRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
