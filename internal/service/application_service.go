package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"veritrust/internal/auth"
	apperrors "veritrust/internal/errors"
	"veritrust/internal/model"
	"veritrust/internal/repository"
)

// TransitionMinimumRole is the single minimum role for status transitions.
// Enforced here for every caller, never per-route.
const TransitionMinimumRole = model.RoleReviewer

// ApplicationCreate is the input for a public application submission.
type ApplicationCreate struct {
	Kind             model.ApplicationKind
	UserID           *uuid.UUID
	CompanyName      string
	ContactName      string
	ContactEmail     string
	ContactPhone     string
	Country          string
	Skills           []string
	Expertise        []string
	Languages        []string
	Motivation       string
	ProjectedRevenue decimal.Decimal
}

// AttachmentInput carries uploaded file metadata.
type AttachmentInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	StoragePath string
}

// ApplicationService manages partnership and registration applications and
// their status workflow. Applications are never deleted.
type ApplicationService interface {
	Create(ctx context.Context, input ApplicationCreate, meta RequestMeta) (*model.Application, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Application, error)
	List(ctx context.Context, filter repository.ApplicationListFilter) ([]model.Application, int64, error)
	// Transition validates and applies a status change, committing the
	// status update and the history append as one transaction.
	Transition(ctx context.Context, actor auth.Principal, id uuid.UUID, newStatus model.ApplicationStatus, notes *string, meta RequestMeta) (*model.Application, error)
	AddNote(ctx context.Context, actor auth.Principal, id uuid.UUID, body string) (*model.Note, error)
	AddAttachment(ctx context.Context, actor auth.Principal, id uuid.UUID, input AttachmentInput) (*model.Attachment, error)
}

type applicationService struct {
	repo  repository.ApplicationRepository
	audit AuditService
}

// NewApplicationService creates a new application service.
func NewApplicationService(repo repository.ApplicationRepository, audit AuditService) ApplicationService {
	return &applicationService{repo: repo, audit: audit}
}

func (s *applicationService) Create(ctx context.Context, input ApplicationCreate, meta RequestMeta) (*model.Application, error) {
	if !input.Kind.IsValid() {
		return nil, apperrors.ErrInvalidStatus
	}

	app := &model.Application{
		UserID:           input.UserID,
		Kind:             input.Kind,
		CompanyName:      input.CompanyName,
		ContactName:      input.ContactName,
		ContactEmail:     input.ContactEmail,
		ContactPhone:     input.ContactPhone,
		Country:          input.Country,
		Skills:           input.Skills,
		Expertise:        input.Expertise,
		Languages:        input.Languages,
		Motivation:       input.Motivation,
		ProjectedRevenue: input.ProjectedRevenue,
		Status:           input.Kind.InitialStatus(),
	}

	// The submission and its opening history entry commit together, so a
	// fold over history always reproduces the current status.
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.ApplicationRepository) error {
		if err := txRepo.Create(ctx, app); err != nil {
			return err
		}
		return txRepo.AppendHistory(ctx, &model.StatusHistoryEntry{
			ApplicationID: app.ID,
			NewStatus:     app.Status,
			ActorID:       input.UserID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	entityID := app.ID.String()
	s.audit.Record(ctx, model.AuditApplicationSubmit, "application", &entityID, input.UserID, map[string]interface{}{
		"kind":   string(app.Kind),
		"status": string(app.Status),
	}, meta)

	return app, nil
}

func (s *applicationService) Get(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *applicationService) List(ctx context.Context, filter repository.ApplicationListFilter) ([]model.Application, int64, error) {
	return s.repo.List(ctx, filter)
}

func (s *applicationService) Transition(ctx context.Context, actor auth.Principal, id uuid.UUID, newStatus model.ApplicationStatus, notes *string, meta RequestMeta) (*model.Application, error) {
	if !actor.Role.AtLeast(TransitionMinimumRole) {
		return nil, apperrors.ErrForbidden
	}

	var previous model.ApplicationStatus

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.ApplicationRepository) error {
		app, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("load application: %w", err)
		}
		previous = app.Status

		if !app.Kind.ValidStatus(newStatus) {
			return apperrors.ErrInvalidStatus
		}

		if newStatus == app.Status {
			// Re-applying the current status only amends notes; without
			// notes it is a rejected no-op.
			if notes == nil || *notes == "" {
				return apperrors.ErrNoOpTransition
			}
			prev := app.Status
			return txRepo.AppendHistory(ctx, &model.StatusHistoryEntry{
				ApplicationID:  app.ID,
				PreviousStatus: &prev,
				NewStatus:      newStatus,
				ActorID:        &actor.ID,
				Notes:          notes,
			})
		}

		// Reviewers follow the guided chain; admins may override to any
		// member of the kind's status set.
		if !actor.Role.AtLeast(model.RoleAdmin) && !model.SuggestedNext(app.Status, newStatus) {
			return apperrors.ErrInvalidTransition
		}

		if err := txRepo.UpdateStatusExpecting(ctx, id, app.Status, newStatus); err != nil {
			if errors.Is(err, repository.ErrStaleUpdate) {
				return apperrors.ErrStaleStatus
			}
			return fmt.Errorf("update status: %w", err)
		}

		prev := app.Status
		return txRepo.AppendHistory(ctx, &model.StatusHistoryEntry{
			ApplicationID:  app.ID,
			PreviousStatus: &prev,
			NewStatus:      newStatus,
			ActorID:        &actor.ID,
			Notes:          notes,
		})
	})
	if err != nil {
		return nil, err
	}

	entityID := id.String()
	s.audit.Record(ctx, model.AuditStatusChange, "application", &entityID, &actor.ID, map[string]interface{}{
		"previous_status": string(previous),
		"new_status":      string(newStatus),
	}, meta)

	return s.Get(ctx, id)
}

func (s *applicationService) AddNote(ctx context.Context, actor auth.Principal, id uuid.UUID, body string) (*model.Note, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	note := &model.Note{
		ApplicationID: id,
		AuthorID:      actor.ID,
		Body:          body,
	}
	if err := s.repo.AddNote(ctx, note); err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	return note, nil
}

func (s *applicationService) AddAttachment(ctx context.Context, actor auth.Principal, id uuid.UUID, input AttachmentInput) (*model.Attachment, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	att := &model.Attachment{
		ApplicationID: id,
		FileName:      input.FileName,
		ContentType:   input.ContentType,
		SizeBytes:     input.SizeBytes,
		StoragePath:   input.StoragePath,
		UploadedByID:  actor.ID,
	}
	if err := s.repo.AddAttachment(ctx, att); err != nil {
		return nil, fmt.Errorf("add attachment: %w", err)
	}
	return att, nil
}
