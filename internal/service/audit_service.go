package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"veritrust/internal/model"
	"veritrust/internal/repository"
)

// RequestMeta carries per-request client details handlers capture for the
// audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditService appends immutable records of sensitive actions.
type AuditService interface {
	// Record is best-effort: it never returns an error to the caller. The
	// primary mutation has already committed; a failed audit write is
	// downgraded to an operational warning.
	Record(ctx context.Context, action, entityType string, entityID *string, actorID *uuid.UUID, details map[string]interface{}, meta RequestMeta)
	List(ctx context.Context, filter repository.AuditListFilter) ([]model.AuditLog, int64, error)
}

type auditService struct {
	repo repository.AuditLogRepository
}

// NewAuditService creates a new audit service.
func NewAuditService(repo repository.AuditLogRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, action, entityType string, entityID *string, actorID *uuid.UUID, details map[string]interface{}, meta RequestMeta) {
	entry := &model.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if len(details) > 0 {
		payload, err := json.Marshal(details)
		if err != nil {
			log.Printf("audit: marshal details for %s: %v", action, err)
		} else {
			entry.Details = datatypes.JSON(payload)
		}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: write %s failed: %v", action, err)
	}
}

func (s *auditService) List(ctx context.Context, filter repository.AuditListFilter) ([]model.AuditLog, int64, error) {
	return s.repo.List(ctx, filter)
}
