package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit actions recorded across the service. One entry per logical
// mutation, never per failed validation attempt.
const (
	AuditLoginSuccess      = "auth.login"
	AuditLoginAttempt      = "auth.login_attempt"
	AuditUserCreate        = "user.create"
	AuditUserUpdate        = "user.update"
	AuditUserDeactivate    = "user.deactivate"
	AuditStatusChange      = "application.status_change"
	AuditApplicationSubmit = "application.submit"
	AuditSettingUpdate     = "setting.update"
	AuditSettingDelete     = "setting.delete"
)

// AuditLog is an immutable record of a sensitive action. The table is
// append-only; no update or delete path exists anywhere in the API.
type AuditLog struct {
	ID         uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Action     string         `json:"action" gorm:"size:100;not null;index"`
	EntityType string         `json:"entity_type" gorm:"size:100;not null;index"`
	EntityID   *string        `json:"entity_id,omitempty" gorm:"size:64;index"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty" gorm:"type:char(36);index"` // nil for unauthenticated attempts
	Details    datatypes.JSON `json:"details,omitempty" gorm:"type:json"`
	IPAddress  string         `json:"ip_address" gorm:"size:64"`
	UserAgent  string         `json:"user_agent" gorm:"size:512"`
	CreatedAt  time.Time      `json:"created_at" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
