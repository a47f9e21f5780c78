package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Setting is a keyed configuration value editable from the admin panel.
type Setting struct {
	Key         string    `json:"key" gorm:"size:100;primaryKey"`
	Value       string    `json:"value" gorm:"type:text;not null"`
	Description *string   `json:"description,omitempty" gorm:"size:512"`
	Category    string    `json:"category" gorm:"size:100;not null;default:'general';index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingChange records one settings update. Append-only, same pattern as
// application status history.
type SettingChange struct {
	ID            uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	SettingKey    string    `json:"setting_key" gorm:"size:100;not null;index"`
	PreviousValue *string   `json:"previous_value,omitempty" gorm:"type:text"`
	NewValue      string    `json:"new_value" gorm:"type:text;not null"`
	ActorID       uuid.UUID `json:"actor_id" gorm:"type:char(36);not null"`
	ChangedAt     time.Time `json:"changed_at" gorm:"not null;index"`
}

// BeforeCreate sets UUID and stamps ChangedAt if unset.
func (c *SettingChange) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ChangedAt.IsZero() {
		c.ChangedAt = time.Now()
	}
	return nil
}
