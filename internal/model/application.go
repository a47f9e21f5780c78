package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApplicationKind distinguishes the two application flavors. Both share
// the same shape but draw their status from a different closed set.
type ApplicationKind string

const (
	KindPartnership  ApplicationKind = "partnership"
	KindRegistration ApplicationKind = "registration"
)

// ApplicationStatus is the current position of an application in its
// review workflow.
type ApplicationStatus string

const (
	// Partnership statuses.
	StatusNew         ApplicationStatus = "NEW"
	StatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	StatusApproved    ApplicationStatus = "APPROVED"
	StatusRejected    ApplicationStatus = "REJECTED"
	StatusOnboarding  ApplicationStatus = "ONBOARDING"

	// Registration-only statuses.
	StatusDraft     ApplicationStatus = "DRAFT"
	StatusSubmitted ApplicationStatus = "SUBMITTED"
)

var partnershipStatuses = map[ApplicationStatus]bool{
	StatusNew:         true,
	StatusUnderReview: true,
	StatusApproved:    true,
	StatusRejected:    true,
	StatusOnboarding:  true,
}

var registrationStatuses = map[ApplicationStatus]bool{
	StatusDraft:       true,
	StatusSubmitted:   true,
	StatusUnderReview: true,
	StatusApproved:    true,
	StatusRejected:    true,
}

// suggestedTransitions is the guided review chain. Reviewers must follow
// it; admins may set any member of the kind's status set.
var suggestedTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusNew:         {StatusUnderReview},
	StatusDraft:       {StatusSubmitted},
	StatusSubmitted:   {StatusUnderReview},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusOnboarding},
}

// ValidStatus reports whether status belongs to the kind's closed set.
func (k ApplicationKind) ValidStatus(status ApplicationStatus) bool {
	switch k {
	case KindPartnership:
		return partnershipStatuses[status]
	case KindRegistration:
		return registrationStatuses[status]
	default:
		return false
	}
}

// InitialStatus returns the status a freshly submitted application starts in.
func (k ApplicationKind) InitialStatus() ApplicationStatus {
	if k == KindRegistration {
		return StatusDraft
	}
	return StatusNew
}

// IsValid reports whether the kind is one of the defined kinds.
func (k ApplicationKind) IsValid() bool {
	return k == KindPartnership || k == KindRegistration
}

// SuggestedNext reports whether next is on the guided chain from current.
func SuggestedNext(current, next ApplicationStatus) bool {
	for _, s := range suggestedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// Application is a partnership or registration application submitted
// through the public wizard. Applications are never deleted.
type Application struct {
	ID               uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	UserID           *uuid.UUID        `json:"user_id,omitempty" gorm:"type:char(36);index"` // nullable: anonymous submissions
	Kind             ApplicationKind   `json:"kind" gorm:"type:varchar(20);not null;index"`
	CompanyName      string            `json:"company_name" gorm:"size:255"`
	ContactName      string            `json:"contact_name" gorm:"size:255;not null"`
	ContactEmail     string            `json:"contact_email" gorm:"size:255;not null;index"`
	ContactPhone     string            `json:"contact_phone" gorm:"size:50"`
	Country          string            `json:"country" gorm:"size:100"`
	Skills           []string          `json:"skills" gorm:"serializer:json"`
	Expertise        []string          `json:"expertise" gorm:"serializer:json"`
	Languages        []string          `json:"languages" gorm:"serializer:json"`
	Motivation       string            `json:"motivation" gorm:"type:text"`
	ProjectedRevenue decimal.Decimal   `json:"projected_revenue" gorm:"type:decimal(20,2);not null;default:0"`
	Status           ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Version          int               `json:"version" gorm:"not null;default:1"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	// Relations
	User          *User                `json:"-" gorm:"foreignKey:UserID"`
	StatusHistory []StatusHistoryEntry `json:"status_history,omitempty" gorm:"foreignKey:ApplicationID"`
	Notes         []Note               `json:"notes,omitempty" gorm:"foreignKey:ApplicationID"`
	Attachments   []Attachment         `json:"attachments,omitempty" gorm:"foreignKey:ApplicationID"`
}

// BeforeCreate sets UUID and the kind's initial status before creating.
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = a.Kind.InitialStatus()
	}
	return nil
}

// StatusHistoryEntry records one status change. Rows are immutable and
// append-only; the ascending ChangedAt sequence reconstructs the current
// status.
type StatusHistoryEntry struct {
	ID             uuid.UUID          `json:"id" gorm:"type:char(36);primaryKey"`
	ApplicationID  uuid.UUID          `json:"application_id" gorm:"type:char(36);not null;index"`
	PreviousStatus *ApplicationStatus `json:"previous_status,omitempty" gorm:"type:varchar(20)"`
	NewStatus      ApplicationStatus  `json:"new_status" gorm:"type:varchar(20);not null"`
	ActorID        *uuid.UUID         `json:"actor_id,omitempty" gorm:"type:char(36);index"`
	Notes          *string            `json:"notes,omitempty" gorm:"type:text"`
	ChangedAt      time.Time          `json:"changed_at" gorm:"not null;index"`
}

// BeforeCreate sets UUID and stamps ChangedAt if unset.
func (e *StatusHistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.ChangedAt.IsZero() {
		e.ChangedAt = time.Now()
	}
	return nil
}

// Note is a reviewer comment on an application. Append-only.
type Note struct {
	ID            uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ApplicationID uuid.UUID `json:"application_id" gorm:"type:char(36);not null;index"`
	AuthorID      uuid.UUID `json:"author_id" gorm:"type:char(36);not null"`
	Body          string    `json:"body" gorm:"type:text;not null"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Attachment holds metadata for an uploaded file. The bytes live on the
// configured storage path; only metadata is tracked here. Append-only.
type Attachment struct {
	ID            uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ApplicationID uuid.UUID `json:"application_id" gorm:"type:char(36);not null;index"`
	FileName      string    `json:"file_name" gorm:"size:255;not null"`
	ContentType   string    `json:"content_type" gorm:"size:100"`
	SizeBytes     int64     `json:"size_bytes"`
	StoragePath   string    `json:"-" gorm:"size:512;not null"`
	UploadedByID  uuid.UUID `json:"uploaded_by_id" gorm:"type:char(36);not null"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
