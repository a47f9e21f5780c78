package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"veritrust/internal/auth"
	apperrors "veritrust/internal/errors"
	"veritrust/internal/model"
	"veritrust/internal/repository"
)

func reviewerActor() auth.Principal {
	return auth.Principal{ID: uuid.New(), Email: "rita@b.com", Role: model.RoleReviewer}
}

func adminActor() auth.Principal {
	return auth.Principal{ID: uuid.New(), Email: "alice@b.com", Role: model.RoleAdmin}
}

func partnershipApp(status model.ApplicationStatus) *model.Application {
	return &model.Application{
		ID:           uuid.New(),
		Kind:         model.KindPartnership,
		ContactName:  "Jane Doe",
		ContactEmail: "jane@acme.test",
		Status:       status,
	}
}

func TestApplicationService_Transition(t *testing.T) {
	notes := "looks solid"

	tests := []struct {
		name          string
		actor         auth.Principal
		current       model.ApplicationStatus
		newStatus     model.ApplicationStatus
		notes         *string
		staleUpdate   bool
		expectedError error
		wantHistory   int
		wantUpdate    bool
	}{
		{
			name:        "reviewer follows the chain",
			actor:       reviewerActor(),
			current:     model.StatusNew,
			newStatus:   model.StatusUnderReview,
			notes:       &notes,
			wantHistory: 1,
			wantUpdate:  true,
		},
		{
			name:          "reviewer cannot skip the chain",
			actor:         reviewerActor(),
			current:       model.StatusNew,
			newStatus:     model.StatusOnboarding,
			expectedError: apperrors.ErrInvalidTransition,
		},
		{
			name:        "admin may override to any status",
			actor:       adminActor(),
			current:     model.StatusNew,
			newStatus:   model.StatusOnboarding,
			wantHistory: 1,
			wantUpdate:  true,
		},
		{
			name:          "status outside the kind's set",
			actor:         adminActor(),
			current:       model.StatusNew,
			newStatus:     model.StatusDraft,
			expectedError: apperrors.ErrInvalidStatus,
		},
		{
			name:          "no-op without notes",
			actor:         reviewerActor(),
			current:       model.StatusUnderReview,
			newStatus:     model.StatusUnderReview,
			expectedError: apperrors.ErrNoOpTransition,
		},
		{
			name:        "no-op with notes amends history only",
			actor:       reviewerActor(),
			current:     model.StatusUnderReview,
			newStatus:   model.StatusUnderReview,
			notes:       &notes,
			wantHistory: 1,
			wantUpdate:  false,
		},
		{
			name:          "stale status loses the race",
			actor:         reviewerActor(),
			current:       model.StatusNew,
			newStatus:     model.StatusUnderReview,
			staleUpdate:   true,
			expectedError: apperrors.ErrStaleStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := partnershipApp(tt.current)
			mockRepo := new(MockApplicationRepository)
			mockRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
			mockRepo.On("FindByID", mock.Anything, app.ID).Return(app, nil)

			var history []*model.StatusHistoryEntry
			mockRepo.On("AppendHistory", mock.Anything, mock.AnythingOfType("*model.StatusHistoryEntry")).
				Run(func(args mock.Arguments) {
					history = append(history, args.Get(1).(*model.StatusHistoryEntry))
				}).Return(nil).Maybe()

			if tt.staleUpdate {
				mockRepo.On("UpdateStatusExpecting", mock.Anything, app.ID, tt.current, tt.newStatus).
					Return(repository.ErrStaleUpdate)
			} else {
				mockRepo.On("UpdateStatusExpecting", mock.Anything, app.ID, tt.current, tt.newStatus).
					Return(nil).Maybe()
			}

			audit := &recordingAudit{}
			svc := NewApplicationService(mockRepo, audit)

			result, err := svc.Transition(context.Background(), tt.actor, app.ID, tt.newStatus, tt.notes, RequestMeta{})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				assert.Empty(t, history, "failed transitions must not append history")
				assert.Empty(t, audit.byAction(model.AuditStatusChange), "failed transitions must not audit")
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, result)
			assert.Len(t, history, tt.wantHistory)
			entry := history[0]
			assert.Equal(t, tt.current, *entry.PreviousStatus)
			assert.Equal(t, tt.newStatus, entry.NewStatus)
			assert.Equal(t, tt.actor.ID, *entry.ActorID)

			if tt.wantUpdate {
				mockRepo.AssertCalled(t, "UpdateStatusExpecting", mock.Anything, app.ID, tt.current, tt.newStatus)
			} else {
				mockRepo.AssertNotCalled(t, "UpdateStatusExpecting", mock.Anything, app.ID, tt.current, tt.newStatus)
			}

			changes := audit.byAction(model.AuditStatusChange)
			assert.Len(t, changes, 1, "exactly one audit entry per transition")
			assert.Equal(t, string(tt.current), changes[0].Details["previous_status"])
			assert.Equal(t, string(tt.newStatus), changes[0].Details["new_status"])
		})
	}
}

func TestApplicationService_Transition_RoleFloor(t *testing.T) {
	mockRepo := new(MockApplicationRepository)
	svc := NewApplicationService(mockRepo, &recordingAudit{})

	actor := auth.Principal{ID: uuid.New(), Role: model.RoleUser}
	_, err := svc.Transition(context.Background(), actor, uuid.New(), model.StatusUnderReview, nil, RequestMeta{})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	mockRepo.AssertNotCalled(t, "WithTransaction", mock.Anything, mock.Anything)
}

func TestApplicationService_Transition_NotFound(t *testing.T) {
	mockRepo := new(MockApplicationRepository)
	mockRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	id := uuid.New()
	mockRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	svc := NewApplicationService(mockRepo, &recordingAudit{})
	_, err := svc.Transition(context.Background(), reviewerActor(), id, model.StatusUnderReview, nil, RequestMeta{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestApplicationService_Create(t *testing.T) {
	tests := []struct {
		name        string
		kind        model.ApplicationKind
		wantInitial model.ApplicationStatus
	}{
		{"partnership starts NEW", model.KindPartnership, model.StatusNew},
		{"registration starts DRAFT", model.KindRegistration, model.StatusDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockApplicationRepository)
			mockRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
			mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Application")).Return(nil)

			var opening *model.StatusHistoryEntry
			mockRepo.On("AppendHistory", mock.Anything, mock.AnythingOfType("*model.StatusHistoryEntry")).
				Run(func(args mock.Arguments) {
					opening = args.Get(1).(*model.StatusHistoryEntry)
				}).Return(nil)

			audit := &recordingAudit{}
			svc := NewApplicationService(mockRepo, audit)

			app, err := svc.Create(context.Background(), ApplicationCreate{
				Kind:         tt.kind,
				ContactName:  "Jane Doe",
				ContactEmail: "jane@acme.test",
			}, RequestMeta{})

			assert.NoError(t, err)
			assert.Equal(t, tt.wantInitial, app.Status)
			assert.NotNil(t, opening)
			assert.Nil(t, opening.PreviousStatus)
			assert.Equal(t, tt.wantInitial, opening.NewStatus)
			assert.Len(t, audit.byAction(model.AuditApplicationSubmit), 1)
			mockRepo.AssertExpectations(t)
		})
	}
}

// fakeApplicationRepo is an in-memory repository used to exercise a full
// transition sequence and check the history fold against the live status.
type fakeApplicationRepo struct {
	app     *model.Application
	history []model.StatusHistoryEntry
	clock   time.Time
}

func (f *fakeApplicationRepo) Create(_ context.Context, app *model.Application) error {
	f.app = app
	return nil
}

func (f *fakeApplicationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Application, error) {
	if f.app == nil || f.app.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f.app
	return &cp, nil
}

func (f *fakeApplicationRepo) List(_ context.Context, _ repository.ApplicationListFilter) ([]model.Application, int64, error) {
	return nil, 0, nil
}

func (f *fakeApplicationRepo) UpdateStatusExpecting(_ context.Context, id uuid.UUID, expected, next model.ApplicationStatus) error {
	if f.app == nil || f.app.ID != id || f.app.Status != expected {
		return repository.ErrStaleUpdate
	}
	f.app.Status = next
	f.app.Version++
	return nil
}

func (f *fakeApplicationRepo) AppendHistory(_ context.Context, entry *model.StatusHistoryEntry) error {
	f.clock = f.clock.Add(time.Second)
	entry.ChangedAt = f.clock
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeApplicationRepo) AddNote(_ context.Context, _ *model.Note) error { return nil }

func (f *fakeApplicationRepo) AddAttachment(_ context.Context, _ *model.Attachment) error {
	return nil
}

func (f *fakeApplicationRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.ApplicationRepository) error) error {
	return fn(ctx, f)
}

func TestApplicationService_HistoryFoldMatchesStatus(t *testing.T) {
	repo := &fakeApplicationRepo{clock: time.Now()}
	svc := NewApplicationService(repo, &recordingAudit{})
	actor := reviewerActor()
	ctx := context.Background()

	app, err := svc.Create(ctx, ApplicationCreate{
		Kind:         model.KindPartnership,
		ContactName:  "Jane Doe",
		ContactEmail: "jane@acme.test",
	}, RequestMeta{})
	assert.NoError(t, err)

	for _, next := range []model.ApplicationStatus{
		model.StatusUnderReview,
		model.StatusApproved,
		model.StatusOnboarding,
	} {
		_, err := svc.Transition(ctx, actor, app.ID, next, nil, RequestMeta{})
		assert.NoError(t, err)
	}

	// Re-applying the final status without notes is a rejected no-op and
	// leaves no trace.
	before := len(repo.history)
	_, err = svc.Transition(ctx, actor, app.ID, model.StatusOnboarding, nil, RequestMeta{})
	assert.ErrorIs(t, err, apperrors.ErrNoOpTransition)
	assert.Len(t, repo.history, before)

	// Folding history ascending by ChangedAt reproduces the live status.
	entries := make([]model.StatusHistoryEntry, len(repo.history))
	copy(entries, repo.history)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ChangedAt.Before(entries[j].ChangedAt)
	})
	var folded model.ApplicationStatus
	for _, e := range entries {
		if e.PreviousStatus != nil {
			assert.Equal(t, folded, *e.PreviousStatus, "history chain must be gapless")
		}
		folded = e.NewStatus
	}
	assert.Equal(t, repo.app.Status, folded)
	assert.Equal(t, model.StatusOnboarding, folded)
}
