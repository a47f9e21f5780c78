package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"veritrust/internal/auth"
	"veritrust/internal/cache"
	apperrors "veritrust/internal/errors"
	"veritrust/internal/model"
	"veritrust/internal/notify"
)

func newUserService(repo *MockUserRepository, audit *recordingAudit) UserService {
	return NewUserService(repo, (*cache.Client)(nil), audit, notify.LogMailer{})
}

func TestUserService_Update_SelfStripsPrivilegedFields(t *testing.T) {
	userID := uuid.New()
	actor := auth.Principal{ID: userID, Email: "paul@b.com", Role: model.RoleUser}
	adminRole := model.RoleAdmin
	newName := "New Name"

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, userID).Return(&model.User{
		ID:     userID,
		Name:   "Paul Partner",
		Email:  "paul@b.com",
		Role:   model.RoleUser,
		Active: true,
	}, nil)

	var saved *model.User
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*model.User)
		}).Return(nil)

	audit := &recordingAudit{}
	svc := newUserService(mockRepo, audit)

	updated, err := svc.Update(context.Background(), actor, userID, UserUpdate{
		Name: &newName,
		Role: &adminRole,
	}, RequestMeta{})

	assert.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, model.RoleUser, updated.Role, "privileged field must be ignored, not applied")
	assert.NotNil(t, saved)
	assert.Equal(t, model.RoleUser, saved.Role)

	entries := audit.byAction(model.AuditUserUpdate)
	assert.Len(t, entries, 1)
	assert.Equal(t, []string{"name"}, entries[0].Details["fields"])
	mockRepo.AssertExpectations(t)
}

func TestUserService_Update_PromoteToSuperAdminRequiresSuperAdmin(t *testing.T) {
	targetID := uuid.New()
	super := model.RoleSuperAdmin

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, targetID).Return(&model.User{
		ID:     targetID,
		Role:   model.RoleAdmin,
		Active: true,
	}, nil)

	svc := newUserService(mockRepo, &recordingAudit{})
	_, err := svc.Update(context.Background(), adminActor(), targetID, UserUpdate{Role: &super}, RequestMeta{})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_Update_DemoteLastSuperAdmin(t *testing.T) {
	targetID := uuid.New()
	admin := model.RoleAdmin
	actor := auth.Principal{ID: uuid.New(), Role: model.RoleSuperAdmin}

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, targetID).Return(&model.User{
		ID:     targetID,
		Role:   model.RoleSuperAdmin,
		Active: true,
	}, nil)
	mockRepo.On("CountActiveByRole", mock.Anything, model.RoleSuperAdmin).Return(int64(1), nil)

	svc := newUserService(mockRepo, &recordingAudit{})
	_, err := svc.Update(context.Background(), actor, targetID, UserUpdate{Role: &admin}, RequestMeta{})

	assert.ErrorIs(t, err, apperrors.ErrLastSuperAdmin)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_Deactivate(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(actorID, targetID uuid.UUID, m *MockUserRepository)
		selfTarget    bool
		expectedError error
		wantAudits    int
	}{
		{
			name: "deactivates a regular user",
			setup: func(actorID, targetID uuid.UUID, m *MockUserRepository) {
				m.On("FindByID", mock.Anything, targetID).Return(&model.User{
					ID: targetID, Role: model.RoleUser, Active: true,
				}, nil)
				m.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			wantAudits: 1,
		},
		{
			name:          "refuses self-deactivation",
			setup:         func(actorID, targetID uuid.UUID, m *MockUserRepository) {},
			selfTarget:    true,
			expectedError: apperrors.ErrSelfDeactivate,
		},
		{
			name: "refuses the last active super admin",
			setup: func(actorID, targetID uuid.UUID, m *MockUserRepository) {
				m.On("FindByID", mock.Anything, targetID).Return(&model.User{
					ID: targetID, Role: model.RoleSuperAdmin, Active: true,
				}, nil)
				m.On("CountActiveByRole", mock.Anything, model.RoleSuperAdmin).Return(int64(1), nil)
			},
			expectedError: apperrors.ErrLastSuperAdmin,
		},
		{
			name: "allows deactivating a super admin when another remains",
			setup: func(actorID, targetID uuid.UUID, m *MockUserRepository) {
				m.On("FindByID", mock.Anything, targetID).Return(&model.User{
					ID: targetID, Role: model.RoleSuperAdmin, Active: true,
				}, nil)
				m.On("CountActiveByRole", mock.Anything, model.RoleSuperAdmin).Return(int64(2), nil)
				m.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			wantAudits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := auth.Principal{ID: uuid.New(), Role: model.RoleSuperAdmin}
			targetID := uuid.New()
			if tt.selfTarget {
				targetID = actor.ID
			}

			mockRepo := new(MockUserRepository)
			tt.setup(actor.ID, targetID, mockRepo)
			audit := &recordingAudit{}
			svc := newUserService(mockRepo, audit)

			err := svc.Deactivate(context.Background(), actor, targetID, RequestMeta{})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, audit.byAction(model.AuditUserDeactivate), tt.wantAudits)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Create(t *testing.T) {
	password := "Secret123!"

	tests := []struct {
		name          string
		actor         auth.Principal
		input         UserCreate
		setupMock     func(m *MockUserRepository)
		expectedError error
	}{
		{
			name:  "creates a reviewer",
			actor: adminActor(),
			input: UserCreate{Name: "Rita", Email: "rita@b.com", Password: &password, Role: model.RoleReviewer},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "rita@b.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:  "duplicate email",
			actor: adminActor(),
			input: UserCreate{Name: "Rita", Email: "rita@b.com", Role: model.RoleReviewer},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "rita@b.com").Return(&model.User{Email: "rita@b.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name:          "admin cannot mint a super admin",
			actor:         adminActor(),
			input:         UserCreate{Name: "Eve", Email: "eve@b.com", Role: model.RoleSuperAdmin},
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)
			audit := &recordingAudit{}
			svc := newUserService(mockRepo, audit)

			user, err := svc.Create(context.Background(), tt.actor, tt.input, RequestMeta{})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				assert.Empty(t, audit.byAction(model.AuditUserCreate))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.True(t, user.Active)
				assert.NotNil(t, user.PasswordHash)
				assert.Len(t, audit.byAction(model.AuditUserCreate), 1)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}
