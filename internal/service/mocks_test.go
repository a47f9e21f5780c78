package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veritrust/internal/model"
	"veritrust/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserListFilter) ([]model.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) CountActiveByRole(ctx context.Context, role model.Role) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockApplicationRepository is a mock implementation of ApplicationRepository.
// WithTransaction runs the closure against the mock itself.
type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *MockApplicationRepository) List(ctx context.Context, filter repository.ApplicationListFilter) ([]model.Application, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Application), args.Get(1).(int64), args.Error(2)
}

func (m *MockApplicationRepository) UpdateStatusExpecting(ctx context.Context, id uuid.UUID, expected, next model.ApplicationStatus) error {
	args := m.Called(ctx, id, expected, next)
	return args.Error(0)
}

func (m *MockApplicationRepository) AppendHistory(ctx context.Context, entry *model.StatusHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockApplicationRepository) AddNote(ctx context.Context, note *model.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockApplicationRepository) AddAttachment(ctx context.Context, att *model.Attachment) error {
	args := m.Called(ctx, att)
	return args.Error(0)
}

func (m *MockApplicationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.ApplicationRepository) error) error {
	m.Called(ctx, fn)
	return fn(ctx, m)
}

// MockSettingRepository is a mock implementation of SettingRepository.
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Setting), args.Error(1)
}

func (m *MockSettingRepository) List(ctx context.Context, category string) ([]model.Setting, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Setting), args.Error(1)
}

func (m *MockSettingRepository) Upsert(ctx context.Context, setting *model.Setting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

func (m *MockSettingRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockSettingRepository) AppendChange(ctx context.Context, change *model.SettingChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockSettingRepository) ListChanges(ctx context.Context, key string) ([]model.SettingChange, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SettingChange), args.Error(1)
}

func (m *MockSettingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.SettingRepository) error) error {
	m.Called(ctx, fn)
	return fn(ctx, m)
}

// recordedAudit is one captured audit call.
type recordedAudit struct {
	Action  string
	ActorID *uuid.UUID
	Details map[string]interface{}
}

// recordingAudit captures audit calls for assertions.
type recordingAudit struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (r *recordingAudit) Record(_ context.Context, action, _ string, _ *string, actorID *uuid.UUID, details map[string]interface{}, _ RequestMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedAudit{Action: action, ActorID: actorID, Details: details})
}

func (r *recordingAudit) List(_ context.Context, _ repository.AuditListFilter) ([]model.AuditLog, int64, error) {
	return nil, 0, nil
}

func (r *recordingAudit) byAction(action string) []recordedAudit {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedAudit
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
