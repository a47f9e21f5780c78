package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"veritrust/internal/auth"
	"veritrust/internal/cache"
	apperrors "veritrust/internal/errors"
	"veritrust/internal/model"
	"veritrust/internal/notify"
	"veritrust/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserCreate is the input for admin-initiated user creation. Password is
// optional: accounts may be provisioned pending setup.
type UserCreate struct {
	Name     string
	Email    string
	Password *string
	Role     model.Role
}

// UserUpdate is a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Role     *model.Role
	Active   *bool
}

// UserService manages user accounts. Deletion is soft: Active flips to
// false and the row stays.
type UserService interface {
	Create(ctx context.Context, actor auth.Principal, input UserCreate, meta RequestMeta) (*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context, filter repository.UserListFilter) ([]model.User, int64, error)
	Update(ctx context.Context, actor auth.Principal, targetID uuid.UUID, upd UserUpdate, meta RequestMeta) (*model.User, error)
	Deactivate(ctx context.Context, actor auth.Principal, targetID uuid.UUID, meta RequestMeta) error
}

type userService struct {
	repo   repository.UserRepository
	cache  *cache.Client
	audit  AuditService
	mailer notify.Mailer
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository, cache *cache.Client, audit AuditService, mailer notify.Mailer) UserService {
	return &userService{repo: repo, cache: cache, audit: audit, mailer: mailer}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) Create(ctx context.Context, actor auth.Principal, input UserCreate, meta RequestMeta) (*model.User, error) {
	role := input.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.IsValid() {
		return nil, apperrors.ErrInvalidRole
	}
	// Only a super admin may mint another super admin.
	if role == model.RoleSuperAdmin && actor.Role != model.RoleSuperAdmin {
		return nil, apperrors.ErrForbidden
	}

	existing, err := s.repo.FindByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check email: %w", err)
	}

	user := &model.User{
		Name:   input.Name,
		Email:  input.Email,
		Role:   role,
		Active: true,
	}
	if input.Password != nil {
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hash
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	entityID := user.ID.String()
	s.audit.Record(ctx, model.AuditUserCreate, "user", &entityID, &actor.ID, map[string]interface{}{
		"email": user.Email,
		"role":  string(user.Role),
	}, meta)

	notify.Dispatch(s.mailer, user.Email, "Welcome to VeriTrust",
		fmt.Sprintf("Hello %s, an account has been created for you.", user.Name))

	return user, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) List(ctx context.Context, filter repository.UserListFilter) ([]model.User, int64, error) {
	return s.repo.List(ctx, filter)
}

// Update applies a partial update. Self-updates by non-admins silently
// strip the privileged fields (email, role, active) rather than failing
// the whole request.
func (s *userService) Update(ctx context.Context, actor auth.Principal, targetID uuid.UUID, upd UserUpdate, meta RequestMeta) (*model.User, error) {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := auth.AllowSelfOrRole(actor, targetID, model.RoleAdmin); err != nil {
		return nil, err
	}

	if !actor.Role.AtLeast(model.RoleAdmin) {
		upd.Email = nil
		upd.Role = nil
		upd.Active = nil
	}

	changed := make([]string, 0, 4)

	if upd.Role != nil && *upd.Role != target.Role {
		if !upd.Role.IsValid() {
			return nil, apperrors.ErrInvalidRole
		}
		if *upd.Role == model.RoleSuperAdmin && actor.Role != model.RoleSuperAdmin {
			return nil, apperrors.ErrForbidden
		}
		if target.Role == model.RoleSuperAdmin && target.Active {
			if err := s.ensureNotLastSuperAdmin(ctx); err != nil {
				return nil, err
			}
		}
		target.Role = *upd.Role
		changed = append(changed, "role")
	}

	if upd.Active != nil && *upd.Active != target.Active {
		if !*upd.Active && target.Role == model.RoleSuperAdmin {
			if err := s.ensureNotLastSuperAdmin(ctx); err != nil {
				return nil, err
			}
		}
		target.Active = *upd.Active
		changed = append(changed, "active")
	}

	if upd.Email != nil && *upd.Email != target.Email {
		other, err := s.repo.FindByEmail(ctx, *upd.Email)
		if err == nil && other != nil && other.ID != targetID {
			return nil, apperrors.ErrEmailTaken
		}
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check email: %w", err)
		}
		target.Email = *upd.Email
		changed = append(changed, "email")
	}

	if upd.Name != nil && *upd.Name != target.Name {
		target.Name = *upd.Name
		changed = append(changed, "name")
	}

	if upd.Password != nil {
		hash, err := HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		target.PasswordHash = &hash
		changed = append(changed, "password")
	}

	if len(changed) == 0 {
		return target, nil
	}

	if err := s.repo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(targetID))

	entityID := targetID.String()
	s.audit.Record(ctx, model.AuditUserUpdate, "user", &entityID, &actor.ID, map[string]interface{}{
		"fields": changed,
	}, meta)

	return target, nil
}

// Deactivate soft-deletes a user. Refuses the actor's own account and the
// last active super admin.
func (s *userService) Deactivate(ctx context.Context, actor auth.Principal, targetID uuid.UUID, meta RequestMeta) error {
	if actor.ID == targetID {
		return apperrors.ErrSelfDeactivate
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if !target.Active {
		return nil // already deactivated
	}
	if target.Role == model.RoleSuperAdmin {
		if err := s.ensureNotLastSuperAdmin(ctx); err != nil {
			return err
		}
	}

	target.Active = false
	if err := s.repo.Update(ctx, target); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(targetID))

	entityID := targetID.String()
	s.audit.Record(ctx, model.AuditUserDeactivate, "user", &entityID, &actor.ID, nil, meta)
	return nil
}

// ensureNotLastSuperAdmin guards the invariant that at least one active
// super admin exists at all times.
func (s *userService) ensureNotLastSuperAdmin(ctx context.Context) error {
	count, err := s.repo.CountActiveByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("count super admins: %w", err)
	}
	if count <= 1 {
		return apperrors.ErrLastSuperAdmin
	}
	return nil
}
