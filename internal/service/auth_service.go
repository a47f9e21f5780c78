package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"veritrust/internal/auth"
	apperrors "veritrust/internal/errors"
	"veritrust/internal/model"
	"veritrust/internal/repository"
)

const bcryptCost = 10

// AuthService validates credentials and issues session tokens.
type AuthService interface {
	// Authenticate resolves email+password to a principal. Unknown email,
	// absent hash and wrong password all map to the same error so the
	// response never reveals which. Every attempt, successful or not, is
	// audit-logged.
	Authenticate(ctx context.Context, email, password string, meta RequestMeta) (auth.Principal, error)
	// IssueSession signs a session token for the principal.
	IssueSession(p auth.Principal) (string, error)
	// CurrentUser loads the principal's user row, re-checking the active
	// flag against the store rather than trusting the token.
	CurrentUser(ctx context.Context, p auth.Principal) (*model.User, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	audit  AuditService
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, audit AuditService) AuthService {
	return &authService{users: users, tokens: tokens, audit: audit}
}

func (s *authService) Authenticate(ctx context.Context, email, password string, meta RequestMeta) (auth.Principal, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			s.auditFailure(ctx, email, "unknown_email", meta)
			return auth.Principal{}, apperrors.ErrInvalidCredentials
		}
		return auth.Principal{}, fmt.Errorf("lookup user: %w", err)
	}

	if user.PasswordHash == nil {
		s.auditFailure(ctx, email, "no_password_set", meta)
		return auth.Principal{}, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		s.auditFailure(ctx, email, "password_mismatch", meta)
		return auth.Principal{}, apperrors.ErrInvalidCredentials
	}

	if !user.Active {
		s.auditFailure(ctx, email, "account_inactive", meta)
		return auth.Principal{}, apperrors.ErrAccountInactive
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return auth.Principal{}, fmt.Errorf("update last login: %w", err)
	}

	principal := auth.Principal{ID: user.ID, Email: user.Email, Role: user.Role}
	entityID := user.ID.String()
	s.audit.Record(ctx, model.AuditLoginSuccess, "user", &entityID, &user.ID, nil, meta)
	return principal, nil
}

// auditFailure records a failed attempt keyed by IP, with no principal.
func (s *authService) auditFailure(ctx context.Context, email, reason string, meta RequestMeta) {
	s.audit.Record(ctx, model.AuditLoginAttempt, "user", nil, nil, map[string]interface{}{
		"email":  email,
		"reason": reason,
	}, meta)
}

func (s *authService) IssueSession(p auth.Principal) (string, error) {
	return s.tokens.Issue(p)
}

func (s *authService) CurrentUser(ctx context.Context, p auth.Principal) (*model.User, error) {
	user, err := s.users.FindByID(ctx, p.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.Active {
		return nil, apperrors.ErrAccountInactive
	}
	return user, nil
}

// HashPassword generates a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
