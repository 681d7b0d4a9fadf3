package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/exeat-service/internal/auth"
	"github.com/spec-kit/exeat-service/internal/config"
	"github.com/spec-kit/exeat-service/internal/domain"
	"github.com/spec-kit/exeat-service/internal/repository"
	apperrors "github.com/spec-kit/exeat-service/pkg/util/errorutil"
)

// AuthService coordinates the login flow.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	audit    *AuditService
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, audit *AuditService) *AuthService {
	return &AuthService{
		users:    users,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTLDays),
		audit:    audit,
	}
}

// Login verifies credentials and issues a session token. The returned user
// has credential material stripped.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, "", time.Time{}, err
	}
	if !user.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err == nil {
		now := time.Now()
		user.LastLogin = &now
	}
	s.audit.Log(ctx, user.ID, domain.AuditLogin, "Logged in as "+string(user.Role), ip)

	sanitized := user.Sanitized()
	return &sanitized, token, expiresAt, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
