package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-portal/internal/auth"
	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new local account with a password credential.
func (s *AuthService) Register(ctx context.Context, username, password, displayName string) (*domain.User, error) {
	if _, err := s.users.GetByAccountName(ctx, username); err == nil {
		return nil, apperrors.NewConflict("account name already taken", nil)
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = username
	}

	user := &domain.User{
		AccountName:  username,
		PasswordHash: &hash,
		DisplayName:  displayName,
		IsExternal:   false,
	}
	created, err := s.users.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, err
	}
	// CreateIfAbsent hands back the pre-existing row when the name was taken
	// by a concurrent insert.
	if created != user {
		return nil, apperrors.NewConflict("account name already taken", nil)
	}
	return user, nil
}

// Login authenticates a local account and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByAccountName(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	// directory-provisioned accounts carry no password credential
	if user.PasswordHash == nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(*user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.Generate(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// ListUsers returns all local accounts ordered by account name.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.ListAll(ctx)
}

// TokenManager exposes the underlying token manager for the identity resolver.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
