package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/auth"
	"github.com/spec-kit/helpdesk-portal/internal/directory"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
)

// DirectoryLookup is the slice of the directory client the header strategy
// needs; the directory only improves display names, it never gates resolution.
type DirectoryLookup interface {
	Configured() bool
	LookupByAccountName(ctx context.Context, name string) *directory.UserInfo
}

// BearerTokenStrategy resolves a signed bearer token to its subject user.
type BearerTokenStrategy struct {
	tokens *auth.TokenManager
	users  repository.UserRepository
	logger *zap.Logger
}

// NewBearerTokenStrategy builds the token strategy.
func NewBearerTokenStrategy(tokens *auth.TokenManager, users repository.UserRepository, logger *zap.Logger) *BearerTokenStrategy {
	return &BearerTokenStrategy{tokens: tokens, users: users, logger: logger}
}

// Resolve verifies the token and loads the subject. Bad tokens and unknown
// subjects fall through rather than rejecting the request.
func (s *BearerTokenStrategy) Resolve(ctx context.Context, creds Credentials) *domain.User {
	if creds.BearerToken == "" {
		return nil
	}
	claims, err := s.tokens.Verify(creds.BearerToken)
	if err != nil {
		s.logger.Debug("bearer token rejected", zap.Error(err))
		return nil
	}
	user, err := s.users.GetByID(ctx, claims.SubjectUserID)
	if err != nil {
		s.logger.Debug("token subject not found", zap.String("subject", claims.SubjectUserID), zap.Error(err))
		return nil
	}
	return user
}

// ForwardedHeaderStrategy resolves proxy-injected SSO headers, provisioning a
// local account on first sight of a new name.
type ForwardedHeaderStrategy struct {
	users     repository.UserRepository
	directory DirectoryLookup
	logger    *zap.Logger
}

// NewForwardedHeaderStrategy builds the SSO header strategy.
func NewForwardedHeaderStrategy(users repository.UserRepository, dir DirectoryLookup, logger *zap.Logger) *ForwardedHeaderStrategy {
	return &ForwardedHeaderStrategy{users: users, directory: dir, logger: logger}
}

func (s *ForwardedHeaderStrategy) Resolve(ctx context.Context, creds Credentials) *domain.User {
	if creds.Header == nil {
		return nil
	}
	var raw string
	for _, name := range SSOHeaders {
		if val := creds.Header(name); val != "" {
			raw = val
			break
		}
	}
	if raw == "" {
		return nil
	}

	accountName := NormalizeAccountName(raw)
	if accountName == "" {
		return nil
	}

	user, err := s.users.GetByAccountName(ctx, accountName)
	if err == nil {
		return user
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		// a transient store failure is not absence; do not provision over it
		s.logger.Warn("account lookup failed", zap.String("account", accountName), zap.Error(err))
		return nil
	}

	// Not found: provision just-in-time. The directory lookup only improves
	// the display name; provisioning proceeds whether or not it succeeds.
	displayName := accountName
	if s.directory != nil && s.directory.Configured() {
		if info := s.directory.LookupByAccountName(ctx, accountName); info != nil && info.DisplayName != "" {
			displayName = info.DisplayName
		}
	}

	created, err := s.users.CreateIfAbsent(ctx, &domain.User{
		AccountName: accountName,
		DisplayName: displayName,
		IsExternal:  true,
	})
	if err != nil {
		s.logger.Warn("sso provisioning failed", zap.String("account", accountName), zap.Error(err))
		return nil
	}
	return created
}
