package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
)

// AuthService implements token obtain/refresh and bearer-token resolution.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, log: log}
}

// Login verifies the credentials and issues an access/refresh pair. An
// unknown account and a wrong password are indistinguishable to the client.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (ports.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return ports.TokenPair{}, domain.ErrInvalidCredentials
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return ports.TokenPair{}, domain.ErrInvalidCredentials
		}
		return ports.TokenPair{}, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.log.Debug().Int64("user_id", user.ID).Msg("password mismatch")
		return ports.TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return ports.TokenPair{}, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("token pair issued")
	return pair, nil
}

// lookup resolves an email first (the login field) and falls back to the
// username, which may itself contain '@'.
func (s *AuthService) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	if strings.Contains(identifier, "@") {
		user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(identifier))
		if err == nil || !errors.Is(err, domain.ErrUserNotFound) {
			return user, err
		}
	}
	return s.repo.FindByUsername(ctx, identifier)
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.resolve(ctx, refreshToken, ports.TokenRefresh)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueAccess(user.ID)
}

// Authenticate resolves an access token to the current user record.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	return s.resolve(ctx, accessToken, ports.TokenAccess)
}

func (s *AuthService) resolve(ctx context.Context, token string, want ports.TokenType) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	userID, err := s.tokens.Verify(token, want)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}
