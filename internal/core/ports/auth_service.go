package ports

import (
	"context"

	"github.com/apicrud/user-api/internal/core/domain"
)

// AuthService obtains and refreshes tokens and resolves bearer tokens to users.
type AuthService interface {
	// Login accepts either an email or a username as identifier.
	Login(ctx context.Context, identifier, password string) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}
