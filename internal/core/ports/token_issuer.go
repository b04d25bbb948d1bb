package ports

import "github.com/apicrud/user-api/internal/core/domain"

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// TokenPair is returned by a successful login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	IssuePair(user *domain.User) (TokenPair, error)
	IssueAccess(userID int64) (string, error)
	// Verify checks signature, expiry and type, returning the subject user id.
	Verify(token string, want TokenType) (int64, error)
}
