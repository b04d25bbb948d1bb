// Package token issues and verifies HS256 bearer tokens (access + refresh).
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
)

const (
	defaultAccessTTL  = 5 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

var errWrongTokenType = errors.New("token has wrong type")

// Claims is the payload of every token this package signs.
type Claims struct {
	UserID    int64           `json:"user_id"`
	TokenType ports.TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTIssuer satisfies ports.TokenIssuer.
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewJWTIssuer(secret string, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &JWTIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *JWTIssuer) IssuePair(user *domain.User) (ports.TokenPair, error) {
	refresh, err := i.sign(user.ID, ports.TokenRefresh, i.refreshTTL)
	if err != nil {
		return ports.TokenPair{}, err
	}
	access, err := i.sign(user.ID, ports.TokenAccess, i.accessTTL)
	if err != nil {
		return ports.TokenPair{}, err
	}
	return ports.TokenPair{Access: access, Refresh: refresh}, nil
}

func (i *JWTIssuer) IssueAccess(userID int64) (string, error) {
	return i.sign(userID, ports.TokenAccess, i.accessTTL)
}

func (i *JWTIssuer) Verify(tokenString string, want ports.TokenType) (int64, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tkn.Valid {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.TokenType != want {
		return 0, fmt.Errorf("%w: %w", domain.ErrInvalidToken, errWrongTokenType)
	}
	return claims.UserID, nil
}

func (i *JWTIssuer) sign(userID int64, typ ports.TokenType, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        newJTI(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func newJTI() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// fallback: current nanoseconds
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(b)
}
