package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
)

// CallerKey is the echo.Context key holding the authenticated *domain.User.
const CallerKey = "caller"

// Auth resolves the bearer access token to the current user record and
// injects it into the context. Requests without a valid token are rejected.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return domain.ErrUnauthorized
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			user, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				return err
			}

			c.Set(CallerKey, user)
			return next(c)
		}
	}
}

// Caller returns the user injected by Auth, or nil.
func Caller(c echo.Context) *domain.User {
	user, _ := c.Get(CallerKey).(*domain.User)
	return user
}
