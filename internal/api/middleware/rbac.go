package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/apicrud/user-api/internal/core/policy"
)

// RequireAdmin lets only superusers through. It must run after Auth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := policy.RequireAdmin(Caller(c)); err != nil {
				return err
			}
			return next(c)
		}
	}
}
