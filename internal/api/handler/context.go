package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/apicrud/user-api/internal/api/middleware"
	"github.com/apicrud/user-api/internal/core/domain"
)

// ctxCaller returns the user resolved by the Auth middleware, or nil for an
// anonymous request.
func ctxCaller(c echo.Context) *domain.User {
	return middleware.Caller(c)
}

// pathID parses the :id route parameter. Anything that is not a positive
// integer cannot name a record.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrUserNotFound
	}
	return id, nil
}

// ordering reads ?ordering=. Unknown values fall back to the default order.
func ordering(c echo.Context) domain.UserOrder {
	order, ok := domain.ParseUserOrder(c.QueryParam("ordering"))
	if !ok {
		return domain.DefaultUserOrder
	}
	return order
}

// bindJSON binds the request body, reporting malformed input as a 400.
func bindJSON(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return nil
}
