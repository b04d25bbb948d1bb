package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/apicrud/user-api/internal/api/metrics"
	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
)

// TokenHandler serves the token obtain and refresh endpoints.
type TokenHandler struct {
	auth ports.AuthService
}

func NewTokenHandler(auth ports.AuthService) *TokenHandler {
	return &TokenHandler{auth: auth}
}

// Obtain exchanges credentials for an access/refresh pair.
//
// @Summary      Obtain a token pair
// @Tags         token
// @Accept       json
// @Produce      json
// @Param        body  body      tokenObtainRequest  true  "email (or username) and password"
// @Success      200   {object}  tokenPairResponse
// @Failure      400   {object}  fieldErrorsResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/token/ [post]
func (h *TokenHandler) Obtain(c echo.Context) error {
	var req tokenObtainRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}

	ve := domain.NewValidationError()
	if err := c.Validate(&req); err != nil {
		if !errors.As(err, &ve) {
			return err
		}
	}
	if identifier == "" {
		ve.Add("email", domain.MsgRequired)
	}
	if !ve.Empty() {
		return ve
	}

	pair, err := h.auth.Login(c.Request().Context(), identifier, req.Password)
	if err != nil {
		metrics.TokenFailuresTotal.WithLabelValues("password").Inc()
		return err
	}

	metrics.TokensIssuedTotal.WithLabelValues("password").Inc()
	return c.JSON(http.StatusOK, tokenPairResponse{Access: pair.Access, Refresh: pair.Refresh})
}

// Refresh exchanges a refresh token for a new access token.
//
// @Summary      Refresh an access token
// @Tags         token
// @Accept       json
// @Produce      json
// @Param        body  body      tokenRefreshRequest  true  "Refresh token"
// @Success      200   {object}  accessResponse
// @Failure      400   {object}  fieldErrorsResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/token/refresh/ [post]
func (h *TokenHandler) Refresh(c echo.Context) error {
	var req tokenRefreshRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	access, err := h.auth.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		metrics.TokenFailuresTotal.WithLabelValues("refresh").Inc()
		return err
	}

	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	return c.JSON(http.StatusOK, accessResponse{Access: access})
}
