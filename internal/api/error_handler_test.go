package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/apicrud/user-api/internal/core/domain"
)

func TestHTTPErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"username taken", domain.ErrUsernameTaken, http.StatusBadRequest, "El nombre de usuario ya está en uso"},
		{"email taken", domain.ErrEmailTaken, http.StatusBadRequest, "El correo electrónico ya está en uso"},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "No active account found with the given credentials"},
		{"anonymous", domain.ErrUnauthorized, http.StatusUnauthorized, "Authentication credentials were not provided."},
		{"bad token", fmt.Errorf("verify: %w", domain.ErrInvalidToken), http.StatusUnauthorized, "Token is invalid or expired"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "You do not have permission to perform this action."},
		{"not found", domain.ErrUserNotFound, http.StatusNotFound, "Not found."},
		{"busy", fmt.Errorf("reserve identifiers: %w", domain.ErrBusy), http.StatusServiceUnavailable, "service busy, please retry"},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{"unexpected", errors.New("db exploded"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tc.wantMsg {
				t.Fatalf("expected %q, got %q", tc.wantMsg, body.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_ValidationError(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/user", nil), rec)

	ve := domain.NewValidationError()
	ve.Add("email", domain.MsgEmailExists)
	NewHTTPErrorHandler(zerolog.Nop())(fmt.Errorf("register: %w", ve), c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body) != 1 || body["email"][0] != domain.MsgEmailExists {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.NoContent(http.StatusAccepted)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("committed response must not be rewritten, got %d", rec.Code)
	}
}
