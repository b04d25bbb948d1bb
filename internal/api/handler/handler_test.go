package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/apicrud/user-api/internal/api/middleware"
	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/policy"
	"github.com/apicrud/user-api/internal/core/ports"
)

type stubUserService struct {
	registerFn      func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	profileFn       func(ctx context.Context, caller *domain.User) (*domain.User, error)
	updateProfileFn func(ctx context.Context, caller *domain.User, in ports.ProfileUpdateInput) (*domain.User, error)
	listFn          func(ctx context.Context, caller *domain.User, realm policy.Realm, order domain.UserOrder) ([]*domain.User, error)
	getFn           func(ctx context.Context, caller *domain.User, realm policy.Realm, id int64) (*domain.User, error)
	updateFn        func(ctx context.Context, caller *domain.User, realm policy.Realm, id int64, in ports.UserUpdateInput) (*domain.User, error)
	deleteFn        func(ctx context.Context, caller *domain.User, id int64) error
}

func (s *stubUserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubUserService) Profile(ctx context.Context, caller *domain.User) (*domain.User, error) {
	return s.profileFn(ctx, caller)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, caller *domain.User, in ports.ProfileUpdateInput) (*domain.User, error) {
	return s.updateProfileFn(ctx, caller, in)
}

func (s *stubUserService) ListUsers(ctx context.Context, caller *domain.User, realm policy.Realm, order domain.UserOrder) ([]*domain.User, error) {
	return s.listFn(ctx, caller, realm, order)
}

func (s *stubUserService) GetUser(ctx context.Context, caller *domain.User, realm policy.Realm, id int64) (*domain.User, error) {
	return s.getFn(ctx, caller, realm, id)
}

func (s *stubUserService) UpdateUser(ctx context.Context, caller *domain.User, realm policy.Realm, id int64, in ports.UserUpdateInput) (*domain.User, error) {
	return s.updateFn(ctx, caller, realm, id, in)
}

func (s *stubUserService) DeleteUser(ctx context.Context, caller *domain.User, id int64) error {
	return s.deleteFn(ctx, caller, id)
}

type stubAuthService struct {
	loginFn   func(ctx context.Context, identifier, password string) (ports.TokenPair, error)
	refreshFn func(ctx context.Context, refresh string) (string, error)
}

func (s *stubAuthService) Login(ctx context.Context, identifier, password string) (ports.TokenPair, error) {
	return s.loginFn(ctx, identifier, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, refresh string) (string, error) {
	return s.refreshFn(ctx, refresh)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrInvalidToken
}

// newContext builds an echo.Context for method/target with an optional JSON
// body, the package validator, and an optional authenticated caller.
func newContext(method, target, body string, caller *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if caller != nil {
		c.Set(middleware.CallerKey, caller)
	}
	return c, rec
}

func strPtr(s string) *string { return &s }
