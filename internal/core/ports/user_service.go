package ports

import (
	"context"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/policy"
)

// RegisterInput carries a registration request.
type RegisterInput struct {
	Email       string
	Username    string
	Password    string
	Avatar      *string
	Description *string
	// FieldErrors holds format errors already found at the boundary. The
	// service adds uniqueness errors to them and never persists.
	FieldErrors *domain.ValidationError
}

// OptionalString distinguishes "absent" from "explicit value (possibly null)".
type OptionalString struct {
	Set   bool
	Value *string
}

// ProfileUpdateInput is a merge-patch of the caller's own profile. Nil
// Username/Email and unset Description/Avatar keep the current value.
type ProfileUpdateInput struct {
	Username    *string
	Email       *string
	Description OptionalString
	Avatar      OptionalString
}

// UserUpdateInput is a generic record update. With Partial=false Email and
// Username are required.
type UserUpdateInput struct {
	Email       *string
	Username    *string
	Description OptionalString
	Avatar      OptionalString
	Partial     bool
}

// UserService holds the user use cases. The caller argument is the resolved
// identity of the request (nil when anonymous).
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Profile(ctx context.Context, caller *domain.User) (*domain.User, error)
	UpdateProfile(ctx context.Context, caller *domain.User, in ProfileUpdateInput) (*domain.User, error)
	ListUsers(ctx context.Context, caller *domain.User, realm policy.Realm, order domain.UserOrder) ([]*domain.User, error)
	GetUser(ctx context.Context, caller *domain.User, realm policy.Realm, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, caller *domain.User, realm policy.Realm, id int64, in UserUpdateInput) (*domain.User, error)
	DeleteUser(ctx context.Context, caller *domain.User, id int64) error
}
