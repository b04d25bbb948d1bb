package ports

import (
	"context"

	"github.com/apicrud/user-api/internal/core/domain"
)

// ListUsersFilter narrows and orders a user listing. Order is always passed
// explicitly; the store has no implicit default.
type ListUsersFilter struct {
	ExcludeSuperusers bool             // drop is_superuser=true records
	IncludeID         int64            // kept even when ExcludeSuperusers drops it; 0 = none
	OnlyID            int64            // 0 = no id restriction
	Order             domain.UserOrder // required
}

// UserRepository is the persistent user table. Implementations enforce email
// and username uniqueness and report violations as domain.ErrEmailTaken or
// domain.ErrUsernameTaken, even when the check-then-write race is lost.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Update persists username, email, description and avatar of user.ID and
	// refreshes updated_at.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, error)
}
