package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/policy"
	"github.com/apicrud/user-api/internal/core/ports"
)

// UserService implements registration, profile self-service and the generic
// record operations.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	locker ports.Locker
	log    zerolog.Logger
}

// NewUserService wires the use cases. locker may be nil, in which case only
// the store's unique constraints arbitrate concurrent writers.
func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, locker ports.Locker, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, locker: locker, log: log}
}

func usernameLockKey(username string) string { return "user:lock:username:" + username }
func emailLockKey(email string) string       { return "user:lock:email:" + email }

// reserve holds the username/email locks for a check-then-write sequence.
func (s *UserService) reserve(ctx context.Context, username, email string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Lock(ctx, usernameLockKey(username), emailLockKey(email))
	if err != nil {
		return nil, fmt.Errorf("reserve identifiers: %w", err)
	}
	return release, nil
}

// Register creates an ordinary (non-superuser) account.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)

	ve := domain.NewValidationError()
	ve.Merge(in.FieldErrors)
	if !ve.Has("password") {
		switch {
		case in.Password == "":
			ve.Add("password", domain.MsgRequired)
		case utf8.RuneCountInString(in.Password) > domain.MaxPasswordLength:
			ve.Add("password", domain.MsgPasswordTooLong)
		}
	}

	// Malformed input is never written; uniqueness is still reported for the
	// fields that passed format checks, without taking the locks.
	if !ve.Empty() {
		username, candidate := in.Username, email
		if ve.Has("username") {
			username = ""
		}
		if ve.Has("email") {
			candidate = ""
		}
		if err := s.checkUnique(ctx, ve, 0, username, candidate); err != nil {
			return nil, err
		}
		return nil, ve
	}

	release, err := s.reserve(ctx, in.Username, email)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.checkUnique(ctx, ve, 0, in.Username, email); err != nil {
		return nil, err
	}
	if !ve.Empty() {
		return nil, ve
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        email,
		PasswordHash: hash,
		Description:  in.Description,
		Avatar:       in.Avatar,
		IsSuperuser:  false,
		DateJoined:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if conflict := conflictToFieldError(err); conflict != nil {
			return nil, conflict
		}
		s.log.Error().Err(err).Str("username", in.Username).Msg("failed to create user")
		return nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Profile returns the caller's own record.
func (s *UserService) Profile(_ context.Context, caller *domain.User) (*domain.User, error) {
	if err := policy.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	return caller, nil
}

// UpdateProfile merge-patches the caller's own record. Username is checked
// before email; the first conflict aborts without mutating anything.
func (s *UserService) UpdateProfile(ctx context.Context, caller *domain.User, in ports.ProfileUpdateInput) (*domain.User, error) {
	if err := policy.RequireAuthenticated(caller); err != nil {
		return nil, err
	}

	username := caller.Username
	if in.Username != nil {
		username = *in.Username
	}
	email := caller.Email
	if in.Email != nil {
		email = domain.NormalizeEmail(*in.Email)
	}

	release, err := s.reserve(ctx, username, email)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.repo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if taken, err := s.usedByOther(ctx, s.repo.FindByUsername, username, current.ID); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrUsernameTaken
	}
	if taken, err := s.usedByOther(ctx, s.repo.FindByEmail, email, current.ID); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrEmailTaken
	}

	next := *current
	next.Username = username
	next.Email = email
	if in.Description.Set {
		next.Description = in.Description.Value
	}
	if in.Avatar.Set {
		next.Avatar = in.Avatar.Value
	}

	updated, err := s.repo.Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", updated.ID).Msg("profile updated")
	return updated, nil
}

// ListUsers enumerates the records caller may see through realm.
func (s *UserService) ListUsers(ctx context.Context, caller *domain.User, realm policy.Realm, order domain.UserOrder) ([]*domain.User, error) {
	scope, err := policy.ListScope(caller, realm)
	if err != nil {
		return nil, err
	}
	if order == "" {
		order = domain.DefaultUserOrder
	}
	return s.repo.List(ctx, ports.ListUsersFilter{
		ExcludeSuperusers: scope.ExcludeSuperusers,
		IncludeID:         scope.IncludeID,
		OnlyID:            scope.OnlyID,
		Order:             order,
	})
}

// GetUser loads a single record subject to the access policy.
func (s *UserService) GetUser(ctx context.Context, caller *domain.User, realm policy.Realm, id int64) (*domain.User, error) {
	if err := policy.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	if realm == policy.RealmAdmin {
		if err := policy.RequireAdmin(caller); err != nil {
			return nil, err
		}
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckRecord(caller, target, realm); err != nil {
		return nil, err
	}
	return target, nil
}

// UpdateUser applies a generic record update. Uniqueness failures are
// reported as field errors; password and is_superuser are never touched.
func (s *UserService) UpdateUser(ctx context.Context, caller *domain.User, realm policy.Realm, id int64, in ports.UserUpdateInput) (*domain.User, error) {
	target, err := s.GetUser(ctx, caller, realm, id)
	if err != nil {
		return nil, err
	}

	ve := domain.NewValidationError()
	if !in.Partial {
		if in.Email == nil {
			ve.Add("email", domain.MsgRequired)
		}
		if in.Username == nil {
			ve.Add("username", domain.MsgRequired)
		}
		if !ve.Empty() {
			return nil, ve
		}
	}

	username := target.Username
	if in.Username != nil {
		username = *in.Username
	}
	email := target.Email
	if in.Email != nil {
		email = domain.NormalizeEmail(*in.Email)
	}

	release, err := s.reserve(ctx, username, email)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.checkUnique(ctx, ve, target.ID, username, email); err != nil {
		return nil, err
	}
	if !ve.Empty() {
		return nil, ve
	}

	next := *target
	next.Username = username
	next.Email = email
	if in.Description.Set {
		next.Description = in.Description.Value
	}
	if in.Avatar.Set {
		next.Avatar = in.Avatar.Value
	}

	updated, err := s.repo.Update(ctx, &next)
	if err != nil {
		if conflict := conflictToFieldError(err); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}

	s.log.Info().Int64("user_id", updated.ID).Int64("by", caller.ID).Msg("user updated")
	return updated, nil
}

// DeleteUser hard-deletes a non-superuser record. Admin realm only.
func (s *UserService) DeleteUser(ctx context.Context, caller *domain.User, id int64) error {
	target, err := s.GetUser(ctx, caller, policy.RealmAdmin, id)
	if err != nil {
		return err
	}
	if err := policy.CanDelete(caller, target); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, target.ID); err != nil {
		return err
	}

	s.log.Info().Int64("user_id", target.ID).Int64("by", caller.ID).Msg("user deleted")
	return nil
}

// checkUnique records field errors on ve for an email or username already
// owned by a record other than excludeID (0 = any record).
func (s *UserService) checkUnique(ctx context.Context, ve *domain.ValidationError, excludeID int64, username, email string) error {
	if username != "" {
		taken, err := s.usedByOther(ctx, s.repo.FindByUsername, username, excludeID)
		if err != nil {
			return err
		}
		if taken {
			ve.Add("username", domain.MsgUsernameExists)
		}
	}
	if email != "" {
		taken, err := s.usedByOther(ctx, s.repo.FindByEmail, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			ve.Add("email", domain.MsgEmailExists)
		}
	}
	return nil
}

func (s *UserService) usedByOther(
	ctx context.Context,
	find func(context.Context, string) (*domain.User, error),
	value string,
	excludeID int64,
) (bool, error) {
	u, err := find(ctx, value)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.ID != excludeID, nil
}

// conflictToFieldError converts a store-level uniqueness violation into the
// field error a pre-check would have produced.
func conflictToFieldError(err error) *domain.ValidationError {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		ve := domain.NewValidationError()
		ve.Add("email", domain.MsgEmailExists)
		return ve
	case errors.Is(err, domain.ErrUsernameTaken):
		ve := domain.NewValidationError()
		ve.Add("username", domain.MsgUsernameExists)
		return ve
	}
	return nil
}
