package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory user store enforcing the same uniqueness rules as the real ones.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*domain.User
	updates int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) conflict(u *domain.User) error {
	for _, existing := range r.byID {
		if existing.ID == u.ID {
			continue
		}
		if existing.Username == u.Username {
			return domain.ErrUsernameTaken
		}
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	return nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(user); err != nil {
		return nil, err
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = r.nextID
	r.byID[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if err := r.conflict(user); err != nil {
		return nil, err
	}
	r.updates++
	r.byID[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		if f.ExcludeSuperusers && u.IsSuperuser && u.ID != f.IncludeID {
			continue
		}
		if f.OnlyID != 0 && u.ID != f.OnlyID {
			continue
		}
		out = append(out, cloneUser(u))
	}
	field, desc := f.Order.Field()
	less := func(a, b *domain.User) bool {
		switch field {
		case "username":
			return a.Username < b.Username
		case "date_joined":
			if !a.DateJoined.Equal(b.DateJoined) {
				return a.DateJoined.Before(b.DateJoined)
			}
		}
		return a.ID < b.ID
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out, nil
}

// seed stores u directly, bypassing the service.
func (r *stubUserRepo) seed(u domain.User) *domain.User {
	created, err := r.Create(context.Background(), &u)
	if err != nil {
		panic("seed " + u.Username + ": " + err.Error())
	}
	return created
}

// ---------------------------------------------------------------------------
// Other collaborators
// ---------------------------------------------------------------------------

type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (stubHasher) Verify(hash, password string) bool    { return hash == "hashed:"+password }

type stubLocker struct {
	mu       sync.Mutex
	locked   [][]string
	released int
	err      error
}

func (l *stubLocker) Lock(_ context.Context, keys ...string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.locked = append(l.locked, keys)
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

type stubTokens struct {
	verifyID  int64
	verifyErr error
	lastType  ports.TokenType
}

func (s *stubTokens) IssuePair(u *domain.User) (ports.TokenPair, error) {
	id := strconv.FormatInt(u.ID, 10)
	return ports.TokenPair{Access: "access-" + id, Refresh: "refresh-" + id}, nil
}

func (s *stubTokens) IssueAccess(userID int64) (string, error) {
	return "access-" + strconv.FormatInt(userID, 10), nil
}

func (s *stubTokens) Verify(_ string, want ports.TokenType) (int64, error) {
	s.lastType = want
	return s.verifyID, s.verifyErr
}

var errStoreDown = errors.New("store down")

func strPtr(s string) *string { return &s }
