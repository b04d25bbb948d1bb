package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
)

func newRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewUserRepository(db), mock, db
}

var userRowColumns = []string{
	"id", "username", "email", "password_hash", "description", "avatar",
	"is_superuser", "date_joined", "created_at", "updated_at",
}

func strPtr(s string) *string { return &s }

const insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password_hash,.*\)\s*VALUES\s*\(\$1,.*\$9\)\s*RETURNING\s+id$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "a@x.com", "hash", nil, "pic.png", false, now, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	got, err := repo.Create(context.Background(), &domain.User{
		Username: "alice", Email: "a@x.com", PasswordHash: "hash", Avatar: strPtr("pic.png"),
		DateJoined: now, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolations(t *testing.T) {
	cases := map[string]error{
		constraintEmail:    domain.ErrEmailTaken,
		constraintUsername: domain.ErrUsernameTaken,
	}
	for constraint, want := range cases {
		t.Run(constraint, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(insertQuery).
				WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: constraint})

			_, err := repo.Create(context.Background(), &domain.User{Username: "alice", Email: "a@x.com"})
			if !errors.Is(err, want) {
				t.Fatalf("want %v, got %v", want, err)
			}
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &domain.User{Username: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	q := `(?s)^SELECT\s+id,\s*username,.*updated_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	mock.ExpectQuery(q).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(1), "alice", "a@x.com", "hash", nil, "pic.png", false, now, now, now))

	got, err := repo.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != 1 || got.Description != nil || got.Avatar == nil || *got.Avatar != "pic.png" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.FindByID(context.Background(), 9); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestFindByUsername_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE\s+username\s*=\s*\$1$`).
		WithArgs("alice").
		WillReturnError(errors.New("db err"))

	_, err := repo.FindByUsername(context.Background(), "alice")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

const updateQuery = `(?s)^UPDATE\s+users\s+SET\s+username\s*=\s*\$1,.*WHERE\s+id\s*=\s*\$7\s+RETURNING\s+updated_at$`

func TestUpdate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	stamp := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(updateQuery).
		WithArgs("alice", "a@x.com", "hash", "hi", nil, false, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(stamp))

	got, err := repo.Update(context.Background(), &domain.User{
		ID: 1, Username: "alice", Email: "a@x.com", PasswordHash: "hash", Description: strPtr("hi"),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !got.UpdatedAt.Equal(stamp) || *got.Description != "hi" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUpdate_NotFoundAndConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(updateQuery).WillReturnError(sql.ErrNoRows)
	if _, err := repo.Update(context.Background(), &domain.User{ID: 5}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}

	mock.ExpectQuery(updateQuery).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: constraintUsername})
	if _, err := repo.Update(context.Background(), &domain.User{ID: 1}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("want ErrUsernameTaken, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), 4); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestList_AdminScope(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	q := `(?s)FROM\s+users\s+WHERE\s+is_superuser\s*=\s*FALSE\s+ORDER\s+BY\s+username\s+DESC,\s*id\s+DESC$`
	mock.ExpectQuery(q).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(2), "bob", "b@x.com", "h", nil, nil, false, now, now, now).
			AddRow(int64(1), "alice", "a@x.com", "h", nil, nil, false, now, now, now))

	users, err := repo.List(context.Background(), ports.ListUsersFilter{
		ExcludeSuperusers: true,
		Order:             domain.OrderUsernameDesc,
	})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(users) != 2 || users[0].Username != "bob" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestBuildListQuery(t *testing.T) {
	cases := []struct {
		name     string
		filter   ports.ListUsersFilter
		wantTail string
		wantArgs int
	}{
		{"default order", ports.ListUsersFilter{}, " FROM users ORDER BY date_joined DESC, id DESC", 0},
		{"single record", ports.ListUsersFilter{OnlyID: 7, Order: domain.OrderIDAsc}, " FROM users WHERE id = $1 ORDER BY id ASC", 1},
		{
			"both filters",
			ports.ListUsersFilter{ExcludeSuperusers: true, OnlyID: 7, Order: domain.OrderDateJoinedAsc},
			" FROM users WHERE is_superuser = FALSE AND id = $1 ORDER BY date_joined ASC, id ASC",
			1,
		},
		{
			"superusers excluded except one",
			ports.ListUsersFilter{ExcludeSuperusers: true, IncludeID: 3, Order: domain.OrderUsernameAsc},
			" FROM users WHERE (is_superuser = FALSE OR id = $1) ORDER BY username ASC, id ASC",
			1,
		},
		{"unknown order falls back", ports.ListUsersFilter{Order: "password"}, " FROM users ORDER BY date_joined DESC, id DESC", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, args := buildListQuery(tc.filter)
			want := "SELECT " + userColumns + tc.wantTail
			if query != want {
				t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
			}
			if len(args) != tc.wantArgs {
				t.Fatalf("expected %d args, got %d", tc.wantArgs, len(args))
			}
		})
	}
}
