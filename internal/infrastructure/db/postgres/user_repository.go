package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
)

const (
	uniqueViolation = "23505"

	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

const userColumns = `id, username, email, password_hash, description, avatar, is_superuser, date_joined, created_at, updated_at`

// orderColumns whitelists the columns a listing may be sorted by.
var orderColumns = map[string]string{
	"date_joined": "date_joined",
	"username":    "username",
	"id":          "id",
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `INSERT INTO users (username, email, password_hash, description, avatar, is_superuser, date_joined, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	created := *user
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Description, user.Avatar,
		user.IsSuperuser, user.DateJoined, user.CreatedAt, user.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *UserRepository) findOne(ctx context.Context, column string, value any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Update overwrites every mutable column of the record and refreshes
// updated_at.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `UPDATE users
		SET username = $1, email = $2, password_hash = $3, description = $4, avatar = $5, is_superuser = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at`

	updated := *user
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Description, user.Avatar, user.IsSuperuser, user.ID,
	).Scan(&updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, mapWriteError(err)
	}
	return &updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args := buildListQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

func buildListQuery(filter ports.ListUsersFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	switch {
	case filter.ExcludeSuperusers && filter.IncludeID != 0:
		args = append(args, filter.IncludeID)
		where = append(where, fmt.Sprintf("(is_superuser = FALSE OR id = $%d)", len(args)))
	case filter.ExcludeSuperusers:
		where = append(where, "is_superuser = FALSE")
	}
	if filter.OnlyID != 0 {
		args = append(args, filter.OnlyID)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}

	order := filter.Order
	if order == "" {
		order = domain.DefaultUserOrder
	}
	field, desc := order.Field()
	column, ok := orderColumns[field]
	if !ok {
		column, desc = "date_joined", true
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + userColumns + ` FROM users`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY " + column + " " + direction)
	if column != "id" {
		b.WriteString(", id " + direction)
	}
	return b.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Description, &u.Avatar,
		&u.IsSuperuser, &u.DateJoined, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// mapWriteError turns unique-constraint violations into the domain's
// "taken" errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case constraintEmail:
			return domain.ErrEmailTaken
		case constraintUsername:
			return domain.ErrUsernameTaken
		}
	}
	return fmt.Errorf("db error: %w", err)
}
