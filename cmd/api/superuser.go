package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apicrud/user-api/internal/core/domain"
	"github.com/apicrud/user-api/internal/core/ports"
	"github.com/apicrud/user-api/internal/infrastructure/config"
	"github.com/apicrud/user-api/internal/infrastructure/credential"
	"github.com/apicrud/user-api/pkg/logger"
)

type superuserInput struct {
	email    string
	username string
	password string
}

func parseSuperuserFlags(args []string, output io.Writer) (superuserInput, error) {
	var in superuserInput
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&in.email, "email", "", "admin email address")
	fs.StringVar(&in.username, "username", "", "admin username")
	fs.StringVar(&in.password, "password", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return in, err
	}

	in.email = domain.NormalizeEmail(in.email)
	in.username = strings.TrimSpace(in.username)
	switch {
	case in.email == "" || in.username == "" || in.password == "":
		return in, errors.New("createsuperuser: -email, -username and -password are required")
	case utf8.RuneCountInString(in.password) > domain.MaxPasswordLength:
		return in, fmt.Errorf("createsuperuser: password longer than %d characters", domain.MaxPasswordLength)
	}
	return in, nil
}

// createSuperuser is the only way an is_superuser=true record comes into being.
func createSuperuser(ctx context.Context, args []string) error {
	in, err := parseSuperuserFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Output: os.Stderr})

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	u, err := insertSuperuser(ctx, st.users, credential.NewBcryptHasher(cfg.BcryptCost), in)
	if err != nil {
		return err
	}
	log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("superuser created")
	return nil
}

func insertSuperuser(ctx context.Context, repo ports.UserRepository, hasher ports.PasswordHasher, in superuserInput) (*domain.User, error) {
	hash, err := hasher.Hash(in.password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u, err := repo.Create(ctx, &domain.User{
		Username:     in.username,
		Email:        in.email,
		PasswordHash: hash,
		IsSuperuser:  true,
		DateJoined:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("create superuser: %w", err)
	}
	return u, nil
}
