// Command api serves the user account HTTP API.
//
//	api                    start the HTTP server
//	api createsuperuser    create an admin account and exit
//
// @title                      User API
// @version                    1.0
// @description                Account registration, profile self-service, admin user management and JWT issuance.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apicrud/user-api/internal/api"
	"github.com/apicrud/user-api/internal/core/service"
	"github.com/apicrud/user-api/internal/infrastructure/config"
	"github.com/apicrud/user-api/internal/infrastructure/credential"
	"github.com/apicrud/user-api/internal/infrastructure/db/redis"
	"github.com/apicrud/user-api/internal/infrastructure/http/handlers"
	"github.com/apicrud/user-api/internal/infrastructure/token"
	"github.com/apicrud/user-api/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "createsuperuser" {
		err = createSuperuser(ctx, os.Args[2:])
	} else {
		err = serve(ctx)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "user-api",
	})

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	hasher := credential.NewBcryptHasher(cfg.BcryptCost)
	issuer := token.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	locker := redis.NewLocker(rdb, cfg.Redis.LockTTL)

	e := api.NewRouter(api.Dependencies{
		Users: service.NewUserService(st.users, hasher, locker, log),
		Auth:  service.NewAuthService(st.users, hasher, issuer, log),
		Readiness: map[string]handlers.PingFunc{
			cfg.StoreDriver: st.ping,
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		},
		Log: log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
