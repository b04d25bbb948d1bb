package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/apicrud/user-api/internal/core/ports"
	"github.com/apicrud/user-api/internal/infrastructure/config"
	"github.com/apicrud/user-api/internal/infrastructure/db/mongo"
	"github.com/apicrud/user-api/internal/infrastructure/db/postgres"
)

// store bundles the selected user repository with its health probe and
// shutdown hook.
type store struct {
	users ports.UserRepository
	ping  func(context.Context) error
	close func()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		repo := mongo.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = mongo.Disconnect(context.Background(), client)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

		return &store{
			users: repo,
			ping: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			close: func() {
				if err := mongo.Disconnect(context.Background(), client); err != nil {
					log.Error().Err(err).Msg("mongo disconnect")
				}
			},
		}, nil

	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("connected to postgres, migrations applied")

		return &store{
			users: postgres.NewUserRepository(db),
			ping:  db.PingContext,
			close: func() {
				if err := db.Close(); err != nil {
					log.Error().Err(err).Msg("postgres close")
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
