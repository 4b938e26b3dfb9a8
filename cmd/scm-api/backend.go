package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/scmportal/accounts-api/internal/core/ports"
	"github.com/scmportal/accounts-api/internal/infrastructure/db/mongo"
	"github.com/scmportal/accounts-api/internal/infrastructure/db/postgres"
	"github.com/scmportal/accounts-api/internal/pkg/config"
)

// backend is the storage selected by STORE_DRIVER. Exactly one of pool and
// mongoDB is set.
type backend struct {
	store   ports.Store
	pool    *pgxpool.Pool
	mongoDB *gomongo.Database
	close   func()
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  appName,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &backend{
			store:   mongo.NewStore(db),
			mongoDB: db,
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Error().Err(err).Msg("disconnect mongodb")
				}
			},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Name:     cfg.Postgres.Name,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("database", cfg.Postgres.Name).Msg("connected to postgres")
		return &backend{
			store: postgres.NewStore(pool),
			pool:  pool,
			close: pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// migrate brings the schema up to date and seeds the default roles.
func (b *backend) migrate(ctx context.Context, log zerolog.Logger) error {
	if b.pool != nil {
		if err := postgres.Migrate(ctx, b.pool, log); err != nil {
			return err
		}
		return postgres.Seed(ctx, b.pool)
	}
	if err := mongo.EnsureIndexes(ctx, b.mongoDB); err != nil {
		return err
	}
	return mongo.Seed(ctx, b.mongoDB)
}
