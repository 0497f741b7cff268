// Package driver opens the storage backend named in the config.
package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/storage/memory"
	"github.com/princekumarofficial/journal-service/internal/storage/mongo"
	"github.com/princekumarofficial/journal-service/internal/storage/postgres"
)

func Open(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		store, err := postgres.NewPostgres(cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("Connected to Postgres database")
		return store, nil
	case config.DriverMongo:
		store, err := mongo.NewMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("Connected to MongoDB", slog.String("database", cfg.Mongo.Database))
		return store, nil
	case config.DriverMemory:
		slog.Warn("Using in-memory storage, data will not survive a restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
