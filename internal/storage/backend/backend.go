// Package backend selects and opens the configured document store.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/academiax/internal/config"
	"github.com/felixgeelhaar/academiax/internal/storage"
	"github.com/felixgeelhaar/academiax/internal/storage/memory"
	"github.com/felixgeelhaar/academiax/internal/storage/mongo"
	"github.com/felixgeelhaar/academiax/internal/storage/postgres"
	"github.com/felixgeelhaar/academiax/internal/storage/sqlite"
)

// Open returns the store named by cfg.StoreDriver. SQL backends are migrated
// before use. A MongoDB client connects lazily, so an unreachable server is
// reported by Ping rather than here.
func Open(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		slog.Info("opening store", "driver", cfg.StoreDriver, "database", cfg.MongoDatabase)
		store, err := mongo.Connect(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorePostgres:
		slog.Info("opening store", "driver", cfg.StoreDriver)
		store, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreSQLite:
		slog.Info("opening store", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMemory:
		slog.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Migrate applies SQL migrations for the configured backend. Document
// backends have no schema and report false.
func Migrate(cfg *config.Config) (bool, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return true, postgres.RunMigrations(cfg.PostgresURL)
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return true, err
		}
		defer db.Close()
		return true, db.Migrate()
	default:
		return false, nil
	}
}
