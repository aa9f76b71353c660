package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"blogapi/internal/config"
	"blogapi/internal/database"
	"blogapi/internal/database/migration"
	"blogapi/internal/repository"
	"blogapi/internal/repository/memory"
	"blogapi/internal/repository/objectstore"
	"blogapi/internal/repository/postgres"
	"blogapi/internal/storage"
)

// store is the opened post store together with its teardown.
type store struct {
	Driver string
	Repo   repository.PostRepository
	close  func() error
}

// Close releases the store's connections.
func (s *store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// openStore connects the driver named by STORE_DRIVER. Postgres is migrated before use.
func openStore(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := openMigratedPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &store{Driver: cfg.Store.Driver, Repo: postgres.NewPostPostgres(db), close: db.Close}, nil

	case config.DriverS3:
		objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		return &store{Driver: cfg.Store.Driver, Repo: objectstore.NewPostObjectStore(objStore, cfg.MinIO.Prefix)}, nil

	case config.DriverMemory:
		log.Warn().Msg("memory store selected, posts are lost on restart")
		return &store{Driver: cfg.Store.Driver, Repo: memory.NewPostMemory()}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openMigratedPostgres(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*sql.DB, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
