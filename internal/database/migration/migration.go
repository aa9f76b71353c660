package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Migrations returns the embedded SQL migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "sql")
	if err != nil {
		// the embed pattern above guarantees the directory exists
		panic(err)
	}
	return sub
}

// EnsureMigrated applies every pending migration and logs one entry per applied step.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With().Str("component", "database").Str("db_host", dbHost).Logger()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, Migrations())
	if err != nil {
		log.Error().Err(err).Str("event", "db_migration_failed").Msg("cannot load migrations")
		return fmt.Errorf("load migrations: %w", err)
	}

	log.Info().Str("event", "db_migration_start").Msg("applying migrations")

	results, err := provider.Up(ctx)
	for _, res := range results {
		ev := log.Info()
		if res.Error != nil {
			ev = log.Error().Err(res.Error)
		}
		ev.Str("event", "db_migration_step").
			Int64("version", res.Source.Version).
			Str("migration_step", res.Source.Path).
			Int64("step_duration_ms", res.Duration.Milliseconds()).
			Msg("migration applied")
	}
	if err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("migration failed")
		return fmt.Errorf("apply migrations: %w", err)
	}

	if len(results) == 0 {
		log.Info().
			Str("event", "db_migration_skip").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already up to date")
		return nil
	}

	log.Info().
		Str("event", "db_migration_success").
		Int("applied", len(results)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("migrations applied")
	return nil
}
