package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"blogapi/internal/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s, got %q", config.DriverPostgres, cfg.Store.Driver)
			}

			db, err := openMigratedPostgres(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}
