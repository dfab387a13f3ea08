package main

import (
	"log/slog"

	"github.com/relvanta/relvanta-api/internal/config"
	"github.com/relvanta/relvanta-api/internal/database"
	"github.com/relvanta/relvanta-api/internal/logging"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup()

			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}

			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			slog.Info("migration completed", "db_name", cfg.DBName)
			return nil
		},
	}
}
