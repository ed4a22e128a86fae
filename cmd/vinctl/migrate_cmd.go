package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/vehicle-data-api/migrations"
	"github.com/noah-isme/vehicle-data-api/pkg/config"
	"github.com/noah-isme/vehicle-data-api/pkg/database"
	"github.com/noah-isme/vehicle-data-api/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logr.Sync() //nolint:errcheck

			if err := database.Migrate(cfg.Database, migrations.FS, logr); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
