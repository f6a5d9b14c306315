package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/lfsgate/config"
	"github.com/sagarc03/lfsgate/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or check the metadata schema",
	Long: `Create the objects and locks tables when missing and validate
their columns. Badger needs no schema; the command only checks that the
directory opens.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("database migration complete",
		"type", cfg.Database.Type,
		"objects", cfg.Database.Tables.Objects,
		"locks", cfg.Database.Tables.Locks,
	)
	return nil
}
