package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-tracker/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures the database has all the tables, indexes and triggers
the engine needs.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		slog.Info("Database migration status",
			"database", cfg.DatabasePath,
			"current_version", current,
			"latest_version", storage.ExpectedSchemaVersion)
		return nil
	}

	slog.Info("Running database migrations...", "database", cfg.DatabasePath)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Database migrations completed successfully",
		"version", storage.ExpectedSchemaVersion)
	return nil
}
