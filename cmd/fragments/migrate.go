package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/config"
	"github.com/sagarc03/fragments/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or validate the SQL schema",
	Long: `Create the configured metadata table (and the sqlite data table when
database.tables.data is set) if they do not exist, then validate them.

Examples:
  # Create tables in a local sqlite file
  fragments migrate --db-type sqlite --db-dsn fragments.db

  # Only check an existing postgres schema
  fragments migrate --db-type postgres --db-dsn "$DSN" --validate-only`,
	RunE: runMigrate,
}

var migrateValidateOnly bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateValidateOnly, "validate-only", false, "check the schema without creating anything")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := requirePersistent(cfg); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx := cmd.Context()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if !migrateValidateOnly {
		if err = db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("schema ok",
		"type", cfg.Database.Type,
		"meta_data", cfg.Database.Tables.MetaData,
		"data", cfg.Database.Tables.Data,
		"migrated", !migrateValidateOnly,
	)
	return nil
}
