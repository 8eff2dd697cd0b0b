package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/database/postgres"
	"github.com/sagarc03/fragments/database/sqlite"
)

// Database is a connected SQL metadata backend.
type Database interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the configured tables if they do not exist.
	Migrate(ctx context.Context) error
	// Validate checks that the tables have the expected columns.
	Validate(ctx context.Context) error
	// GetRepo returns the metadata repo.
	GetRepo() fragments.MetaDataRepo
	// GetBlobs returns payload storage kept in the same database, or an
	// error when the backend or table configuration does not provide one.
	GetBlobs() (fragments.BlobStorage, error)
	// Close releases the connection.
	Close() error
}

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type is "memory", "sqlite" or "postgres"; Connect accepts the SQL types only
	Type string `mapstructure:"type" validate:"required,oneof=memory sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn"`
	// Tables names the metadata table and, for sqlite, the optional data table
	Tables fragments.Tables `mapstructure:"tables"`
	// AutoMigrate creates missing tables on startup instead of only validating them
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// Connect opens the configured database backend. It neither migrates nor
// validates; callers decide between Migrate and Validate.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		if cfg.Tables.Data != "" {
			return nil, fmt.Errorf("connect database: data table is only supported by sqlite")
		}
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
