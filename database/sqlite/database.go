package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/fragments"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB provides SQLite database operations.
type DB struct {
	db     *sql.DB
	tables fragments.Tables
	repo   *Repo
}

// Connect opens the SQLite database at dsn.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables fragments.Tables) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	return &DB{
		db:     db,
		tables: tables,
		repo:   &Repo{db: db, tables: tables},
	}, nil
}

// Ping verifies the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the metadata table and, when configured, the data table.
func (d *DB) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the MetaDataRepo for database operations.
func (d *DB) GetRepo() fragments.MetaDataRepo {
	return d.repo
}

// GetBlobs returns the payload storage backed by the data table. Writes
// through a service given both GetRepo and GetBlobs are transactional.
func (d *DB) GetBlobs() (fragments.BlobStorage, error) {
	return d.repo.Blobs()
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
