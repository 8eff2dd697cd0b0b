package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/fragments"
)

// ErrNoPayloadStorage is returned by DB.GetBlobs.
var ErrNoPayloadStorage = errors.New("postgres: payload storage is not supported, use filesystem or s3")

// DB is a PostgreSQL connection pool serving one metadata table.
type DB struct {
	pool   *pgxpool.Pool
	tables fragments.Tables
	repo   *Repo
}

// Connect opens a pool on dsn and waits for the server to answer. An
// application_name is set unless the DSN names one.
func Connect(ctx context.Context, dsn string, tables fragments.Tables) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = "fragments"
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	repo, err := NewRepo(pool, tables)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &DB{pool: pool, tables: tables, repo: repo}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates the metadata table and its owner index.
func (d *DB) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.pool, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

func (d *DB) GetRepo() fragments.MetaDataRepo {
	return d.repo
}

// GetBlobs always returns ErrNoPayloadStorage.
func (d *DB) GetBlobs() (fragments.BlobStorage, error) {
	return nil, ErrNoPayloadStorage
}

func (d *DB) Close() error {
	d.pool.Close()
	return nil
}
