// Package backend assembles the metadata repo and blob storage selected by
// configuration.
//
// Metadata: memory, sqlite or postgres. Blobs: memory, filesystem, s3, or
// database (payloads in the metadata backend itself). When both sides live in
// one backend (memory/memory, memory/database, sqlite/database) the returned
// BlobStorage is a view of the repo and the service runs atomically.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/database"
	"github.com/sagarc03/fragments/filesystem"
	"github.com/sagarc03/fragments/memory"
	"github.com/sagarc03/fragments/s3"
)

// StorageConfig selects and configures the blob backend.
type StorageConfig struct {
	Type     string    `mapstructure:"type" validate:"required,oneof=memory filesystem s3 database"`
	Path     string    `mapstructure:"path" validate:"required_if=Type filesystem"`
	Compress bool      `mapstructure:"compress"`
	S3       s3.Config `mapstructure:"s3"`
}

// Config holds both sides of the storage layout.
type Config struct {
	Database database.Config
	Storage  StorageConfig
}

// Backend is an opened storage layout. Close releases everything Open
// acquired.
type Backend struct {
	Repo  fragments.MetaDataRepo
	Blobs fragments.BlobStorage
	// DB is the SQL connection, nil for the memory metadata backend.
	DB database.Database

	closers []func() error
}

// Open connects the configured backends. SQL schemas are migrated when
// cfg.Database.AutoMigrate is set and validated in every case.
func Open(ctx context.Context, cfg Config) (_ *Backend, err error) {
	b := &Backend{}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	var mem *memory.Store

	switch cfg.Database.Type {
	case "memory":
		mem = memory.New()
		b.Repo = mem
	case "sqlite", "postgres":
		if err := b.openDatabase(ctx, cfg.Database); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("open backend: unsupported database type: %s", cfg.Database.Type)
	}

	blobs, err := b.openStorage(ctx, cfg.Storage, mem)
	if err != nil {
		return nil, err
	}
	b.Blobs = blobs

	slog.Debug("backend opened", "database", cfg.Database.Type, "storage", cfg.Storage.Type)
	return b, nil
}

func (b *Backend) openDatabase(ctx context.Context, cfg database.Config) error {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	b.DB = db
	b.closers = append(b.closers, db.Close)

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("open backend: ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("open backend: migrate database: %w", err)
		}
		slog.Info("database migration complete", "type", cfg.Type)
	}

	if err := db.Validate(ctx); err != nil {
		return fmt.Errorf("open backend: validate database schema: %w", err)
	}

	b.Repo = db.GetRepo()
	return nil
}

func (b *Backend) openStorage(ctx context.Context, cfg StorageConfig, mem *memory.Store) (fragments.BlobStorage, error) {
	switch cfg.Type {
	case "memory", "database":
		if mem != nil {
			return mem.Blobs(), nil
		}
		if cfg.Type == "memory" {
			return memory.New().Blobs(), nil
		}
		blobs, err := b.DB.GetBlobs()
		if err != nil {
			return nil, fmt.Errorf("open backend: %w", err)
		}
		return blobs, nil

	case "filesystem":
		if cfg.Path == "" {
			return nil, errors.New("open backend: storage path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("open backend: create storage directory: %w", err)
		}
		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open backend: open storage root: %w", err)
		}
		b.closers = append(b.closers, root.Close)

		store, err := filesystem.NewFileStorage(root, filesystem.Options{Compress: cfg.Compress})
		if err != nil {
			return nil, fmt.Errorf("open backend: %w", err)
		}
		b.closers = append(b.closers, func() error { store.Close(); return nil })
		return store, nil

	case "s3":
		store, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("open backend: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("open backend: unsupported storage type: %s", cfg.Type)
	}
}

// Close releases resources in reverse order of acquisition.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
