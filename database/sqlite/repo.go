// Package sqlite implements fragment metadata and payload storage using SQLite.
//
// The metadata table is always used. When a data table is configured the
// repo also stores payloads, and Repo.Blobs returns its
// fragments.BlobStorage view; record and payload writes then share one
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/fragments"
)

// timeFormat is fixed width so that created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Repo struct {
	db     *sql.DB
	tables fragments.Tables
}

func NewRepo(db *sql.DB, tables fragments.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tables: tables}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) Get(ctx context.Context, ownerID, id string) (fragments.Record, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT owner_id, id, type, size, created_at, updated_at
		FROM %s
		WHERE owner_id = ? AND id = ?`, quoteIdentifier(r.tables.MetaData))

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fragments.Record{}, fragments.ErrNotFound
		}
		return fragments.Record{}, fmt.Errorf("get: %w", err)
	}

	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (fragments.Record, error) {
	var rec fragments.Record
	var createdAt, updatedAt string

	if err := row.Scan(&rec.OwnerID, &rec.ID, &rec.Type, &rec.Size, &createdAt, &updatedAt); err != nil {
		return fragments.Record{}, err
	}

	var err error
	rec.Created, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return fragments.Record{}, fmt.Errorf("parse created_at: %w", err)
	}

	rec.Updated, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return fragments.Record{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return rec, nil
}

func (r *Repo) Upsert(ctx context.Context, rec fragments.Record) error {
	if err := r.upsertRecord(ctx, r.db, rec); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (r *Repo) upsertRecord(ctx context.Context, ex execer, rec fragments.Record) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (owner_id, id, type, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, id) DO UPDATE
		SET type = excluded.type,
			size = excluded.size,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`, quoteIdentifier(r.tables.MetaData))

	_, err := ex.ExecContext(ctx, query,
		rec.OwnerID, rec.ID, rec.Type, rec.Size,
		rec.Created.UTC().Format(timeFormat), rec.Updated.UTC().Format(timeFormat),
	)
	return err
}

func (r *Repo) Delete(ctx context.Context, ownerID, id string) error {
	if err := deleteRow(ctx, r.db, r.tables.MetaData, ownerID, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func deleteRow(ctx context.Context, ex execer, tableName, ownerID, id string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE owner_id = ? AND id = ?`, quoteIdentifier(tableName))

	result, err := ex.ExecContext(ctx, query, ownerID, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fragments.ErrNotFound
	}

	return nil
}

func (r *Repo) List(ctx context.Context, ownerID string) ([]string, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id FROM %s
		WHERE owner_id = ?
		ORDER BY created_at, id`, quoteIdentifier(r.tables.MetaData))

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return ids, nil
}

func (r *Repo) ListRecords(ctx context.Context, ownerID string) ([]fragments.Record, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT owner_id, id, type, size, created_at, updated_at
		FROM %s
		WHERE owner_id = ?
		ORDER BY created_at, id`, quoteIdentifier(r.tables.MetaData))

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []fragments.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list records: scan: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: rows: %w", err)
	}

	return records, nil
}

var errNoDataTable = errors.New("no data table configured")

// UpsertWithData writes rec and data in one transaction.
func (r *Repo) UpsertWithData(ctx context.Context, rec fragments.Record, data []byte) error {
	if r.tables.Data == "" {
		return fmt.Errorf("upsert with data: %w", errNoDataTable)
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.upsertRecord(ctx, tx, rec); err != nil {
			return err
		}
		return r.putData(ctx, tx, rec.OwnerID, rec.ID, data)
	})
	if err != nil {
		return fmt.Errorf("upsert with data: %w", err)
	}

	return nil
}

// DeleteWithData removes the record and its payload in one transaction.
// A missing payload is not an error.
func (r *Repo) DeleteWithData(ctx context.Context, ownerID, id string) error {
	if r.tables.Data == "" {
		return fmt.Errorf("delete with data: %w", errNoDataTable)
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteRow(ctx, tx, r.tables.MetaData, ownerID, id); err != nil {
			return err
		}
		if err := deleteRow(ctx, tx, r.tables.Data, ownerID, id); err != nil && !errors.Is(err, fragments.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete with data: %w", err)
	}

	return nil
}

func (r *Repo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (r *Repo) putData(ctx context.Context, ex execer, ownerID, id string, data []byte) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (owner_id, id, data)
		VALUES (?, ?, ?)
		ON CONFLICT (owner_id, id) DO UPDATE
		SET data = excluded.data`, quoteIdentifier(r.tables.Data))

	if data == nil {
		data = []byte{}
	}

	_, err := ex.ExecContext(ctx, query, ownerID, id, data)
	return err
}
