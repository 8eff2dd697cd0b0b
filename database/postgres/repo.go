// Package postgres implements fragment metadata storage using PostgreSQL.
// Payloads are kept elsewhere, in a filesystem or S3 blob store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/fragments"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables fragments.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.MetaData}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *Repo) Get(ctx context.Context, ownerID, id string) (fragments.Record, error) {
	query := fmt.Sprintf(`
		SELECT owner_id, id, type, size, created_at, updated_at
		FROM %s
		WHERE owner_id = $1 AND id = $2
	`, r.table())

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fragments.Record{}, fragments.ErrNotFound
		}
		return fragments.Record{}, fmt.Errorf("get: %w", err)
	}

	return rec, nil
}

func scanRecord(row pgx.Row) (fragments.Record, error) {
	var rec fragments.Record
	if err := row.Scan(&rec.OwnerID, &rec.ID, &rec.Type, &rec.Size, &rec.Created, &rec.Updated); err != nil {
		return fragments.Record{}, err
	}

	rec.Created = rec.Created.UTC()
	rec.Updated = rec.Updated.UTC()

	return rec, nil
}

func (r *Repo) Upsert(ctx context.Context, rec fragments.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, id, type, size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, id) DO UPDATE
		SET type = EXCLUDED.type,
			size = EXCLUDED.size,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`, r.table())

	_, err := r.pool.Exec(ctx, query, rec.OwnerID, rec.ID, rec.Type, rec.Size, rec.Created, rec.Updated)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, ownerID, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = $1 AND id = $2
	`, r.table())

	result, err := r.pool.Exec(ctx, query, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", fragments.ErrNotFound)
	}

	return nil
}

func (r *Repo) List(ctx context.Context, ownerID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, r.table())

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}

func (r *Repo) ListRecords(ctx context.Context, ownerID string) ([]fragments.Record, error) {
	query := fmt.Sprintf(`
		SELECT owner_id, id, type, size, created_at, updated_at
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, r.table())

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

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
