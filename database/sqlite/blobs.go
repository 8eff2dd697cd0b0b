package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sagarc03/fragments"
)

// Blobs stores payloads in the repo's data table.
type Blobs struct {
	repo *Repo
}

// Blobs returns the payload side of r. It fails when no data table is
// configured.
func (r *Repo) Blobs() (*Blobs, error) {
	if r.tables.Data == "" {
		return nil, fmt.Errorf("blobs: %w", errNoDataTable)
	}
	return &Blobs{repo: r}, nil
}

// Backend returns the repo whose data table holds the payloads.
func (b *Blobs) Backend() fragments.MetaDataRepo {
	return b.repo
}

func (b *Blobs) Get(ctx context.Context, ownerID, id string) ([]byte, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT data FROM %s WHERE owner_id = ? AND id = ?`, quoteIdentifier(b.repo.tables.Data))

	var data []byte
	err := b.repo.db.QueryRowContext(ctx, query, ownerID, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fragments.ErrNotFound
		}
		return nil, fmt.Errorf("get data: %w", err)
	}

	if data == nil {
		data = []byte{}
	}

	return data, nil
}

func (b *Blobs) Put(ctx context.Context, ownerID, id string, data []byte) error {
	if err := b.repo.putData(ctx, b.repo.db, ownerID, id, data); err != nil {
		return fmt.Errorf("put data: %w", err)
	}
	return nil
}

func (b *Blobs) Delete(ctx context.Context, ownerID, id string) error {
	if err := deleteRow(ctx, b.repo.db, b.repo.tables.Data, ownerID, id); err != nil {
		return fmt.Errorf("delete data: %w", err)
	}
	return nil
}

func (b *Blobs) List(ctx context.Context) ([]fragments.BlobKey, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT owner_id, id FROM %s ORDER BY owner_id, id`, quoteIdentifier(b.repo.tables.Data))

	rows, err := b.repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list data: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := []fragments.BlobKey{}
	for rows.Next() {
		var key fragments.BlobKey
		if err := rows.Scan(&key.OwnerID, &key.ID); err != nil {
			return nil, fmt.Errorf("list data: scan: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list data: rows: %w", err)
	}

	return keys, nil
}
