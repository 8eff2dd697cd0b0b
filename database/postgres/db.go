package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/database/internal/schema"
)

var metaDataSchema = schema.Table{
	"owner_id":   {Type: "text"},
	"id":         {Type: "text"},
	"type":       {Type: "text"},
	"size":       {Type: "bigint"},
	"created_at": {Type: "timestamp with time zone"},
	"updated_at": {Type: "timestamp with time zone"},
}

// ValidateSchema checks the metadata table against the layout Migrate
// creates. PostgreSQL never holds payloads, so tables.Data is ignored.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables fragments.Tables) error {
	table := tables.MetaData
	if !fragments.IsValidTableName(table) {
		return fmt.Errorf("validate schema %s: invalid table name", table)
	}

	actual, err := readColumns(ctx, pool, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}
	if len(actual) == 0 {
		return fmt.Errorf("validate schema %s: table %s does not exist", table, table)
	}

	if err := schema.Compare(table, metaDataSchema, actual); err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}
	return nil
}

// readColumns returns the columns of table in the current schema; a missing
// table yields an empty result.
func readColumns(ctx context.Context, pool *pgxpool.Pool, table string) (schema.Table, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make(schema.Table)
	for rows.Next() {
		var (
			name, dataType string
			nullable       bool
		)
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = schema.Column{Type: dataType, Nullable: nullable}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}
