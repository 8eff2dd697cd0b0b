package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/database/internal/schema"
)

var metaDataSchema = schema.Table{
	"owner_id":   {Type: "text"},
	"id":         {Type: "text"},
	"type":       {Type: "text"},
	"size":       {Type: "integer"},
	"created_at": {Type: "text"},
	"updated_at": {Type: "text"},
}

var dataSchema = schema.Table{
	"owner_id": {Type: "text"},
	"id":       {Type: "text"},
	"data":     {Type: "blob"},
}

// ValidateSchema checks the metadata table and, when configured, the data
// table against the layout Migrate creates.
func ValidateSchema(ctx context.Context, db *sql.DB, tables fragments.Tables) error {
	expected := map[string]schema.Table{tables.MetaData: metaDataSchema}
	order := []string{tables.MetaData}
	if tables.Data != "" {
		expected[tables.Data] = dataSchema
		order = append(order, tables.Data)
	}

	for _, table := range order {
		if err := validateTable(ctx, db, table, expected[table]); err != nil {
			return fmt.Errorf("validate schema %s: %w", table, err)
		}
	}

	return nil
}

func validateTable(ctx context.Context, db *sql.DB, table string, expected schema.Table) error {
	if !fragments.IsValidTableName(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}

	exists, err := tableExists(ctx, db, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("table %s does not exist", table)
	}

	actual, err := readColumns(ctx, db, table)
	if err != nil {
		return err
	}

	return schema.Compare(table, expected, actual)
}

func readColumns(ctx context.Context, db *sql.DB, table string) (schema.Table, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(schema.Table)
	for rows.Next() {
		var (
			name, dataType string
			notNull        int
		)
		if err := rows.Scan(&name, &dataType, &notNull); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = schema.Column{Type: dataType, Nullable: notNull == 0}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}

func tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
}
