package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/fragments"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations for the configured tables
func getTableMigrations(tables fragments.Tables) []TableMigration {
	migrations := []TableMigration{{
		TableName: tables.MetaData,
		Up:        createMetaTable(tables.MetaData),
		Down:      dropTable(tables.MetaData),
	}}

	if tables.Data != "" {
		migrations = append(migrations, TableMigration{
			TableName: tables.Data,
			Up:        createDataTable(tables.Data),
			Down:      dropTable(tables.Data),
		})
	}

	return migrations
}

func Migrate(ctx context.Context, db *sql.DB, tables fragments.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables fragments.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createMetaTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexOwnerList := quoteIdentifier(fmt.Sprintf("idx_%s_owner_list", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				owner_id TEXT NOT NULL,
				id TEXT NOT NULL,
				type TEXT NOT NULL,
				size INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (owner_id, id)
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (owner_id, created_at, id)
		`, indexOwnerList, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index owner_list: %w", err)
		}

		return nil
	}
}

func createDataTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				owner_id TEXT NOT NULL,
				id TEXT NOT NULL,
				data BLOB NOT NULL,
				PRIMARY KEY (owner_id, id)
			)
		`, quoteIdentifier(tableName))

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
