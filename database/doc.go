// Package database provides a unified interface for connecting to the SQL
// metadata backends.
//
// # Supported Backends
//
//   - PostgreSQL: server backend using a pgx connection pool, metadata only
//   - SQLite: embedded backend for development and single-node deployments;
//     with a data table configured it also stores payloads
//
// # Usage
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "fragments.db",
//	    Tables: fragments.Tables{MetaData: "fragments", Data: "fragment_data"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	blobs, err := db.GetBlobs()
//	service, err := fragments.NewService(db.GetRepo(), blobs, converter, fragments.ServiceConfig{})
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
