// Package database provides a unified interface for connecting to metadata backends.
//
// The package supports multiple backends (PostgreSQL, SQLite and BadgerDB) and handles
// connection management, migrations, and schema validation.
//
// # Supported Backends
//
//   - PostgreSQL: Production-ready backend using pgx connection pool
//   - SQLite: Lightweight backend suitable for development and single-node deployments
//   - Badger: Embedded key-value store, no external server needed
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "lfsgate.db",
//	    Tables: lfsgate.Tables{Objects: "lfs_objects", Locks: "lfs_locks"},
//	}
//
//	repo, cleanup, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Open connects, runs migrations, validates the schema, and returns a
// ready-to-use MetaDataRepo. Connect returns the raw Database for callers
// such as the migrate command that drive those steps themselves.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
//   - database/badger: BadgerDB implementation using dgraph-io/badger
package database
