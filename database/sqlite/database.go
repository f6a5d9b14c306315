package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/lfsgate"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables lfsgate.Tables
}

// Connect establishes a connection to SQLite.
// Tables should be validated before calling Connect.
//
// SQLite serializes writers, so the pool is limited to one connection. This
// also keeps every caller on the same database for ":memory:" DSNs.
func Connect(ctx context.Context, dsn string, tables lfsgate.Tables) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the MetaDataRepo for database operations.
func (d *database) GetRepo() lfsgate.MetaDataRepo {
	return &repo{db: d.db, objectsTable: d.tables.Objects, locksTable: d.tables.Locks}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
