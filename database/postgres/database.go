package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/lfsgate"
)

type database struct {
	pool   *pgxpool.Pool
	tables lfsgate.Tables
}

// Connect establishes a connection to PostgreSQL.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables lfsgate.Tables) (*database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{
		pool:   pool,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := createObjectsTable(ctx, d.pool, d.tables.Objects); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := createLocksTable(ctx, d.pool, d.tables.Locks); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// GetRepo returns the MetaDataRepo for database operations.
func (d *database) GetRepo() lfsgate.MetaDataRepo {
	return &repo{
		pool:         d.pool,
		objectsTable: pgxIdentifier(d.tables.Objects),
		locksTable:   pgxIdentifier(d.tables.Locks),
	}
}

// Close closes the database connection pool.
func (d *database) Close() error {
	d.pool.Close()
	return nil
}
