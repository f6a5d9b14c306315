package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func pgxIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func createObjectsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			oid TEXT PRIMARY KEY,
			size BIGINT NOT NULL,
			exist BOOLEAN NOT NULL,
			splited BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`, pgxIdentifier(tableName))

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create objects table: %w", err)
	}
	return nil
}

func createLocksTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			repo_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			version BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`, pgxIdentifier(tableName))

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create locks table: %w", err)
	}
	return nil
}

// DropTables removes the tables created by Migrate.
func DropTables(ctx context.Context, pool *pgxpool.Pool, objectsTable, locksTable string) error {
	for _, name := range []string{locksTable, objectsTable} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", pgxIdentifier(name))); err != nil {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
	}
	return nil
}
