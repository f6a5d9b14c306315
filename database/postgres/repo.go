// Package postgres implements the repo interface using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/database/internal"
)

type repo struct {
	pool         *pgxpool.Pool
	objectsTable string
	locksTable   string
}

func (r *repo) GetObject(ctx context.Context, oid string) (lfsgate.ObjectMetadata, error) {
	query := fmt.Sprintf(`
		SELECT oid, size, exist, splited, created_at
		FROM %s
		WHERE oid = $1
	`, r.objectsTable)

	var m lfsgate.ObjectMetadata
	err := r.pool.QueryRow(ctx, query, oid).Scan(&m.OID, &m.Size, &m.Exist, &m.Split, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lfsgate.ObjectMetadata{}, lfsgate.ErrNotFound
		}
		return lfsgate.ObjectMetadata{}, fmt.Errorf("get object: %w", err)
	}

	return m, nil
}

// CreateObject inserts the row unless the oid exists. The no-op update on
// conflict lets RETURNING report the stored row in both cases.
func (r *repo) CreateObject(ctx context.Context, meta lfsgate.ObjectMetadata) (lfsgate.ObjectMetadata, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (oid, size, exist, splited, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		ON CONFLICT (oid) DO UPDATE
		SET oid = EXCLUDED.oid
		RETURNING oid, size, exist, splited, created_at,
			(xmax = 0) AS inserted
	`, r.objectsTable)

	var createdAt any
	if !meta.CreatedAt.IsZero() {
		createdAt = meta.CreatedAt
	}

	var m lfsgate.ObjectMetadata
	var inserted bool

	err := r.pool.QueryRow(ctx, query, meta.OID, meta.Size, meta.Exist, meta.Split, createdAt).Scan(
		&m.OID, &m.Size, &m.Exist, &m.Split, &m.CreatedAt, &inserted,
	)
	if err != nil {
		return lfsgate.ObjectMetadata{}, false, fmt.Errorf("create object: %w", err)
	}

	return m, inserted, nil
}

func (r *repo) DeleteObject(ctx context.Context, oid string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE oid = $1`, r.objectsTable)

	result, err := r.pool.Exec(ctx, query, oid)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete object: %w", lfsgate.ErrNotFound)
	}

	return nil
}

func (r *repo) GetLocks(ctx context.Context, repoID string) ([]lfsgate.LockRecord, error) {
	return internal.GetLocks(ctx, r.lockRows(), repoID)
}

func (r *repo) UpdateLocks(ctx context.Context, repoID string, fn lfsgate.LockUpdateFunc) error {
	return internal.UpdateLocks(ctx, r.lockRows(), repoID, fn)
}

func (r *repo) lockRows() *lockRows {
	return &lockRows{pool: r.pool, table: r.locksTable}
}
