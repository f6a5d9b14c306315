// Package sqlite implements the repo interface using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/database/internal"
)

type repo struct {
	db           *sql.DB
	objectsTable string
	locksTable   string
}

func (r *repo) GetObject(ctx context.Context, oid string) (lfsgate.ObjectMetadata, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT oid, size, exist, splited, created_at
		FROM %s
		WHERE oid = ?`, quoteIdentifier(r.objectsTable))

	var m lfsgate.ObjectMetadata
	var createdAt string

	err := r.db.QueryRowContext(ctx, query, oid).Scan(&m.OID, &m.Size, &m.Exist, &m.Split, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lfsgate.ObjectMetadata{}, lfsgate.ErrNotFound
		}
		return lfsgate.ObjectMetadata{}, fmt.Errorf("get object: %w", err)
	}

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return lfsgate.ObjectMetadata{}, fmt.Errorf("get object: parse created_at: %w: %w", lfsgate.ErrGeneral, err)
	}

	return m, nil
}

func (r *repo) CreateObject(ctx context.Context, meta lfsgate.ObjectMetadata) (lfsgate.ObjectMetadata, bool, error) {
	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (oid, size, exist, splited, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (oid) DO NOTHING`, quoteIdentifier(r.objectsTable))

	result, err := r.db.ExecContext(ctx, insertQuery,
		meta.OID, meta.Size, meta.Exist, meta.Split, createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return lfsgate.ObjectMetadata{}, false, fmt.Errorf("create object: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return lfsgate.ObjectMetadata{}, false, fmt.Errorf("create object: rows affected: %w", err)
	}

	stored, err := r.GetObject(ctx, meta.OID)
	if err != nil {
		return lfsgate.ObjectMetadata{}, false, fmt.Errorf("create object: %w", err)
	}

	return stored, rowsAffected == 1, nil
}

func (r *repo) DeleteObject(ctx context.Context, oid string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE oid = ?`, quoteIdentifier(r.objectsTable)) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, oid)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete object: rows affected: %w", err)
	}

	if rowsAffected == 0 {
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
	return &lockRows{db: r.db, table: quoteIdentifier(r.locksTable)}
}
