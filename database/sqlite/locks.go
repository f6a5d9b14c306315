package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/lfsgate/database/internal"
)

// lockRows stores one lock set per repository, guarded by a version column.
type lockRows struct {
	db    *sql.DB
	table string
}

func (l *lockRows) Load(ctx context.Context, repoID string) (internal.LockRow, error) {
	query := fmt.Sprintf(`SELECT data, version FROM %s WHERE repo_id = ?`, l.table) //nolint:gosec // table name is validated

	var data string
	var version int64
	err := l.db.QueryRowContext(ctx, query, repoID).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal.LockRow{}, nil
		}
		return internal.LockRow{}, fmt.Errorf("load lock set: %w", err)
	}

	return internal.LockRow{Data: []byte(data), Version: version, Found: true}, nil
}

func (l *lockRows) Insert(ctx context.Context, repoID string, data []byte, version int64) (bool, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (repo_id, data, version, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (repo_id) DO NOTHING`, l.table)

	result, err := l.db.ExecContext(ctx, query, repoID, string(data), version, now())
	if err != nil {
		return false, fmt.Errorf("insert lock set: %w", err)
	}
	return applied(result)
}

func (l *lockRows) Update(ctx context.Context, repoID string, data []byte, expected, version int64) (bool, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET data = ?, version = ?, updated_at = ?
		WHERE repo_id = ? AND version = ?`, l.table)

	result, err := l.db.ExecContext(ctx, query, string(data), version, now(), repoID, expected)
	if err != nil {
		return false, fmt.Errorf("update lock set: %w", err)
	}
	return applied(result)
}

func (l *lockRows) Delete(ctx context.Context, repoID string, version int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE repo_id = ? AND version = ?`, l.table) //nolint:gosec // table name is validated

	result, err := l.db.ExecContext(ctx, query, repoID, version)
	if err != nil {
		return false, fmt.Errorf("delete lock set: %w", err)
	}
	return applied(result)
}

func applied(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
