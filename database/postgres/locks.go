package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/lfsgate/database/internal"
)

// lockRows stores one lock set per repository, guarded by a version column.
type lockRows struct {
	pool  *pgxpool.Pool
	table string
}

func (l *lockRows) Load(ctx context.Context, repoID string) (internal.LockRow, error) {
	query := fmt.Sprintf(`SELECT data, version FROM %s WHERE repo_id = $1`, l.table)

	var data string
	var version int64
	err := l.pool.QueryRow(ctx, query, repoID).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.LockRow{}, nil
		}
		return internal.LockRow{}, fmt.Errorf("load lock set: %w", err)
	}

	return internal.LockRow{Data: []byte(data), Version: version, Found: true}, nil
}

func (l *lockRows) Insert(ctx context.Context, repoID string, data []byte, version int64) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (repo_id, data, version)
		VALUES ($1, $2, $3)
		ON CONFLICT (repo_id) DO NOTHING
	`, l.table)

	result, err := l.pool.Exec(ctx, query, repoID, string(data), version)
	if err != nil {
		return false, fmt.Errorf("insert lock set: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (l *lockRows) Update(ctx context.Context, repoID string, data []byte, expected, version int64) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET data = $1, version = $2, updated_at = NOW()
		WHERE repo_id = $3 AND version = $4
	`, l.table)

	result, err := l.pool.Exec(ctx, query, string(data), version, repoID, expected)
	if err != nil {
		return false, fmt.Errorf("update lock set: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (l *lockRows) Delete(ctx context.Context, repoID string, version int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE repo_id = $1 AND version = $2`, l.table)

	result, err := l.pool.Exec(ctx, query, repoID, version)
	if err != nil {
		return false, fmt.Errorf("delete lock set: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
