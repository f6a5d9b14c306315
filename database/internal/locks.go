// Package internal holds helpers shared by the SQL metadata backends.
package internal

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/sagarc03/lfsgate"
)

// MaxUpdateAttempts bounds how often a lock set update is retried after
// losing a race against a concurrent writer.
const MaxUpdateAttempts = 5

// LockRow is the stored lock set of one repository.
type LockRow struct {
	Data    []byte
	Version int64
	Found   bool
}

// LockRows is the row-level access a backend provides for lock sets. The
// write methods report whether the row was changed; false means another
// writer got there first. Insert and Update store the version they are
// given, which is fresh for every write, so a row that was deleted and
// created again never matches a stale version.
type LockRows interface {
	Load(ctx context.Context, repo string) (LockRow, error)
	Insert(ctx context.Context, repo string, data []byte, version int64) (bool, error)
	Update(ctx context.Context, repo string, data []byte, expected, version int64) (bool, error)
	Delete(ctx context.Context, repo string, version int64) (bool, error)
}

// GetLocks loads and decodes the lock set of repo.
func GetLocks(ctx context.Context, rows LockRows, repo string) ([]lfsgate.LockRecord, error) {
	row, err := rows.Load(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("get locks: %w", err)
	}

	records, err := lfsgate.DecodeLockSet(row.Data)
	if err != nil {
		return nil, fmt.Errorf("get locks %s: %w", repo, err)
	}
	return records, nil
}

// UpdateLocks runs a compare-and-swap cycle on the lock set of repo:
// load, apply fn, write back guarded by the loaded version. A lost race
// reloads and re-applies fn.
func UpdateLocks(ctx context.Context, rows LockRows, repo string, fn lfsgate.LockUpdateFunc) error {
	for range MaxUpdateAttempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("update locks: %w", err)
		}

		row, err := rows.Load(ctx, repo)
		if err != nil {
			return fmt.Errorf("update locks: %w", err)
		}

		current, err := lfsgate.DecodeLockSet(row.Data)
		if err != nil {
			return fmt.Errorf("update locks %s: %w", repo, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		applied, err := write(ctx, rows, repo, row, next)
		if err != nil {
			return fmt.Errorf("update locks %s: %w", repo, err)
		}
		if applied {
			return nil
		}
	}

	return fmt.Errorf("update locks %s: %w: concurrent updates after %d attempts", repo, lfsgate.ErrGeneral, MaxUpdateAttempts)
}

func write(ctx context.Context, rows LockRows, repo string, row LockRow, next []lfsgate.LockRecord) (bool, error) {
	if len(next) == 0 {
		if !row.Found {
			return true, nil
		}
		return rows.Delete(ctx, repo, row.Version)
	}

	data, err := lfsgate.EncodeLockSet(next)
	if err != nil {
		return false, err
	}

	version := NewVersion(row.Version)
	if !row.Found {
		return rows.Insert(ctx, repo, data, version)
	}
	return rows.Update(ctx, repo, data, row.Version, version)
}

// NewVersion returns a random positive version different from prev.
func NewVersion(prev int64) int64 {
	for {
		v := rand.Int64() //nolint:gosec // uniqueness, not secrecy
		if v != 0 && v != prev {
			return v
		}
	}
}
