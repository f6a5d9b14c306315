package sqlite_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOID = strings.Repeat("ab", 32)

func TestDatabase_MigrateAndValidate(t *testing.T) {
	ctx := context.Background()

	db, err := sqlite.Connect(ctx, ":memory:", randomTables(t))
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, db.Validate(ctx), "validate should fail without tables")

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
	assert.NoError(t, db.Validate(ctx))
}

func TestRepo_CreateObject(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	meta, created, err := repo.CreateObject(ctx, lfsgate.ObjectMetadata{
		OID: testOID, Size: 1024, Exist: true, Split: true, CreatedAt: createdAt,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, lfsgate.ObjectMetadata{OID: testOID, Size: 1024, Exist: true, Split: true, CreatedAt: createdAt}, meta)

	again, created, err := repo.CreateObject(ctx, lfsgate.ObjectMetadata{OID: testOID, Size: 1, Exist: true})
	require.NoError(t, err)
	assert.False(t, created, "existing row must be kept")
	assert.Equal(t, int64(1024), again.Size)
}

func TestRepo_GetObject(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	_, err := repo.GetObject(ctx, testOID)
	assert.ErrorIs(t, err, lfsgate.ErrNotFound)

	_, _, err = repo.CreateObject(ctx, lfsgate.ObjectMetadata{OID: testOID, Size: 7, Exist: true})
	require.NoError(t, err)

	meta, err := repo.GetObject(ctx, testOID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), meta.Size)
	assert.True(t, meta.Exist)
	assert.False(t, meta.Split)
	assert.False(t, meta.CreatedAt.IsZero())
}

func TestRepo_DeleteObject(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	assert.ErrorIs(t, repo.DeleteObject(ctx, testOID), lfsgate.ErrNotFound)

	_, _, err := repo.CreateObject(ctx, lfsgate.ObjectMetadata{OID: testOID, Size: 7, Exist: true})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteObject(ctx, testOID))
	_, err = repo.GetObject(ctx, testOID)
	assert.ErrorIs(t, err, lfsgate.ErrNotFound)
}

func TestRepo_Locks(t *testing.T) {
	ctx := context.Background()
	lockedAt := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	lock := lfsgate.LockRecord{ID: "12345678", Path: "a.psd", Owner: "alice", LockedAt: lockedAt}

	t.Run("unknown repo has no locks", func(t *testing.T) {
		repo := setupTestRepo(t)

		records, err := repo.GetLocks(ctx, "assets")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("update persists the set", func(t *testing.T) {
		repo := setupTestRepo(t)

		err := repo.UpdateLocks(ctx, "assets", func(current []lfsgate.LockRecord) ([]lfsgate.LockRecord, error) {
			assert.Empty(t, current)
			return []lfsgate.LockRecord{lock}, nil
		})
		require.NoError(t, err)

		records, err := repo.GetLocks(ctx, "assets")
		require.NoError(t, err)
		assert.Equal(t, []lfsgate.LockRecord{lock}, records)

		other, err := repo.GetLocks(ctx, "other")
		require.NoError(t, err)
		assert.Empty(t, other, "lock sets are per repository")
	})

	t.Run("second update sees the first", func(t *testing.T) {
		repo := setupTestRepo(t)
		second := lfsgate.LockRecord{ID: "87654321", Path: "b.psd", LockedAt: lockedAt.Add(time.Second)}

		require.NoError(t, repo.UpdateLocks(ctx, "assets", func([]lfsgate.LockRecord) ([]lfsgate.LockRecord, error) {
			return []lfsgate.LockRecord{lock}, nil
		}))
		require.NoError(t, repo.UpdateLocks(ctx, "assets", func(current []lfsgate.LockRecord) ([]lfsgate.LockRecord, error) {
			require.Len(t, current, 1)
			return append(current, second), nil
		}))

		records, err := repo.GetLocks(ctx, "assets")
		require.NoError(t, err)
		assert.Equal(t, []lfsgate.LockRecord{lock, second}, records)
	})

	t.Run("empty set removes the record", func(t *testing.T) {
		repo := setupTestRepo(t)

		require.NoError(t, repo.UpdateLocks(ctx, "assets", func([]lfsgate.LockRecord) ([]lfsgate.LockRecord, error) {
			return []lfsgate.LockRecord{lock}, nil
		}))
		require.NoError(t, repo.UpdateLocks(ctx, "assets", func([]lfsgate.LockRecord) ([]lfsgate.LockRecord, error) {
			return nil, nil
		}))

		records, err := repo.GetLocks(ctx, "assets")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("update after the set was emptied and recreated retries", func(t *testing.T) {
		repo := setupTestRepo(t)
		lockA := lfsgate.LockRecord{ID: "11111111", Path: "a.psd", LockedAt: lockedAt}
		lockB := lfsgate.LockRecord{ID: "22222222", Path: "b.psd", LockedAt: lockedAt.Add(time.Second)}
		lockC := lfsgate.LockRecord{ID: "33333333", Path: "c.psd", LockedAt: lockedAt.Add(2 * time.Second)}

		require.NoError(t, repo.UpdateLocks(ctx, "assets", func([]lfsgate.LockRecord) ([]lfsgate.LockRecord, error) {
			return []lfsgate.LockRecord{lockA}, nil
		}))

		calls := 0
		err := repo.UpdateLocks(ctx, "assets", func(current []lfsgate.LockRecord) ([]lfsgate.LockRecord, error) {
			calls++
			if calls == 1 {
				require.NoError(t, repo.UpdateLocks(ctx, "assets", func([]lfsgate.LockRecord) ([]lfsgate.LockRecord, error) {
					return nil, nil
				}))
				require.NoError(t, repo.UpdateLocks(ctx, "assets", func([]lfsgate.LockRecord) ([]lfsgate.LockRecord, error) {
					return []lfsgate.LockRecord{lockC}, nil
				}))
			}
			return append(current, lockB), nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)

		records, err := repo.GetLocks(ctx, "assets")
		require.NoError(t, err)
		assert.Equal(t, []lfsgate.LockRecord{lockC, lockB}, records)
	})

	t.Run("end to end through the service", func(t *testing.T) {
		repo := setupTestRepo(t)
		service := lfsgate.NewLFSService(repo, nil, lfsgate.ServiceConfig{})

		created, err := service.CreateLock(ctx, "assets", "hero.psd", "alice")
		require.NoError(t, err)

		_, err = service.CreateLock(ctx, "assets", "hero.psd", "bob")
		assert.ErrorIs(t, err, lfsgate.ErrConflict)

		_, err = service.DeleteLock(ctx, "assets", created.ID, "bob", false)
		assert.ErrorIs(t, err, lfsgate.ErrForbidden)

		_, err = service.DeleteLock(ctx, "assets", created.ID, "bob", true)
		require.NoError(t, err)

		list, err := service.ListLocks(ctx, lfsgate.LockListQuery{Repo: "assets"})
		require.NoError(t, err)
		assert.Empty(t, list.Locks)
	})
}
