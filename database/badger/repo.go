package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/database/internal"
)

type repo struct {
	db            *badger.DB
	objectsPrefix string
	locksPrefix   string
}

type objectRecord struct {
	OID       string    `json:"oid"`
	Size      int64     `json:"size"`
	Exist     bool      `json:"exist"`
	Split     bool      `json:"splited"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *repo) objectKey(oid string) []byte {
	return []byte(r.objectsPrefix + oid)
}

func (r *repo) lockKey(repoID string) []byte {
	return []byte(r.locksPrefix + repoID)
}

func (r *repo) GetObject(ctx context.Context, oid string) (lfsgate.ObjectMetadata, error) {
	if err := ctx.Err(); err != nil {
		return lfsgate.ObjectMetadata{}, fmt.Errorf("get object: %w", err)
	}

	var meta lfsgate.ObjectMetadata
	err := r.db.View(func(txn *badger.Txn) error {
		m, err := readObject(txn, r.objectKey(oid))
		if err != nil {
			return err
		}
		meta = m
		return nil
	})
	if err != nil {
		if errors.Is(err, lfsgate.ErrNotFound) {
			return lfsgate.ObjectMetadata{}, lfsgate.ErrNotFound
		}
		return lfsgate.ObjectMetadata{}, fmt.Errorf("get object: %w", err)
	}

	return meta, nil
}

func (r *repo) CreateObject(ctx context.Context, meta lfsgate.ObjectMetadata) (lfsgate.ObjectMetadata, bool, error) {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}
	meta.CreatedAt = meta.CreatedAt.UTC()

	var stored lfsgate.ObjectMetadata
	var created bool

	err := r.retry(ctx, func(txn *badger.Txn) error {
		key := r.objectKey(meta.OID)

		existing, err := readObject(txn, key)
		if err == nil {
			stored, created = existing, false
			return nil
		}
		if !errors.Is(err, lfsgate.ErrNotFound) {
			return err
		}

		data, err := json.Marshal(objectRecord(meta))
		if err != nil {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}

		stored, created = meta, true
		return nil
	})
	if err != nil {
		return lfsgate.ObjectMetadata{}, false, fmt.Errorf("create object: %w", err)
	}

	return stored, created, nil
}

func (r *repo) DeleteObject(ctx context.Context, oid string) error {
	err := r.retry(ctx, func(txn *badger.Txn) error {
		key := r.objectKey(oid)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return lfsgate.ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (r *repo) GetLocks(ctx context.Context, repoID string) ([]lfsgate.LockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get locks: %w", err)
	}

	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		v, err := readValue(txn, r.lockKey(repoID))
		data = v
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get locks: %w", err)
	}

	records, err := lfsgate.DecodeLockSet(data)
	if err != nil {
		return nil, fmt.Errorf("get locks %s: %w", repoID, err)
	}
	return records, nil
}

// UpdateLocks applies fn inside one read-write transaction. Badger detects
// a concurrent commit on the same key and the transaction is replayed.
func (r *repo) UpdateLocks(ctx context.Context, repoID string, fn lfsgate.LockUpdateFunc) error {
	var fnErr error

	err := r.retry(ctx, func(txn *badger.Txn) error {
		key := r.lockKey(repoID)

		data, err := readValue(txn, key)
		if err != nil {
			return err
		}

		current, err := lfsgate.DecodeLockSet(data)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			fnErr = err
			return err
		}

		if len(next) == 0 {
			if data == nil {
				return nil
			}
			return txn.Delete(key)
		}

		encoded, err := lfsgate.EncodeLockSet(next)
		if err != nil {
			return err
		}
		return txn.Set(key, encoded)
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("update locks %s: %w", repoID, err)
	}
	return nil
}

// retry runs fn in a read-write transaction, replaying it when the commit
// loses against a concurrent writer.
func (r *repo) retry(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for range internal.MaxUpdateAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: concurrent updates after %d attempts", lfsgate.ErrGeneral, internal.MaxUpdateAttempts)
}

func readValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func readObject(txn *badger.Txn, key []byte) (lfsgate.ObjectMetadata, error) {
	data, err := readValue(txn, key)
	if err != nil {
		return lfsgate.ObjectMetadata{}, err
	}
	if data == nil {
		return lfsgate.ObjectMetadata{}, lfsgate.ErrNotFound
	}

	var rec objectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return lfsgate.ObjectMetadata{}, fmt.Errorf("%w: decode object: %w", lfsgate.ErrGeneral, err)
	}
	return lfsgate.ObjectMetadata(rec), nil
}
