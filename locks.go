package lfsgate

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"slices"
)

const (
	lockIDDigits      = 8
	maxLockIDAttempts = 16
)

var lockIDSpace = big.NewInt(100_000_000)

// NewLockID returns a random 8-digit numeric lock id.
func NewLockID() (string, error) {
	n, err := rand.Int(rand.Reader, lockIDSpace)
	if err != nil {
		return "", fmt.Errorf("new lock id: %w", err)
	}
	return fmt.Sprintf("%0*d", lockIDDigits, n.Int64()), nil
}

// CreateLock locks path in repo on behalf of session.
//
// Error types returned:
//   - ErrInvalidInput: invalid repo or path
//   - *LockConflictError (matches ErrConflict): the path is already locked
//   - ErrGeneral: storage failure or malformed stored data
func (s *LFSService) CreateLock(ctx context.Context, repo, path, session string) (Lock, error) {
	if err := ctx.Err(); err != nil {
		return Lock{}, fmt.Errorf("create lock: %w", err)
	}

	if !IsValidRepo(repo) {
		return Lock{}, fmt.Errorf("create lock: %w: invalid repo %q", ErrInvalidInput, repo)
	}

	if !IsValidLockPath(path) {
		return Lock{}, fmt.Errorf("create lock: %w: invalid path %q", ErrInvalidInput, path)
	}

	var created LockRecord
	err := s.repo.UpdateLocks(ctx, repo, func(current []LockRecord) ([]LockRecord, error) {
		ids := make(map[string]struct{}, len(current))
		for _, r := range current {
			if r.Path == path {
				return nil, &LockConflictError{Lock: r.For(session)}
			}
			ids[r.ID] = struct{}{}
		}

		id, err := s.uniqueLockID(ids)
		if err != nil {
			return nil, err
		}

		created = LockRecord{
			ID:       id,
			Path:     path,
			Owner:    session,
			LockedAt: s.now().UTC(),
		}

		next := append(slices.Clone(current), created)
		slices.SortStableFunc(next, func(a, b LockRecord) int {
			return a.LockedAt.Compare(b.LockedAt)
		})
		return next, nil
	})
	if err != nil {
		return Lock{}, fmt.Errorf("create lock %s: %w", path, storageError(err))
	}

	return created.For(session), nil
}

func (s *LFSService) uniqueLockID(taken map[string]struct{}) (string, error) {
	for range maxLockIDAttempts {
		id, err := s.newLockID()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGeneral, err)
		}
		if _, exists := taken[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no free lock id after %d attempts", ErrGeneral, maxLockIDAttempts)
}

// ListLocks returns one page of the locks of a repository.
//
// The cursor, when set, starts the page at the lock with that id. Path and
// ID filters keep exact matches only. At most Limit locks are returned
// (DefaultLockLimit when unset); NextCursor names the first lock left out.
//
// Error types returned:
//   - ErrInvalidInput: invalid repo
//   - ErrInvalidCursor: the cursor names no lock
//   - ErrGeneral: storage failure or malformed stored data
func (s *LFSService) ListLocks(ctx context.Context, q LockListQuery) (LockList, error) {
	if err := ctx.Err(); err != nil {
		return LockList{}, fmt.Errorf("list locks: %w", err)
	}

	if !IsValidRepo(q.Repo) {
		return LockList{}, fmt.Errorf("list locks: %w: invalid repo %q", ErrInvalidInput, q.Repo)
	}

	records, err := s.repo.GetLocks(ctx, q.Repo)
	if err != nil {
		return LockList{}, fmt.Errorf("list locks: %w", storageError(err))
	}

	records, err = fromCursor(records, q.Cursor)
	if err != nil {
		return LockList{}, fmt.Errorf("list locks: %w", err)
	}

	if q.Path != "" {
		records = filterLocks(records, func(r LockRecord) bool { return r.Path == q.Path })
	}

	if q.ID != "" {
		records = filterLocks(records, func(r LockRecord) bool { return r.ID == q.ID })
	}

	page, next := paginate(records, q.Limit)

	return LockList{
		Locks:      presentLocks(page, q.Session),
		NextCursor: next,
	}, nil
}

// VerifyLocks returns one page of the locks of a repository split into the
// locks held by session (Ours) and by everyone else (Theirs).
func (s *LFSService) VerifyLocks(ctx context.Context, q VerifyQuery) (VerifyResult, error) {
	if err := ctx.Err(); err != nil {
		return VerifyResult{}, fmt.Errorf("verify locks: %w", err)
	}

	if !IsValidRepo(q.Repo) {
		return VerifyResult{}, fmt.Errorf("verify locks: %w: invalid repo %q", ErrInvalidInput, q.Repo)
	}

	records, err := s.repo.GetLocks(ctx, q.Repo)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify locks: %w", storageError(err))
	}

	records, err = fromCursor(records, q.Cursor)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify locks: %w", err)
	}

	page, next := paginate(records, q.Limit)

	result := VerifyResult{
		Ours:       []Lock{},
		Theirs:     []Lock{},
		NextCursor: next,
	}
	for _, r := range page {
		lock := r.For(q.Session)
		if lock.Owner.IsSelf() {
			result.Ours = append(result.Ours, lock)
		} else {
			result.Theirs = append(result.Theirs, lock)
		}
	}

	return result, nil
}

// DeleteLock removes the lock id from repo. A lock held by another identity
// is only removed when force is set.
//
// Error types returned:
//   - ErrNotFound: the repository has no locks or none with that id
//   - ErrForbidden: the lock is owned by someone else and force is not set
//   - ErrGeneral: storage failure or malformed stored data
func (s *LFSService) DeleteLock(ctx context.Context, repo, id, session string, force bool) (Lock, error) {
	if err := ctx.Err(); err != nil {
		return Lock{}, fmt.Errorf("delete lock: %w", err)
	}

	if !IsValidRepo(repo) {
		return Lock{}, fmt.Errorf("delete lock: %w: invalid repo %q", ErrInvalidInput, repo)
	}

	if id == "" {
		return Lock{}, fmt.Errorf("delete lock: %w: id cannot be empty", ErrInvalidInput)
	}

	var removed LockRecord
	err := s.repo.UpdateLocks(ctx, repo, func(current []LockRecord) ([]LockRecord, error) {
		i := slices.IndexFunc(current, func(r LockRecord) bool { return r.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("lock %s: %w", id, ErrNotFound)
		}

		if !force && !current[i].OwnedBy(session) {
			return nil, fmt.Errorf("lock %s held by %s: %w", id, current[i].Owner, ErrForbidden)
		}

		removed = current[i]
		next := make([]LockRecord, 0, len(current)-1)
		next = append(next, current[:i]...)
		return append(next, current[i+1:]...), nil
	})
	if err != nil {
		return Lock{}, fmt.Errorf("delete lock: %w", storageError(err))
	}

	return removed.For(session), nil
}

func fromCursor(records []LockRecord, cursor string) ([]LockRecord, error) {
	if cursor == "" {
		return records, nil
	}

	i := slices.IndexFunc(records, func(r LockRecord) bool { return r.ID == cursor })
	if i < 0 {
		return nil, fmt.Errorf("cursor %s: %w", cursor, ErrInvalidCursor)
	}
	return records[i:], nil
}

func filterLocks(records []LockRecord, keep func(LockRecord) bool) []LockRecord {
	out := make([]LockRecord, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func paginate(records []LockRecord, limit int) ([]LockRecord, string) {
	if limit <= 0 {
		limit = DefaultLockLimit
	}
	if len(records) <= limit {
		return records, ""
	}
	return records[:limit], records[limit].ID
}

// IsLockConflict extracts the conflicting lock from err.
func IsLockConflict(err error) (Lock, bool) {
	var conflict *LockConflictError
	if errors.As(err, &conflict) {
		return conflict.Lock, true
	}
	return Lock{}, false
}
