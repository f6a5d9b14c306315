package lfsgate

import (
	"context"
	"io"
)

// LockUpdateFunc receives the current lock set of a repository and returns
// the set to persist. Returning an error aborts the update and leaves the
// stored set untouched.
type LockUpdateFunc func(current []LockRecord) ([]LockRecord, error)

// MetaDataRepo defines the interface for object metadata and lock persistence.
// Implementations must handle concurrent access safely and ensure data consistency.
//
// All methods accept a context for cancellation and timeout control.
// Implementations should respect context cancellation and return appropriate errors.
type MetaDataRepo interface {
	// GetObject retrieves the metadata of an object by its oid.
	//
	// Returns:
	//   - ObjectMetadata: The metadata entry if found
	//   - error: ErrNotFound if the oid is unknown, or other database errors
	GetObject(ctx context.Context, oid string) (ObjectMetadata, error)

	// CreateObject inserts metadata for an object unless a row for the oid
	// already exists, in which case the stored row is left untouched.
	//
	// Returns:
	//   - ObjectMetadata: The stored metadata entry
	//   - bool: true if a new entry was created
	//   - error: Any database error
	CreateObject(ctx context.Context, meta ObjectMetadata) (ObjectMetadata, bool, error)

	// DeleteObject removes the metadata of an object.
	//
	// Returns:
	//   - error: ErrNotFound if the oid is unknown, or other database errors
	DeleteObject(ctx context.Context, oid string) error

	// GetLocks returns the lock set of a repository ordered by lock time.
	// A repository without a stored set yields an empty slice.
	GetLocks(ctx context.Context, repo string) ([]LockRecord, error)

	// UpdateLocks atomically loads the lock set of a repository, applies fn and
	// persists the result. An empty result removes the stored record.
	//
	// fn may be invoked more than once when a concurrent writer wins the race;
	// it must not have side effects beyond its return value.
	//
	// Returns:
	//   - error: the error returned by fn, ErrGeneral for malformed stored data
	//     or exhausted retries, or other database errors
	UpdateLocks(ctx context.Context, repo string, fn LockUpdateFunc) error
}

// ObjectStorage defines the interface for object byte storage. Objects are
// content addressed and keyed by repository and oid.
//
// Implementations can use local filesystem, S3, or any other storage backend.
type ObjectStorage interface {
	// Exists reports whether the bytes of an object are present.
	Exists(ctx context.Context, repo, oid string) (bool, error)

	// Size returns the stored byte count of an object.
	//
	// Returns:
	//   - error: ErrNotFound if the object is absent
	Size(ctx context.Context, repo, oid string) (int64, error)

	// Get opens an object for reading. The caller must close the reader.
	//
	// Returns:
	//   - error: ErrNotFound if the object is absent
	Get(ctx context.Context, repo, oid string) (io.ReadCloser, error)

	// Write stores content for an object, replacing existing bytes.
	//
	// Implementations should:
	//   - Write atomically when possible (e.g., write to temp file then rename)
	//   - Return accurate byte count of data written
	//   - Handle context cancellation gracefully and clean up partial writes
	Write(ctx context.Context, repo, oid string, content io.Reader) (SaveResult, error)

	// Delete removes an object.
	//
	// Returns:
	//   - error: ErrNotFound if the object is absent
	Delete(ctx context.Context, repo, oid string) error
}

// CredentialStore resolves the password of a user for HTTP basic auth.
type CredentialStore interface {
	// Lookup returns the password of username.
	//
	// Returns:
	//   - error: ErrUnauthorized if the user is unknown
	Lookup(username string) (string, error)
}
