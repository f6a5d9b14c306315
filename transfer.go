package lfsgate

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Upload stores the bytes of an object announced by an earlier upload batch.
// If the object store rejects the bytes, the metadata row is removed again so
// that the next batch offers the upload anew.
//
// Parameters:
//   - ctx: Context for cancellation and timeout. Cleanup uses a separate
//     background context bounded by the configured cleanup timeout.
//
// Error types returned:
//   - ErrInvalidInput: invalid repo or oid
//   - ErrGeneral: no metadata for the oid, or the store failed
func (s *LFSService) Upload(ctx context.Context, repo, oid string, content io.Reader) (ObjectMetadata, error) {
	if err := ctx.Err(); err != nil {
		return ObjectMetadata{}, fmt.Errorf("upload object: %w", err)
	}

	if err := validateObjectRef(repo, oid); err != nil {
		return ObjectMetadata{}, fmt.Errorf("upload object: %w", err)
	}

	meta, err := s.repo.GetObject(ctx, oid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ObjectMetadata{}, fmt.Errorf("upload object %s: %w: object was not announced", oid, ErrGeneral)
		}
		return ObjectMetadata{}, fmt.Errorf("upload object %s: %w", oid, storageError(err))
	}

	if _, writeErr := s.storage.Write(ctx, repo, oid, content); writeErr != nil {
		// Use background context for cleanup since original context may be cancelled
		cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
		defer cancel()

		if delErr := s.repo.DeleteObject(cleanupCtx, oid); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			return ObjectMetadata{}, fmt.Errorf("upload object %s: %w: write failed (%w) and metadata cleanup failed: %w", oid, ErrGeneral, writeErr, delErr)
		}
		return ObjectMetadata{}, fmt.Errorf("upload object %s: %w: write failed: %w", oid, ErrGeneral, writeErr)
	}

	return meta, nil
}

// Download opens the bytes of an object. The caller must close the reader.
// Bytes are returned as stored, without re-hashing.
//
// Error types returned:
//   - ErrInvalidInput: invalid repo or oid
//   - ErrNotFound: no metadata or no bytes for the oid
//   - ErrGeneral: storage failure
func (s *LFSService) Download(ctx context.Context, repo, oid string) (ObjectMetadata, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return ObjectMetadata{}, nil, fmt.Errorf("download object: %w", err)
	}

	if err := validateObjectRef(repo, oid); err != nil {
		return ObjectMetadata{}, nil, fmt.Errorf("download object: %w", err)
	}

	meta, err := s.repo.GetObject(ctx, oid)
	if err != nil {
		return ObjectMetadata{}, nil, fmt.Errorf("download object %s: %w", oid, storageError(err))
	}

	f, err := s.storage.Get(ctx, repo, oid)
	if err != nil {
		return ObjectMetadata{}, nil, fmt.Errorf("download object %s: %w", oid, storageError(err))
	}

	return meta, f, nil
}

// Verify confirms that an uploaded object is complete: its metadata exists
// and the store holds exactly size bytes for it.
//
// Error types returned:
//   - ErrNotFound: no metadata or no bytes for the oid
//   - ErrInvalidInput: invalid input or size mismatch
//   - ErrGeneral: storage failure
func (s *LFSService) Verify(ctx context.Context, repo, oid string, size int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("verify object: %w", err)
	}

	if err := validateObjectRef(repo, oid); err != nil {
		return fmt.Errorf("verify object: %w", err)
	}

	if _, err := s.repo.GetObject(ctx, oid); err != nil {
		return fmt.Errorf("verify object %s: %w", oid, storageError(err))
	}

	stored, err := s.storage.Size(ctx, repo, oid)
	if err != nil {
		return fmt.Errorf("verify object %s: %w", oid, storageError(err))
	}

	if stored != size {
		return fmt.Errorf("verify object %s: %w: stored %d bytes, expected %d", oid, ErrInvalidInput, stored, size)
	}

	return nil
}

// DeleteObject removes the bytes and the metadata of an object. Missing
// bytes are ignored so that a half-written object can still be removed.
//
// Error types returned:
//   - ErrNotFound: no metadata for the oid
func (s *LFSService) DeleteObject(ctx context.Context, repo, oid string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	if err := validateObjectRef(repo, oid); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	if _, err := s.repo.GetObject(ctx, oid); err != nil {
		return fmt.Errorf("delete object %s: %w", oid, storageError(err))
	}

	if err := s.storage.Delete(ctx, repo, oid); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete object %s: %w", oid, storageError(err))
	}

	if err := s.repo.DeleteObject(ctx, oid); err != nil {
		return fmt.Errorf("delete object %s: %w", oid, storageError(err))
	}

	return nil
}

// FetchChunkIDs lists the chunks of a split object. Chunked transfer is not
// available; objects are always stored whole.
func (s *LFSService) FetchChunkIDs(ctx context.Context, oid string) (SplitRelation, error) {
	if err := ctx.Err(); err != nil {
		return SplitRelation{}, fmt.Errorf("fetch chunk ids: %w", err)
	}
	return SplitRelation{}, fmt.Errorf("fetch chunk ids %s: %w", oid, ErrNotImplemented)
}

func validateObjectRef(repo, oid string) error {
	if !IsValidRepo(repo) {
		return fmt.Errorf("%w: invalid repo %q", ErrInvalidInput, repo)
	}
	if !IsValidOID(oid) {
		return fmt.Errorf("%w: invalid oid %q", ErrInvalidInput, oid)
	}
	return nil
}
