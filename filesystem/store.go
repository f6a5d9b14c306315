// Package filesystem provides a file system storage backend for LFS objects.
// It supports atomic writes using temp files and fans objects out into
// per-repository directories keyed by oid prefix.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sagarc03/lfsgate"
)

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// objectPath maps an object to repo/ab/cd/abcd... below the root.
func objectPath(repo, oid string) (string, error) {
	if !lfsgate.IsValidRepo(repo) || !lfsgate.IsValidOID(oid) {
		return "", fmt.Errorf("%w: invalid object reference %s/%s", lfsgate.ErrInvalidInput, repo, oid)
	}
	return filepath.Join(repo, oid[0:2], oid[2:4], oid), nil
}

// Exists reports whether the object file is present.
func (s *Store) Exists(ctx context.Context, repo, oid string) (bool, error) {
	_, err := s.Size(ctx, repo, oid)
	if err != nil {
		if errors.Is(err, lfsgate.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Size returns the size of the object file. Returns lfsgate.ErrNotFound if the file does not exist.
func (s *Store) Size(ctx context.Context, repo, oid string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := objectPath(repo, oid)
	if err != nil {
		return 0, err
	}

	info, err := s.root.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, lfsgate.ErrNotFound
		}
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	return info.Size(), nil
}

// Get opens a file for reading. Returns lfsgate.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, repo, oid string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := objectPath(repo, oid)
	if err != nil {
		return nil, err
	}

	f, err := s.root.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, lfsgate.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content for the object using a temp file and rename.
// It creates intermediate directories as needed and returns a SaveResult containing
// the number of bytes written and SHA256-based etag. The operation respects context cancellation.
func (s *Store) Write(ctx context.Context, repo, oid string, content io.Reader) (lfsgate.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return lfsgate.SaveResult{}, ctxErr
	}

	path, err := objectPath(repo, oid)
	if err != nil {
		return lfsgate.SaveResult{}, err
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return lfsgate.SaveResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	fileSizeBytes, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return lfsgate.SaveResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	err = t.Sync()
	if err != nil {
		return lfsgate.SaveResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	if err := s.root.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return lfsgate.SaveResult{}, fmt.Errorf("could not create intermediate directories: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, path); renameErr != nil {
		return lfsgate.SaveResult{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	etag := hex.EncodeToString(h.Sum(nil))
	success = true

	return lfsgate.SaveResult{BytesWritten: fileSizeBytes, Etag: etag}, nil
}

// Delete removes a file. Returns lfsgate.ErrNotFound if the file does not exist.
func (s *Store) Delete(ctx context.Context, repo, oid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := objectPath(repo, oid)
	if err != nil {
		return err
	}

	err = s.root.Remove(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lfsgate.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
