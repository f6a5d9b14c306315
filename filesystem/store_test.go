package filesystem_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOID = strings.Repeat("ab", 32)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()
	tempDir := t.TempDir()
	osDir, err := os.OpenRoot(tempDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = osDir.Close() })

	return filesystem.NewFileStorage(osDir), tempDir
}

func oidFor(n int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "content-%d", n))
	return hex.EncodeToString(sum[:])
}

func TestStore_Write_Success(t *testing.T) {
	store, tempDir := newStore(t)
	ctx := context.Background()

	result, err := store.Write(ctx, "assets", testOID, bytes.NewReader([]byte("test content")))

	assert.NoError(t, err)
	assert.Equal(t, int64(12), result.BytesWritten)
	assert.Equal(t, 64, len(result.Etag)) // SHA256 hex length

	data, err := os.ReadFile(filepath.Join(tempDir, "assets", "ab", "ab", testOID))
	assert.NoError(t, err)
	assert.Equal(t, []byte("test content"), data)
}

func TestStore_Write_ReplacesExisting(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Write(ctx, "assets", testOID, bytes.NewReader([]byte("first")))
	require.NoError(t, err)
	_, err = store.Write(ctx, "assets", testOID, bytes.NewReader([]byte("second!")))
	require.NoError(t, err)

	size, err := store.Size(ctx, "assets", testOID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)
}

func TestStore_Write_ETagConsistency(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	r1, err := store.Write(ctx, "one", testOID, bytes.NewReader([]byte("same")))
	require.NoError(t, err)
	r2, err := store.Write(ctx, "two", testOID, bytes.NewReader([]byte("same")))
	require.NoError(t, err)

	assert.Equal(t, r1.Etag, r2.Etag)
}

func TestStore_Write_InvalidReference(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		repo string
		oid  string
	}{
		{"traversal repo", "..", testOID},
		{"slash in repo", "a/b", testOID},
		{"short oid", "assets", "abcd"},
		{"uppercase oid", "assets", strings.ToUpper(testOID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Write(ctx, tt.repo, tt.oid, bytes.NewReader([]byte("x")))
			assert.ErrorIs(t, err, lfsgate.ErrInvalidInput)
		})
	}
}

func TestStore_Write_ContextCanceledBefore(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := store.Write(ctx, "assets", testOID, bytes.NewReader([]byte("test")))

	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, int64(0), result.BytesWritten)
	assert.Empty(t, result.Etag)
}

func TestStore_Write_ContextCanceledDuringCopy(t *testing.T) {
	store, tempDir := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())

	slowReader := &slowReader{
		data:   []byte("test content"),
		cancel: cancel,
	}

	result, err := store.Write(ctx, "assets", testOID, slowReader)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), result.BytesWritten)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed")
}

type slowReader struct {
	data   []byte
	pos    int
	cancel context.CancelFunc
}

func (r *slowReader) Read(p []byte) (n int, err error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	r.cancel()
	n = copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func TestStore_Get(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "assets", testOID)
	assert.ErrorIs(t, err, lfsgate.ErrNotFound)

	_, err = store.Write(ctx, "assets", testOID, bytes.NewReader([]byte("test content")))
	require.NoError(t, err)

	result, err := store.Get(ctx, "assets", testOID)
	require.NoError(t, err)

	readContent, err := io.ReadAll(result)
	assert.NoError(t, err)
	assert.Equal(t, []byte("test content"), readContent)
	assert.NoError(t, result.Close())

	_, err = store.Get(ctx, "other", testOID)
	assert.ErrorIs(t, err, lfsgate.ErrNotFound, "objects are per repository")
}

func TestStore_Get_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := store.Get(ctx, "assets", testOID)

	assert.Nil(t, result)
	assert.Equal(t, context.Canceled, err)
}

func TestStore_ExistsAndSize(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "assets", testOID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Size(ctx, "assets", testOID)
	assert.ErrorIs(t, err, lfsgate.ErrNotFound)

	_, err = store.Write(ctx, "assets", testOID, bytes.NewReader([]byte("12345")))
	require.NoError(t, err)

	ok, err = store.Exists(ctx, "assets", testOID)
	require.NoError(t, err)
	assert.True(t, ok)

	size, err := store.Size(ctx, "assets", testOID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
}

func TestStore_Delete(t *testing.T) {
	store, tempDir := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Delete(ctx, "assets", testOID), lfsgate.ErrNotFound)

	_, err := store.Write(ctx, "assets", testOID, bytes.NewReader([]byte("content")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "assets", testOID))

	_, err = os.Stat(filepath.Join(tempDir, "assets", "ab", "ab", testOID))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_Delete_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, context.Canceled, store.Delete(ctx, "assets", testOID))
}

func TestStore_ConcurrentWrites(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	done := make(chan bool, 10)
	for i := range 10 {
		go func(n int) {
			content := fmt.Appendf(nil, "content-%d", n)
			_, err := store.Write(ctx, "assets", oidFor(n), bytes.NewReader(content))
			assert.NoError(t, err)
			done <- true
		}(i)
	}

	for range 10 {
		<-done
	}

	for i := range 10 {
		size, err := store.Size(ctx, "assets", oidFor(i))
		require.NoError(t, err)
		assert.Equal(t, int64(len(fmt.Sprintf("content-%d", i))), size)
	}
}
