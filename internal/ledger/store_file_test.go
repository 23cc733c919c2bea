package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_CommitAndContains(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ok, err := store.Contains(ctx, "marker-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Commit(ctx, "marker-1"))

	ok, err = store.Contains(ctx, "marker-1")
	require.NoError(t, err)
	assert.True(t, ok)

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestFileStore_CommitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Commit(ctx, "marker-1"))
	require.NoError(t, store.Commit(ctx, "marker-1"))

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Commit(ctx, "marker-1"))
	require.NoError(t, store.Commit(ctx, "marker-2"))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	for _, marker := range []string{"marker-1", "marker-2"} {
		ok, err := reopened.Contains(ctx, marker)
		require.NoError(t, err)
		assert.True(t, ok, "marker %q must survive a restart", marker)
	}

	size, err := reopened.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestFileStore_EmptyDirStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestFileStore_CorruptSnapshotFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFileName), []byte("{broken"), 0o600))

	_, err := NewFileStore(dir)
	require.Error(t, err)
}

func TestFileStore_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, store.Commit(ctx, fmt.Sprintf("marker-%d", n)))
		}(i)
	}
	wg.Wait()

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, size)

	// The serialized writers must leave a parseable snapshot behind.
	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	size, err = reopened.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, size)
}
