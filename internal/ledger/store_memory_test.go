package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CommitAndContains(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	ok, err := store.Contains(ctx, "marker-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Commit(ctx, "marker-1"))

	ok, err = store.Contains(ctx, "marker-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_CommitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Commit(ctx, "marker-1"))
	require.NoError(t, store.Commit(ctx, "marker-1"))

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}
