package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	_, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete(ctx, "k"))
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 20*time.Millisecond))

	assert.Eventually(t, func() bool {
		_, ok, err := store.Get(ctx, "k")
		return err == nil && !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v1"), time.Minute))
	require.NoError(t, store.Set(ctx, "k", []byte("v2"), time.Minute))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), value)
}
