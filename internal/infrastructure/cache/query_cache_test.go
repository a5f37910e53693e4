package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueryCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil without error on a miss", func(t *testing.T) {
		qc := NewInMemoryQueryCache()

		data, err := qc.Get(ctx, "analytics:overview:missing")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("returns the stored payload before expiry", func(t *testing.T) {
		qc := NewInMemoryQueryCache()
		payload := []byte(`{"total_orders":42}`)

		err := qc.Set(ctx, "analytics:overview:tenant-a", payload, 1*time.Hour)
		require.NoError(t, err)

		data, err := qc.Get(ctx, "analytics:overview:tenant-a")
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("expired entries read as misses", func(t *testing.T) {
		qc := NewInMemoryQueryCache()

		err := qc.Set(ctx, "short-lived", []byte("x"), 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		data, err := qc.Get(ctx, "short-lived")
		require.NoError(t, err)
		assert.Nil(t, data)
		assert.Equal(t, 0, qc.Len(), "expired entry should be dropped on read")
	})
}

func TestInMemoryQueryCache_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites an existing entry", func(t *testing.T) {
		qc := NewInMemoryQueryCache()

		require.NoError(t, qc.Set(ctx, "key", []byte("old"), 1*time.Hour))
		require.NoError(t, qc.Set(ctx, "key", []byte("new"), 1*time.Hour))

		data, err := qc.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), data)
		assert.Equal(t, 1, qc.Len())
	})

	t.Run("non-positive ttl stores nothing", func(t *testing.T) {
		qc := NewInMemoryQueryCache()

		require.NoError(t, qc.Set(ctx, "key", []byte("x"), 0))

		data, err := qc.Get(ctx, "key")
		require.NoError(t, err)
		assert.Nil(t, data)
		assert.Equal(t, 0, qc.Len())
	})
}

func TestInMemoryQueryCache_Delete(t *testing.T) {
	ctx := context.Background()
	qc := NewInMemoryQueryCache()

	require.NoError(t, qc.Set(ctx, "key", []byte("x"), 1*time.Hour))
	require.NoError(t, qc.Delete(ctx, "key"))

	data, err := qc.Get(ctx, "key")
	require.NoError(t, err)
	assert.Nil(t, data)
}
