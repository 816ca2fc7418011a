package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetExistsDelete(t *testing.T) {
	t.Parallel()

	m := NewMemory("p:")
	ctx := context.Background()

	ok, err := m.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "a", "1", time.Hour))
	ok, err = m.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "a"))
	ok, err = m.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	m := NewMemory("p:")
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	ok, err := m.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_KeysReturnsPrefixedMatches(t *testing.T) {
	t.Parallel()

	m := NewMemory("p:")
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "42:aaa", "1", time.Hour))
	require.NoError(t, m.Set(ctx, "42:bbb", "1", time.Hour))
	require.NoError(t, m.Set(ctx, "7:ccc", "1", time.Hour))

	keys, err := m.Keys(ctx, "42:*")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.ElementsMatch(t, []string{"p:42:aaa", "p:42:bbb"}, keys)
}

func TestMemoryCache_DeleteMultiple(t *testing.T) {
	t.Parallel()

	m := NewMemory("p:")
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1", time.Hour))
	require.NoError(t, m.Set(ctx, "b", "1", time.Hour))
	require.NoError(t, m.DeleteMultiple(ctx, []string{"a", "b"}))

	assert.Zero(t, m.Len())
}
