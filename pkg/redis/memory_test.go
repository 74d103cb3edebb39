package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", 42, time.Minute))
	require.NoError(t, s.Set(ctx, "forever", "v", 0))

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Del(ctx, "forever", "missing"))
	ok, _ = s.Exists(ctx, "forever")
	assert.False(t, ok)
}
