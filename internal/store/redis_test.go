package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/testsuite"
)

func TestRedisStore(t *testing.T) {
	ctx, client := testsuite.Redis(t)
	r := NewRedisWithClient(client, time.Minute)

	t.Run("missing session", func(t *testing.T) {
		_, err := r.Load(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		snap := sampleSnapshot(t)
		require.NoError(t, r.Save(ctx, "s1", snap))

		got, err := r.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, snap, got)

		ttl, err := client.TTL(ctx, key("s1")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, r.Save(ctx, "s2", sampleSnapshot(t)))
		require.NoError(t, r.Delete(ctx, "s2"))
		_, err := r.Load(ctx, "s2")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("corrupt value", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, key("bad"), "{", 0).Err())
		_, err := r.Load(ctx, "bad")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
