package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) *Limiter {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewLimiter(client, "test")
	fixed := time.Date(2024, 5, 1, 12, 0, 30, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	return l
}

func TestLimiter_BlocksAfterLimit(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	minute := Window{Limit: 3, Period: time.Minute}

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "key-1", minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "key-1", minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC), res.ResetAt.UTC())

	other, err := l.Allow(ctx, "key-2", minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestLimiter_TightestWindowWins(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	res, err := l.Allow(ctx, "k",
		Window{Limit: 10, Period: time.Minute},
		Window{Limit: 2, Period: time.Hour},
	)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, 1, res.Remaining)

	_, _ = l.Allow(ctx, "k", Window{Limit: 10, Period: time.Minute}, Window{Limit: 2, Period: time.Hour})
	res, err = l.Allow(ctx, "k", Window{Limit: 10, Period: time.Minute}, Window{Limit: 2, Period: time.Hour})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestLimiter_IgnoresDisabledWindows(t *testing.T) {
	l := newTestLimiter(t)
	res, err := l.Allow(context.Background(), "k", Window{Limit: 0, Period: time.Minute})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
