package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, *redis.Client, *PageCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client, NewPageCache(client, time.Minute, zap.NewNop())
}

func TestPageCache_SetGet(t *testing.T) {
	mr, _, c := setupCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "/blog", "page=1")
	assert.False(t, ok)

	c.Set(ctx, "/blog", "page=1", []byte(`{"items":[]}`))
	body, ok := c.Get(ctx, "/blog", "page=1")
	require.True(t, ok)
	assert.JSONEq(t, `{"items":[]}`, string(body))
	assert.Equal(t, time.Minute, mr.TTL("page:/blog"))

	_, ok = c.Get(ctx, "/blog", "page=2")
	assert.False(t, ok)
}

func TestPageCache_MarkStale(t *testing.T) {
	mr, client, c := setupCache(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, StaleChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	c.Set(ctx, "/blog", "page=1", []byte("a"))
	c.Set(ctx, "/blog", "page=2", []byte("a2"))
	c.Set(ctx, "/cases", "page=1", []byte("b"))

	c.MarkStale(ctx, "/blog", "/admin/blog")
	assert.False(t, mr.Exists("page:/blog"))
	assert.True(t, mr.Exists("page:/cases"))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/blog", msg.Payload)

	// second call on missing keys is harmless
	c.MarkStale(ctx, "/blog")
}

func TestPageCache_NilClientIsNoop(t *testing.T) {
	c := NewPageCache(nil, time.Minute, nil)
	c.Set(context.Background(), "/x", "", []byte("y"))
	_, ok := c.Get(context.Background(), "/x", "")
	assert.False(t, ok)
	c.MarkStale(context.Background(), "/x")
}
