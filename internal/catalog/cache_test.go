package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewMemoryCache(10, time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v")))

	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_Disabled(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_ResetsWhenFull(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Minute)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Set(ctx, "b", []byte("2")))
	require.NoError(t, c.Set(ctx, "c", []byte("3")))

	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryCache_Purge(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Purge(ctx))

	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()
	c := NewRedisCache(client, "test", time.Hour)

	require.NoError(t, c.Set(ctx, "plan:basic", []byte(`{"id":"basic"}`)))
	assert.True(t, mr.Exists("test:plan:basic"))

	val, ok, err := c.Get(ctx, "plan:basic")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"basic"}`, string(val))

	_, ok, err = c.Get(ctx, "plan:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_TTL(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()
	c := NewRedisCache(client, "test", time.Minute)

	require.NoError(t, c.Set(ctx, "plans", []byte(`[]`)))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "plans")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_PurgeKeepsOtherPrefixes(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()
	c := NewRedisCache(client, "test", time.Hour)

	require.NoError(t, c.Set(ctx, "plan:basic", []byte("1")))
	require.NoError(t, c.Set(ctx, "plans", []byte("2")))
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, c.Purge(ctx))

	assert.False(t, mr.Exists("test:plan:basic"))
	assert.False(t, mr.Exists("test:plans"))
	assert.True(t, mr.Exists("other:key"))
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	addr := mr.Addr()
	client, err := NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
