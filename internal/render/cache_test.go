package render

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, "render:", ttl), mr
}

func TestSourceKey_StableAndSourceSensitive(t *testing.T) {
	a := SourceKey("---\ntitle: t\n---\nbody\n")
	b := SourceKey("---\ntitle: t\n---\nbody\n")
	c := SourceKey("---\ntitle: t\n---\nedited body\n")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 64)
}

func TestCache_PutGet(t *testing.T) {
	cache, _ := testCache(t, time.Hour)
	ctx := context.Background()

	key := SourceKey("some source")
	_, ok := cache.Get(ctx, key)
	require.False(t, ok)

	require.NoError(t, cache.Put(ctx, key, "<html>rendered</html>"))
	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, "<html>rendered</html>", got)
}

func TestCache_TTLExpiry(t *testing.T) {
	cache, mr := testCache(t, time.Minute)
	ctx := context.Background()

	key := SourceKey("expiring")
	require.NoError(t, cache.Put(ctx, key, "page"))

	mr.FastForward(2 * time.Minute)
	_, ok := cache.Get(ctx, key)
	require.False(t, ok)
}

func TestCache_NilIsMiss(t *testing.T) {
	var cache *Cache
	_, ok := cache.Get(context.Background(), "anything")
	require.False(t, ok)
	require.NoError(t, cache.Put(context.Background(), "anything", "x"))
}
