package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCacheWithClient(client), mr
}

func TestRedisCache(t *testing.T) {
	c, _ := newTestRedisCache(t)
	runCacheContract(t, c)
}

func TestRedisCacheTTL(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testURL, testListing(), 24*time.Hour))

	key := RedisKeyPrefix + cacheKey(testURL)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 24*time.Hour, mr.TTL(key))

	mr.FastForward(25 * time.Hour)

	got, err := c.Get(ctx, testURL)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisCache(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	assert.NoError(t, c.Close())

	mr.Close()
	_, err = NewRedisCache(ctx, mr.Addr(), "", 0)
	assert.Error(t, err)
}
