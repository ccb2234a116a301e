package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteCache(t *testing.T) *SQLiteCache {
	c, err := NewSQLiteCache(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteCache(t *testing.T) {
	runCacheContract(t, newTestSQLiteCache(t))
}

func TestSQLiteCacheUpsertAndExpiry(t *testing.T) {
	c := newTestSQLiteCache(t)
	ctx := context.Background()

	first := testListing()
	require.NoError(t, c.Set(ctx, testURL, first, time.Hour))

	second := testListing()
	second.Name = "TaskRay Pro"
	require.NoError(t, c.Set(ctx, testURL, second, time.Hour))

	got, err := c.Get(ctx, testURL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "TaskRay Pro", got.Listing.Name)

	require.NoError(t, c.Set(ctx, testURL+"&old=1", testListing(), -time.Minute))
	got, err = c.Get(ctx, testURL+"&old=1")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := c.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
