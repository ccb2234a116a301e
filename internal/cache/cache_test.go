package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfapps-deck-go/config"
	"sfapps-deck-go/internal/model"
)

const testURL = "https://appexchange.salesforce.com/appxListingDetail?listingId=a0N3000000B5XUtEAN"

func testListing() *model.Listing {
	return &model.Listing{
		URL:            testURL,
		Name:           "TaskRay",
		Developer:      "TaskRay Inc",
		LogoURL:        "https://cdn.example.com/taskray.png",
		Logo:           []byte{0x89, 'P', 'N', 'G'},
		LogoMIME:       "image/png",
		Sources:        []string{"static"},
		NameFound:      true,
		DeveloperFound: true,
		LogoFound:      true,
	}
}

// runCacheContract 所有后端共享的行为
func runCacheContract(t *testing.T, c Cache) {
	ctx := context.Background()

	got, err := c.Get(ctx, testURL)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, testURL, testListing(), time.Hour))

	got, err = c.Get(ctx, testURL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testURL, got.URL)
	assert.Equal(t, *testListing(), got.Listing)
	assert.True(t, got.ExpiresAt.After(time.Now()))

	require.NoError(t, c.Delete(ctx, testURL))
	got, err = c.Get(ctx, testURL)
	require.NoError(t, err)
	assert.Nil(t, got)

	// 删除不存在的键不报错
	assert.NoError(t, c.Delete(ctx, testURL))
}

func TestMemoryCache(t *testing.T) {
	runCacheContract(t, NewMemoryCache())
}

func TestMemoryCacheExpired(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testURL, testListing(), -time.Second))
	got, err := c.Get(ctx, testURL)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, c.data)
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	runCacheContract(t, c)
}

func TestFileCacheExpired(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testURL, testListing(), -time.Second))
	_, err = os.Stat(c.cacheFile(testURL))
	require.NoError(t, err)

	got, err := c.Get(ctx, testURL)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = os.Stat(c.cacheFile(testURL))
	assert.True(t, os.IsNotExist(err))
}

func TestCacheKeyIsStable(t *testing.T) {
	assert.Equal(t, cacheKey(testURL), cacheKey(testURL))
	assert.NotEqual(t, cacheKey(testURL), cacheKey(testURL+"x"))
	assert.Len(t, cacheKey(testURL), 64)
}

func TestNopCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NopCache{}

	require.NoError(t, c.Set(ctx, testURL, testListing(), time.Hour))
	got, err := c.Get(ctx, testURL)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, closeFn, err := Open(ctx, config.CacheConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
	assert.NoError(t, closeFn())

	c, _, err = Open(ctx, config.CacheConfig{Backend: "none"})
	require.NoError(t, err)
	assert.IsType(t, NopCache{}, c)

	c, _, err = Open(ctx, config.CacheConfig{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileCache{}, c)

	c, closeFn, err = Open(ctx, config.CacheConfig{Backend: "sqlite", SQLitePath: t.TempDir() + "/cache.db"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteCache{}, c)
	assert.NoError(t, closeFn())

	_, closeFn, err = Open(ctx, config.CacheConfig{Backend: "mongo"})
	assert.Error(t, err)
	assert.NoError(t, closeFn())
}
