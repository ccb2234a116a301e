package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sfapps-deck-go/internal/model"
)

// CachedListing 缓存的抓取结果
type CachedListing struct {
	URL       string        `json:"url"`
	Listing   model.Listing `json:"listing"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Cache 缓存接口，未命中或过期时返回 nil, nil
type Cache interface {
	Get(ctx context.Context, url string) (*CachedListing, error)
	Set(ctx context.Context, url string, listing *model.Listing, ttl time.Duration) error
	Delete(ctx context.Context, url string) error
}

func newEntry(url string, listing *model.Listing, ttl time.Duration) *CachedListing {
	now := time.Now()
	return &CachedListing{
		URL:       url,
		Listing:   *listing,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// cacheKey URL 的 SHA-256，用作文件名
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// FileCache 基于文件的缓存实现，每个URL一个JSON文件
type FileCache struct {
	dir string
	mu  sync.RWMutex
}

// NewFileCache 创建文件缓存
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) cacheFile(url string) string {
	return filepath.Join(c.dir, cacheKey(url)+".json")
}

// Get 获取缓存
func (c *FileCache) Get(ctx context.Context, url string) (*CachedListing, error) {
	c.mu.RLock()
	data, err := os.ReadFile(c.cacheFile(url))
	c.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entry CachedListing
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}

	if time.Now().After(entry.ExpiresAt) {
		// 过期，顺手删除
		_ = c.Delete(ctx, url)
		return nil, nil
	}

	return &entry, nil
}

// Set 设置缓存
func (c *FileCache) Set(ctx context.Context, url string, listing *model.Listing, ttl time.Duration) error {
	jsonData, err := json.MarshalIndent(newEntry(url, listing, ttl), "", "  ")
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return os.WriteFile(c.cacheFile(url), jsonData, 0644)
}

// Delete 删除缓存
func (c *FileCache) Delete(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.cacheFile(url))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemoryCache 内存缓存实现（用于测试或单机部署）
type MemoryCache struct {
	data map[string]CachedListing
	mu   sync.Mutex
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]CachedListing),
	}
}

// Get 获取缓存
func (c *MemoryCache) Get(ctx context.Context, url string) (*CachedListing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[url]
	if !ok {
		return nil, nil
	}

	if time.Now().After(entry.ExpiresAt) {
		delete(c.data, url)
		return nil, nil
	}

	return &entry, nil
}

// Set 设置缓存
func (c *MemoryCache) Set(ctx context.Context, url string, listing *model.Listing, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[url] = *newEntry(url, listing, ttl)
	return nil
}

// Delete 删除缓存
func (c *MemoryCache) Delete(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, url)
	return nil
}

// NopCache 关闭缓存时使用，永远不命中
type NopCache struct{}

// Get 永远未命中
func (NopCache) Get(ctx context.Context, url string) (*CachedListing, error) { return nil, nil }

// Set 丢弃
func (NopCache) Set(ctx context.Context, url string, listing *model.Listing, ttl time.Duration) error {
	return nil
}

// Delete 无操作
func (NopCache) Delete(ctx context.Context, url string) error { return nil }
