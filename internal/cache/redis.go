package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sfapps-deck-go/internal/model"
)

// RedisKeyPrefix 缓存键前缀
const RedisKeyPrefix = "sfapps:listing:"

// RedisCache Redis缓存实现，过期交给 Redis TTL
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 连接Redis
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisCacheWithClient(client), nil
}

// NewRedisCacheWithClient 使用已有客户端创建缓存
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func redisKey(url string) string {
	return RedisKeyPrefix + cacheKey(url)
}

// Get 获取缓存
func (c *RedisCache) Get(ctx context.Context, url string) (*CachedListing, error) {
	data, err := c.client.Get(ctx, redisKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry CachedListing
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Set 设置缓存
func (c *RedisCache) Set(ctx context.Context, url string, listing *model.Listing, ttl time.Duration) error {
	data, err := json.Marshal(newEntry(url, listing, ttl))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(url), data, ttl).Err()
}

// Delete 删除缓存
func (c *RedisCache) Delete(ctx context.Context, url string) error {
	return c.client.Del(ctx, redisKey(url)).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}
