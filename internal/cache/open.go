package cache

import (
	"context"
	"fmt"

	"sfapps-deck-go/config"
)

// Open 根据配置创建缓存后端，返回的 close 函数总是可以调用
func Open(ctx context.Context, cfg config.CacheConfig) (Cache, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(), noop, nil
	case "none":
		return NopCache{}, noop, nil
	case "file":
		c, err := NewFileCache(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil
	case "redis":
		c, err := NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	case "postgres":
		c, err := NewPostgresCache(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	case "sqlite":
		c, err := NewSQLiteCache(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
