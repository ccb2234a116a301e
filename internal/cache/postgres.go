package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"sfapps-deck-go/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS listing_cache (
	url        TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL
)`

// PostgresCache PostgreSQL缓存实现
type PostgresCache struct {
	db *sql.DB
}

// NewPostgresCache 连接数据库并确保表存在
func NewPostgresCache(ctx context.Context, databaseURL string) (*PostgresCache, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 测试连接
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cache := NewPostgresCacheWithDB(db)
	if err := cache.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

// NewPostgresCacheWithDB 使用已有连接创建缓存
func NewPostgresCacheWithDB(db *sql.DB) *PostgresCache {
	return &PostgresCache{db: db}
}

// Migrate 创建缓存表
func (c *PostgresCache) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create listing_cache table: %w", err)
	}
	return nil
}

// Get 获取缓存
func (c *PostgresCache) Get(ctx context.Context, url string) (*CachedListing, error) {
	query := `
	SELECT url, data, created_at, expires_at
	FROM listing_cache
	WHERE url = $1 AND expires_at > NOW()
	`

	var entry CachedListing
	var dataJSON []byte

	err := c.db.QueryRowContext(ctx, query, url).Scan(
		&entry.URL,
		&dataJSON,
		&entry.CreatedAt,
		&entry.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // 缓存不存在或已过期
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dataJSON, &entry.Listing); err != nil {
		return nil, err
	}

	return &entry, nil
}

// Set 设置缓存
func (c *PostgresCache) Set(ctx context.Context, url string, listing *model.Listing, ttl time.Duration) error {
	dataJSON, err := json.Marshal(listing)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(ttl)

	query := `
	INSERT INTO listing_cache (url, data, created_at, expires_at)
	VALUES ($1, $2, NOW(), $3)
	ON CONFLICT (url)
	DO UPDATE SET data = $2, created_at = NOW(), expires_at = $3
	`

	_, err = c.db.ExecContext(ctx, query, url, dataJSON, expiresAt)
	return err
}

// Delete 删除缓存
func (c *PostgresCache) Delete(ctx context.Context, url string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM listing_cache WHERE url = $1`, url)
	return err
}

// Close 关闭数据库连接
func (c *PostgresCache) Close() error {
	return c.db.Close()
}

// CleanExpired 清理过期缓存
func (c *PostgresCache) CleanExpired(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM listing_cache WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
