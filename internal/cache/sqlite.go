package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sfapps-deck-go/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS listing_cache (
	url        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
)`

// SQLiteCache 本地SQLite缓存实现，时间以Unix秒存储
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache 打开数据库文件并建表
func NewSQLiteCache(ctx context.Context, path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// 单连接避免 database is locked
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create listing_cache table: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Get 获取缓存
func (c *SQLiteCache) Get(ctx context.Context, url string) (*CachedListing, error) {
	var (
		data               string
		created, expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT data, created_at, expires_at FROM listing_cache WHERE url = ? AND expires_at > ?`,
		url, time.Now().Unix(),
	).Scan(&data, &created, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry := CachedListing{
		URL:       url,
		CreatedAt: time.Unix(created, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}
	if err := json.Unmarshal([]byte(data), &entry.Listing); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Set 设置缓存
func (c *SQLiteCache) Set(ctx context.Context, url string, listing *model.Listing, ttl time.Duration) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = c.db.ExecContext(ctx, `
	INSERT INTO listing_cache (url, data, created_at, expires_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (url) DO UPDATE SET data = excluded.data, created_at = excluded.created_at, expires_at = excluded.expires_at
	`, url, string(data), now.Unix(), now.Add(ttl).Unix())
	return err
}

// Delete 删除缓存
func (c *SQLiteCache) Delete(ctx context.Context, url string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM listing_cache WHERE url = ?`, url)
	return err
}

// CleanExpired 清理过期缓存
func (c *SQLiteCache) CleanExpired(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM listing_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close 关闭数据库
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
