package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "MAX_LISTINGS", "CACHE_BACKEND", "CACHE_TTL", "FETCH_TIMEOUT", "CONVERTER_BINARY", "BROWSER_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, MaxListingsLimit, cfg.MaxListings)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "libreoffice", cfg.Converter.Binary)
	assert.False(t, cfg.Browser.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "2h")
	t.Setenv("BROWSER_ENABLED", "true")
	t.Setenv("MAX_LISTINGS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
	assert.True(t, cfg.Browser.Enabled)
	assert.Equal(t, 10, cfg.MaxListings)
}

func TestLoadDatabaseURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CACHE_BACKEND", "postgres")
	t.Setenv("CACHE_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "postgres://legacy@localhost/sfapps")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://legacy@localhost/sfapps", cfg.Cache.DatabaseURL)

	t.Setenv("CACHE_DATABASE_URL", "postgres://new@localhost/sfapps")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://new@localhost/sfapps", cfg.Cache.DatabaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "too many listings", mutate: func(c *Config) { c.MaxListings = 21 }, wantErr: true},
		{name: "zero listings", mutate: func(c *Config) { c.MaxListings = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Cache.Backend = "mongo" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.Cache.Backend = "postgres" }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{MaxListings: 20, Concurrency: 4, Cache: CacheConfig{Backend: "memory"}}
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
