package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MaxListingsLimit 单个演示文稿允许的最大应用数量
const MaxListingsLimit = 20

// Config 应用配置
type Config struct {
	Port           string        `mapstructure:"port"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	TemplatePath   string        `mapstructure:"template_path"`
	StylePath      string        `mapstructure:"style_path"`
	MaxListings    int           `mapstructure:"max_listings"`
	Concurrency    int           `mapstructure:"concurrency"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	LogoTimeout    time.Duration `mapstructure:"logo_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`

	Browser   BrowserConfig   `mapstructure:"browser"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Converter ConverterConfig `mapstructure:"converter"`
}

// BrowserConfig 无头浏览器抓取策略配置
type BrowserConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Bin     string        `mapstructure:"bin"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig 抓取结果缓存配置
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"` // memory | file | redis | postgres | sqlite | none
	TTL           time.Duration `mapstructure:"ttl"`
	Dir           string        `mapstructure:"dir"`
	DatabaseURL   string        `mapstructure:"database_url"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	SQLitePath    string        `mapstructure:"sqlite_path"`
}

// ConverterConfig PDF转换配置
type ConverterConfig struct {
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
}

var validBackends = map[string]bool{
	"memory": true, "file": true, "redis": true, "postgres": true, "sqlite": true, "none": true,
}

// Load 从 .env、可选的 sfapps.yaml 和环境变量加载配置
func Load() (*Config, error) {
	// .env 不存在时直接使用环境变量
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("sfapps")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容旧部署的 DATABASE_URL
	if err := v.BindEnv("cache.database_url", "CACHE_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5001")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("template_path", "Copy of SFApps.info Best Apps Presentation Template.pptx")
	v.SetDefault("style_path", "")
	v.SetDefault("max_listings", MaxListingsLimit)
	v.SetDefault("concurrency", 4)
	v.SetDefault("max_upload_bytes", 16<<20)
	v.SetDefault("fetch_timeout", 20*time.Second)
	v.SetDefault("logo_timeout", 10*time.Second)
	v.SetDefault("user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.timeout", 30*time.Second)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.dir", "/tmp/appexchange_cache")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.sqlite_path", "sfapps-cache.db")

	v.SetDefault("converter.binary", "libreoffice")
	v.SetDefault("converter.timeout", 120*time.Second)
}

// Validate 校验配置取值范围
func (c *Config) Validate() error {
	if c.MaxListings < 1 || c.MaxListings > MaxListingsLimit {
		return fmt.Errorf("max_listings must be between 1 and %d, got %d", MaxListingsLimit, c.MaxListings)
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if !validBackends[c.Cache.Backend] {
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "postgres" && c.Cache.DatabaseURL == "" {
		return fmt.Errorf("cache backend postgres requires cache.database_url")
	}
	return nil
}
