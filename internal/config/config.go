package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache"`
	I18n      I18nConfig      `yaml:"i18n"`
	Site      SiteConfig      `yaml:"site"`
	Streams   StreamsConfig   `yaml:"streams"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// CacheConfig configures the Redis stream cache. An empty URL disables it.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

type I18nConfig struct {
	CatalogDir    string `yaml:"catalog_dir"`
	DefaultLocale string `yaml:"default_locale"`
}

type SiteConfig struct {
	BaseURL string `yaml:"base_url"`
}

type StreamsConfig struct {
	PageSize    int `yaml:"page_size"`
	MaxPageSize int `yaml:"max_page_size"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// AuthConfig controls API key authentication on the HTTP transport. When
// disabled, requests act as DefaultUserID, or anonymously when it is 0.
type AuthConfig struct {
	Enabled       bool  `yaml:"enabled"`
	DefaultUserID int64 `yaml:"default_user_id"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Driver: "sqlite",
			DSN:    "captionlog.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Cache: CacheConfig{
			TTL:    5 * time.Minute,
			Prefix: "captionlog",
		},
		I18n: I18nConfig{
			DefaultLocale: "en",
		},
		Streams: StreamsConfig{
			PageSize:    20,
			MaxPageSize: 100,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CAPTIONLOG_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CAPTIONLOG_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CAPTIONLOG_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CAPTIONLOG_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if driver := os.Getenv("CAPTIONLOG_DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dsn := os.Getenv("CAPTIONLOG_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if level := os.Getenv("CAPTIONLOG_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if url := os.Getenv("CAPTIONLOG_REDIS_URL"); url != "" {
		cfg.Cache.RedisURL = url
	}
	if dir := os.Getenv("CAPTIONLOG_CATALOG_DIR"); dir != "" {
		cfg.I18n.CatalogDir = dir
	}
	if base := os.Getenv("CAPTIONLOG_BASE_URL"); base != "" {
		cfg.Site.BaseURL = base
	}
	if mode := os.Getenv("CAPTIONLOG_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("CAPTIONLOG_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CAPTIONLOG_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("invalid db.driver %q: want sqlite or mysql", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport.mode %q: want stdio or http", c.Transport.Mode)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if c.Streams.PageSize <= 0 || c.Streams.MaxPageSize <= 0 {
		return fmt.Errorf("streams page sizes must be positive")
	}
	if c.Streams.PageSize > c.Streams.MaxPageSize {
		return fmt.Errorf("streams.page_size %d exceeds max_page_size %d", c.Streams.PageSize, c.Streams.MaxPageSize)
	}
	if c.Cache.RedisURL != "" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
