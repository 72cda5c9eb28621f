// Package config holds the runtime settings of the valentine server.
// Values are layered: defaults, then an optional YAML file, then environment
// variables, then explicitly set command-line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Content   ContentConfig   `yaml:"content"`
	Database  DatabaseConfig  `yaml:"database"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the listener. TrustedProxies lists the proxies whose
// X-Forwarded-For is believed; when empty the client IP is the peer address.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type ContentConfig struct {
	IndexFile string `yaml:"index_file"`
	ImageDir  string `yaml:"image_dir"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"`
}

// RateLimitConfig limits POSTs per client IP. Rate uses the limiter
// notation ("120-M"); an empty Rate, the default, disables limiting.
type RateLimitConfig struct {
	Rate     string `yaml:"rate"`
	RedisURL string `yaml:"redis_url"`
}

type LoggingConfig struct {
	Environment string `yaml:"environment"`
	Level       string `yaml:"level"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			MaxBodyBytes: 1 << 20,
		},
		Content: ContentConfig{
			IndexFile: "index.html",
			ImageDir:  "image",
		},
		Database: DatabaseConfig{
			Driver:   DriverSQLite,
			Path:     "valentine.sqlite3",
			LogLevel: "warn",
		},
		Logging: LoggingConfig{
			Environment: "development",
			Level:       "info",
		},
	}
}

// LoadFile overlays the YAML document at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ApplyEnv(cfg *Config) error {
	cfg.Server.Host = getEnv("VALENTINE_HOST", cfg.Server.Host)
	if v := os.Getenv("VALENTINE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VALENTINE_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	cfg.Content.IndexFile = getEnv("VALENTINE_INDEX_FILE", cfg.Content.IndexFile)
	cfg.Content.ImageDir = getEnv("VALENTINE_IMAGE_DIR", cfg.Content.ImageDir)
	cfg.Database.Driver = getEnv("VALENTINE_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Path = getEnv("VALENTINE_DB_PATH", cfg.Database.Path)
	cfg.Database.DSN = getEnv("VALENTINE_DB_DSN", cfg.Database.DSN)
	cfg.RateLimit.Rate = getEnv("VALENTINE_RATE_LIMIT", cfg.RateLimit.Rate)
	cfg.RateLimit.RedisURL = getEnv("VALENTINE_REDIS_URL", cfg.RateLimit.RedisURL)
	cfg.Logging.Environment = getEnv("VALENTINE_ENV", cfg.Logging.Environment)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max body bytes must be positive"))
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("sqlite database path is empty"))
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("postgres driver requires a DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

func (c *Config) Log(logger *zap.Logger) {
	logger.Info("Application configuration",
		zap.String("addr", c.Addr()),
		zap.Int64("max_body_bytes", c.Server.MaxBodyBytes),
		zap.Strings("trusted_proxies", c.Server.TrustedProxies),
		zap.String("index_file", c.Content.IndexFile),
		zap.String("image_dir", c.Content.ImageDir),
		zap.String("database_driver", c.Database.Driver),
		zap.String("database_path", c.Database.Path),
		zap.String("database_dsn", redact(c.Database.DSN)),
		zap.String("rate_limit", c.RateLimit.Rate),
		zap.String("redis_url", redact(c.RateLimit.RedisURL)),
		zap.String("environment", c.Logging.Environment),
	)
}
