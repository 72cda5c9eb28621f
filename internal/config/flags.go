package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the serve and reset commands.
const (
	FlagHost      = "host"
	FlagPort      = "port"
	FlagIndex     = "index"
	FlagImages    = "images"
	FlagDBDriver  = "db-driver"
	FlagDBPath    = "db-path"
	FlagDBDSN     = "db-dsn"
	FlagRateLimit = "rate-limit"
	FlagRedisURL  = "redis-url"
	FlagEnv       = "env"
	FlagLogLevel  = "log-level"
)

// RegisterDatabaseFlags adds the flags needed to locate the store.
func RegisterDatabaseFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagDBDriver, d.Database.Driver, "database driver (sqlite|postgres)")
	fs.String(FlagDBPath, d.Database.Path, "sqlite database file")
	fs.String(FlagDBDSN, "", "postgres DSN")
}

// RegisterServerFlags adds the HTTP, content and logging flags.
func RegisterServerFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagHost, d.Server.Host, "listen host")
	fs.Int(FlagPort, d.Server.Port, "listen port")
	fs.String(FlagIndex, d.Content.IndexFile, "index document served at /")
	fs.String(FlagImages, d.Content.ImageDir, "directory served under /image/")
	fs.String(FlagRateLimit, d.RateLimit.Rate, `POST rate per client IP, e.g. "120-M" (empty disables)`)
	fs.String(FlagRedisURL, "", "redis URL for shared rate limit state")
	fs.String(FlagEnv, d.Logging.Environment, "environment (development|production)")
	fs.String(FlagLogLevel, d.Logging.Level, "log level")
}

// ApplyFlags copies every flag the user set explicitly into cfg. Flags that
// were not registered on fs are ignored.
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	strs := map[string]*string{
		FlagHost:      &cfg.Server.Host,
		FlagIndex:     &cfg.Content.IndexFile,
		FlagImages:    &cfg.Content.ImageDir,
		FlagDBDriver:  &cfg.Database.Driver,
		FlagDBPath:    &cfg.Database.Path,
		FlagDBDSN:     &cfg.Database.DSN,
		FlagRateLimit: &cfg.RateLimit.Rate,
		FlagRedisURL:  &cfg.RateLimit.RedisURL,
		FlagEnv:       &cfg.Logging.Environment,
		FlagLogLevel:  &cfg.Logging.Level,
	}
	for name, dst := range strs {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Lookup(FlagPort) != nil && fs.Changed(FlagPort) {
		port, err := fs.GetInt(FlagPort)
		if err != nil {
			return err
		}
		cfg.Server.Port = port
	}
	return nil
}

// Load builds the effective configuration for a command.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	if configFile != "" {
		if err := LoadFile(configFile, cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if fs != nil {
		if err := ApplyFlags(fs, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
