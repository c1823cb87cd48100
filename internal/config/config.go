// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

// Package config loads server configuration from defaults, an optional YAML
// file, a .env file, environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/archiveplatform/archive/internal/logging"
	"github.com/archiveplatform/archive/internal/xdg"
)

// Session backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Environment variables that override file values.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvRedisURL    = "REDIS_URL"
)

// Config is the full server configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Redis    RedisConfig    `koanf:"redis"`
	Auth     AuthConfig     `koanf:"auth"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
	// TrustedProxy honours X-Forwarded-For and X-Real-IP for the client address.
	TrustedProxy bool `koanf:"trusted_proxy"`
}

// MetricsConfig configures the observability listener. Empty disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig configures PostgreSQL.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SessionConfig configures session storage and cookies.
type SessionConfig struct {
	Backend       string        `koanf:"backend"`
	Lifetime      time.Duration `koanf:"lifetime"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	CookieSecure  bool          `koanf:"cookie_secure"`
}

// RedisConfig configures the Redis session backend.
type RedisConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig configures password hashing and lockout.
type AuthConfig struct {
	BcryptCost       int           `koanf:"bcrypt_cost"`
	LockoutThreshold int           `koanf:"lockout_threshold"`
	LockoutDuration  time.Duration `koanf:"lockout_duration"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP:    HTTPConfig{Addr: "127.0.0.1:8080"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:     LogConfig{Format: "json", Level: "info"},
		Session: SessionConfig{
			Backend:       BackendPostgres,
			Lifetime:      2 * time.Hour,
			SweepInterval: 15 * time.Minute,
			CookieSecure:  true,
		},
		Auth: AuthConfig{
			BcryptCost:       12,
			LockoutThreshold: 5,
			LockoutDuration:  30 * time.Minute,
		},
	}
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"http-addr":              "http.addr",
	"http-trusted-proxy":     "http.trusted_proxy",
	"metrics-addr":           "metrics.addr",
	"log-format":             "log.format",
	"log-level":              "log.level",
	"database-url":           "database.url",
	"session-backend":        "session.backend",
	"session-lifetime":       "session.lifetime",
	"session-sweep-interval": "session.sweep_interval",
	"session-cookie-secure":  "session.cookie_secure",
	"redis-url":              "redis.url",
	"bcrypt-cost":            "auth.bcrypt_cost",
	"lockout-threshold":      "auth.lockout_threshold",
	"lockout-duration":       "auth.lockout_duration",
}

// RegisterFlags adds the configuration flags to fs with Default values.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("http-addr", d.HTTP.Addr, "API listen address")
	fs.Bool("http-trusted-proxy", d.HTTP.TrustedProxy, "take the client address from proxy headers")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health listen address (empty = disabled)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("database-url", "", "PostgreSQL connection URL (env "+EnvDatabaseURL+")")
	fs.String("session-backend", d.Session.Backend, "session store (postgres or redis)")
	fs.Duration("session-lifetime", d.Session.Lifetime, "absolute session lifetime")
	fs.Duration("session-sweep-interval", d.Session.SweepInterval, "expired session purge interval")
	fs.Bool("session-cookie-secure", d.Session.CookieSecure, "mark the session cookie Secure")
	fs.String("redis-url", "", "Redis URL for the redis session backend (env "+EnvRedisURL+")")
	fs.Int("bcrypt-cost", d.Auth.BcryptCost, "bcrypt cost for new password hashes")
	fs.Int("lockout-threshold", d.Auth.LockoutThreshold, "failed logins before lockout")
	fs.Duration("lockout-duration", d.Auth.LockoutDuration, "lockout duration")
}

// LoadOptions controls Load.
type LoadOptions struct {
	// ConfigFile is an explicit file path. It must exist when set. When empty
	// the XDG default is used if present.
	ConfigFile string
	// EnvFile is loaded into the process environment if it exists.
	// Defaults to ".env".
	EnvFile string
	// Flags, when set, override everything else for flags the user changed.
	Flags *pflag.FlagSet
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load builds the configuration. It does not validate it.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	path, required, err := configPath(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFile(k, path, required); err != nil {
			return nil, err
		}
	}

	if v := opts.Getenv(EnvDatabaseURL); v != "" {
		_ = k.Set("database.url", v) //nolint:errcheck // Set only fails on type conflicts
	}
	if v := opts.Getenv(EnvRedisURL); v != "" {
		_ = k.Set("redis.url", v) //nolint:errcheck // Set only fails on type conflicts
	}

	if opts.Flags != nil {
		if err := loadFlags(k, opts.Flags); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Session.Backend = strings.ToLower(cfg.Session.Backend)
	return &cfg, nil
}

func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return oops.Code("CONFIG_ENV_FILE_INVALID").With("path", path).Wrap(err)
}

func configPath(explicit string) (path string, required bool, err error) {
	if explicit != "" {
		return explicit, true, nil
	}
	def, err := xdg.ConfigFile()
	if err != nil {
		// No home directory means no default file.
		return "", false, nil //nolint:nilerr // the default file is optional
	}
	return def, false, nil
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return oops.Code("CONFIG_FILE_MISSING").With("path", path).Wrap(err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
	}
	return nil
}

func loadFlags(k *koanf.Koanf, fs *pflag.FlagSet) error {
	provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(key, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
	}

	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	if !logging.ValidFormat(c.Log.Format) {
		return invalid("log.format", "log.format must be json or text, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "log.level %q is not a level", c.Log.Level)
	}
	if c.Database.URL == "" {
		return invalid("database.url", "database.url or %s is required", EnvDatabaseURL)
	}
	switch c.Session.Backend {
	case BackendPostgres:
	case BackendRedis:
		if c.Redis.URL == "" {
			return invalid("redis.url", "redis.url or %s is required for the redis session backend", EnvRedisURL)
		}
	default:
		return invalid("session.backend", "session.backend must be postgres or redis, got %q", c.Session.Backend)
	}
	if c.Session.Lifetime <= 0 {
		return invalid("session.lifetime", "session.lifetime must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return invalid("session.sweep_interval", "session.sweep_interval must be positive")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return invalid("auth.bcrypt_cost", "auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Auth.LockoutThreshold < 1 {
		return invalid("auth.lockout_threshold", "auth.lockout_threshold must be at least 1")
	}
	if c.Auth.LockoutDuration <= 0 {
		return invalid("auth.lockout_duration", "auth.lockout_duration must be positive")
	}
	return nil
}
