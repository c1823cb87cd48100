// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archiveplatform/archive/pkg/errutil"
)

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// isolate points the XDG config dir and the .env lookup at empty temp paths.
func isolate(t *testing.T) LoadOptions {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return LoadOptions{EnvFile: filepath.Join(dir, "missing.env"), Getenv: noEnv}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() Config {
	c := Default()
	c.Database.URL = "postgres://localhost/archive"
	return c
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(isolate(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_File(t *testing.T) {
	opts := isolate(t)
	opts.ConfigFile = writeFile(t, "config.yaml", `
http:
  addr: ":9000"
  trusted_proxy: true
log:
  format: TEXT
  level: debug
database:
  url: postgres://file/archive
session:
  backend: redis
  lifetime: 90m
  cookie_secure: false
redis:
  url: redis://localhost:6379/0
auth:
  lockout_threshold: 3
`)

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.TrustedProxy)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres://file/archive", cfg.Database.URL)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, 90*time.Minute, cfg.Session.Lifetime)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, 3, cfg.Auth.LockoutThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutDuration, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_XDGDefaultFile(t *testing.T) {
	opts := isolate(t)
	dir := os.Getenv("XDG_CONFIG_HOME")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "archive"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "archive", "config.yaml"),
		[]byte("metrics:\n  addr: \"\"\n"), 0o600))

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	opts := isolate(t)
	opts.ConfigFile = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(opts)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_MISSING")
}

func TestLoad_FileInvalid(t *testing.T) {
	opts := isolate(t)
	opts.ConfigFile = writeFile(t, "bad.yaml", "http: [unterminated")

	_, err := Load(opts)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_INVALID")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	opts := isolate(t)
	opts.ConfigFile = writeFile(t, "config.yaml", "database:\n  url: postgres://file\n")
	opts.Getenv = envMap(map[string]string{
		EnvDatabaseURL: "postgres://env",
		EnvRedisURL:    "redis://env",
	})

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, "redis://env", cfg.Redis.URL)
}

func TestLoad_EnvFile(t *testing.T) {
	opts := isolate(t)
	opts.EnvFile = writeFile(t, ".env", "DATABASE_URL=postgres://dotenv\n")
	opts.Getenv = os.Getenv
	t.Setenv(EnvDatabaseURL, "")
	require.NoError(t, os.Unsetenv(EnvDatabaseURL))

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv", cfg.Database.URL)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	opts := isolate(t)
	opts.ConfigFile = writeFile(t, "config.yaml", "http:\n  addr: \":1111\"\nlog:\n  level: warn\n")
	opts.Getenv = envMap(map[string]string{EnvDatabaseURL: "postgres://env"})

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--http-addr", ":2222",
		"--database-url", "postgres://flag",
		"--session-lifetime", "45m",
		"--http-trusted-proxy",
	}))
	opts.Flags = fs

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, ":2222", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://flag", cfg.Database.URL)
	assert.Equal(t, 45*time.Minute, cfg.Session.Lifetime)
	assert.True(t, cfg.HTTP.TrustedProxy)
	assert.Equal(t, "warn", cfg.Log.Level, "unchanged flags do not clobber file values")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		key    string
	}{
		{"missing http addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, "database.url"},
		{"unknown backend", func(c *Config) { c.Session.Backend = "memcached" }, "session.backend"},
		{"redis without url", func(c *Config) { c.Session.Backend = BackendRedis }, "redis.url"},
		{"zero lifetime", func(c *Config) { c.Session.Lifetime = 0 }, "session.lifetime"},
		{"negative sweep", func(c *Config) { c.Session.SweepInterval = -time.Second }, "session.sweep_interval"},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 1 }, "auth.bcrypt_cost"},
		{"bcrypt cost too high", func(c *Config) { c.Auth.BcryptCost = 99 }, "auth.bcrypt_cost"},
		{"zero threshold", func(c *Config) { c.Auth.LockoutThreshold = 0 }, "auth.lockout_threshold"},
		{"zero lockout duration", func(c *Config) { c.Auth.LockoutDuration = 0 }, "auth.lockout_duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}

	t.Run("valid", func(t *testing.T) {
		c := validConfig()
		assert.NoError(t, c.Validate())

		c.Session.Backend = BackendRedis
		c.Redis.URL = "redis://localhost:6379"
		assert.NoError(t, c.Validate())
	})
}

func TestRegisterFlags_CoversEveryKey(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	for name := range flagKeys {
		assert.NotNil(t, fs.Lookup(name), name)
	}
}
