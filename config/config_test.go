package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/blizzapi/blizzard"
	"github.com/s0up4200/blizzapi/namespace"
)

func validConfig() *Config {
	return &Config{
		Client: ClientConfig{
			ID:     "id",
			Secret: "secret",
			Region: "eu",
			Format: "structured",
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.Client.Secret = "" }, wantErr: "client.secret"},
		{name: "unknown region", mutate: func(c *Config) { c.Client.Region = "cn" }, wantErr: "client.region"},
		{name: "unknown format", mutate: func(c *Config) { c.Client.Format = "xml" }, wantErr: "client.format"},
		{name: "unknown backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: "cache.backend"},
		{
			name: "redis without address",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Backend = "redis"
			},
			wantErr: "cache.address",
		},
		{
			name: "disabled redis without address",
			mutate: func(c *Config) {
				c.Cache.Backend = "redis"
			},
		},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.DefaultTTL = -time.Second }, wantErr: "default_ttl"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: "logging level"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
client:
  id: file-id
  secret: file-secret
  region: kr
  locale: ko_KR
cache:
  enabled: true
  backend: redis
  address: localhost:6379
  default_ttl: 10m
queries:
  realms: map(data.realms, .name)
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-id", cfg.Client.ID)
	assert.Equal(t, "ko_KR", cfg.Client.Locale)
	assert.Equal(t, "structured", cfg.Client.Format)
	assert.Equal(t, 10*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, "map(data.realms, .name)", cfg.Queries["realms"])
	assert.Equal(t, "console", cfg.Logging.Format)

	settings := cfg.ClientSettings()
	assert.Equal(t, namespace.RegionKR, settings.Region)
	assert.Equal(t, blizzard.FormatStructured, settings.Format)
	assert.Equal(t, blizzard.DefaultAPIHost, settings.APIHost)
	assert.True(t, settings.CacheEnabled)

	opts := cfg.CacheOptions()
	assert.Equal(t, "redis", opts.Backend)
	assert.Equal(t, "localhost:6379", opts.Address)
	assert.Equal(t, "blizzapi", opts.Bucket)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BLIZZAPI_CLIENT_ID", "env-id")
	t.Setenv("BLIZZAPI_CLIENT_SECRET", "env-secret")
	t.Setenv("BLIZZAPI_CLIENT_REGION", "tw")
	t.Setenv("BLIZZAPI_CACHE_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-id", cfg.Client.ID)
	assert.Equal(t, "tw", cfg.Client.Region)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, blizzard.DefaultTTL, cfg.Cache.DefaultTTL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  id: only-id\n"), 0o600))
	_, err = Load(path)
	assert.ErrorContains(t, err, "invalid configuration")
}
