package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/s0up4200/blizzapi/blizzard"
	"github.com/s0up4200/blizzapi/cache"
	"github.com/s0up4200/blizzapi/namespace"
)

// EnvPrefix prefixes environment overrides, e.g. BLIZZAPI_CLIENT_ID
const EnvPrefix = "BLIZZAPI"

// Load loads the configuration from file and environment. A missing
// config file is not an error when no explicit path was given, so the
// whole configuration can come from the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".blizzapi"))
		}

		// Check /etc
		v.AddConfigPath("/etc/blizzapi/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key is listed so
// AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	// Client defaults
	v.SetDefault("client.id", "")
	v.SetDefault("client.secret", "")
	v.SetDefault("client.region", string(namespace.RegionUS))
	v.SetDefault("client.locale", "en_US")
	v.SetDefault("client.format", string(blizzard.FormatStructured))
	v.SetDefault("client.api_host", blizzard.DefaultAPIHost)
	v.SetDefault("client.auth_host", blizzard.DefaultAuthHost)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", cache.BackendMemory)
	v.SetDefault("cache.address", "")
	v.SetDefault("cache.bucket", "blizzapi")
	v.SetDefault("cache.default_ttl", blizzard.DefaultTTL)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Client.ID == "" || cfg.Client.Secret == "" {
		return fmt.Errorf("client.id and client.secret are required")
	}

	if _, err := namespace.ParseRegion(cfg.Client.Region); err != nil {
		return fmt.Errorf("client.region: %w", err)
	}

	if _, err := blizzard.ParseFormat(cfg.Client.Format); err != nil {
		return fmt.Errorf("client.format: %w", err)
	}

	switch cfg.Cache.Backend {
	case cache.BackendMemory:
	case cache.BackendRedis, cache.BackendDaemon, cache.BackendBolt:
		if cfg.Cache.Enabled && cfg.Cache.Address == "" {
			return fmt.Errorf("cache.address is required for the %s backend", cfg.Cache.Backend)
		}
	default:
		return fmt.Errorf("invalid cache.backend: %s", cfg.Cache.Backend)
	}

	if cfg.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache.default_ttl must not be negative")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// ClientSettings converts the client and cache sections into executor settings
func (c *Config) ClientSettings() blizzard.Config {
	region, _ := namespace.ParseRegion(c.Client.Region)
	format, _ := blizzard.ParseFormat(c.Client.Format)
	return blizzard.Config{
		ClientID:     c.Client.ID,
		ClientSecret: c.Client.Secret,
		Region:       region,
		Locale:       c.Client.Locale,
		Format:       format,
		APIHost:      c.Client.APIHost,
		AuthHost:     c.Client.AuthHost,
		CacheEnabled: c.Cache.Enabled,
		DefaultTTL:   c.Cache.DefaultTTL,
	}
}

// CacheOptions converts the cache section into backend options
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Enabled:    c.Cache.Enabled,
		Backend:    c.Cache.Backend,
		Address:    c.Cache.Address,
		Bucket:     c.Cache.Bucket,
		DefaultTTL: c.Cache.DefaultTTL,
	}
}
