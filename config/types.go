package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Client  ClientConfig      `mapstructure:"client"`
	Cache   CacheConfig       `mapstructure:"cache"`
	Queries map[string]string `mapstructure:"queries"`
	Logging LoggingConfig     `mapstructure:"logging"`
}

// ClientConfig holds Battle.net credentials and request defaults
type ClientConfig struct {
	ID       string `mapstructure:"id"`
	Secret   string `mapstructure:"secret"`
	Region   string `mapstructure:"region"`
	Locale   string `mapstructure:"locale"`
	Format   string `mapstructure:"format"`
	APIHost  string `mapstructure:"api_host"`
	AuthHost string `mapstructure:"auth_host"`
}

// CacheConfig selects the response cache backend
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Backend    string        `mapstructure:"backend"`
	Address    string        `mapstructure:"address"`
	Bucket     string        `mapstructure:"bucket"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
