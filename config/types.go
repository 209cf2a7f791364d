package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	AniList AniListConfig `mapstructure:"anilist"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Server  ServerConfig  `mapstructure:"server"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AniListConfig holds AniList API connection details
type AniListConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxPages  int           `mapstructure:"max_pages"`
	UserAgent string        `mapstructure:"user_agent"`
}

// CacheConfig controls the page cache
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	Namespace  string        `mapstructure:"namespace"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	SlowRequest       time.Duration `mapstructure:"slow_request"`
}

// FilterConfig contains the release filter and named presets
type FilterConfig struct {
	Expression string            `mapstructure:"expression"`
	Preset     string            `mapstructure:"preset"`
	Presets    map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
