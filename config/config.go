package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. ANIMECAL_SERVER_ADDR
const EnvPrefix = "ANIMECAL"

// Load loads the configuration from file and environment. A missing config
// file is not an error; defaults and environment variables apply.
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
			v.AddConfigPath(filepath.Join(home, ".animecal"))
		}

		// Check /etc
		v.AddConfigPath("/etc/animecal/")
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

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// AniList defaults
	v.SetDefault("anilist.url", "https://graphql.anilist.co")
	v.SetDefault("anilist.timeout", "30s")
	v.SetDefault("anilist.max_pages", 100)
	v.SetDefault("anilist.user_agent", "animecal")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.max_entries", 256)
	v.SetDefault("cache.namespace", "https://graphql.anilist.co/upcoming-movies")

	// Server defaults
	v.SetDefault("server.addr", ":8787")
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.slow_request", "5s")

	// Filter defaults
	v.SetDefault("filter.expression", "")
	v.SetDefault("filter.preset", "")
	v.SetDefault("filter.presets", map[string]string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.AniList.URL == "" {
		return fmt.Errorf("anilist.url is required")
	}
	u, err := url.Parse(cfg.AniList.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid anilist.url: %s", cfg.AniList.URL)
	}

	if cfg.AniList.MaxPages < 1 {
		return fmt.Errorf("anilist.max_pages must be at least 1, got %d", cfg.AniList.MaxPages)
	}

	if cfg.AniList.Timeout < 0 {
		return fmt.Errorf("anilist.timeout must not be negative")
	}

	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	if cfg.Cache.Enabled && cfg.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be at least 1 when the cache is enabled")
	}

	if cfg.Filter.Preset != "" {
		if _, ok := cfg.Filter.Presets[strings.ToLower(cfg.Filter.Preset)]; !ok {
			return fmt.Errorf("filter.preset %q is not defined in filter.presets", cfg.Filter.Preset)
		}
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
