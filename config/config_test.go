package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AniList: AniListConfig{
			URL:      "https://graphql.anilist.co",
			Timeout:  30 * time.Second,
			MaxPages: 100,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        24 * time.Hour,
			MaxEntries: 256,
		},
		Filter: FilterConfig{
			Presets: map[string]string{"official": `hasLink("INFO")`},
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
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "missing anilist url",
			mutate:  func(cfg *Config) { cfg.AniList.URL = "" },
			wantErr: "anilist.url is required",
		},
		{
			name:    "anilist url without scheme",
			mutate:  func(cfg *Config) { cfg.AniList.URL = "graphql.anilist.co" },
			wantErr: "invalid anilist.url",
		},
		{
			name:    "zero max pages",
			mutate:  func(cfg *Config) { cfg.AniList.MaxPages = 0 },
			wantErr: "anilist.max_pages",
		},
		{
			name:    "negative ttl",
			mutate:  func(cfg *Config) { cfg.Cache.TTL = -time.Second },
			wantErr: "cache.ttl",
		},
		{
			name:    "cache without capacity",
			mutate:  func(cfg *Config) { cfg.Cache.MaxEntries = 0 },
			wantErr: "cache.max_entries",
		},
		{
			name: "disabled cache ignores capacity",
			mutate: func(cfg *Config) {
				cfg.Cache.Enabled = false
				cfg.Cache.MaxEntries = 0
			},
		},
		{
			name:   "known preset",
			mutate: func(cfg *Config) { cfg.Filter.Preset = "official" },
		},
		{
			name:    "unknown preset",
			mutate:  func(cfg *Config) { cfg.Filter.Preset = "missing" },
			wantErr: `filter.preset "missing"`,
		},
		{
			name:    "invalid log level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "trace" },
			wantErr: "invalid logging level: trace",
		},
		{
			name:    "invalid log format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "invalid logging format: xml",
		},
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

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://graphql.anilist.co", cfg.AniList.URL)
	assert.Equal(t, 30*time.Second, cfg.AniList.Timeout)
	assert.Equal(t, 100, cfg.AniList.MaxPages)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 256, cfg.Cache.MaxEntries)
	assert.Equal(t, ":8787", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
anilist:
  max_pages: 5
cache:
  ttl: 6h
server:
  addr: "127.0.0.1:9000"
filter:
  preset: official
  presets:
    official: hasLink("INFO")
logging:
  level: debug
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.AniList.MaxPages)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "official", cfg.Filter.Preset)
	assert.Equal(t, `hasLink("INFO")`, cfg.Filter.Presets["official"])
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "https://graphql.anilist.co", cfg.AniList.URL, "unset keys keep defaults")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANIMECAL_SERVER_ADDR", ":9999")
	t.Setenv("ANIMECAL_CACHE_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadErrors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
