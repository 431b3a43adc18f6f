package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottlz0310/photogeoview-core/cache"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 30, cfg.AutoSaveSeconds)
	assert.Equal(t, 600, cfg.CleanupSeconds)
	assert.Equal(t, 3600, cfg.HistoryRetentionSeconds)
	assert.Equal(t, 100, cfg.MaxHistorySize)
	assert.Contains(t, cfg.Themes, "default")
	assert.NotEmpty(t, cfg.StatePath)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.AutoSaveSeconds)
	assert.Equal(t, 100, cfg.MaxHistorySize)
}

func TestLoad_ParsesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
state_path = "~/photogeoview/state.json"
auto_save_seconds = 60
themes = ["default", "solarized"]

[thumbnail_cache]
max_entries = 2000
max_memory_mb = 100.0

[map_cache]
ttl_seconds = 1800
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.AutoSaveSeconds)
	assert.Equal(t, 600, cfg.CleanupSeconds, "unset field keeps its default")
	assert.Equal(t, []string{"default", "solarized"}, cfg.Themes)
	assert.True(t, filepath.IsAbs(cfg.StatePath), "tilde path expanded")
	assert.Equal(t, 2000, cfg.ThumbnailCache.MaxEntries)
	assert.Equal(t, 1800, cfg.MapCache.TTLSeconds)
}

func TestLoad_InvalidTOML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`auto_save_seconds = [broken`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "auto-save disabled", mutate: func(c *Config) { c.AutoSaveSeconds = 0 }, ok: true},
		{name: "negative auto-save", mutate: func(c *Config) { c.AutoSaveSeconds = -1 }},
		{name: "negative cleanup", mutate: func(c *Config) { c.CleanupSeconds = -1 }},
		{name: "zero retention", mutate: func(c *Config) { c.HistoryRetentionSeconds = 0 }},
		{name: "zero history size", mutate: func(c *Config) { c.MaxHistorySize = 0 }},
		{name: "negative cache entries", mutate: func(c *Config) { c.ImageCache.MaxEntries = -1 }},
		{name: "negative cache memory", mutate: func(c *Config) { c.MapCache.MaxMemoryMB = -0.5 }},
		{name: "negative ttl", mutate: func(c *Config) { c.MapCache.TTLSeconds = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
			}
		})
	}
}

func TestToRegistryConfig(t *testing.T) {
	cfg := Default()
	cfg.ThumbnailCache = CacheBudget{MaxEntries: 2000, MaxMemoryMB: 100}
	cfg.MapCache.TTLSeconds = 1800

	rc := cfg.ToRegistryConfig()
	def := cache.DefaultRegistryConfig()

	assert.Equal(t, 2000, rc.Thumbnail.MaxEntries)
	assert.Equal(t, int64(100<<20), rc.Thumbnail.MaxMemoryBytes)
	assert.Equal(t, 30*time.Minute, rc.Map.DefaultTTL)
	assert.Equal(t, def.Image, rc.Image, "untouched namespace keeps its built-in budget")
}

func TestIntervals(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 30*time.Second, cfg.AutoSaveInterval())
	assert.Equal(t, 10*time.Minute, cfg.CleanupInterval())
	assert.Equal(t, time.Hour, cfg.HistoryRetention())
}
