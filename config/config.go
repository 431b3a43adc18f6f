package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/scottlz0310/photogeoview-core/cache"
)

const (
	defaultConfigPath = "~/.config/photogeoview/config.toml"
	defaultStatePath  = "~/.local/share/photogeoview/state.json"
)

// CacheBudget bounds one cache namespace. A zero value falls back to the
// built-in budget for that namespace.
type CacheBudget struct {
	MaxEntries  int     `toml:"max_entries"`
	MaxMemoryMB float64 `toml:"max_memory_mb"`
	TTLSeconds  int     `toml:"ttl_seconds"`
}

// Config captures everything the application core reads at startup.
type Config struct {
	StatePath string `toml:"state_path"`

	AutoSaveSeconds         int `toml:"auto_save_seconds"`
	CleanupSeconds          int `toml:"cleanup_seconds"`
	HistoryRetentionSeconds int `toml:"history_retention_seconds"`
	MaxHistorySize          int `toml:"max_history_size"`

	Themes []string `toml:"themes"`

	ImageCache     CacheBudget `toml:"image_cache"`
	ThumbnailCache CacheBudget `toml:"thumbnail_cache"`
	MetadataCache  CacheBudget `toml:"metadata_cache"`
	MapCache       CacheBudget `toml:"map_cache"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		StatePath:               mustExpand(defaultStatePath),
		AutoSaveSeconds:         30,
		CleanupSeconds:          600,
		HistoryRetentionSeconds: 3600,
		MaxHistorySize:          100,
		Themes:                  []string{"default", "dark", "light"},
	}
}

// Load parses the TOML config at path, falling back to defaults when the
// file is missing. An empty path resolves to the standard location under
// the user's config directory. The result is validated before return.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, errors.Wrapf(err, errors.CodeUnknown, "read config %q", resolved)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, errors.CodeInvalidConfig, "parse config %q", resolved)
	}

	if strings.TrimSpace(cfg.StatePath) == "" {
		cfg.StatePath = defaultStatePath
	}
	cfg.StatePath = mustExpand(cfg.StatePath)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the core cannot run with.
func (c Config) Validate() error {
	if c.AutoSaveSeconds < 0 {
		return errors.Newf(errors.CodeInvalidConfig,
			"auto_save_seconds must be non-negative, got %d", c.AutoSaveSeconds)
	}
	if c.CleanupSeconds < 0 {
		return errors.Newf(errors.CodeInvalidConfig,
			"cleanup_seconds must be non-negative, got %d", c.CleanupSeconds)
	}
	if c.HistoryRetentionSeconds <= 0 {
		return errors.Newf(errors.CodeInvalidConfig,
			"history_retention_seconds must be positive, got %d", c.HistoryRetentionSeconds)
	}
	if c.MaxHistorySize <= 0 {
		return errors.Newf(errors.CodeInvalidConfig,
			"max_history_size must be positive, got %d", c.MaxHistorySize)
	}
	for _, b := range []struct {
		name   string
		budget CacheBudget
	}{
		{"image_cache", c.ImageCache},
		{"thumbnail_cache", c.ThumbnailCache},
		{"metadata_cache", c.MetadataCache},
		{"map_cache", c.MapCache},
	} {
		if b.budget.MaxEntries < 0 {
			return errors.Newf(errors.CodeInvalidConfig,
				"%s.max_entries must be non-negative, got %d", b.name, b.budget.MaxEntries)
		}
		if b.budget.MaxMemoryMB < 0 {
			return errors.Newf(errors.CodeInvalidConfig,
				"%s.max_memory_mb must be non-negative, got %g", b.name, b.budget.MaxMemoryMB)
		}
		if b.budget.TTLSeconds < 0 {
			return errors.Newf(errors.CodeInvalidConfig,
				"%s.ttl_seconds must be non-negative, got %d", b.name, b.budget.TTLSeconds)
		}
	}
	return nil
}

// AutoSaveInterval returns the auto-save period, or zero when auto-save
// is disabled.
func (c Config) AutoSaveInterval() time.Duration {
	return time.Duration(c.AutoSaveSeconds) * time.Second
}

// CleanupInterval returns the maintenance period, or zero when periodic
// cleanup is disabled.
func (c Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupSeconds) * time.Second
}

// HistoryRetention returns how long undo history and memory samples are
// kept.
func (c Config) HistoryRetention() time.Duration {
	return time.Duration(c.HistoryRetentionSeconds) * time.Second
}

// ToRegistryConfig converts the cache budgets to registry form, keeping
// the built-in budget for any namespace the file leaves unset.
func (c Config) ToRegistryConfig() cache.RegistryConfig {
	rc := cache.DefaultRegistryConfig()
	applyBudget(&rc.Image, c.ImageCache)
	applyBudget(&rc.Thumbnail, c.ThumbnailCache)
	applyBudget(&rc.Metadata, c.MetadataCache)
	applyBudget(&rc.Map, c.MapCache)
	return rc
}

func applyBudget(nc *cache.NamespaceConfig, b CacheBudget) {
	if b.MaxEntries > 0 {
		nc.MaxEntries = b.MaxEntries
	}
	if b.MaxMemoryMB > 0 {
		nc.MaxMemoryBytes = int64(b.MaxMemoryMB * (1 << 20))
	}
	if b.TTLSeconds > 0 {
		nc.DefaultTTL = time.Duration(b.TTLSeconds) * time.Second
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New(errors.CodeInvalidInput, "path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.CodeUnknown, "resolve home dir")
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
