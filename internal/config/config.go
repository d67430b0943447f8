// Package config loads wildgold's YAML configuration, applies environment
// overrides and validates the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Pass-count bounds accepted for a single expansion call.
const (
	MinPasses = 1
	MaxPasses = 50
)

// Config holds all wildgold configuration.
type Config struct {
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Expansion  ExpansionConfig  `yaml:"expansion"`
	Store      StoreConfig      `yaml:"store"`
	Watch      WatchConfig      `yaml:"watch"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// VocabularyConfig describes where vocabulary files are discovered.
type VocabularyConfig struct {
	// RootDir is the host root. Empty means detect it from the working directory.
	RootDir string `yaml:"root_dir"`
	// PluginsDir is searched recursively for nested wildcard directories.
	PluginsDir   string   `yaml:"plugins_dir"`
	WildcardsDir string   `yaml:"wildcards_dir"`
	CacheDirName string   `yaml:"cache_dir_name"`
	Extensions   []string `yaml:"extensions"`
	LoadWorkers  int      `yaml:"load_workers"`
}

// ExpansionConfig holds the defaults used when a request leaves a field unset.
type ExpansionConfig struct {
	SeedMode      string `yaml:"seed_mode"` // fixed, randomize
	Seed          uint64 `yaml:"seed"`
	MaxPasses     int    `yaml:"max_passes"`
	MissingPolicy string `yaml:"missing_policy"` // keep, empty, error
	MaxDepth      int    `yaml:"max_depth"`
}

// StoreConfig configures SQLite snapshot persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Keep    int    `yaml:"keep"`
}

// WatchConfig configures the vocabulary watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Vocabulary: VocabularyConfig{
			PluginsDir:   "custom_nodes",
			WildcardsDir: "custom_wildcards",
			CacheDirName: "__pycache__",
			Extensions:   []string{".txt"},
			LoadWorkers:  8,
		},
		Expansion: ExpansionConfig{
			SeedMode:      "fixed",
			Seed:          0,
			MaxPasses:     3,
			MissingPolicy: "keep",
			MaxDepth:      64,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    filepath.Join(".wildgold", "vocab.db"),
			Keep:    4,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			LogsDir: filepath.Join(".wildgold", "logs"),
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WILDGOLD_ROOT"); v != "" {
		c.Vocabulary.RootDir = v
	}
	if v := os.Getenv("WILDGOLD_PLUGINS_DIR"); v != "" {
		c.Vocabulary.PluginsDir = v
	}
	if v := os.Getenv("WILDGOLD_MISSING_POLICY"); v != "" {
		c.Expansion.MissingPolicy = v
	}
	if v := os.Getenv("WILDGOLD_MAX_PASSES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Expansion.MaxPasses = n
		}
	}
	if v := os.Getenv("WILDGOLD_DB"); v != "" {
		c.Store.Path = v
		c.Store.Enabled = true
	}
}

// ValidSeedModes lists the accepted seed modes.
var ValidSeedModes = []string{"fixed", "randomize"}

// ValidMissingPolicies lists the accepted missing-key policies.
var ValidMissingPolicies = []string{"keep", "empty", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Vocabulary.WildcardsDir == "" {
		return fmt.Errorf("vocabulary.wildcards_dir must not be empty")
	}
	if len(c.Vocabulary.Extensions) == 0 {
		return fmt.Errorf("vocabulary.extensions must list at least one extension")
	}
	if !contains(ValidSeedModes, c.Expansion.SeedMode) {
		return fmt.Errorf("invalid seed mode: %s (valid: %v)", c.Expansion.SeedMode, ValidSeedModes)
	}
	if !contains(ValidMissingPolicies, c.Expansion.MissingPolicy) {
		return fmt.Errorf("invalid missing policy: %s (valid: %v)", c.Expansion.MissingPolicy, ValidMissingPolicies)
	}
	if c.Expansion.MaxPasses < MinPasses || c.Expansion.MaxPasses > MaxPasses {
		return fmt.Errorf("max_passes must be between %d and %d (got %d)", MinPasses, MaxPasses, c.Expansion.MaxPasses)
	}
	if c.Expansion.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive (got %d)", c.Expansion.MaxDepth)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path required when the store is enabled")
	}
	return nil
}

// GetWatchDebounce returns the watcher debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetLoadWorkers returns the file-read concurrency for vocabulary loads.
func (c *Config) GetLoadWorkers() int {
	if c.Vocabulary.LoadWorkers < 1 {
		return 1
	}
	return c.Vocabulary.LoadWorkers
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
