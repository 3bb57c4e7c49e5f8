package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mediatagger/internal/errors"
	"mediatagger/internal/log"
	"mediatagger/internal/media"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Check-mark modes for the browser
const (
	CheckMarksPath     = "path"     // Mark rows whose full path is tagged
	CheckMarksBasename = "basename" // Mark rows whose base name matches any tagged path
)

// Config represents the application configuration structure.
type Config struct {
	Store struct {
		Tags           string `yaml:"tags" toml:"tags"`                       // Tag store JSON file
		Settings       string `yaml:"settings" toml:"settings"`               // Window/column/last-dir JSON file
		Journal        string `yaml:"journal" toml:"journal"`                 // SQLite operation journal
		JournalEnabled bool   `yaml:"journal_enabled" toml:"journal_enabled"` // Record tag and extract operations
	} `yaml:"store" toml:"store"`
	Extract struct {
		Suffix string `yaml:"suffix" toml:"suffix"` // Appended to the scope directory name
	} `yaml:"extract" toml:"extract"`
	Browser struct {
		NameFilters []string `yaml:"name_filters" toml:"name_filters"` // Glob patterns for listed files
		CheckMarks  string   `yaml:"check_marks" toml:"check_marks"`   // "path" or "basename"
		ShowAll     bool     `yaml:"show_all" toml:"show_all"`         // Ignore name filters
	} `yaml:"browser" toml:"browser"`
	Viewer struct {
		InitialVolume int      `yaml:"initial_volume" toml:"initial_volume"`
		SeekStepMs    int64    `yaml:"seek_step_ms" toml:"seek_step_ms"`
		VolumeStep    int      `yaml:"volume_step" toml:"volume_step"`
		MPVPath       string   `yaml:"mpv_path" toml:"mpv_path"`
		MPVArgs       []string `yaml:"mpv_args" toml:"mpv_args"`
	} `yaml:"viewer" toml:"viewer"`
	Watch struct {
		Enabled    bool `yaml:"enabled" toml:"enabled"`         // Reload tags when the store file changes on disk
		DebounceMs int  `yaml:"debounce_ms" toml:"debounce_ms"` // Quiet period before a reload
	} `yaml:"watch" toml:"watch"`
	Log struct {
		Debug bool   `yaml:"debug" toml:"debug"`
		JSON  bool   `yaml:"json" toml:"json"`
		File  string `yaml:"file" toml:"file"`
	} `yaml:"log" toml:"log"`
}

// DefaultPath returns ~/.config/mediatagger/config.yaml
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mediatagger", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path. Files ending
// in .toml are decoded as TOML, everything else as YAML.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.expandPaths()
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Decoding over the defaults keeps values for keys the file leaves out.
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Store.Tags = "~/.config/mediatagger/best_tags.json"
	cfg.Store.Settings = "~/.config/mediatagger/logs.json"
	cfg.Store.Journal = "~/.config/mediatagger/journal.db"
	cfg.Store.JournalEnabled = false

	cfg.Extract.Suffix = "-best"

	cfg.Browser.NameFilters = media.DefaultNameFilters()
	cfg.Browser.CheckMarks = CheckMarksPath
	cfg.Browser.ShowAll = false

	cfg.Viewer.InitialVolume = 100
	cfg.Viewer.SeekStepMs = 1000
	cfg.Viewer.VolumeStep = 5
	cfg.Viewer.MPVPath = "mpv"
	cfg.Viewer.MPVArgs = []string{}

	cfg.Watch.Enabled = true
	cfg.Watch.DebounceMs = 200

	return cfg
}

// expandHome resolves a leading ~ in store and log paths
var expandHome = homedir.Expand

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Store.Tags, &c.Store.Settings, &c.Store.Journal, &c.Log.File} {
		if *p == "" {
			continue
		}
		expanded, err := expandHome(*p)
		if err != nil {
			return fmt.Errorf("expanding %s: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// SaveConfig saves the configuration to the specified file as YAML.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	invalid := func(param, format string, args ...interface{}) error {
		return errors.NewConfigError(fmt.Sprintf(format, args...), param, errors.InvalidConfig, nil)
	}

	if c.Store.Tags == "" {
		return invalid("store.tags", "tag store path is required")
	}
	if c.Store.Settings == "" {
		return invalid("store.settings", "settings path is required")
	}
	if c.Store.JournalEnabled && c.Store.Journal == "" {
		return invalid("store.journal", "journal path is required when the journal is enabled")
	}

	if c.Extract.Suffix == "" {
		return invalid("extract.suffix", "extraction suffix cannot be empty")
	}
	if strings.ContainsAny(c.Extract.Suffix, `/\`) {
		return invalid("extract.suffix", "extraction suffix cannot contain a path separator")
	}

	switch c.Browser.CheckMarks {
	case CheckMarksPath, CheckMarksBasename:
	default:
		return invalid("browser.check_marks", "invalid check mark mode %q", c.Browser.CheckMarks)
	}
	for _, pattern := range c.Browser.NameFilters {
		if _, err := glob.Compile(pattern); err != nil {
			return invalid("browser.name_filters", "invalid name filter %q", pattern)
		}
	}

	if c.Viewer.InitialVolume < 0 || c.Viewer.InitialVolume > 100 {
		return invalid("viewer.initial_volume", "initial volume must be within 0-100")
	}
	if c.Viewer.SeekStepMs <= 0 {
		return invalid("viewer.seek_step_ms", "seek step must be positive")
	}
	if c.Viewer.VolumeStep <= 0 || c.Viewer.VolumeStep > 100 {
		return invalid("viewer.volume_step", "volume step must be within 1-100")
	}

	if c.Watch.DebounceMs < 0 {
		return invalid("watch.debounce_ms", "debounce cannot be negative")
	}

	return nil
}

// New creates a new configuration instance with default values.
func New() *Config {
	cfg := defaultConfig()
	if err := cfg.expandPaths(); err != nil {
		log.LogWithError(err).Warn("Cannot resolve home directory, store paths are left unexpanded")
	}
	return cfg
}

// NewTestConfig creates a configuration rooted in dir for tests.
func NewTestConfig(dir string) *Config {
	cfg := defaultConfig()
	cfg.Store.Tags = filepath.Join(dir, "data", "best_tags.json")
	cfg.Store.Settings = filepath.Join(dir, "logs", "logs.json")
	cfg.Store.Journal = filepath.Join(dir, "journal.db")
	cfg.Watch.Enabled = false
	return cfg
}
