package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"mediatagger/internal/config"
	"mediatagger/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary config file with the given extension
func createTestConfig(t *testing.T, ext, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*"+ext)
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	err = tmpFile.Close()
	require.NoError(t, err)
	return tmpFile.Name()
}

const (
	validYAML = `
store:
  tags: "/data/tags.json"
  settings: "/data/logs.json"
extract:
  suffix: "-picked"
browser:
  name_filters: ["*.jpg", "*.mp4"]
  check_marks: "basename"
viewer:
  initial_volume: 40
  mpv_path: "/usr/local/bin/mpv"
  mpv_args: ["--no-border"]
watch:
  enabled: false
`
	validTOML = `
[store]
tags = "/data/tags.json"
journal_enabled = true
journal = "/data/journal.db"

[extract]
suffix = "-keep"

[viewer]
seek_step_ms = 5000
`
	invalidSyntaxYAML = `
store:
  tags: "/data/tags.json
extract: [
`
	invalidSuffixYAML = `
extract:
  suffix: "a/b"
`
	invalidCheckMarksYAML = `
browser:
  check_marks: "inode"
`
	invalidVolumeYAML = `
viewer:
  initial_volume: 150
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid yaml config", func(t *testing.T) {
		configFile := createTestConfig(t, ".yaml", validYAML)
		cfg, err := config.LoadConfigFile(configFile)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "/data/tags.json", cfg.Store.Tags)
		assert.Equal(t, "/data/logs.json", cfg.Store.Settings)
		assert.Equal(t, "-picked", cfg.Extract.Suffix)
		assert.Equal(t, []string{"*.jpg", "*.mp4"}, cfg.Browser.NameFilters)
		assert.Equal(t, config.CheckMarksBasename, cfg.Browser.CheckMarks)
		assert.Equal(t, 40, cfg.Viewer.InitialVolume)
		assert.Equal(t, "/usr/local/bin/mpv", cfg.Viewer.MPVPath)
		assert.Equal(t, []string{"--no-border"}, cfg.Viewer.MPVArgs)
		assert.False(t, cfg.Watch.Enabled)

		// Keys left out of the file keep their defaults
		assert.Equal(t, int64(1000), cfg.Viewer.SeekStepMs)
		assert.Equal(t, 5, cfg.Viewer.VolumeStep)
	})

	t.Run("load valid toml config", func(t *testing.T) {
		configFile := createTestConfig(t, ".toml", validTOML)
		cfg, err := config.LoadConfigFile(configFile)

		require.NoError(t, err)
		assert.Equal(t, "/data/tags.json", cfg.Store.Tags)
		assert.True(t, cfg.Store.JournalEnabled)
		assert.Equal(t, "/data/journal.db", cfg.Store.Journal)
		assert.Equal(t, "-keep", cfg.Extract.Suffix)
		assert.Equal(t, int64(5000), cfg.Viewer.SeekStepMs)
		assert.Equal(t, config.CheckMarksPath, cfg.Browser.CheckMarks)
	})

	t.Run("load non-existent file", func(t *testing.T) {
		nonExistentPath := filepath.Join(t.TempDir(), "does_not_exist.yaml")
		cfg, err := config.LoadConfigFile(nonExistentPath)

		require.NoError(t, err, "Loading non-existent file should return default config, not an error")
		require.NotNil(t, cfg)

		defaultCfg := config.New()
		assert.Equal(t, defaultCfg.Store.Tags, cfg.Store.Tags)
		assert.Equal(t, defaultCfg.Extract.Suffix, cfg.Extract.Suffix)
		assert.Equal(t, defaultCfg.Browser.NameFilters, cfg.Browser.NameFilters)
		assert.Equal(t, "-best", cfg.Extract.Suffix)
		assert.Equal(t, 100, cfg.Viewer.InitialVolume)
		assert.True(t, filepath.IsAbs(cfg.Store.Tags), "home directory should be expanded")
	})

	t.Run("load file with invalid YAML syntax", func(t *testing.T) {
		configFile := createTestConfig(t, ".yaml", invalidSyntaxYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing config file")
	})

	invalid := []struct {
		name    string
		content string
		detail  string
	}{
		{"suffix with separator", invalidSuffixYAML, "path separator"},
		{"unknown check mark mode", invalidCheckMarksYAML, "invalid check mark mode"},
		{"volume out of range", invalidVolumeYAML, "initial volume"},
	}
	for _, tc := range invalid {
		t.Run("load file with "+tc.name, func(t *testing.T) {
			configFile := createTestConfig(t, ".yaml", tc.content)
			_, err := config.LoadConfigFile(configFile)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tc.detail)
			assert.True(t, errors.IsInvalidConfig(err))
		})
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{"defaults", func(c *config.Config) {}, false},
		{"empty suffix", func(c *config.Config) { c.Extract.Suffix = "" }, true},
		{"empty tag store", func(c *config.Config) { c.Store.Tags = "" }, true},
		{"journal enabled without path", func(c *config.Config) {
			c.Store.JournalEnabled = true
			c.Store.Journal = ""
		}, true},
		{"bad glob", func(c *config.Config) { c.Browser.NameFilters = []string{"*.[jpg"} }, true},
		{"zero seek step", func(c *config.Config) { c.Viewer.SeekStepMs = 0 }, true},
		{"volume step too large", func(c *config.Config) { c.Viewer.VolumeStep = 101 }, true},
		{"negative debounce", func(c *config.Config) { c.Watch.DebounceMs = -1 }, true},
		{"basename marks", func(c *config.Config) { c.Browser.CheckMarks = config.CheckMarksBasename }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewTestConfig(t.TempDir())
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	var nilCfg *config.Config
	assert.Error(t, nilCfg.Validate())
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := config.NewTestConfig(dir)
	cfg.Extract.Suffix = "-export"
	cfg.Viewer.InitialVolume = 25

	require.NoError(t, config.SaveConfig(cfg, path))
	assert.FileExists(t, path)

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "-export", loaded.Extract.Suffix)
	assert.Equal(t, 25, loaded.Viewer.InitialVolume)
	assert.Equal(t, cfg.Store.Tags, loaded.Store.Tags)
	assert.False(t, loaded.Watch.Enabled)
}

func TestNewTestConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewTestConfig(dir)

	assert.Equal(t, filepath.Join(dir, "data", "best_tags.json"), cfg.Store.Tags)
	assert.Equal(t, filepath.Join(dir, "logs", "logs.json"), cfg.Store.Settings)
	assert.False(t, cfg.Watch.Enabled)
	assert.NoError(t, cfg.Validate())
}
