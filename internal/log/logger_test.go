package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediatagger/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	cases := []struct {
		log   func()
		level string
		text  string
	}{
		{func() { l.Info("Session opened") }, "level=info", "Session opened"},
		{func() { l.Warn("Last directory unavailable") }, "level=warning", "Last directory unavailable"},
		{func() { l.Error("Failed to save settings") }, "level=error", "Failed to save settings"},
		{func() { l.Infof("Extracting %d tagged entries", 3) }, "level=info", "Extracting 3 tagged entries"},
		{func() { l.Warnf("%d files failed", 2) }, "level=warning", "2 files failed"},
	}
	for _, tc := range cases {
		buf.Reset()
		tc.log()
		assert.Contains(t, buf.String(), tc.level)
		assert.Contains(t, buf.String(), tc.text)
	}
}

func TestDebugIsGated(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	SetDebug(false)
	l.Debug("Copied")
	l.Debugf("Copied %s", "cat.jpg")
	assert.Empty(t, buf.String())

	SetDebug(true)
	defer SetDebug(false)
	l.Debugf("Copied %s", "cat.jpg")
	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), "Copied cat.jpg")
}

func TestFieldsAccumulate(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	scoped := l.With(F("scope", "/photos/trip"))
	scoped.With(F("copied", 4), F("failed", 0)).Info("Extraction finished")
	out := buf.String()
	assert.Contains(t, out, "scope=/photos/trip")
	assert.Contains(t, out, "copied=4")
	assert.Contains(t, out, "failed=0")

	// the parent logger is unchanged
	buf.Reset()
	scoped.Info("Session closed")
	assert.NotContains(t, buf.String(), "copied=")
}

func TestJSONLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithJSON())

	l.With(F("path", "/a/b/cat.jpg"), F("count", 2)).Info("json message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "json message", entry["message"])
	assert.Contains(t, entry, "timestamp")
	assert.Equal(t, "/a/b/cat.jpg", entry["path"])
	assert.Equal(t, float64(2), entry["count"])
}

func TestErrorLogging(t *testing.T) {
	var buf bytes.Buffer
	originalLogger := logger
	Configure(WithOutput(&buf))
	defer func() { logger = originalLogger }()

	LogWithError(fmt.Errorf("standard error")).Error("error occurred")
	assert.Contains(t, buf.String(), "standard error")
	assert.NotContains(t, buf.String(), "error_kind")
	buf.Reset()

	storeErr := errors.NewStoreError("tag store is corrupt", "/data/best_tags.json", errors.CorruptStore, nil)
	LogWithError(storeErr).Error("load failed")
	output := buf.String()
	assert.Contains(t, output, "load failed")
	assert.Contains(t, output, "path=/data/best_tags.json")
	assert.Contains(t, output, fmt.Sprintf("error_kind=%d", int(errors.CorruptStore)))
	buf.Reset()

	copyErr := errors.NewCopyError("/a/cat.jpg", "/a-best/cat.jpg", nil)
	LogError(errors.Wrap(copyErr, "extract"), "copy skipped")
	output = buf.String()
	assert.Contains(t, output, "src=/a/cat.jpg")
	assert.Contains(t, output, "dst=/a-best/cat.jpg")
	assert.Contains(t, output, fmt.Sprintf("error_kind=%d", int(errors.CopyFailed)))
	buf.Reset()

	configErr := errors.NewConfigError("bad value", "extract.suffix", errors.InvalidConfig, nil)
	LogWithError(configErr).Warn("config")
	assert.Contains(t, buf.String(), "param=extract.suffix")
}

func TestNilErrorHandling(t *testing.T) {
	var buf bytes.Buffer
	originalLogger := logger
	Configure(WithOutput(&buf))
	defer func() { logger = originalLogger }()

	LogWithError(nil).Error("nil error test")
	assert.Contains(t, buf.String(), "nil error test")
	assert.Contains(t, buf.String(), "error=\"<nil>\"")
}

func TestFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tagger.log")
	var buf bytes.Buffer

	l := NewLogger(WithOutput(&buf), WithFile(logPath))
	l.Info("file test message")
	require.NoError(t, l.Close())

	assert.Contains(t, buf.String(), "file test message")
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "file test message")
}

func TestConfigure(t *testing.T) {
	originalLogger := logger
	defer func() { logger = originalLogger }()

	var buf bytes.Buffer
	Configure(WithOutput(&buf), WithJSON())
	Info("global %s", "config test")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "global config test", entry["message"])
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))

	l.WithContext(nil).Info("context message") //nolint:staticcheck
	assert.Contains(t, buf.String(), "context message")
}
