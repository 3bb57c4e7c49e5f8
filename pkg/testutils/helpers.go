// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateTestFilesWithContent writes files relative to dir, creating any
// parent directories named in the keys.
func CreateTestFilesWithContent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// CreateMediaTree writes a small shoot: two images, a video, a document
// and a nested directory with one more image.
func CreateMediaTree(t *testing.T, dir string) {
	CreateTestFilesWithContent(t, dir, map[string]string{
		"beach.jpg":       "image content",
		"sunset.png":      "image content",
		"waves.mp4":       "video content",
		"itinerary.pdf":   "%PDF-1.4",
		"day2/market.jpg": "image content",
	})
}

// WriteTagStore writes a tag store file holding a best record for each path.
func WriteTagStore(t *testing.T, path string, dateSaved string, paths ...string) {
	t.Helper()
	records := make(map[string]map[string]interface{}, len(paths))
	for _, p := range paths {
		records[p] = map[string]interface{}{"Best": true, "DateSaved": dateSaved}
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// StripANSI removes terminal escape sequences from str
func StripANSI(str string) string {
	return ansiPattern.ReplaceAllString(str, "")
}
