package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediatagger/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliFixture struct {
	root       string
	scope      string
	tagsPath   string
	configPath string
}

func newCLIFixture(t *testing.T, journal bool) *cliFixture {
	t.Helper()
	root := t.TempDir()
	f := &cliFixture{
		root:       root,
		scope:      filepath.Join(root, "shoot"),
		tagsPath:   filepath.Join(root, "data", "best_tags.json"),
		configPath: filepath.Join(root, "config.yaml"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(f.scope, "day1"), 0755))
	testutils.CreateTestFilesWithContent(t, f.scope, map[string]string{
		"a.jpg":    "jpeg",
		"b.png":    "png",
		"clip.mp4": "video",
		"notes.md": "# notes",
	})

	config := fmt.Sprintf(`
store:
  tags: %q
  settings: %q
  journal: %q
  journal_enabled: %t
watch:
  enabled: false
`, f.tagsPath, filepath.Join(root, "data", "logs.json"), filepath.Join(root, "data", "journal.db"), journal)
	require.NoError(t, os.WriteFile(f.configPath, []byte(config), 0644))
	return f
}

func (f *cliFixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", f.configPath}, args...))
	err := cmd.Execute()
	return testutils.StripANSI(out.String()), err
}

func (f *cliFixture) path(name string) string {
	return filepath.Join(f.scope, name)
}

func TestTagAndStatus(t *testing.T) {
	f := newCLIFixture(t, false)

	out, err := f.run(t, "", "tag", f.path("a.jpg"), f.path("clip.mp4"))
	require.NoError(t, err)
	assert.Contains(t, out, "tagged  "+f.path("a.jpg"))

	data, err := os.ReadFile(f.tagsPath)
	require.NoError(t, err)
	var stored map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Len(t, stored, 2)
	assert.Equal(t, true, stored[f.path("a.jpg")]["Best"])

	out, err = f.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, f.path("clip.mp4"))
	assert.Contains(t, out, "2 tagged")

	out, err = f.run(t, "", "status", f.path("a.jpg"), f.path("b.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "[x] "+f.path("a.jpg"))
	assert.Contains(t, out, "[ ] "+f.path("b.png"))
}

func TestUntag(t *testing.T) {
	f := newCLIFixture(t, false)

	_, err := f.run(t, "", "tag", f.path("a.jpg"))
	require.NoError(t, err)

	out, err := f.run(t, "", "untag", f.path("a.jpg"), f.path("b.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "cleared "+f.path("a.jpg"))
	assert.Contains(t, out, "skipped "+f.path("b.png")+" (not tagged)")

	data, err := os.ReadFile(f.tagsPath)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func TestCorruptStoreIsReported(t *testing.T) {
	f := newCLIFixture(t, false)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.tagsPath), 0755))
	require.NoError(t, os.WriteFile(f.tagsPath, []byte("{broken"), 0644))

	_, err := f.run(t, "", "tag", f.path("a.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")

	data, err := os.ReadFile(f.tagsPath)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}

func TestClassify(t *testing.T) {
	f := newCLIFixture(t, false)
	_, err := f.run(t, "", "tag", f.path("a.jpg"))
	require.NoError(t, err)

	out, err := f.run(t, "", "classify", "--json", f.path("a.jpg"), f.path("notes.md"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "image", first["kind"])
	assert.Equal(t, true, first["tagged"])
	assert.NotEmpty(t, first["date_saved"])
	assert.Equal(t, "unsupported", second["kind"])
	assert.Equal(t, false, second["tagged"])

	out, err = f.run(t, "", "classify", f.path("clip.mp4"))
	require.NoError(t, err)
	assert.Contains(t, out, "Kind: video")
	assert.Contains(t, out, "Best: no")

	_, err = f.run(t, "", "classify", f.path("missing.jpg"))
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	f := newCLIFixture(t, false)
	_, err := f.run(t, "", "tag", f.path("b.png"))
	require.NoError(t, err)

	out, err := f.run(t, "", "list", f.scope)
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] day1/")
	assert.Contains(t, out, "[x] b.png")
	assert.Contains(t, out, "[ ] a.jpg")
	assert.NotContains(t, out, "notes.md")

	out, err = f.run(t, "", "list", "--all", f.scope)
	require.NoError(t, err)
	assert.Contains(t, out, "notes.md")

	_, err = f.run(t, "", "list", f.path("a.jpg"))
	assert.Error(t, err)
}

func TestExtractRemoveAndHistory(t *testing.T) {
	f := newCLIFixture(t, true)
	dest := filepath.Join(f.root, "shoot-best")

	_, err := f.run(t, "", "tag", f.path("a.jpg"), f.path("clip.mp4"))
	require.NoError(t, err)

	out, err := f.run(t, "", "extract", f.scope)
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 2 files to "+dest)
	assert.FileExists(t, filepath.Join(dest, "a.jpg"))
	assert.FileExists(t, filepath.Join(dest, "clip.mp4"))

	out, err = f.run(t, "n\n", "remove-extracted", f.scope)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")
	assert.DirExists(t, dest)

	out, err = f.run(t, "", "remove-extracted", "--yes", f.scope)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed "+dest)
	assert.NoDirExists(t, dest)

	out, err = f.run(t, "", "remove-extracted", "-y", f.scope)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to remove")

	out, err = f.run(t, "", "history", "--limit", "0")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "remove_extracted")
	assert.Contains(t, lines[1], "extract")
	assert.Contains(t, lines[1], "(2 copied, 0 failed)")
	assert.Contains(t, lines[2], "tag")
	assert.Contains(t, lines[3], "tag")
}

func TestHistoryRequiresJournal(t *testing.T) {
	f := newCLIFixture(t, false)
	_, err := f.run(t, "", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal is disabled")
}

func TestInvalidConfig(t *testing.T) {
	f := newCLIFixture(t, false)
	require.NoError(t, os.WriteFile(f.configPath, []byte("extract:\n  suffix: \"a/b\"\n"), 0644))

	_, err := f.run(t, "", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestExistingStoreWithNestedTags(t *testing.T) {
	f := newCLIFixture(t, false)
	trip := filepath.Join(f.root, "trip")
	testutils.CreateMediaTree(t, trip)
	testutils.WriteTagStore(t, f.tagsPath, "240307-1405",
		filepath.Join(trip, "beach.jpg"),
		filepath.Join(trip, "day2"),
	)

	out, err := f.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "240307-1405  "+filepath.Join(trip, "beach.jpg"))

	out, err = f.run(t, "", "list", trip)
	require.NoError(t, err)
	assert.Contains(t, out, "[x] day2/")
	assert.Contains(t, out, "[x] beach.jpg")
	assert.Contains(t, out, "[ ] sunset.png")

	// a tagged directory is copied whole
	out, err = f.run(t, "", "extract", trip)
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 2 files")
	assert.FileExists(t, filepath.Join(f.root, "trip-best", "day2", "market.jpg"))
}

func TestDirectoryDefaultsToLastBrowsed(t *testing.T) {
	f := newCLIFixture(t, false)
	settingsPath := filepath.Join(f.root, "data", "logs.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(settingsPath), 0755))
	doc := fmt.Sprintf(`{"window_geoms":[1,2,3,4],"column_widths":[300,0,180,0],"last_dir":%q}`, f.scope)
	require.NoError(t, os.WriteFile(settingsPath, []byte(doc), 0644))

	out, err := f.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, f.scope)
	assert.Contains(t, out, "clip.mp4")
}
