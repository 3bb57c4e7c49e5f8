// Package browse lists the directory being tagged: subdirectories always,
// files only when they match the media name filters, each row carrying its
// check mark.
package browse

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mediatagger/internal/errors"
	"mediatagger/internal/log"
	"mediatagger/internal/media"
	"mediatagger/internal/tags"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
)

// Entry is one row of the listing
type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
	Kind    media.Kind
	Checked bool
}

// HumanSize renders the size for display; directories have none
func (e Entry) HumanSize() string {
	if e.IsDir {
		return ""
	}
	return humanize.Bytes(uint64(e.Size))
}

// Age renders the modification time relative to now, e.g. "3 days ago"
func (e Entry) Age() string {
	if e.ModTime.IsZero() {
		return ""
	}
	return humanize.Time(e.ModTime)
}

// Browser is the listing model for one root directory
type Browser struct {
	mu       sync.RWMutex
	root     string
	patterns []string
	filters  []glob.Glob
	showAll  bool
	byName   bool
	index    *tags.Index
	entries  []Entry
	logger   log.Logging
}

// Option configures a Browser
type Option func(*Browser)

// WithBasenameMarks checks rows by base name instead of full path
func WithBasenameMarks(byName bool) Option {
	return func(b *Browser) { b.byName = byName }
}

// WithShowAll lists every file regardless of the name filters
func WithShowAll(showAll bool) Option {
	return func(b *Browser) { b.showAll = showAll }
}

// WithLogger sets the browser's logger
func WithLogger(logger log.Logging) Option {
	return func(b *Browser) { b.logger = logger }
}

// New creates a browser with the given glob name filters. Nothing is listed
// until SetRoot is called. An empty filter list means media.DefaultNameFilters.
func New(patterns []string, opts ...Option) (*Browser, error) {
	if len(patterns) == 0 {
		patterns = media.DefaultNameFilters()
	}
	b := &Browser{patterns: patterns, logger: log.Default()}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.NewConfigError("invalid name filter "+p, "browser.name_filters", errors.InvalidConfig, err)
		}
		b.filters = append(b.filters, g)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Root returns the directory being listed
func (b *Browser) Root() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.root
}

// Patterns returns the name filters
func (b *Browser) Patterns() []string {
	return append([]string(nil), b.patterns...)
}

// SetRoot lists dir. It must be an existing directory.
func (b *Browser) SetRoot(dir string) error {
	abs := tags.Normalize(dir)
	info, err := os.Stat(abs)
	if err != nil {
		return errors.NewFileError("cannot open directory", abs, errors.FileNotFound, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("not a directory", abs, errors.InvalidPath, nil)
	}

	b.mu.Lock()
	b.root = abs
	b.mu.Unlock()
	return b.Refresh()
}

// Parent moves the listing to the root's parent directory. At the
// filesystem root it does nothing.
func (b *Browser) Parent() error {
	root := b.Root()
	parent := filepath.Dir(root)
	if root == "" || parent == root {
		return nil
	}
	return b.SetRoot(parent)
}

// ShowAll reports whether name filters are disabled
func (b *Browser) ShowAll() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.showAll
}

// ToggleShowAll switches between media-only and all files and returns the
// new setting.
func (b *Browser) ToggleShowAll() (bool, error) {
	b.mu.Lock()
	b.showAll = !b.showAll
	showAll := b.showAll
	b.mu.Unlock()
	return showAll, b.Refresh()
}

// Matches reports whether a file name passes the name filters
func (b *Browser) Matches(name string) bool {
	for _, g := range b.filters {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Refresh re-reads the root directory. Directories come first, then
// files, each group sorted by name. Hidden entries are skipped.
func (b *Browser) Refresh() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.root == "" {
		return nil
	}

	dirEntries, err := os.ReadDir(b.root)
	if err != nil {
		return errors.NewFileError("cannot list directory", b.root, errors.FileAccessDenied, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !de.IsDir() && !b.showAll && !b.Matches(name) {
			continue
		}

		path := filepath.Join(b.root, name)
		entry := Entry{Name: name, Path: path, IsDir: de.IsDir(), Kind: media.Unsupported}
		if !entry.IsDir {
			entry.Kind = media.Classify(path)
		}
		if info, err := de.Info(); err == nil {
			entry.Size = info.Size()
			entry.ModTime = info.ModTime()
		}
		entry.Checked = b.index.Marked(path, b.byName)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	b.entries = entries

	b.logger.With(log.F("root", b.root), log.F("entries", len(entries))).Debug("Listed directory")
	return nil
}

// Entries returns a copy of the current listing
func (b *Browser) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Entry(nil), b.entries...)
}

// UpdateMarks replaces the check-mark index and re-marks every row.
func (b *Browser) UpdateMarks(idx *tags.Index) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.index = idx
	for i := range b.entries {
		b.entries[i].Checked = idx.Marked(b.entries[i].Path, b.byName)
	}
}

// Marked reports the check mark for path under the current index
func (b *Browser) Marked(path string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Marked(path, b.byName)
}
