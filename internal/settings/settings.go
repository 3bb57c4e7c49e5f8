// Package settings persists window geometry, browser column widths and the
// last browsed directory. It is independent of tagging.
package settings

import (
	"os"

	"mediatagger/internal/errors"
	"mediatagger/internal/jsonfile"
	"mediatagger/internal/log"
)

// PinnedColumn is always saved with PinnedWidth, whatever its current size.
const (
	PinnedColumn = 2
	PinnedWidth  = 180
)

// Geometry is a window rectangle
type Geometry struct {
	X, Y, Width, Height int
}

// Record is the persisted settings document
type Record struct {
	WindowGeoms  []int  `json:"window_geoms"`
	ColumnWidths []int  `json:"column_widths"`
	LastDir      string `json:"last_dir"`
}

// Defaults returns the settings written for a first run
func Defaults() Record {
	return Record{
		WindowGeoms:  []int{100, 100, 1000, 500},
		ColumnWidths: []int{300, 0, 150, 0},
		LastDir:      ".",
	}
}

// Geometry returns the window rectangle, falling back to the default when the
// stored value is malformed.
func (r Record) Geometry() Geometry {
	g := r.WindowGeoms
	if len(g) != 4 {
		g = Defaults().WindowGeoms
	}
	return Geometry{X: g[0], Y: g[1], Width: g[2], Height: g[3]}
}

// Store reads and writes the settings file
type Store struct {
	path   string
	logger log.Logging
}

// NewStore creates a settings store backed by path
func NewStore(path string, logger log.Logging) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings. A missing file is created with the defaults;
// fields absent from an existing file take their default values. A file
// that does not parse fails with a CorruptStore error.
func (s *Store) Load() (Record, error) {
	var rec Record
	err := jsonfile.Read(s.path, &rec)
	switch {
	case err == nil:
	case os.IsNotExist(err):
		rec = Defaults()
		s.logger.With(log.F("path", s.path)).Info("Writing default settings")
		return rec, s.Save(rec)
	default:
		var decodeErr *jsonfile.DecodeError
		if errors.As(err, &decodeErr) {
			return Record{}, errors.NewStoreError("settings file is not valid JSON", s.path, errors.CorruptStore, decodeErr.Err)
		}
		return Record{}, errors.NewStoreError("cannot read settings", s.path, errors.FileAccessDenied, err)
	}

	defaults := Defaults()
	if len(rec.WindowGeoms) != 4 {
		rec.WindowGeoms = defaults.WindowGeoms
	}
	if rec.ColumnWidths == nil {
		rec.ColumnWidths = defaults.ColumnWidths
	}
	if rec.LastDir == "" {
		rec.LastDir = defaults.LastDir
	}
	return rec, nil
}

// Save writes rec, replacing the file atomically
func (s *Store) Save(rec Record) error {
	if err := jsonfile.WriteAtomic(s.path, rec); err != nil {
		return errors.NewStoreError("cannot write settings", s.path, errors.FileOperationFailed, err)
	}
	return nil
}

// Update re-reads the settings, applies fn and saves the result.
func (s *Store) Update(fn func(*Record)) (Record, error) {
	rec, err := s.Load()
	if err != nil {
		return Record{}, err
	}
	fn(&rec)
	if err := s.Save(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// UpdateColumnWidths stores the browser column widths. The pinned column is
// saved at PinnedWidth.
func (s *Store) UpdateColumnWidths(widths []int) (Record, error) {
	cols := append([]int(nil), widths...)
	if len(cols) > PinnedColumn {
		cols[PinnedColumn] = PinnedWidth
	}
	return s.Update(func(r *Record) { r.ColumnWidths = cols })
}

// UpdateGeometry stores the window rectangle
func (s *Store) UpdateGeometry(g Geometry) (Record, error) {
	return s.Update(func(r *Record) {
		r.WindowGeoms = []int{g.X, g.Y, g.Width, g.Height}
	})
}

// UpdateLastDir stores the directory the browser was showing
func (s *Store) UpdateLastDir(dir string) (Record, error) {
	return s.Update(func(r *Record) { r.LastDir = dir })
}

// SaveWindow stores the window rectangle and last directory together, as
// done when the application closes.
func (s *Store) SaveWindow(g Geometry, dir string) (Record, error) {
	return s.Update(func(r *Record) {
		r.WindowGeoms = []int{g.X, g.Y, g.Width, g.Height}
		r.LastDir = dir
	})
}
