// Package tags persists the "best" tag for media files and derives the
// check-mark index the browser renders from it.
package tags

import (
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"mediatagger/internal/errors"
	"mediatagger/internal/jsonfile"
	"mediatagger/internal/log"
)

// DateFormat is the precision of Record.DateSaved (yyMMdd-HHmm).
const DateFormat = "060102-1504"

// Record is the tag metadata stored for one path. A path is present in the
// store only while it is tagged, so Best is always true on disk.
type Record struct {
	Best      bool   `json:"Best"`
	DateSaved string `json:"DateSaved"`
}

// Store is the JSON-file backed mapping from absolute path to Record.
// Every mutation re-reads the file before writing it back so edits made by
// another session between two mutations are kept.
type Store struct {
	path    string
	now     func() time.Time
	logger  log.Logging
	mu      sync.RWMutex
	records map[string]Record
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for DateSaved
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for store events
func WithLogger(logger log.Logging) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a store backed by the JSON file at path. Nothing is read
// until Init or Load is called.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		now:     time.Now,
		logger:  log.Default(),
		records: map[string]Record{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Init creates the store file with an empty mapping if it does not exist,
// then loads it.
func (s *Store) Init() (map[string]Record, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.logger.With(log.F("path", s.path)).Info("Creating empty tag store")
		if err := s.write(map[string]Record{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, errors.NewStoreError("cannot stat tag store", s.path, errors.FileAccessDenied, err)
	}
	return s.Load()
}

// Load reads the whole store from disk and replaces the cached mapping.
// A missing file is an empty store. A file that is not a JSON object of
// records fails with a CorruptStore error and leaves the file untouched.
func (s *Store) Load() (map[string]Record, error) {
	records, err := s.read()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	return maps.Clone(records), nil
}

// Refresh reloads the store and reports whether its content differs from
// the cached mapping. On error the cache is kept.
func (s *Store) Refresh() (bool, error) {
	records, err := s.read()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := !maps.Equal(s.records, records)
	s.records = records
	return changed, nil
}

// IsTagged reports whether path is tagged in the last loaded mapping.
func (s *Store) IsTagged(path string) bool {
	key := Normalize(path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

// Get returns the record for path from the last loaded mapping.
func (s *Store) Get(path string) (Record, bool) {
	key := Normalize(path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// SetBest tags path, overwriting any existing record, and persists the store
// before returning a copy of the full mapping.
func (s *Store) SetBest(path string) (map[string]Record, error) {
	key := Normalize(path)
	records, err := s.read()
	if err != nil {
		return nil, err
	}

	records[key] = Record{Best: true, DateSaved: s.now().Format(DateFormat)}
	if err := s.commit(records); err != nil {
		return nil, err
	}

	s.logger.With(log.F("path", key), log.F("tagged", len(records))).Debug("Tagged best")
	return maps.Clone(records), nil
}

// ClearBest removes the tag for path and persists the store. Clearing a path
// that has no record fails with a NotTagged error and writes nothing.
func (s *Store) ClearBest(path string) (map[string]Record, error) {
	key := Normalize(path)
	records, err := s.read()
	if err != nil {
		return nil, err
	}

	if _, ok := records[key]; !ok {
		// Keep the cache in step with what was just read.
		s.mu.Lock()
		s.records = records
		s.mu.Unlock()
		return nil, errors.NewTagError("path is not tagged", key, errors.NotTagged)
	}

	delete(records, key)
	if err := s.commit(records); err != nil {
		return nil, err
	}

	s.logger.With(log.F("path", key), log.F("tagged", len(records))).Debug("Cleared best")
	return maps.Clone(records), nil
}

// Records returns a copy of the last loaded mapping
func (s *Store) Records() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.records)
}

// Paths returns the tagged paths in sorted order
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.records))
	for p := range s.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (s *Store) read() (map[string]Record, error) {
	var raw map[string]Record
	if err := jsonfile.Read(s.path, &raw); err != nil {
		if os.IsNotExist(err) {
			return map[string]Record{}, nil
		}
		var decodeErr *jsonfile.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, errors.NewStoreError("tag store is not valid JSON", s.path, errors.CorruptStore, decodeErr.Err)
		}
		return nil, errors.NewStoreError("cannot read tag store", s.path, errors.FileAccessDenied, err)
	}

	records := make(map[string]Record, len(raw))
	for p, rec := range raw {
		records[filepath.Clean(p)] = rec
	}
	return records, nil
}

func (s *Store) commit(records map[string]Record) error {
	if err := s.write(records); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

func (s *Store) write(records map[string]Record) error {
	if err := jsonfile.WriteAtomic(s.path, records); err != nil {
		return errors.NewStoreError("cannot write tag store", s.path, errors.FileOperationFailed, err)
	}
	return nil
}

// Normalize turns path into the absolute, cleaned form used as a store key.
func Normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
