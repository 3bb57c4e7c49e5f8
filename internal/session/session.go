// Package session wires the tag store, check-mark index, viewer, extractor
// and settings into the operations a front end drives: select a file,
// toggle its tag, use the transport controls, extract.
package session

import (
	"os"
	"sync"

	"mediatagger/internal/errors"
	"mediatagger/internal/extract"
	"mediatagger/internal/journal"
	"mediatagger/internal/log"
	"mediatagger/internal/settings"
	"mediatagger/internal/tags"
	"mediatagger/internal/viewer"
	"mediatagger/pkg/types"
)

// Default control steps
const (
	DefaultSeekStepMs = 1000
	DefaultVolumeStep = 5
)

// MarkSink receives the check-mark index after every tag change
type MarkSink interface {
	UpdateMarks(idx *tags.Index)
}

// Recorder stores journal entries
type Recorder interface {
	Record(entry *journal.Entry) error
}

// Options holds the collaborators of a Session. Journal may be nil.
type Options struct {
	Tags       *tags.Store
	Settings   *settings.Store
	Viewer     *viewer.Machine
	Extractor  *extract.Extractor
	Marks      MarkSink
	Journal    Recorder
	SeekStepMs int64
	VolumeStep int
	Logger     log.Logging
}

// Session is the single controller behind a front end. Its methods are
// safe to call from the UI loop and from watcher goroutines.
type Session struct {
	mu         sync.Mutex
	tags       *tags.Store
	settings   *settings.Store
	viewer     *viewer.Machine
	extractor  *extract.Extractor
	marks      MarkSink
	journal    Recorder
	seekStepMs int64
	volumeStep int
	logger     log.Logging

	prefs    settings.Record
	index    *tags.Index
	scope    string
	selected string
}

// New creates a session. Call Open before use.
func New(opts Options) *Session {
	s := &Session{
		tags:       opts.Tags,
		settings:   opts.Settings,
		viewer:     opts.Viewer,
		extractor:  opts.Extractor,
		marks:      opts.Marks,
		journal:    opts.Journal,
		seekStepMs: opts.SeekStepMs,
		volumeStep: opts.VolumeStep,
		logger:     opts.Logger,
	}
	if s.seekStepMs <= 0 {
		s.seekStepMs = DefaultSeekStepMs
	}
	if s.volumeStep <= 0 {
		s.volumeStep = DefaultVolumeStep
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Open loads settings and tags, pushes the initial check marks and sets
// the scope to the last browsed directory (or the working directory when
// that is gone). A corrupt tag or settings file is returned, never reset.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.settings.Load()
	if err != nil {
		return err
	}
	s.prefs = prefs

	records, err := s.tags.Init()
	if err != nil {
		return err
	}
	s.pushMarks(records)

	s.scope = tags.Normalize(prefs.LastDir)
	if info, err := os.Stat(s.scope); err != nil || !info.IsDir() {
		wd, _ := os.Getwd()
		s.logger.With(log.F("last_dir", prefs.LastDir), log.F("fallback", wd)).Warn("Last directory unavailable")
		s.scope = tags.Normalize(wd)
	}

	s.logger.With(log.F("scope", s.scope), log.F("tagged", s.index.Len())).Info("Session opened")
	return nil
}

// pushMarks rebuilds the index and hands it to the sink, once per call.
func (s *Session) pushMarks(records map[string]tags.Record) {
	s.index = tags.Rebuild(records)
	if s.marks != nil {
		s.marks.UpdateMarks(s.index)
	}
}

// Scope returns the directory being browsed
func (s *Session) Scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Selected returns the selected path, if any
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Preferences returns the in-memory settings
func (s *Session) Preferences() settings.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Index returns the current check-mark index
func (s *Session) Index() *tags.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Viewer returns the viewer machine; control widgets call its
// OnVolumeControl and OnSeekControl directly.
func (s *Session) Viewer() *viewer.Machine {
	return s.viewer
}

// IsTagged reports whether path is tagged
func (s *Session) IsTagged(path string) bool {
	return s.tags.IsTagged(path)
}

// SelectedTagged reports whether the selected path is tagged; this is the
// state of the Best toggle.
func (s *Session) SelectedTagged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected != "" && s.tags.IsTagged(s.selected)
}

// Select shows path in the viewer and returns whether it is tagged. A
// render failure is returned after the viewer has fallen back to its
// placeholder; the selection still stands.
func (s *Session) Select(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = tags.Normalize(path)
	err := s.viewer.Select(s.selected)
	return s.tags.IsTagged(s.selected), err
}

// ToggleBest tags the selected path if it is untagged and untags it
// otherwise. It returns the new tag state.
func (s *Session) ToggleBest() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == "" {
		return false, errors.NewKind(errors.InvalidOperation, "no file selected")
	}
	return s.setTagLocked(s.selected, !s.tags.IsTagged(s.selected))
}

// SetBest tags or untags path explicitly
func (s *Session) SetBest(path string, best bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setTagLocked(tags.Normalize(path), best)
}

func (s *Session) setTagLocked(path string, best bool) (bool, error) {
	var (
		records map[string]tags.Record
		err     error
		op      = types.TagOperation
	)
	if best {
		records, err = s.tags.SetBest(path)
	} else {
		op = types.UntagOperation
		records, err = s.tags.ClearBest(path)
		if errors.IsNotTagged(err) {
			// Another session cleared it first; show what is on disk.
			s.logger.With(log.F("path", path)).Info("Tag was already cleared")
			s.pushMarks(s.tags.Records())
			return false, nil
		}
	}
	if err != nil {
		return s.tags.IsTagged(path), err
	}

	s.pushMarks(records)
	s.record(&journal.Entry{OperationType: op, Path: path, FileCount: 1, Success: true})
	return best, nil
}

// Perform runs a user control. Transport controls outside a video do
// nothing.
func (s *Session) Perform(action types.Action) error {
	var err error
	switch action {
	case types.ToggleBest:
		_, err = s.ToggleBest()
		return err
	case types.SeekBackward:
		err = s.viewer.SeekRelative(-s.seekStepMs)
	case types.SeekForward:
		err = s.viewer.SeekRelative(s.seekStepMs)
	case types.PlayPause:
		err = s.viewer.PlayPause()
	case types.ReloadCurrent:
		err = s.viewer.Reload()
	case types.VolumeUp:
		err = s.viewer.AdjustVolume(s.volumeStep)
	case types.VolumeDown:
		err = s.viewer.AdjustVolume(-s.volumeStep)
	case types.CycleSpeed:
		err = s.viewer.CycleSpeed()
	default:
		return errors.NewKind(errors.InvalidOperation, "unknown action %q", action)
	}

	if errors.IsInvalidOperation(err) {
		s.logger.With(log.F("action", action)).Debug("Control ignored outside video")
		return nil
	}
	return err
}

// Navigate changes the scope directory. The new directory is remembered
// and saved when the session closes.
func (s *Session) Navigate(dir string) error {
	abs := tags.Normalize(dir)
	info, err := os.Stat(abs)
	if err != nil {
		return errors.NewFileError("cannot open directory", abs, errors.FileNotFound, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("not a directory", abs, errors.InvalidPath, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = abs
	s.prefs.LastDir = abs
	return nil
}

// ResizeColumns saves the browser column widths immediately
func (s *Session) ResizeColumns(widths []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.settings.UpdateColumnWidths(widths)
	if err != nil {
		return err
	}
	s.prefs.ColumnWidths = rec.ColumnWidths
	return nil
}

// MoveWindow records the window rectangle; it is saved on Close
func (s *Session) MoveWindow(g settings.Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.WindowGeoms = []int{g.X, g.Y, g.Width, g.Height}
}

// Extract copies the tagged entries of the scope into its sibling
// destination directory.
func (s *Session) Extract() (*types.ExtractReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.extractor.Extract(s.scope)
	if err != nil {
		return nil, err
	}
	s.record(&journal.Entry{
		OperationType: types.ExtractOperation,
		Path:          report.ScopeDir,
		Destination:   report.Destination,
		FileCount:     report.Copied(),
		FailedCount:   len(report.Failed()),
		Success:       len(report.Failed()) == 0,
	})
	return report, nil
}

// RemoveExtracted deletes the scope's destination directory
func (s *Session) RemoveExtracted() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dest, err := s.extractor.Destination(s.scope)
	if err != nil {
		return false, err
	}
	removed, err := s.extractor.RemoveExtracted(s.scope)
	if err != nil {
		return false, err
	}
	if removed {
		s.record(&journal.Entry{
			OperationType: types.RemoveExtractedOperation,
			Path:          s.scope,
			Destination:   dest,
			Success:       true,
		})
	}
	return removed, nil
}

// ExternalChange reloads the tag store after it changed on disk and pushes
// new check marks when its content differs. It reports whether it did.
func (s *Session) ExternalChange() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.tags.Refresh()
	if err != nil {
		log.LogWithError(err).Warn("Tag store changed on disk but could not be read")
		return false, err
	}
	if changed {
		s.logger.With(log.F("path", s.tags.Path())).Info("Tag store changed on disk")
		s.pushMarks(s.tags.Records())
	}
	return changed, nil
}

// Close stops playback and saves the window geometry and last directory.
func (s *Session) Close() error {
	if s.viewer != nil {
		s.viewer.Stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.settings.SaveWindow(s.prefs.Geometry(), s.scope)
	return err
}

func (s *Session) record(entry *journal.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(entry); err != nil {
		log.LogWithError(err).Warn("Could not record journal entry")
	}
}
