// Package watch notices when files the application depends on are changed
// by another process and reloads them.
package watch

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"mediatagger/internal/errors"
	"mediatagger/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Change is a filesystem event on a watched file
type Change struct {
	Path      string
	Timestamp time.Time
	Op        fsnotify.Op
}

// relevantOps covers in-place writes as well as the create and rename
// steps of an atomic replace.
const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

// Watcher monitors individual files. fsnotify loses a file watch when the
// file is replaced, so the parent directory is watched and events are
// filtered by name.
type Watcher struct {
	// Files being watched, keyed by cleaned absolute path
	files map[string]bool

	// Directories added to fsnotify
	dirs map[string]bool

	changes  chan Change
	stopChan chan struct{}
	done     chan struct{}

	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
	started bool
	closed  bool
}

// New creates a file watcher
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	return &Watcher{
		files:     map[string]bool{},
		dirs:      map[string]bool{},
		changes:   make(chan Change, 16),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		fsWatcher: fsWatcher,
	}, nil
}

// AddFile starts watching path. The file need not exist yet but its
// directory must.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.NewFileError("cannot resolve path", path, errors.InvalidPath, err)
	}
	dir := filepath.Dir(abs)

	info, err := os.Stat(dir)
	if err != nil {
		return errors.NewFileError("error accessing directory", dir, errors.FileNotFound, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("not a directory", dir, errors.InvalidPath, nil)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.dirs[dir] {
		if err := w.fsWatcher.Add(dir); err != nil {
			return errors.NewFileError("failed to add directory to watcher", dir, errors.FileOperationFailed, err)
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true

	log.LogWithFields(log.F("file", abs)).Info("Watching file")
	return nil
}

// Changes returns the channel that delivers events for watched files. It is
// closed by Stop.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins delivering events. A watcher runs once; it cannot be
// restarted after Stop.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running || w.started || w.closed {
		return errors.NewKind(errors.InvalidOperation, "watcher already started")
	}
	w.running = true
	w.started = true

	go w.loop()

	log.Debug("Watcher started")
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.changes)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				log.Debug("fsWatcher.Events channel closed")
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
				!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			if !w.isWatched(event.Name) {
				continue
			}

			change := Change{
				Path:      filepath.Clean(event.Name),
				Timestamp: time.Now(),
				Op:        event.Op & relevantOps,
			}

			// Never block the fsnotify reader; consumers coalesce anyway.
			select {
			case w.changes <- change:
			default:
				log.LogWithFields(log.F("file", event.Name)).Warn("Change channel is full, dropped event")
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				log.Debug("fsWatcher.Errors channel closed")
				return
			}
			log.LogWithError(err).Error("fsnotify watcher error")

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) isWatched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.files[abs]
}

// Stop halts the watcher and waits for the Changes channel to close. A
// watcher that was never started only releases its fsnotify handle.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return
	}
	w.closed = true
	wasRunning := w.running
	if wasRunning {
		w.running = false
		close(w.stopChan)
	}
	w.mutex.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithError(err).Error("Error closing fsnotify watcher")
	}
	if wasRunning {
		<-w.done
	}

	log.Debug("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Files returns the watched files in sorted order
func (w *Watcher) Files() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
