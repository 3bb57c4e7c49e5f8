package watch

import (
	"sync"
	"time"

	"mediatagger/internal/errors"
	"mediatagger/internal/log"
)

// ReloadFunc re-reads a changed file and reports whether its content
// differed from what was loaded.
type ReloadFunc func() (bool, error)

// Status is a snapshot of a Reloader
type Status struct {
	Running      bool      // Whether the reloader is active
	Files        []string  // Files being watched
	LastActivity time.Time // Time of the last change event
	Reloads      int       // Reloads that found new content
	Failures     int       // Reloads that returned an error
}

// Reloader runs a ReloadFunc after a watched file settles. Bursts of events
// from a single save (create, write, rename) collapse into one reload.
type Reloader struct {
	watcher  *Watcher
	reload   ReloadFunc
	debounce time.Duration

	reloads      int
	failures     int
	lastActivity time.Time
	timer        *time.Timer

	// Callback for every completed reload
	callback func(changed bool, err error)

	mutex   sync.RWMutex
	running bool
	wg      sync.WaitGroup
}

// NewReloader creates a reloader that calls reload when any of files
// changes, once no further event has arrived for debounce.
func NewReloader(reload ReloadFunc, debounce time.Duration, files ...string) (*Reloader, error) {
	watcher, err := New()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := watcher.AddFile(f); err != nil {
			watcher.fsWatcher.Close()
			return nil, err
		}
	}
	return &Reloader{
		watcher:  watcher,
		reload:   reload,
		debounce: debounce,
	}, nil
}

// SetCallback sets a function called after every reload attempt
func (r *Reloader) SetCallback(cb func(changed bool, err error)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.callback = cb
}

// Start begins watching
func (r *Reloader) Start() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.running {
		return errors.NewKind(errors.InvalidOperation, "reloader is already running")
	}
	if err := r.watcher.Start(); err != nil {
		return errors.Wrap(err, "error starting watcher")
	}
	r.running = true

	r.wg.Add(1)
	go r.processEvents()
	return nil
}

// Stop halts watching and waits for a reload already in progress. A
// pending reload is dropped.
func (r *Reloader) Stop() {
	r.mutex.Lock()
	if !r.running {
		r.mutex.Unlock()
		r.watcher.Stop()
		return
	}
	r.running = false
	if r.timer != nil {
		r.timer.Stop()
	}
	r.mutex.Unlock()

	r.watcher.Stop()
	r.wg.Wait()
}

// Status returns the current status of the reloader
func (r *Reloader) Status() Status {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return Status{
		Running:      r.running,
		Files:        r.watcher.Files(),
		LastActivity: r.lastActivity,
		Reloads:      r.reloads,
		Failures:     r.failures,
	}
}

func (r *Reloader) processEvents() {
	defer r.wg.Done()

	for change := range r.watcher.Changes() {
		log.LogWithFields(log.F("file", change.Path), log.F("op", change.Op.String())).Debug("Watched file changed")

		r.mutex.Lock()
		r.lastActivity = change.Timestamp
		if r.running {
			if r.timer != nil {
				r.timer.Stop()
			}
			r.timer = time.AfterFunc(r.debounce, r.fire)
		}
		r.mutex.Unlock()
	}
}

func (r *Reloader) fire() {
	r.mutex.Lock()
	if !r.running {
		r.mutex.Unlock()
		return
	}
	r.wg.Add(1)
	r.mutex.Unlock()
	defer r.wg.Done()

	changed, err := r.reload()

	r.mutex.Lock()
	switch {
	case err != nil:
		r.failures++
	case changed:
		r.reloads++
	}
	cb := r.callback
	r.mutex.Unlock()

	if err != nil {
		log.LogWithError(err).Warn("Reload after change failed")
	}
	if cb != nil {
		cb(changed, err)
	}
}
