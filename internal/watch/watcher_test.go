package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"mediatagger/internal/jsonfile"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitChange(t *testing.T, ch <-chan Change, path string, op fsnotify.Op) Change {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case change, ok := <-ch:
			require.True(t, ok, "change channel closed unexpectedly")
			if change.Path == path && change.Op.Has(op) {
				return change
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %s on %s", op, path)
			return Change{}
		}
	}
}

func TestWatcherFiltersToWatchedFile(t *testing.T) {
	tempDir := t.TempDir()
	store := filepath.Join(tempDir, "best_tags.json")

	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.AddFile(store))
	require.NoError(t, w.Start())
	defer w.Stop()

	assert.Equal(t, []string{store}, w.Files())
	assert.True(t, w.IsRunning())

	// Allow a brief moment for fsnotify to initialize watches
	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are not reported
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "other.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(store, []byte("{}"), 0644))

	change := waitChange(t, w.Changes(), store, fsnotify.Create)
	assert.False(t, change.Timestamp.IsZero())

	require.NoError(t, os.WriteFile(store, []byte(`{"/a": {}}`), 0644))
	waitChange(t, w.Changes(), store, fsnotify.Write)
}

func TestWatcherSeesAtomicReplace(t *testing.T) {
	tempDir := t.TempDir()
	store := filepath.Join(tempDir, "best_tags.json")
	require.NoError(t, jsonfile.WriteAtomic(store, map[string]int{}))

	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.AddFile(store))
	require.NoError(t, w.Start())
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	// temp file plus rename: the rename lands as a Create on the target
	require.NoError(t, jsonfile.WriteAtomic(store, map[string]int{"a": 1}))
	waitChange(t, w.Changes(), store, fsnotify.Create)
}

func TestWatcherStopClosesChannel(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.AddFile(filepath.Join(t.TempDir(), "f.json")))
	require.NoError(t, w.Start())
	assert.Error(t, w.Start(), "second start fails")

	w.Stop()
	assert.False(t, w.IsRunning())
	w.Stop()

	// Drain and expect closure
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-w.Changes():
			if !ok {
				assert.Error(t, w.Start(), "a stopped watcher cannot restart")
				return
			}
		case <-timeout:
			t.Fatal("change channel not closed after stop")
		}
	}
}

func TestAddFileRequiresDirectory(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.AddFile(filepath.Join(t.TempDir(), "missing", "f.json")))
}

func TestReloaderDebouncesBursts(t *testing.T) {
	tempDir := t.TempDir()
	store := filepath.Join(tempDir, "best_tags.json")
	require.NoError(t, os.WriteFile(store, []byte("{}"), 0644))

	var calls atomic.Int32
	r, err := NewReloader(func() (bool, error) {
		calls.Add(1)
		return true, nil
	}, 150*time.Millisecond, store)
	require.NoError(t, err)

	done := make(chan bool, 4)
	r.SetCallback(func(changed bool, err error) { done <- changed })

	require.NoError(t, r.Start())
	defer r.Stop()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, jsonfile.WriteAtomic(store, map[string]int{"n": i}))
	}

	select {
	case changed := <-done:
		assert.True(t, changed)
	case <-time.After(3 * time.Second):
		t.Fatal("reload never ran")
	}

	// nothing else queued after the burst settled
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	status := r.Status()
	assert.True(t, status.Running)
	assert.Equal(t, []string{store}, status.Files)
	assert.Equal(t, 1, status.Reloads)
	assert.Zero(t, status.Failures)
	assert.False(t, status.LastActivity.IsZero())
}

func TestReloaderCountsFailures(t *testing.T) {
	store := filepath.Join(t.TempDir(), "best_tags.json")

	r, err := NewReloader(func() (bool, error) {
		return false, os.ErrPermission
	}, 10*time.Millisecond, store)
	require.NoError(t, err)

	done := make(chan error, 4)
	r.SetCallback(func(_ bool, err error) { done <- err })
	require.NoError(t, r.Start())
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(store, []byte("{}"), 0644))
	select {
	case err := <-done:
		assert.ErrorIs(t, err, os.ErrPermission)
	case <-time.After(3 * time.Second):
		t.Fatal("reload never ran")
	}

	r.Stop()
	status := r.Status()
	assert.False(t, status.Running)
	assert.GreaterOrEqual(t, status.Failures, 1)
}

func TestStopBeforeStartReleasesWatcher(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.AddFile(filepath.Join(t.TempDir(), "f.json")))

	w.Stop()
	w.Stop()
	assert.ErrorIs(t, w.fsWatcher.Add(t.TempDir()), fsnotify.ErrClosed)
	assert.Error(t, w.Start(), "a closed watcher cannot start")
}

func TestReloaderStopWithoutStart(t *testing.T) {
	store := filepath.Join(t.TempDir(), "best_tags.json")
	r, err := NewReloader(func() (bool, error) { return false, nil }, 10*time.Millisecond, store)
	require.NoError(t, err)

	r.Stop()
	assert.ErrorIs(t, r.watcher.fsWatcher.Add(t.TempDir()), fsnotify.ErrClosed)
	assert.False(t, r.Status().Running)
}

func TestReloaderStopWaitsForReload(t *testing.T) {
	store := filepath.Join(t.TempDir(), "best_tags.json")

	started := make(chan struct{}, 1)
	var finished atomic.Bool
	r, err := NewReloader(func() (bool, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		return true, nil
	}, 10*time.Millisecond, store)
	require.NoError(t, err)
	require.NoError(t, r.Start())
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(store, []byte("{}"), 0644))
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("reload never ran")
	}

	r.Stop()
	assert.True(t, finished.Load(), "Stop returned before the reload finished")
}
