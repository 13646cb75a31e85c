// Package statewatch notices when another process writes the local state
// database, so a long-running view can pick up outcomes persisted elsewhere.
package statewatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/newhook/issuerun/internal/logging"
)

// DefaultDebounce batches the burst of writes a single sqlite commit makes.
const DefaultDebounce = 250 * time.Millisecond

// Watcher calls back after files with a given base name in one directory
// change. The sqlite journal files (-wal, -shm, -journal) count as the
// database itself.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	base     string
	callback func()
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	done   chan struct{}
}

// New watches path's directory for changes to path. The directory must exist.
func New(path string, callback func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		dir:      dir,
		base:     filepath.Base(path),
		callback: callback,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period before the callback fires.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start begins delivering events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("state watcher error", "dir", w.dir, "error", err)
			}
		}
	}()
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	w.watcher.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) matches(name string) bool {
	base := filepath.Base(name)
	if base == w.base {
		return true
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if base == w.base+suffix {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.matches(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.callback)
}
