package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tendril-dev/tendril/internal/notify"
)

// Watcher re-reads the configuration file when it changes on disk and
// hands the parsed result to a callback. Re-running setup with the new
// configuration re-registers every declared plugin; the registry's
// overwrite-on-reregister semantics exist for exactly this.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*File)
	notify   notify.Notifier

	debounce time.Duration
	timerMu  sync.Mutex
	timer    *time.Timer
}

// NewWatcher creates a watcher for path. The parent directory is watched
// rather than the file itself so editors that replace the file on save
// are still seen.
func NewWatcher(path string, onChange func(*File), n notify.Notifier) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}
	if n == nil {
		n = notify.Discard{}
	}

	return &Watcher{
		path:     path,
		watcher:  fsWatcher,
		onChange: onChange,
		notify:   n,
		debounce: 250 * time.Millisecond,
	}, nil
}

// Start blocks processing file events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.notify.Warnf("config watcher: %v", err)
		}
	}
}

// scheduleReload coalesces bursts of write events into one reload.
func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) reload() {
	f, err := Load(w.path)
	if err != nil {
		w.notify.Warnf("config reload skipped: %v", err)
		return
	}
	w.notify.Infof("config reloaded from %s", w.path)
	w.onChange(f)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
