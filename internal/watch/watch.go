// Package watch re-runs a callback when an ontology file changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long to wait for more writes before firing.
const DefaultDebounce = 500 * time.Millisecond

// FileWatcher watches a single file. Editors often replace a file instead
// of writing it, so the parent directory is watched and events are
// filtered by name.
type FileWatcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for path. A debounce of 0 means DefaultDebounce.
func New(path string, debounce time.Duration, logger *slog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &FileWatcher{path: abs, debounce: debounce, logger: logger, watcher: fsw}, nil
}

// Run calls onChange after each burst of writes to the file until ctx is
// done. Calls never overlap.
func (w *FileWatcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	defer w.watcher.Close()

	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("ontology changed", "path", w.path, "op", event.Op.String())
			w.schedule(fire)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "path", w.path, "error", err)

		case <-fire:
			onChange(ctx)
		}
	}
}

func (w *FileWatcher) schedule(fire chan<- struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *FileWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
