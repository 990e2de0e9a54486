// Package watch monitors directories for dataset files and triggers
// analyses when they appear or change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/datascope/datascope/pkg/ingest"
)

// Watcher monitors directories for supported dataset files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	seen     map[string]*fileState
	mu       sync.Mutex
	debounce time.Duration

	// OnChange is called once per settled file change.
	OnChange func(path string) error

	// OnError receives watch or callback failures.
	OnError func(path string, err error)
}

type fileState struct {
	lastModified time.Time
	size         int64
	processing   bool
}

// NewWatcher creates a new directory watcher.
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsWatcher,
		seen:     make(map[string]*fileState),
		debounce: 500 * time.Millisecond,
	}, nil
}

// Watch starts watching a directory for dataset files.
func (w *Watcher) Watch(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if stat, err := os.Stat(absDir); err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	} else if !stat.IsDir() {
		return fmt.Errorf("not a directory: %s", absDir)
	}

	if err := w.watcher.Add(absDir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	return nil
}

// Run starts the watch loop. Blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	debounceTimers := make(map[string]*time.Timer)
	var timerMu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			absPath, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if !ingest.SupportedExt(strings.ToLower(filepath.Ext(absPath))) {
				continue
			}

			// Debounce rapid changes while the file is still being written.
			timerMu.Lock()
			if timer, exists := debounceTimers[absPath]; exists {
				timer.Stop()
			}
			debounceTimers[absPath] = time.AfterFunc(w.debounce, func() {
				w.handleChange(absPath)
			})
			timerMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError("", err)
			}
		}
	}
}

func (w *Watcher) handleChange(path string) {
	w.mu.Lock()
	state, ok := w.seen[path]
	if !ok {
		state = &fileState{}
		w.seen[path] = state
	}
	if state.processing {
		w.mu.Unlock()
		return
	}
	state.processing = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		state.processing = false
		w.mu.Unlock()
	}()

	stat, err := os.Stat(path)
	if err != nil {
		if w.OnError != nil {
			w.OnError(path, err)
		}
		return
	}

	w.mu.Lock()
	unchanged := stat.ModTime().Equal(state.lastModified) && stat.Size() == state.size
	if !unchanged {
		state.lastModified = stat.ModTime()
		state.size = stat.Size()
	}
	w.mu.Unlock()
	if unchanged {
		return
	}

	if w.OnChange != nil {
		if err := w.OnChange(path); err != nil {
			if w.OnError != nil {
				w.OnError(path, err)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
