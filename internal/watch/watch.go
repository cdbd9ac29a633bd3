// Package watch re-parses a notebook document whenever the file changes on
// disk. Events are debounced so editor save bursts trigger one reparse.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher monitors one notebook file.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	onChange func(path string)
	debounce time.Duration
	lastSeen time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	log      *zap.Logger
}

// New creates a watcher for path; onChange fires after each debounced
// modification. A nil logger is replaced with a no-op logger.
func New(path string, onChange func(path string), log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		watcher:  fw,
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: 300 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      log,
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in its own
// goroutine until Stop or context cancellation. Watching the parent
// directory instead of the file itself survives editors that replace the
// file on save.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			now := time.Now()
			if now.Sub(w.lastSeen) < w.debounce {
				continue
			}
			w.lastSeen = now
			w.log.Debug("notebook changed", zap.String("path", w.path))
			w.onChange(w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// Stop halts the event loop and releases the underlying watcher. Safe to
// call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}
