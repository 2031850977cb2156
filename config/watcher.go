package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last write.
const DefaultDebounce = 200 * time.Millisecond

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Debounce time.Duration
	Logger   *zap.Logger
	// OnChange receives the entries that are new or changed since the last
	// load. It runs on the watcher goroutine.
	OnChange func(changed map[string]any)
}

// Watcher reloads a uniforms file when it changes.
type Watcher struct {
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func(map[string]any)

	mu      sync.Mutex
	last    map[string]any
	started bool
	done    chan struct{}
}

// NewWatcher returns a watcher for path. current is the content already
// applied, against which the first reload is diffed.
func NewWatcher(path string, current map[string]any, opts WatcherOptions) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	last := make(map[string]any, len(current))
	for k, v := range current {
		last[k] = v
	}
	return &Watcher{
		logger:   opts.Logger,
		watcher:  watcher,
		path:     abs,
		debounce: opts.Debounce,
		onChange: opts.OnChange,
		last:     last,
		done:     make(chan struct{}),
	}, nil
}

// Start watches the file's directory, so editors that replace the file are
// seen too. It returns once the watch is registered.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("Watching uniforms file", zap.String("path", w.path))
	w.started = true

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C

	go func() {
		defer close(w.done)
		defer debounceTimer.Stop()
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if w.shouldProcessEvent(event) {
					w.logger.Debug("Uniforms file change detected",
						zap.String("file", event.Name),
						zap.String("op", event.Op.String()))
					debounceTimer.Reset(w.debounce)
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("Watcher error", zap.Error(err))

			case <-debounceTimer.C:
				w.reload()

			case <-ctx.Done():
				w.logger.Info("Stopping uniforms watcher")
				return
			}
		}
	}()
	return nil
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

func (w *Watcher) reload() {
	values, err := LoadUniforms(w.path)
	if err != nil {
		w.logger.Error("Failed to reload uniforms", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	changed := Diff(w.last, values)
	w.last = values
	w.mu.Unlock()

	if len(changed) == 0 {
		w.logger.Debug("Uniforms file unchanged", zap.String("path", w.path))
		return
	}
	w.logger.Info("Reloaded uniforms", zap.String("path", w.path), zap.Int("changed", len(changed)))
	if w.onChange != nil {
		w.onChange(changed)
	}
}

// Close stops watching and waits for the watcher goroutine if it was
// started.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if w.started {
		<-w.done
	}
	return err
}
