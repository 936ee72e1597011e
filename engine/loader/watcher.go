package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of write events an editor emits for a single save.
const reloadDebounce = 100 * time.Millisecond

// ReloadFunc receives the freshly loaded asset, or the error that prevented loading it.
type ReloadFunc func(asset *Asset, err error)

// Watcher reloads asset files through a Loader when they change on disk.
type Watcher struct {
	loader   Loader
	onReload ReloadFunc
	debounce time.Duration
}

// NewWatcher creates a Watcher that reloads through l and reports to onReload.
//
// Parameters:
//   - l: the loader whose cache entry is evicted and refilled
//   - onReload: called on the watcher goroutine after each reload attempt
//
// Returns:
//   - *Watcher: the watcher
func NewWatcher(l Loader, onReload ReloadFunc) *Watcher {
	return &Watcher{loader: l, onReload: onReload, debounce: reloadDebounce}
}

// Watch blocks until ctx is done, reloading path whenever it is written or replaced.
// The parent directory is watched so editors that save via rename are still seen.
//
// Parameters:
//   - ctx: cancels the watch
//   - path: the asset file
//
// Returns:
//   - error: error if the watch cannot be established; nil after ctx is cancelled
func (w *Watcher) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching asset", "path", abs)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case e, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != abs || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload(path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("asset watcher", "err", err)
		}
	}
}

func (w *Watcher) reload(path string) {
	w.loader.Evict(path)
	asset, err := w.loader.Load(path)
	if err != nil {
		logger.Error("reload failed", "path", path, "err", err)
	} else {
		logger.Info("reloaded asset", "path", path, "primitives", len(asset.Primitives), "skipped", len(asset.Warnings))
	}
	if w.onReload != nil {
		w.onReload(asset, err)
	}
}
