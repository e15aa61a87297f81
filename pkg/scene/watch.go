package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay coalesces the burst of events an editor save produces
const DefaultReloadDelay = 100 * time.Millisecond

// Watch reloads the scene file at path whenever it changes and hands the
// result to onReload, until ctx is cancelled. The parent directory is watched
// so editors that save by renaming a temp file are picked up too. A failed
// reload passes the error and a nil scene.
func Watch(ctx context.Context, path string, delay time.Duration, onReload func(*Scene, error)) error {
	if !IsSceneFile(path) {
		return fmt.Errorf("not a scene file: %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	if delay <= 0 {
		delay = DefaultReloadDelay
	}
	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				timer.Reset(delay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onReload(nil, fmt.Errorf("watch error: %w", err))

		case <-timer.C:
			s, err := LoadFile(abs)
			onReload(s, err)
		}
	}
}
