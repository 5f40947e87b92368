package prefab

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the prefab file whenever it changes and hands the new library
// to onReload. A file that fails to parse is logged and the previous library
// stays in effect. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file, so editors that save
// by rename are still picked up.
func Watch(ctx context.Context, path string, log *zap.Logger, onReload func(*Library)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("prefab watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("prefab watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			lib, err := LoadLibrary(abs)
			if err != nil {
				log.Warn("prefab reload failed", zap.String("file", abs), zap.Error(err))
				continue
			}
			log.Info("prefabs reloaded", zap.String("file", abs), zap.Int("prefabs", lib.Count()))
			onReload(lib)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("prefab watcher error", zap.Error(err))
		}
	}
}
