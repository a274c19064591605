package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"resttimer/internal/core/model"
	"resttimer/internal/logger"
)

const watchDebounce = 150 * time.Millisecond

// Watch calls onChange with the reloaded settings whenever the file is
// written or replaced, until ctx is done. The parent directory is watched,
// since editors and Save replace the file instead of writing in place.
func (store *Store) Watch(ctx context.Context, log *logger.Logger, onChange func(model.Settings)) error {
	if log == nil {
		log = logger.Discard()
	}
	dir := filepath.Dir(store.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	name := filepath.Base(store.path)
	var (
		debounce  *time.Timer
		debounceC <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			debounceC = debounce.C
		case <-debounceC:
			debounce = nil
			debounceC = nil
			settings, err := store.Load()
			if err != nil {
				log.Warn("reload settings: %v", err)
				continue
			}
			log.Debug("settings changed on disk: duration=%ds language=%s", settings.DurationSeconds, settings.Language)
			onChange(settings)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("settings watcher: %v", err)
		}
	}
}
