package cliconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/rtpsgroup/pkg/log"
)

// DefaultDebounceDelay is how long Watch waits after the last change
// before reloading.
const DefaultDebounceDelay = 100 * time.Millisecond

// Watch reloads the TOML file at path whenever it changes and passes the
// result to onChange. Bursts of events within delay produce one reload.
// The parent directory is watched so editors that replace the file are
// seen. Watch blocks until ctx ends.
func Watch(ctx context.Context, path string, delay time.Duration, logger log.Logger, onChange func(FileConfig, error)) error {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching config file", log.String("path", path))

	reload := make(chan struct{}, 1)
	var debounce *time.Timer
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
			logger.Debug("config file event", log.String("op", event.Op.String()))
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(delay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			fc, err := LoadFileConfig(path)
			if err != nil {
				logger.Warn("config reload failed", log.Err(err))
			}
			onChange(fc, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", log.Err(err))
		}
	}
}
