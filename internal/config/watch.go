package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// settle is how long Watch waits for a burst of events on one file to end
// before reporting it
const settle = 100 * time.Millisecond

// Watch monitors the files matching each pattern (a path or a glob) and
// calls onChange with the name of a file once it has been written, created
// or renamed into place. It runs until ctx is cancelled.
//
// Parent directories are watched rather than the files themselves so that
// editors saving through a rename are still seen.
func Watch(ctx context.Context, patterns []string, logger *log.Logger, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dirs := make(map[string]bool)
	for _, p := range patterns {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return err
		}
		dirs[dir] = true
	}

	logger.Info("watching for changes", "patterns", patterns)

	pending := make(map[string]bool)
	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !matchesAny(patterns, event.Name) {
				continue
			}
			logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			timer.Reset(settle)

		case <-timer.C:
			for path := range pending {
				onChange(path)
			}
			clear(pending)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "err", err)
		}
	}
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if filepath.Clean(p) == filepath.Clean(name) {
			return true
		}
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
