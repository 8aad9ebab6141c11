// Package configwatch triggers an immediate refresh when the config file
// is edited, so saved changes push without waiting for the next tick.
package configwatch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce collapses the bursts of Write/Create events editors emit when
// saving (write-then-rename, truncate-then-write).
const debounce = 500 * time.Millisecond

// Watch observes the config file at path and calls onChange after each
// edit settles, until ctx is cancelled. The parent directory is watched
// rather than the file itself so atomic-save renames keep working.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("configwatch: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("configwatch: stopped")
			return nil

		case <-fire:
			logger.Info("configwatch: config changed, triggering refresh")
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("configwatch: error", slog.String("error", watchErr.Error()))
		}
	}
}
