package stubserver

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchFixtures reseeds the server whenever the fixtures file changes, until
// ctx is cancelled. Editors save by write-then-rename as often as in place,
// so the watch is on the parent directory and events are filtered by name.
// Bursts of events are debounced; a seed file that fails validation is logged
// and skipped, leaving the previous state intact.
func WatchFixtures(ctx context.Context, s *Server, path string, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("fixtures watcher: started", slog.String("path", abs))

	// reloadTimer debounces editor event bursts.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("fixtures watcher: stopped")
			return nil

		case <-reloadCh:
			fx, loadErr := LoadFixtures(abs)
			if loadErr != nil {
				logger.Warn("fixtures watcher: reload skipped",
					slog.String("error", loadErr.Error()))
				continue
			}
			s.Seed(fx)
			logger.Info("fixtures watcher: reseeded",
				slog.Int("users", len(fx.Users)),
				slog.Int("posts", len(fx.Posts)),
				slog.Int("messages", len(fx.Messages)))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("fixtures watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
