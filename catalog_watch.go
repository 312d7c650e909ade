package triviad

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"pkt.systems/pslog"
)

// WatchQuestionsFile reloads the catalog whenever the questions file changes
// on disk. The parent directory is watched because most editors and config
// management tools replace files instead of writing in place. A reload that
// fails validation keeps the current question set.
func WatchQuestionsFile(ctx context.Context, c *Catalog, path string, logger pslog.Logger) error {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
					continue
				}
				questions, err := LoadQuestionsFile(abs)
				if err != nil {
					logger.Warn("questions reload failed, keeping current set", "path", abs, "error", err)
					continue
				}
				if err := c.Replace(questions); err != nil {
					logger.Warn("questions reload rejected, keeping current set", "path", abs, "error", err)
					continue
				}
				logger.Info("questions reloaded", "path", abs, "count", len(questions))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("questions watcher error", "error", err)
			}
		}
	}()
	return nil
}
