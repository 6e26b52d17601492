package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// newPipelineWatcher watches the directories holding paths. Editors often
// replace a file rather than write it, so the directory is watched and
// events are filtered by name.
func newPipelineWatcher(paths []string) (*fsnotify.Watcher, map[string]string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	tracked := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
		tracked[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, tracked, nil
}

// watchLoop calls onChange with the path as given for every write to a
// tracked file until ctx is done. It closes w.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, tracked map[string]string, logger *slog.Logger, onChange func(path string)) error {
	defer func() { _ = w.Close() }()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			path, ok := tracked[abs]
			if !ok {
				continue
			}
			logger.Debug("pipeline changed", slog.String("path", path), slog.String("op", event.Op.String()))
			onChange(path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// watchPipelines blocks, calling onChange for each change to paths.
func watchPipelines(ctx context.Context, paths []string, logger *slog.Logger, onChange func(path string)) error {
	w, tracked, err := newPipelineWatcher(paths)
	if err != nil {
		return err
	}
	logger.Info("watching pipeline files", slog.Int("files", len(paths)))
	return watchLoop(ctx, w, tracked, logger, onChange)
}
