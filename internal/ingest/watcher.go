package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid update/rename bursts
	Logger      *slog.Logger
}

// StartWatcher emits paths of html documents created or modified under the roots. Both
// channels are closed when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && AllowedExt(filepath.Ext(path)) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("failed to add root directory", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		pending := map[string]struct{}{}
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		flush := func() bool {
			for p := range pending {
				delete(pending, p)
				if !emit(p) {
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					// New directories are watched too; adding a plain file is harmless.
					_ = w.Add(e.Name)
				}
				if !AllowedExt(filepath.Ext(e.Name)) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce > 0 {
					timer.Reset(cfg.Debounce)
				} else if !flush() {
					return
				}
			case <-timer.C:
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// Watch feeds every emitted path to the ingestor until ctx is done.
func Watch(ctx context.Context, ing Ingestor, cfg WatchConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	events, errs, err := StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if _, err := ing.IngestPath(ctx, path); err != nil {
				logger.Warn("failed to ingest watched file", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				logger.Warn("watcher reported error", "error", err)
			}
			if !ok {
				errs = nil
			}
		}
	}
}
