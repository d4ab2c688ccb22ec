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
	Root     string
	Debounce time.Duration // coalesce rapid update/rename bursts
}

// StartWatcher watches Root recursively and emits the path of every supported
// document that is created, written, or renamed. Events inside the debounce
// window for the same path are coalesced. The channels close when ctx is done.
func StartWatcher(ctx context.Context, logger *slog.Logger, cfg WatchConfig) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		return nil, nil, errors.New("watch root is required")
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() && !isHidden(path) {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer w.Close()

		// pending is touched only by this goroutine; the debounce timer just
		// pokes flushCh so the flush itself happens inside the select loop
		pending := map[string]struct{}{}
		flushCh := make(chan struct{}, 1)
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		flush := func() {
			for p := range pending {
				select {
				case evCh <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create != 0 {
					// a created directory needs its own watch; Add on a
					// plain file fails and is ignored
					_ = w.Add(e.Name)
				}
				if Allowed(e.Name) && e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					pending[e.Name] = struct{}{}
					if cfg.Debounce > 0 {
						if timer != nil {
							timer.Stop()
						}
						timer = time.AfterFunc(cfg.Debounce, func() {
							select {
							case flushCh <- struct{}{}:
							default:
							}
						})
					} else {
						flush()
					}
				}
			case <-flushCh:
				flush()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	logger.Info("watcher.started", "root", cfg.Root, "debounce", cfg.Debounce.String())
	return evCh, errCh, nil
}
