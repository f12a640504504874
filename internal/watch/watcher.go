// Package watch drives repeated sync passes from filesystem events on the
// source directory.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher observes a single directory (no recursion) and coalesces bursts of
// events into debounced callbacks.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dir      string
	suffix   string
	debounce time.Duration
	logger   *zap.Logger
}

func New(dir, suffix string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		fsw:      fsw,
		dir:      dir,
		suffix:   suffix,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is done, invoking pass after each debounced burst of
// relevant events. A failing pass is logged and the loop keeps running.
func (w *Watcher) Run(ctx context.Context, pass func() error) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))

		case <-timer.C:
			if err := pass(); err != nil {
				w.logger.Error("sync pass failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, w.suffix) {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
