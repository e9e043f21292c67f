// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch re-runs a function whenever files under a set of
// directories change, once per quiet period.
package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period used when Watcher.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches Dirs and calls a function after changes settle.
type Watcher struct {
	// Dirs are watched non-recursively; directories created beneath them
	// while running are added as they appear.
	Dirs []string

	// Debounce is the quiet period after the last event before a re-run.
	Debounce time.Duration

	// Ignore, when set, drops events for matching paths.
	Ignore func(path string) bool

	Logger *zap.Logger
}

// Run calls fn once, then again after every burst of changes, until ctx is
// cancelled. Errors from fn are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	log := w.Logger
	if log == nil {
		log = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()
	for _, dir := range w.Dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	log.Info("watching for changes", zap.Int("dirs", len(w.Dirs)), zap.Duration("debounce", debounce))

	run := func() {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			log.Error("run failed", zap.Error(err))
		}
	}
	run()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || (w.Ignore != nil && w.Ignore(ev.Name)) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := fw.Add(ev.Name); err != nil {
						log.Warn("cannot watch new directory", zap.String("path", ev.Name), zap.Error(err))
					}
				}
			}
			log.Debug("change", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			pending++
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			log.Info("changes settled, re-running", zap.Int("events", pending))
			pending = 0
			run()
		}
	}
}
