// Package watcher runs a handler for every PDF dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultSettle = 500 * time.Millisecond

// Handler processes one new PDF. Its error is logged and does not stop the
// watcher.
type Handler func(ctx context.Context, path string) error

type Options struct {
	// Workers caps how many files are handled at once. Defaults to 1.
	Workers int
	// Settle is how long to wait after a create event before reading the
	// file, so that copies have time to finish.
	Settle time.Duration
	Logger zerolog.Logger
}

type Watcher struct {
	dir     string
	handle  Handler
	workers int
	settle  time.Duration
	fsw     *fsnotify.Watcher
	logger  zerolog.Logger
}

// New starts watching dir. Events are only consumed once Run is called.
func New(dir string, handle Handler, opts Options) (*Watcher, error) {
	if handle == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Settle <= 0 {
		opts.Settle = defaultSettle
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:     dir,
		handle:  handle,
		workers: opts.Workers,
		settle:  opts.Settle,
		fsw:     fsw,
		logger:  opts.Logger.With().Str("component", "watcher").Str("dir", dir).Logger(),
	}, nil
}

// Run dispatches new PDFs until ctx is done, then waits for in-flight files
// and closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var g errgroup.Group
	g.SetLimit(w.workers)
	w.logger.Info().Int("workers", w.workers).Msg("watching for PDFs")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("waiting for in-flight files")
			g.Wait()
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				g.Wait()
				return fmt.Errorf("watcher events channel closed")
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if !IsPDF(ev.Name) {
				w.logger.Debug().Str("file", ev.Name).Msg("ignoring non-pdf file")
				continue
			}

			path := ev.Name
			w.logger.Info().Str("file", path).Msg("new pdf detected")
			// Go blocks while all workers are busy.
			g.Go(func() error {
				select {
				case <-time.After(w.settle):
				case <-ctx.Done():
					return nil
				}
				if err := w.handle(ctx, path); err != nil {
					w.logger.Error().Err(err).Str("file", path).Msg("failed to process file")
				}
				return nil
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				g.Wait()
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// IsPDF reports whether path has a .pdf extension, in any case.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
