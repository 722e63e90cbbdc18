package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Event represents a file change detected by the watcher.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors input files for changes using OS-level notifications.
type Watcher struct {
	fsw    *fsnotify.Watcher
	log    logrus.FieldLogger
	Events chan Event
	paths  []string
	readd  chan string
}

// New creates a Watcher for the given glob patterns.
// Patterns are expanded at startup and the resulting files are watched.
func New(patterns []string, log logrus.FieldLogger) (*Watcher, error) {
	paths, err := Expand(patterns)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		log:    log.WithField("component", "watcher"),
		Events: make(chan Event, 256),
		readd:  make(chan string, 8),
	}

	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			w.log.WithError(err).WithField("path", p).Warn("cannot watch file")
			continue
		}
		w.paths = append(w.paths, p)
	}

	return w, nil
}

// Start begins listening for file events. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			switch {
			case ev.Op&fsnotify.Write != 0,
				ev.Op&fsnotify.Create != 0:
				w.Events <- Event{Path: ev.Name, Op: ev.Op}
			case ev.Op&fsnotify.Remove != 0,
				ev.Op&fsnotify.Rename != 0:
				// Editors and exporters often replace the file; re-add it
				// once it reappears.
				w.Events <- Event{Path: ev.Name, Op: ev.Op}
				go w.reWatch(ctx, ev.Name)
			}
		case p := <-w.readd:
			w.Events <- Event{Path: p, Op: fsnotify.Create}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watcher error")
		}
	}
}

// Paths returns the list of files currently being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}

// reWatch polls for a replaced file to reappear (up to 5 retries).
func (w *Watcher) reWatch(ctx context.Context, path string) {
	for i := 0; i < 5; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
		if err := w.fsw.Add(path); err == nil {
			w.log.WithField("path", path).Info("re-watching replaced file")
			select {
			case w.readd <- path:
			case <-ctx.Done():
			}
			return
		}
	}
	w.log.WithField("path", path).Warn("gave up re-watching file after 5 retries")
}

// Debounce collapses bursts of events into one signal per quiet period.
// The returned channel closes when events closes or ctx is done.
func Debounce(ctx context.Context, events <-chan Event, quiet time.Duration) <-chan struct{} {
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				if timer == nil {
					timer = time.NewTimer(quiet)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(quiet)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out
}

// Expand resolves glob patterns to absolute file paths, in pattern order,
// without duplicates. Recursive patterns like /data/**/*.csv are supported.
// A pattern that matches nothing is an error.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files matched %q", pattern)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, err
			}
			if !seen[abs] {
				seen[abs] = true
				out = append(out, abs)
			}
		}
	}

	return out, nil
}
