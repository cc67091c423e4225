// Package watch re-runs a task whenever one of a set of files changes.
//
// Files are watched through their parent directories so that editors which
// save by writing a temporary file and renaming it over the original are
// still seen. Bursts of events are coalesced: the task runs once the files
// have been quiet for the debounce delay.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/macrostorm/internal/logging"
)

// DefaultDebounce is the quiet period before a change triggers the task.
const DefaultDebounce = 100 * time.Millisecond

// Errors returned by the watcher.
var (
	// ErrWatcherClosed indicates the underlying notifier stopped.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrPathNotExist indicates a watched file does not exist.
	ErrPathNotExist = errors.New("path does not exist")
)

// Watcher reports changes to a fixed set of files.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	logger   *logging.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Values <= 0 keep DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for notifier errors.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New watches paths. Every path must name an existing file.
func New(paths []string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		files:    make(map[string]bool),
		debounce: DefaultDebounce,
		logger:   logging.Null(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent("watch")

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrPathNotExist, p)
			}
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	w.fsw = fsw
	return w, nil
}

// Files returns the number of watched files.
func (w *Watcher) Files() int {
	return len(w.files)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run calls fn after each burst of changes until ctx is done. It returns nil
// when ctx ends, and the first error returned by fn otherwise.
func (w *Watcher) Run(ctx context.Context, fn func() error) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("%s %s", ev.Op, ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.logger.Warn("%v", err)

		case <-fire:
			fire = nil
			if err := fn(); err != nil {
				return err
			}
		}
	}
}

// relevant reports whether ev changed the content of a watched file.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !w.files[filepath.Clean(ev.Name)] {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
