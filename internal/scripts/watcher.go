package scripts

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"lantern/server/logging"
	"lantern/server/logging/preview"
)

const defaultDebounce = 150 * time.Millisecond

// Watcher turns filesystem change bursts on the project document and the
// definition modules into single reload requests. Editors save in flurries,
// so events are debounced: the trigger fires once per quiet period, with the
// distinct paths that changed.
type Watcher struct {
	fs        *fsnotify.Watcher
	debounce  time.Duration
	trigger   func(paths []string)
	publisher logging.Publisher

	closeOnce sync.Once
	done      chan struct{}
}

// NewWatcher watches the given files and directories. trigger runs on the
// watcher goroutine once per debounced burst; publisher may be nil.
func NewWatcher(paths []string, debounce time.Duration, trigger func(paths []string), publisher logging.Publisher) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		if err := fs.Add(path); err != nil {
			fs.Close()
			return nil, err
		}
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Watcher{
		fs:        fs,
		debounce:  debounce,
		trigger:   trigger,
		publisher: publisher,
		done:      make(chan struct{}),
	}, nil
}

// Run consumes filesystem events until the context is canceled or the watcher
// is closed. Callers run it on its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	changed := make(map[string]struct{})

	flush := func() {
		if len(changed) == 0 {
			return
		}
		paths := make([]string, 0, len(changed))
		for path := range changed {
			paths = append(paths, path)
		}
		changed = make(map[string]struct{})
		preview.WatchTriggered(ctx, w.publisher, preview.WatchPayload{Paths: paths})
		if w.trigger != nil {
			w.trigger(paths)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			changed[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}
