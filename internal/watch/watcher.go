package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Batch is a set of changed paths coalesced within one debounce window.
// The supervisor treats a batch as a single restart trigger regardless of
// how many paths it contains.
type Batch []string

// Watcher observes a directory tree and emits debounced change batches.
//
// Raw filesystem events arrive in bursts (editors write temp files, save,
// rename); restarting the server once per raw event would thrash it.
// Events are therefore collected until the configured debounce window
// passes without further changes, then delivered as one Batch.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      *zap.Logger
	batches  chan Batch
}

// New creates a Watcher over the directory tree rooted at root and starts
// its event loop. Subdirectories are registered recursively, and
// directories created later are picked up as they appear. Hidden
// directories and well-known junk (caches, editor swap files) are skipped.
func New(root string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:       fsw,
		debounce: debounce,
		log:      log,
		batches:  make(chan Batch, 1),
	}

	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Batches returns the channel change batches are delivered on.
// The channel is closed after Close.
func (w *Watcher) Batches() <-chan Batch {
	return w.batches
}

// Close stops the watcher. The event loop drains and closes the batch
// channel. Safe to call once.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// run is the event loop: it filters raw fsnotify events, registers newly
// created directories, and delivers debounced batches.
func (w *Watcher) run() {
	var (
		pending []string
		seen    = make(map[string]bool)
		timer   *time.Timer
		timerC  <-chan time.Time
		errs    = w.fs.Errors
	)

	arm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.NewTimer(w.debounce)
		timerC = timer.C
	}

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				close(w.batches)
				return
			}
			if w.ignored(ev.Name) {
				continue
			}

			// New directories must be registered or changes inside them
			// would go unseen.
			if ev.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := w.addRecursive(ev.Name); addErr != nil {
						w.log.Warn("failed to watch new directory",
							zap.String("path", ev.Name), zap.Error(addErr))
					}
					continue
				}
			}

			// Chmod-only events carry no content change.
			if ev.Op == fsnotify.Chmod {
				continue
			}

			if !seen[ev.Name] {
				seen[ev.Name] = true
				pending = append(pending, ev.Name)
			}
			arm()

		case err, ok := <-errs:
			if !ok {
				// Closed channel stays selectable; nil it out so the loop
				// stops re-drawing this case.
				errs = nil
				continue
			}
			w.log.Warn("filesystem watch error", zap.Error(err))

		case <-timerC:
			timer = nil
			timerC = nil
			if len(pending) == 0 {
				continue
			}
			batch := Batch(pending)
			select {
			case w.batches <- batch:
				pending = nil
				seen = make(map[string]bool)
			default:
				// Receiver is mid-restart; keep the batch pending and
				// retry after another window.
				arm()
			}
		}
	}
}

// addRecursive registers root and every non-ignored subdirectory.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// ignoredDir reports whether a directory name should be excluded from
// watching entirely.
func (w *Watcher) ignoredDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "__pycache__", "node_modules", "venv":
		return true
	}
	return false
}

// ignored reports whether a changed path should not trigger a restart:
// hidden files, bytecode caches, and editor temp/swap artifacts.
func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") {
		return true
	}
	if strings.HasSuffix(base, ".pyc") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "__pycache__" {
			return true
		}
	}
	return false
}
