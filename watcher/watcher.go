// Package watcher emits debounced batches of file changes under a
// project tree. The develop loop uses it to rebuild and reload an
// extension module whenever a source file is saved.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wasmforge/forge/errors"
)

// Config controls debouncing and event filtering.
type Config struct {
	// Debounce is how long to wait after the last event before the
	// pending batch is emitted.
	Debounce time.Duration

	// MaxBatch caps a pending batch. Reaching the cap flushes
	// immediately instead of waiting out the debounce window.
	MaxBatch int

	// IgnorePatterns are doublestar globs matched against event paths.
	IgnorePatterns []string

	// WatchHidden includes dot files and dot directories.
	WatchHidden bool
}

// DefaultConfig returns settings suited to a scaffolded project:
// build output and editor droppings are ignored, hidden files are not
// watched.
func DefaultConfig() Config {
	return Config{
		Debounce: 300 * time.Millisecond,
		MaxBatch: 100,
		IgnorePatterns: []string{
			"**/build/**",
			"**/.git/**",
			"**/*.wasm",
			"**/*.swp",
			"**/*~",
		},
		WatchHidden: false,
	}
}

// Watcher watches a directory tree and invokes a callback with each
// debounced batch of events.
type Watcher struct {
	fsw     *fsnotify.Watcher
	batch   *batcher
	cfg     Config
	logger  *zap.Logger
	onBatch func([]Event)

	mu      sync.Mutex
	watched map[string]bool

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher. onBatch runs on the watcher's goroutine and
// must not block for long; a slow consumer delays later batches.
func New(cfg Config, logger *zap.Logger, onBatch func([]Event)) (*Watcher, error) {
	if onBatch == nil {
		return nil, errors.InvalidInput(errors.PhaseWatch, "batch callback is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 100
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.IO(errors.PhaseWatch, "create fs watcher", err)
	}

	w := &Watcher{
		fsw:     fsw,
		cfg:     cfg,
		logger:  logger,
		onBatch: onBatch,
		watched: make(map[string]bool),
		done:    make(chan struct{}),
	}
	w.batch = newBatcher(cfg.Debounce, cfg.MaxBatch, onBatch)
	return w, nil
}

// Watch registers root and every directory beneath it that is not
// ignored. Call before Start, or afterwards to watch additional trees.
func (w *Watcher) Watch(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return errors.IO(errors.PhaseWatch, "stat watch root", err)
	}
	if !info.IsDir() {
		return errors.InvalidInput(errors.PhaseWatch, "watch root is not a directory: "+root)
	}
	return w.addTree(root)
}

// Start launches the event loop. It returns once the loop is running;
// the loop exits when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop closes the underlying watcher and flushes any pending batch.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.batch.stop()
	})
	return err
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("walk failed", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.shouldIgnore(path) {
			return fs.SkipDir
		}
		return w.add(path)
	})
}

func (w *Watcher) add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watched[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return errors.IO(errors.PhaseWatch, "watch "+dir, err)
	}
	w.watched[dir] = true
	w.logger.Debug("watching directory", zap.String("dir", dir))
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// A created directory is brought under watch so saves inside it
	// are seen, including anything already written before the watch
	// took effect.
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !w.shouldIgnore(ev.Name) {
				if err := w.addTree(ev.Name); err != nil {
					w.logger.Warn("watch new directory",
						zap.String("dir", ev.Name), zap.Error(err))
				}
			}
		}
	}

	e, ok := w.convert(ev)
	if !ok {
		return
	}
	w.logger.Debug("file event", zap.String("path", e.Path), zap.Stringer("op", e.Op))
	w.batch.add(e)
}

func (w *Watcher) convert(ev fsnotify.Event) (Event, bool) {
	if w.shouldIgnore(ev.Name) {
		return Event{}, false
	}

	var op Op
	switch {
	case ev.Has(fsnotify.Create):
		op = OpCreate
	case ev.Has(fsnotify.Write):
		op = OpModify
	case ev.Has(fsnotify.Remove):
		op = OpDelete
	case ev.Has(fsnotify.Rename):
		op = OpRename
	default:
		// Chmod and other noise.
		return Event{}, false
	}

	return Event{Path: ev.Name, Op: op, At: time.Now()}, true
}

func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)

	if !w.cfg.WatchHidden && strings.HasPrefix(base, ".") {
		return true
	}

	slashed := filepath.ToSlash(path)
	for _, pattern := range w.cfg.IgnorePatterns {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
