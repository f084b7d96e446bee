// Package watcher imports glossary files dropped into watched directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/glossary/pkg/utils"
)

const defaultDebounce = 400 * time.Millisecond

// Handler receives settled file events. Calls may arrive from several goroutines.
type Handler interface {
	// FileChanged is called once a matching file has stopped changing.
	FileChanged(path string)
	// FileRemoved is called when a matching file disappears.
	FileRemoved(path string)
}

// HandlerFuncs adapts plain functions to Handler. Nil functions are skipped.
type HandlerFuncs struct {
	Changed func(path string)
	Removed func(path string)
}

// FileChanged implements Handler.
func (h HandlerFuncs) FileChanged(path string) {
	if h.Changed != nil {
		h.Changed(path)
	}
}

// FileRemoved implements Handler.
func (h HandlerFuncs) FileRemoved(path string) {
	if h.Removed != nil {
		h.Removed(path)
	}
}

// Watcher watches directory trees and reports glossary file changes to a Handler.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	handler    Handler
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	done    chan struct{}
	stop    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = utils.OrNop(l) }
}

// WithDebounce sets how long a file must be quiet before it is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher over roots. extensions filters reported files
// (empty = all).
func NewWatcher(roots, extensions []string, recursive bool, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      roots,
		extensions: extensions,
		recursive:  recursive,
		handler:    handler,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Missing roots are created. It returns once the watches
// are installed; events are handled until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := os.MkdirAll(root, 0755); err != nil {
			_ = fsw.Close()
			return err
		}
		if err := w.watchTree(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	w.logger.Debug("watcher started",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive),
	)
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) watchTree(fsw *fsnotify.Watcher, root string) error {
	if !w.recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if ev.Has(fsnotify.Create) && w.recursive {
				w.handleNewDirectory(fsw, path)
			}
			return
		}
		if matchExtension(path, w.extensions) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(path)
		if matchExtension(path, w.extensions) {
			w.handler.FileRemoved(path)
		}
	}
}

// handleNewDirectory watches a directory created (or moved) under a root and
// reports the files already inside it.
func (w *Watcher) handleNewDirectory(fsw *fsnotify.Watcher, dir string) {
	if err := w.watchTree(fsw, dir); err != nil {
		w.logger.Debug("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
	}
	w.syncTree(dir)
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.handler.FileChanged(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) syncTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExtension(path, w.extensions) {
			w.handler.FileChanged(path)
		}
		return nil
	})
}

// SyncExistingFiles reports every matching file already present under the roots.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.roots {
		w.syncTree(root)
	}
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	return append([]string(nil), w.roots...)
}

// Stop stops the watcher and drops pending notifications.
func (w *Watcher) Stop() {
	w.stop.Do(func() {
		w.mu.Lock()
		for path, t := range w.pending {
			t.Stop()
			delete(w.pending, path)
		}
		fsw := w.fsw
		w.mu.Unlock()
		close(w.done)
		if fsw != nil {
			_ = fsw.Close()
		}
	})
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
