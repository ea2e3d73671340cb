// Package watch reloads the icon catalog and sources when they change on
// disk.
package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/iconpark/pkg/util"
)

// DefaultDebounce groups bursts of events (editors, git checkouts) into one
// reload.
const DefaultDebounce = 200 * time.Millisecond

// ReloadFunc is called with the sorted set of changed paths once events
// settle.
type ReloadFunc func(changed []string) error

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration

	// Extensions lists the file extensions that trigger a reload.
	Extensions []string

	// Ignore holds doublestar patterns matched against base names.
	Ignore []string
}

// DefaultOptions reacts to icon sources and catalog files.
func DefaultOptions() Options {
	return Options{
		Debounce:   DefaultDebounce,
		Extensions: []string{".svg", ".json"},
		Ignore:     []string{".*", "*~", "*.tmp"},
	}
}

// Stats describes watcher activity.
type Stats struct {
	Reloads   int64
	Failures  int64
	Pending   int
	IsRunning bool
}

// Watcher watches directories and files and calls a ReloadFunc after
// changes settle. One reload runs at a time.
type Watcher struct {
	fsw    *fsnotify.Watcher
	reload ReloadFunc
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool

	reloadMu sync.Mutex
	reloads  atomic.Int64
	failures atomic.Int64

	stopCh chan struct{}
	done   chan struct{}
}

// New creates a Watcher. Call Add for each path, then Start.
func New(reload ReloadFunc, opts Options, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultOptions().Extensions
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			fsw.Close()
			return nil, fmt.Errorf("invalid ignore pattern: %s", pattern)
		}
	}
	return &Watcher{
		fsw:     fsw,
		reload:  reload,
		opts:    opts,
		logger:  util.OrDefault(logger),
		pending: make(map[string]struct{}),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Add watches path. Directories are watched recursively; for a file its
// parent directory is watched, which also survives editors that replace the
// file on save.
func (w *Watcher) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	if !info.IsDir() {
		return w.addDir(filepath.Dir(path))
	}
	return w.addTree(path)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.ignored(p) {
			return filepath.SkipDir
		}
		return w.addDir(p)
	})
}

func (w *Watcher) addDir(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Debug("watching directory", "path", dir)
	return nil
}

// Start runs the event loop in the background.
func (w *Watcher) Start() {
	w.logger.Info("file watcher started", "paths", w.fsw.WatchList())
	go w.eventLoop()
}

// Stop ends the event loop and cancels a pending reload. It is idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	clear(w.pending)
	close(w.stopCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.logger.Info("file watcher stopped")
	return err
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Reloads:   w.reloads.Load(),
		Failures:  w.failures.Load(),
		Pending:   len(w.pending),
		IsRunning: !w.stopped,
	}
}

func (w *Watcher) eventLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}
	if !w.relevant(event.Name) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("file event", "op", event.Op.String(), "file", event.Name)
	w.schedule(event.Name)
}

// schedule records path and (re)arms the debounce timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	clear(w.pending)
	w.timer = nil
	w.mu.Unlock()

	slices.Sort(changed)

	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	start := time.Now()
	if err := w.reload(changed); err != nil {
		w.failures.Add(1)
		w.logger.Error("reload failed, keeping previous icons", "changed", len(changed), "error", err)
		return
	}
	w.reloads.Add(1)
	w.logger.Info("reloaded icons", "changed", len(changed), "duration", time.Since(start))
}

func (w *Watcher) relevant(path string) bool {
	return slices.Contains(w.opts.Extensions, strings.ToLower(filepath.Ext(path)))
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	switch base {
	case "node_modules", ".git":
		return true
	}
	for _, pattern := range w.opts.Ignore {
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
