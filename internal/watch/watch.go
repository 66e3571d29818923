// Package watch rebuilds a project whenever its sources change.
//
// Filesystem events are debounced; builds run one at a time on a single
// worker, and changes arriving during a build queue at most one follow-up
// build. A failed build is logged and watching continues.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild starts.
const DefaultDebounce = 500 * time.Millisecond

// BuildFunc runs one full build.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Root is the directory watched recursively.
	Root string
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// SkipDirs are absolute directories that are never watched, such as the output directory.
	SkipDirs []string
	// Relevant filters changed paths (slash separated, relative to Root). Nil accepts every path.
	Relevant func(rel string) bool
	// InitialBuild runs a build before the first change.
	InitialBuild bool
}

// Watcher watches a project tree and triggers builds.
type Watcher struct {
	opts  Options
	build BuildFunc

	mu     sync.Mutex
	timer  *time.Timer
	builds chan struct{}
}

// New creates a Watcher.
func New(opts Options, build BuildFunc) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		opts:   opts,
		build:  build,
		builds: make(chan struct{}, 1),
	}
}

// Run watches until ctx is canceled. A build in progress at that point sees
// the canceled context and Run waits for it to return.
func (w *Watcher) Run(ctx context.Context) error {
	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	w.opts.Root = root

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	if err := w.addDirsRecursive(fsw, root); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	defer func() {
		w.stopTimer()
		wg.Wait()
	}()

	if w.opts.InitialBuild {
		w.request()
	}
	slog.Info("Watching for changes", logfields.Path(root))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopped watching")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.builds:
			slog.Info("Change detected; rebuilding")
			if err := w.build(ctx); err != nil {
				slog.Warn("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

// request queues a build unless one is already pending.
func (w *Watcher) request() {
	select {
	case w.builds <- struct{}{}:
	default:
	}
}

// trigger restarts the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.request)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if !w.skipDir(ev.Name) {
				_ = w.addDirsRecursive(fsw, ev.Name)
			}
			return
		}
	}
	if ev.Op == fsnotify.Chmod {
		return
	}
	if !w.relevant(ev.Name) {
		return
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) relevant(path string) bool {
	if shouldIgnoreFile(path) {
		return false
	}
	rel, err := filepath.Rel(w.opts.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	if w.opts.Relevant == nil {
		return true
	}
	return w.opts.Relevant(filepath.ToSlash(rel))
}

// skipDir never skips the root itself, which may also be listed in SkipDirs
// when the output directory is the project directory.
func (w *Watcher) skipDir(path string) bool {
	path = filepath.Clean(path)
	if path == filepath.Clean(w.opts.Root) {
		return false
	}
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	for _, d := range w.opts.SkipDirs {
		if path == filepath.Clean(d) {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreFile reports hidden files and editor temp/swap files.
func shouldIgnoreFile(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}
