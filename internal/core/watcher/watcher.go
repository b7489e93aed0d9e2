package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"archlens/internal/core/errors"
	"archlens/internal/shared/observability"
)

// Watcher turns raw filesystem events into debounced change batches. It
// watches the project tree recursively, picks up newly created directories
// and filters events down to tracked source files.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extFilter    map[string]bool
	nameFilter   map[string]bool
	onChange     func([]string)

	mu       sync.Mutex
	debounce time.Duration
	pending  map[string]bool
	timer    *time.Timer
}

type Options struct {
	Debounce     time.Duration
	ExcludeDirs  []string
	ExcludeFiles []string
	// Extensions and Filenames limit events to files the parser tracks.
	Extensions []string
	Filenames  []string
}

func New(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New(errors.CodeConfig, "watcher requires a change callback")
	}

	compile := func(patterns []string) ([]glob.Glob, error) {
		globs := make([]glob.Glob, 0, len(patterns))
		for _, pattern := range patterns {
			g, err := glob.Compile(pattern)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeConfig, "invalid watch exclude pattern "+pattern)
			}
			globs = append(globs, g)
		}
		return globs, nil
	}

	excludeDirs, err := compile(opts.ExcludeDirs)
	if err != nil {
		return nil, err
	}
	excludeFiles, err := compile(opts.ExcludeFiles)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create filesystem watcher")
	}

	w := &Watcher{
		fsWatcher:    fsw,
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
		extFilter:    make(map[string]bool, len(opts.Extensions)),
		nameFilter:   make(map[string]bool, len(opts.Filenames)),
		onChange:     onChange,
		debounce:     opts.Debounce,
		pending:      make(map[string]bool),
	}
	for _, ext := range opts.Extensions {
		w.extFilter[strings.ToLower(ext)] = true
	}
	for _, name := range opts.Filenames {
		w.nameFilter[strings.ToLower(name)] = true
	}

	return w, nil
}

// Watch registers root and its subdirectories and starts the event loop.
func (w *Watcher) Watch(root string) error {
	if err := w.watchRecursive(root); err != nil {
		return errors.Wrap(err, errors.CodeNotFound, "watch project tree")
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.excludedDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.excludedDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}

			if !w.tracked(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.schedule(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(paths) > 0 {
		w.onChange(paths)
	}
}

func (w *Watcher) excludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) tracked(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, g := range w.excludeFiles {
		if g.Match(base) {
			return false
		}
	}
	if w.nameFilter[base] {
		return true
	}
	if len(w.extFilter) == 0 {
		return true
	}
	return w.extFilter[strings.ToLower(filepath.Ext(base))]
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}
