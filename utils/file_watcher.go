package utils

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of editor writes into one batch
const DefaultDebounce = 500 * time.Millisecond

// FileWatcher watches a workspace recursively and emits debounced batches of
// changed workspace-relative paths.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	// skipDir reports directories that must not be watched.
	skipDir func(relPath string) bool
	// accept reports files whose changes are emitted.
	accept func(relPath string) bool
}

// NewFileWatcher creates a watcher rooted at root.
func NewFileWatcher(root string, debounce time.Duration, skipDir, accept func(relPath string) bool) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if skipDir == nil {
		skipDir = func(string) bool { return false }
	}
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &FileWatcher{
		watcher:  w,
		root:     root,
		debounce: debounce,
		skipDir:  skipDir,
		accept:   accept,
	}, nil
}

// Watch registers every directory under root and starts emitting batches.
// Errors reported by fsnotify are passed to onError when it is not nil.
// The returned channel is closed when ctx is done or the watcher is stopped.
func (w *FileWatcher) Watch(ctx context.Context, onError func(error)) (<-chan []string, error) {
	if err := w.addTree(w.root); err != nil {
		return nil, err
	}

	batches := make(chan []string)

	go func() {
		defer close(batches)

		pending := make(map[string]bool)
		timer := time.NewTimer(w.debounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if relPath, ok := w.handleEvent(event, onError); ok {
					pending[relPath] = true
					timer.Reset(w.debounce)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				batch := make([]string, 0, len(pending))
				for p := range pending {
					batch = append(batch, p)
				}
				sort.Strings(batch)
				pending = make(map[string]bool)

				select {
				case batches <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return batches, nil
}

// Stop closes the underlying watcher
func (w *FileWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *FileWatcher) handleEvent(event fsnotify.Event, onError func(error)) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	relPath, ok := w.relative(event.Name)
	if !ok {
		return "", false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(relPath) {
				if err := w.addTree(event.Name); err != nil && onError != nil {
					onError(err)
				}
			}
			return "", false
		}
	}

	if !w.accept(relPath) {
		return "", false
	}
	return relPath, true
}

func (w *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if relPath, ok := w.relative(path); ok && relPath != "." && w.skipDir(relPath) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *FileWatcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
