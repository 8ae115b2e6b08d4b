package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType describes how a watched file changed.
type ChangeType string

const (
	Created ChangeType = "create"
	Written ChangeType = "write"
	Removed ChangeType = "remove"
	Renamed ChangeType = "rename"
)

// Change is one debounced change of a watched file.
type Change struct {
	Path string
	Type ChangeType
}

// FileWatcher watches individual files. It watches their parent
// directories so files replaced by rename are still seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(Change)
	files    map[string]bool
}

// NewFileWatcher creates a watcher for paths. Missing parent directories
// are created.
func NewFileWatcher(debounce time.Duration, onChange func(Change), paths ...string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 250 * time.Millisecond
	}
	fw := &FileWatcher{
		watcher:  w,
		debounce: debounce,
		onChange: onChange,
		files:    make(map[string]bool),
	}
	for _, p := range paths {
		if err := fw.add(p); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return fw, nil
}

func (w *FileWatcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.files[abs] = true
	return nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	var (
		mu   sync.Mutex
		last Change
	)
	debouncer := NewDebouncer(w.debounce, func() {
		mu.Lock()
		c := last
		mu.Unlock()
		if w.onChange != nil {
			w.onChange(c)
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" {
				continue
			}
			mu.Lock()
			last = Change{Path: event.Name, Type: changeType}
			mu.Unlock()
			debouncer.Trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func opToChangeType(op fsnotify.Op) ChangeType {
	switch {
	case op.Has(fsnotify.Create):
		return Created
	case op.Has(fsnotify.Write):
		return Written
	case op.Has(fsnotify.Remove):
		return Removed
	case op.Has(fsnotify.Rename):
		return Renamed
	default:
		return ""
	}
}
