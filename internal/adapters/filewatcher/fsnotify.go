// Package filewatcher provides file system monitoring adapters.
package filewatcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/linesearch-go/internal/domain/ports"
)

var _ ports.FileWatcher = (*FSNotifyWatcher)(nil)

// DefaultExtensions are watched when none are given.
var DefaultExtensions = []string{".txt", ".md", ".csv"}

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	logger     *slog.Logger
}

// NewFSNotifyWatcher creates a watcher for files with the given extensions.
func NewFSNotifyWatcher(extensions []string) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	lower := make([]string, len(extensions))
	for i, e := range extensions {
		lower[i] = strings.ToLower(e)
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: lower,
		logger:     slog.Default().With("component", "filewatcher"),
	}, nil
}

// Watch starts monitoring dir. The channel closes when ctx is done or the
// watcher is stopped.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}
				op, ok := translate(event.Op)
				if !ok {
					continue
				}
				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "dir", dir, "error", err)
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

// translate maps fsnotify ops; a rename away from the folder counts as a delete.
func translate(op fsnotify.Op) (ports.FileOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case op.Has(fsnotify.Write):
		return ports.FileModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ports.FileDeleted, true
	default:
		return 0, false
	}
}

func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(path)))
}
