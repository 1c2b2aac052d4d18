package stepform

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/stepform/pkg/ports"
)

var _ ports.Watchable = (*Engine)(nil)

// Watch signals whenever the definitions under the engine's path change.
// Cached blueprints are dropped before each signal, so the next lookup
// recompiles. Signals coalesce: a slow reader sees one pending change.
// The channel closes when ctx is done.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if e.path == "" {
		return nil, fmt.Errorf("engine has no path to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	info, err := os.Stat(e.path)
	if err != nil {
		w.Close()
		return nil, err
	}
	var file string
	if info.IsDir() {
		err = filepath.WalkDir(e.path, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return err
			}
			if p != e.path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(p)
		})
	} else {
		// Editors replace files on save, so watch the directory.
		file = filepath.Clean(e.path)
		err = w.Add(filepath.Dir(file))
	}
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", e.path, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if file != "" && filepath.Clean(ev.Name) != file {
					continue
				}
				if ev.Op == fsnotify.Chmod {
					continue
				}
				if ev.Has(fsnotify.Create) {
					if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
						_ = w.Add(ev.Name)
					}
				}
				e.logger.Debug("definitions changed", "path", ev.Name, "op", ev.Op.String())
				e.registry.Invalidate()
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				e.logger.Warn("watch error", "error", err)
			}
		}
	}()
	return changes, nil
}
