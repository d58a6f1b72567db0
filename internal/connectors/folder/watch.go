package folder

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/logger"
)

// Watch implements driven.Watcher. It emits the path of every file created
// or written under the configured root until the context is cancelled.
// Directories created after the watch starts are added to the watch set so
// nested changes keep flowing.
func (c *Connector) Watch(ctx context.Context) (<-chan string, error) {
	root := c.params["path"]
	if root == "" {
		return nil, fmt.Errorf("%w: path", domain.ErrMissingParameter)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addRecursive(watcher, root); err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer watcher.Close()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
					continue
				}
				if ignoredNames[filepath.Base(event.Name)] {
					continue
				}
				if isDir(event.Name) {
					if err := addRecursive(watcher, event.Name); err != nil {
						logger.Warn("folder: cannot watch %s: %v", event.Name, err)
					}
					continue
				}
				select {
				case out <- event.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("folder: watch error: %v", err)
			}
		}
	}()
	return out, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// addRecursive registers every directory under root with the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
