// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package builder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tombee/teachbooks/internal/log"
)

// DefaultDebounce is the quiet period before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// ignoredDirs never trigger rebuilds; they are written by the build itself.
var ignoredDirs = []string{"_build", ".teachbooks", ".git", "__pycache__", ".ipynb_checkpoints"}

// Watcher calls OnChange after files under Root stop changing for Debounce.
// OnChange runs on the Watch goroutine, so rebuilds never overlap; changes
// made during a rebuild are collected for the next call.
type Watcher struct {
	Root     string
	Debounce time.Duration
	OnChange func(ctx context.Context, paths []string)
	Logger   *slog.Logger

	fsw *fsnotify.Watcher
}

// Watch blocks until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.OnChange == nil {
		return errors.New("watcher requires OnChange")
	}
	logger := w.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = log.WithComponent(logger, "watcher")
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	root, err := filepath.Abs(w.Root)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	w.fsw = fsw

	if err := w.addTree(root); err != nil {
		return err
	}
	logger.Info("watching for changes", "root", root)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod || shouldIgnore(root, event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						logger.Warn("failed to watch new directory", "path", event.Name, log.Error(err))
					}
				}
			}
			logger.Debug("source changed", "op", event.Op.String(), "path", event.Name)
			pending[event.Name] = struct{}{}
			timer.Reset(debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", log.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)
			w.OnChange(ctx, paths)
		}
	}
}

// addTree watches dir and every directory below it that is not ignored.
func (w *Watcher) addTree(dir string) error {
	root := w.Root
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && shouldIgnore(root, path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// shouldIgnore reports whether a change to path is build output, VCS data
// or an editor temp file.
func shouldIgnore(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if slices.Contains(ignoredDirs, part) {
			return true
		}
	}

	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case strings.HasSuffix(base, "~"):
		return true
	}
	switch filepath.Ext(base) {
	case ".swp", ".swx", ".tmp":
		return true
	}
	return false
}
