package buildcmder

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/composable-science/cli/pkg/pipeline"
	"github.com/composable-science/cli/pkg/project"
)

// debounceWindow coalesces filesystem event bursts (editors write
// temp files, then rename) into a single rebuild.
const debounceWindow = 300 * time.Millisecond

// runWatch rebuilds whenever a file under the project root changes,
// until the context is cancelled. Build failures are reported and
// watching continues; only watcher errors end the loop.
func runWatch(ctx context.Context, proj *project.Project, build func(context.Context) error, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watchTree(watcher, proj.Root); err != nil {
		return err
	}

	log.Info("watching for changes", "root", proj.Root)

	if err := build(ctx); err != nil {
		reportWatchFailure(log, err)
	}

	debounce := time.NewTimer(debounceWindow)
	if !debounce.Stop() {
		<-debounce.C
	}
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignored(proj.Root, event.Name) {
				continue
			}
			// New directories need their own watch.
			if event.Op.Has(fsnotify.Create) {
				_ = watchTree(watcher, event.Name)
			}
			dirty = true
			debounce.Reset(debounceWindow)

		case <-debounce.C:
			if !dirty {
				continue
			}
			dirty = false
			log.Info("change detected, rebuilding")
			if err := build(ctx); err != nil {
				reportWatchFailure(log, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func reportWatchFailure(log *slog.Logger, err error) {
	var exitErr *pipeline.ExitError
	if errors.As(err, &exitErr) {
		log.Error("build failed", "exit_code", exitErr.Code, "error", exitErr.Err)
		return
	}
	log.Error("build failed", "error", err)
}

// watchTree registers root and every directory under it, skipping the
// .csf/ state directory and hidden VCS directories.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if skipDir(d.Name()) && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func ignored(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if skipDir(part) {
			return true
		}
	}
	return false
}

func skipDir(name string) bool {
	return name == ".csf" || name == ".git" || name == ".hg"
}
