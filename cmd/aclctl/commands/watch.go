// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tauri-apps/tauri-sub008/cmd/aclctl/cli"
	"github.com/tauri-apps/tauri-sub008/lib/config"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
	"github.com/tauri-apps/tauri-sub008/lib/snapshot"
)

type watchParams struct {
	configParams
	Debounce time.Duration `json:"debounce" flag:"debounce" desc:"quiet period after the last change before re-resolving" default:"300ms"`
}

func watchCommand() *cli.Command {
	var params watchParams

	return &cli.Command{
		Name:    "watch",
		Summary: "Re-resolve whenever capability or permission files change",
		Description: `Resolve once, then watch the capability, app permission, and plugin
directories and re-resolve after every change. Each successful
resolution rewrites the snapshot and logs which grants and denials
changed. A failed resolution is logged and leaves the last good
snapshot in place.

Runs until interrupted.`,
		Usage:  "aclctl watch [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("watch takes no positional arguments, got %q", args[0])
			}
			cfg, err := params.load()
			if err != nil {
				return err
			}
			compression, err := snapshot.ParseCompression(cfg.Snapshot.Compression)
			if err != nil {
				return err
			}
			if err := cfg.EnsurePaths(); err != nil {
				return err
			}

			rebuilder := &rebuilder{config: cfg, compression: compression, logger: logger}
			previous, err := readPrevious(cfg.Paths.Snapshot, logger)
			if err != nil {
				return err
			}
			rebuilder.current = previous
			rebuilder.rebuild()

			watcher, err := newTreeWatcher(logger, cfg.Paths.Capabilities, cfg.Paths.AppPermissions, cfg.Paths.Plugins)
			if err != nil {
				return err
			}
			logger.Info("watching for changes", "paths", watcher.roots)
			return watcher.run(ctx, params.Debounce, rebuilder.rebuild)
		},
	}
}

// rebuilder re-resolves the workspace and rewrites the snapshot.
type rebuilder struct {
	config      *config.Config
	compression snapshot.Compression
	logger      *slog.Logger

	// current is the last table written, for change reports.
	current *resolve.Table
}

func (r *rebuilder) rebuild() {
	work, err := loadWorkspace(r.config)
	if err != nil {
		r.logger.Error("loading configuration failed", "error", err)
		return
	}
	table, err := work.resolve(r.logger)
	if err != nil {
		r.logger.Error("resolution failed, keeping last snapshot", "error", err)
		return
	}
	header, err := snapshot.WriteFile(r.config.Paths.Snapshot, table, r.compression)
	if err != nil {
		r.logger.Error("writing snapshot failed", "path", r.config.Paths.Snapshot, "error", err)
		return
	}

	summary := summarize(resolve.Compare(r.current, table))
	r.current = table
	r.logger.Info("resolved",
		"fingerprint", header.Fingerprint(),
		"allowed", len(table.Allowed),
		"denied", len(table.Denied),
		"granted", summary.Granted,
		"revoked", summary.Revoked,
		"denied_added", summary.Denied,
		"denied_removed", summary.Undenied,
		"changed", summary.Changed,
		"scopes_changed", summary.ScopesChanged,
	)
}

// treeWatcher watches directory trees for changes. fsnotify watches
// are not recursive, so every subdirectory is added explicitly and
// directories created later are added as they appear.
type treeWatcher struct {
	watcher *fsnotify.Watcher
	roots   []string
	logger  *slog.Logger
}

// newTreeWatcher watches each existing root and its subdirectories.
// Empty and missing roots are skipped.
func newTreeWatcher(logger *slog.Logger, roots ...string) (*treeWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	tree := &treeWatcher{watcher: watcher, logger: logger}
	for _, root := range roots {
		if root == "" {
			continue
		}
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := tree.addTree(root); err != nil {
			watcher.Close()
			return nil, err
		}
		tree.roots = append(tree.roots, root)
	}
	return tree, nil
}

func (w *treeWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// run calls onChange once per burst of changes, after debounce has
// passed without another event. onChange runs on the calling
// goroutine. Blocks until ctx is cancelled.
func (w *treeWatcher) run(ctx context.Context, debounce time.Duration, onChange func()) error {
	defer w.watcher.Close()

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("cannot watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
