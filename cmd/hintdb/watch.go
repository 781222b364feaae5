package main

import (
	"context"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/haansn08/autorewrite/internal/ruleset"
)

// runWatch rewrites the term once, then re-runs whenever the rule file is
// rewritten on disk. Editors replace files by rename, so the parent
// directory is watched and events are filtered by path.
func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(rulesPath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	reload := func() {
		store, err := ruleset.LoadFile(abs)
		if err != nil {
			slog.Error("reload failed", "file", abs, "err", err)
			return
		}
		if err := rewriteOnce(store, args[0]); err != nil {
			slog.Error("rewrite failed", "err", err)
		}
	}
	reload()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				slog.Info("rule file changed, reloading", "file", abs)
				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "err", err)
		}
	}
}
