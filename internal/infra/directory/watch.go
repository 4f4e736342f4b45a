package directory

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads path into m whenever the file changes, until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are still observed. A reload that fails to parse keeps the current content.
func Watch(ctx context.Context, path string, m *Memory) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving directory file path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	go watchLoop(ctx, w, abs, m)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, m *Memory) {
	defer w.Close()

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, func() { reload(path, m) })
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("directory watcher stopped", "path", path)
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				slog.Debug("directory file changed", "path", path, "op", ev.Op.String())
				schedule()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("directory watcher error", "path", path, "error", err)
		}
	}
}

func reload(path string, m *Memory) {
	rs, err := LoadFile(path)
	if err != nil {
		slog.Error("directory reload failed; keeping previous recipients", "path", path, "error", err)
		return
	}
	m.Replace(rs)
	slog.Info("directory reloaded", "path", path, "recipients", len(rs))
}
