// Package inbox watches a drop directory and hands new files and folders to
// a callback in debounced batches.
package inbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// BatchFunc receives the paths that settled during one quiet period, sorted.
type BatchFunc func(ctx context.Context, paths []string) error

// Watcher collects entries created directly inside a directory and flushes
// them once no new event arrived for the debounce interval.
type Watcher struct {
	dir      string
	debounce time.Duration
	onBatch  BatchFunc
	logger   *slog.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	flushes chan struct{}
}

// New creates a watcher on dir. A nil logger discards output.
func New(dir string, debounce time.Duration, onBatch BatchFunc, logger *slog.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat inbox: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox %s is not a directory", dir)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onBatch:  onBatch,
		logger:   logger,
		watcher:  fw,
		pending:  make(map[string]struct{}),
		flushes:  make(chan struct{}, 1),
	}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
// Pending paths are flushed one last time before returning. Errors from
// onBatch are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			w.flush(context.WithoutCancel(ctx))
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watcher error", "error", err)

		case <-w.flushes:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if filepath.Dir(event.Name) != filepath.Clean(w.dir) || ignored(filepath.Base(event.Name)) {
		return
	}
	w.logger.Debug("inbox event", "path", event.Name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[event.Name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.flushes <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	// Entries renamed or removed before settling are dropped.
	existing := paths[:0]
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return
	}
	sort.Strings(existing)

	if err := w.onBatch(ctx, existing); err != nil {
		w.logger.Error("inbox import failed", "paths", len(existing), "error", err)
	}
}

// ignored filters editor swap files and hidden entries.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}
