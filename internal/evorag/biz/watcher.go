package biz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
)

// DocumentIngester is the part of IngestionPipeline the watcher drives.
type DocumentIngester interface {
	ProcessDocument(ctx context.Context, path string) (*IngestResult, error)
	DeleteDocument(ctx context.Context, source string) (DeleteOutcome, error)
}

// Watcher keeps a directory in sync with the vector store: created or
// written files are ingested, removed or renamed files are deleted.
// Events for the same path are coalesced over Debounce.
type Watcher struct {
	ingester DocumentIngester
	supports func(path string) bool
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewWatcher 创建目录监听器。supports 过滤可转换的文件。
func NewWatcher(ingester DocumentIngester, supports func(path string) bool, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		ingester: ingester,
		supports: supports,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches dir (non-recursively) until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Infow("Watching directory", "dir", dir, "debounce", w.debounce.String())

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				w.stop()
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				w.stop()
				return nil
			}
			logger.Warnw("Watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !w.supports(ev.Name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write),
		ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.schedule(ctx, ev.Name)
	}
}

// schedule (re)arms the timer for path; the action is decided when it fires
// from whether the file still exists.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		if !t.Reset(w.debounce) {
			// already fired and waiting for mu; it will run once more
			w.wg.Add(1)
		}
		return
	}
	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.sync(ctx, path)
	})
}

func (w *Watcher) sync(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		outcome, err := w.ingester.DeleteDocument(ctx, filepath.Base(path))
		if err != nil {
			logger.Errorw("Auto-delete failed", "path", path, "error", err.Error())
			return
		}
		logger.Infow("Auto-delete", "path", path, "outcome", string(outcome))
		return
	}

	res, err := w.ingester.ProcessDocument(ctx, path)
	if err != nil {
		logger.Errorw("Auto-ingest failed", "path", path, "error", err.Error())
		return
	}
	logger.Infow("Auto-ingest", "path", path, "status", string(res.Status), "chunks", res.ChunkCount)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
