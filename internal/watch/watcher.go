// Package watch feeds files dropped into a directory through the workflow
// engine. Each new file runs one standing natural-language request.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"dataforge/internal/logging"
	"dataforge/internal/workflow"
)

// Uploader is the slice of the engine the watcher needs.
type Uploader interface {
	ProcessFileUpload(ctx context.Context, extractedText, filename, request string) (*workflow.ExecutionResult, error)
}

// ResultFunc receives each completed ingestion. err carries fatal workflow
// errors; res may hold partial progress alongside err.
type ResultFunc func(filename string, res *workflow.ExecutionResult, err error)

// Watcher runs a standing request against every file created in a directory.
// Writes are debounced so a file is processed once its contents settle.
type Watcher struct {
	dir      string
	request  string
	debounce time.Duration
	engine   Uploader
	onResult ResultFunc

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir running request for each new file.
func New(dir, request string, debounce time.Duration, engine Uploader, onResult ResultFunc) *Watcher {
	return &Watcher{
		dir:      dir,
		request:  request,
		debounce: debounce,
		engine:   engine,
		onResult: onResult,
		pending:  map[string]*time.Timer{},
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	logging.Watch("watching %s (request: %q, debounce: %s)", w.dir, w.request, w.debounce)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isIngestible(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Watch("watch error: %v", err)
		}
	}
}

// schedule (re)arms the debounce timer for a path. Repeated writes while a
// file is still being copied keep pushing processing back.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.process(ctx, path)
	})
	logging.WatchDebug("scheduled %s", path)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logging.Watch("failed to read %s: %v", path, err)
		return
	}

	filename := filepath.Base(path)
	logging.Watch("ingesting %s (%d bytes)", filename, len(data))

	res, err := w.engine.ProcessFileUpload(ctx, string(data), filename, w.request)
	if err != nil {
		logging.Watch("ingestion of %s failed: %v", filename, err)
	}
	if w.onResult != nil {
		w.onResult(filename, res, err)
	}
}

// isIngestible filters to the text formats the pipeline understands.
func isIngestible(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv", ".json", ".md":
		return true
	}
	return false
}
