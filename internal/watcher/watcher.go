// Package watcher keeps a workspace's engine in sync with the files on disk.
//
// It is used by `iniref watch` and embedded in the language server.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/iniref/internal/corpus"
	"github.com/aidanlsb/iniref/internal/engine"
	"github.com/aidanlsb/iniref/internal/logging"
)

// Batch describes one debounced rebuild.
type Batch struct {
	Changed        []string // workspace-relative paths upserted
	Removed        []string // workspace-relative paths removed
	SchemaReloaded bool
	Err            error // first error encountered while reading files or the schema
}

// Empty reports whether the batch touched nothing.
func (b Batch) Empty() bool {
	return len(b.Changed) == 0 && len(b.Removed) == 0 && !b.SchemaReloaded
}

// Watcher monitors a workspace for changes and applies them to its engine in
// debounced batches.
type Watcher struct {
	ws            *corpus.Workspace
	debounceDelay time.Duration

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time // absolute path -> last event
	mu        sync.Mutex

	onBatch func(Batch)
	log     *slog.Logger
}

// Config holds configuration options for the Watcher.
type Config struct {
	Workspace     *corpus.Workspace
	DebounceDelay time.Duration // Default: the manifest's watch.debounce
	OnBatch       func(Batch)   // Optional; called after each non-empty batch
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Workspace == nil {
		return nil, fmt.Errorf("workspace is required")
	}

	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = cfg.Workspace.Manifest.DebounceDuration()
	}

	return &Watcher{
		ws:            cfg.Workspace,
		debounceDelay: debounce,
		pending:       make(map[string]time.Time),
		onBatch:       cfg.OnBatch,
		log:           logging.Component("watcher"),
	}, nil
}

// Start watches the workspace until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.ws.Root); err != nil {
		return fmt.Errorf("failed to watch workspace: %w", err)
	}
	if schema := w.ws.Manifest.SchemaPath(w.ws.Root); schema != "" {
		// The schema may live outside the workspace tree.
		if err := w.fsWatcher.Add(filepath.Dir(schema)); err != nil {
			w.log.Debug("failed to watch schema directory", "path", schema, "error", err)
		}
	}
	w.log.Debug("watching workspace", "root", w.ws.Root, "debounce", w.debounceDelay)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addWatchRecursive(path); err != nil {
				w.log.Debug("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !w.ws.IsSchemaFile(path) && !w.ws.Accepts(path) {
		return
	}

	w.log.Debug("event", "op", event.Op.String(), "path", path)
	w.Schedule(path)
}

// Schedule queues path for the next batch. Repeated events for the same path
// restart its debounce.
func (w *Watcher) Schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Flush(false)
		}
	}
}

// Flush applies the pending paths whose debounce has elapsed, or all of them
// when force is set, as one engine batch.
func (w *Watcher) Flush(force bool) Batch {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.pending {
		if force || now.Sub(at) >= w.debounceDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(ready) == 0 {
		return Batch{}
	}
	sort.Strings(ready)

	start := time.Now()
	batch := w.apply(ready)
	if batch.Empty() {
		return batch
	}
	w.log.Debug("applied batch",
		"changed", len(batch.Changed),
		"removed", len(batch.Removed),
		"schema", batch.SchemaReloaded,
		"duration_ms", time.Since(start).Milliseconds())
	if batch.Err != nil {
		w.log.Warn("batch finished with errors", "error", batch.Err)
	}
	if w.onBatch != nil {
		w.onBatch(batch)
	}
	return batch
}

func (w *Watcher) apply(paths []string) Batch {
	var batch Batch
	var changes []engine.Change

	for _, path := range paths {
		if w.ws.IsSchemaFile(path) {
			if err := w.ws.ReloadSchema(); err != nil {
				batch.Err = firstErr(batch.Err, err)
				continue
			}
			batch.SchemaReloaded = true
			continue
		}

		rel := w.ws.Rel(path)
		file, err := w.ws.Load(path)
		switch {
		case err == nil:
			changes = append(changes, engine.Change{Kind: engine.ChangeUpsert, File: file})
			batch.Changed = append(batch.Changed, rel)
		case errors.Is(err, fs.ErrNotExist):
			changes = append(changes, engine.Change{Kind: engine.ChangeRemove, File: engine.File{Path: rel}})
			batch.Removed = append(batch.Removed, rel)
		default:
			batch.Err = firstErr(batch.Err, err)
		}
	}

	if len(changes) > 0 && w.ws.Engine.ApplyChanges(changes) == 0 {
		// Every change was a no-op (same content, or removal of an unknown file).
		batch.Changed, batch.Removed = nil, nil
	}
	return batch
}

func firstErr(existing, err error) error {
	if existing != nil {
		return existing
	}
	return err
}

func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.ws.Root && w.shouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.log.Debug("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) shouldIgnoreDir(path string) bool {
	base := filepath.Base(path)
	if base == ".iniref" || base == ".git" || base == "node_modules" {
		return true
	}
	return w.ws.Matcher.Excluded(w.ws.Rel(path) + "/")
}
