package sources

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/extract"
)

// DefaultDebounce is how long a file must stay quiet before it is re-ingested.
const DefaultDebounce = time.Second

// FolderWatcher re-ingests files of a folder when they change.
type FolderWatcher struct {
	sync     *FolderSync
	folder   Folder
	debounce time.Duration

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewFolderWatcher creates a watcher for folder. Non-positive debounce selects DefaultDebounce.
func NewFolderWatcher(s *FolderSync, folder Folder, debounce time.Duration) *FolderWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FolderWatcher{
		sync:     s,
		folder:   folder,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
	}
}

// Start watches the folder tree and processes events until Stop is called or
// ctx is cancelled. Watches are in place when Start returns.
func (w *FolderWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w.watcher = watcher

	if err := w.addRecursive(w.folder.Root); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("add watch paths: %w", err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.eventLoop(ctx)

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "watching folder", "root", w.folder.Root, "tenant", w.folder.Tenant)
	return nil
}

// Stop ends the event loop and drops pending re-ingestions.
func (w *FolderWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.watcher != nil {
		_ = w.watcher.Close()
	}

	w.mu.Lock()
	w.stopped = true
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *FolderWatcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()
	logger := contextutil.LoggerFromContext(ctx)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.WarnContext(ctx, "watch error", "root", w.folder.Root, "error", err)

		case <-ctx.Done():
			return
		}
	}
}

func (w *FolderWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if isHidden(filepath.Base(event.Name)) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(event.Name)
			return
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		// Removed files keep their notes until re-synced.
		return
	}
	if !extract.Supported(event.Name) {
		return
	}
	w.schedule(ctx, event.Name)
}

// schedule re-ingests path once it has been quiet for the debounce delay.
func (w *FolderWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok && t.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
	w.timers[path] = t
}

func (w *FolderWatcher) ingest(ctx context.Context, path string) {
	logger := contextutil.LoggerFromContext(ctx)
	if ctx.Err() != nil {
		return
	}

	res, err := w.sync.IngestFile(ctx, w.folder, path)
	if err != nil {
		logger.ErrorContext(ctx, "failed to re-ingest changed file", "path", path, "error", err)
		return
	}
	logger.InfoContext(ctx, "re-ingested changed file", "path", path, "note_id", res.Note.ID, "chunks", res.ChunkCount)
}

func (w *FolderWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
