package indexer

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors one or more roots for changes and drives incremental
// indexFile/removeFile calls through a debouncer, following the
// fsnotify + per-path debounce shape of the teacher's
// internal/indexing/watcher.go FileWatcher/eventDebouncer pair.
type Watcher struct {
	idx      *Indexer
	fsw      *fsnotify.Watcher
	debounce time.Duration
	scanners map[string]*scanner // root -> scanner, for gitignore/include/exclude filtering

	mu      sync.Mutex
	pending map[string]bool // path -> isRemoval
	timer   *time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher builds a watcher over roots, using the same include/exclude
// rules IndexDirectory would apply to each root.
func NewWatcher(idx *Indexer, roots []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	debounceMs := idx.cfg.WatchDebounceMs
	if debounceMs <= 0 {
		debounceMs = 250
	}

	scanners := make(map[string]*scanner, len(roots))
	for _, root := range roots {
		scanners[root] = newScanner(root, idx.cfg.Include, idx.cfg.Exclude, idx.registry)
	}

	return &Watcher{
		idx:      idx,
		fsw:      fsw,
		debounce: time.Duration(debounceMs) * time.Millisecond,
		scanners: scanners,
		pending:  make(map[string]bool),
	}, nil
}

// Start begins watching every configured root's directory tree and
// processing events until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for root := range w.scanners {
		if err := w.addWatches(root); err != nil {
			cancel()
			return err
		}
	}

	w.wg.Add(1)
	go w.processEvents(ctx)
	return nil
}

// Stop closes the underlying fsnotify watcher and waits for the event
// loop to exit. Pending debounced events are intentionally dropped, the
// same "don't flush on shutdown" choice the teacher documents to avoid
// racing against index teardown.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if rel != "." && (d.Name() == ".git" || w.scanners[root].gitignore.shouldIgnore(filepath.ToSlash(rel), true)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("watch: failed to add %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err != nil {
				log.Printf("watch: failed to add new directory %s: %v", ev.Name, err)
			}
			return
		}
	}

	isRemoval := ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0
	if !isRemoval && !w.shouldProcess(ev.Name) {
		return
	}

	w.mu.Lock()
	w.pending[ev.Name] = isRemoval
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
	w.mu.Unlock()
}

func (w *Watcher) shouldProcess(path string) bool {
	for root, sc := range w.scanners {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if sc.shouldProcess(filepath.ToSlash(rel), path) {
			return true
		}
	}
	return false
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.pending
	w.pending = make(map[string]bool)
	w.mu.Unlock()
	if len(events) == 0 {
		return
	}

	ctx := context.Background()
	for path, removed := range events {
		var err error
		if removed {
			err = w.idx.RemoveFile(ctx, path)
		} else {
			_, err = w.idx.IndexFile(ctx, path)
		}
		if err != nil {
			log.Printf("watch: failed to process %s: %v", path, err)
		}
	}
}
