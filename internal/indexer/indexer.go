// Package indexer drives the directory scan / parse / persist pipeline:
// indexDirectory and indexFile from spec.md §4.6. It owns the sole writer
// path into storage, parallelizing the CPU-bound parse step across worker
// goroutines the way the teacher's pipeline.go fans file parsing out with
// golang.org/x/sync/errgroup before funneling results back to a single
// writer.
package indexer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ozekimasaki/lazyload/internal/config"
	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
	"github.com/ozekimasaki/lazyload/internal/importresolver"
	"github.com/ozekimasaki/lazyload/internal/parser"
	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// ChainRebuilder is the subset of internal/markov's surface the indexer
// needs to trigger a rebuild after a large enough batch of changes. Kept
// as a narrow interface here rather than importing internal/markov
// directly, so the dependency points the natural way: markov depends on
// storage, indexer depends on an interface markov happens to satisfy.
type ChainRebuilder interface {
	BuildAllChains(ctx context.Context) error
}

// FileError records one file-level failure inside an indexDirectory batch.
// Per spec.md §4.6's failure model, these never abort the batch.
type FileError struct {
	Path    string
	Message string
}

// Result is what indexDirectory returns, per spec.md §4.6.
type Result struct {
	TotalFiles   int
	IndexedFiles int
	SkippedFiles int
	Errors       []FileError
	DurationMs   int64
}

// Indexer is the top-level indexing pipeline: one per process, holding the
// single writer connection (via Store), the parser registry and the
// configured resolvers.
type Indexer struct {
	store     *storage.Store
	registry  *parser.Registry
	cfg       *config.Config
	rebuilder ChainRebuilder
	workers   int
}

func New(store *storage.Store, registry *parser.Registry, cfg *config.Config, rebuilder ChainRebuilder) *Indexer {
	workers := cfg.ParallelFileWorkers
	if workers <= 0 {
		workers = 4
	}
	return &Indexer{store: store, registry: registry, cfg: cfg, rebuilder: rebuilder, workers: workers}
}

// IndexDirectory walks root (or every configured directory if root is
// empty), parses every candidate file in parallel, and commits each via
// IndexFile. After the batch, it runs resolveSymbolReferences and, if
// autoRebuild is on and enough files actually changed, rebuilds the
// Markov chains — spec.md §4.6's "incremental sync semantics".
func (idx *Indexer) IndexDirectory(ctx context.Context, root string) (*Result, error) {
	start := time.Now()
	roots := idx.cfg.Directories
	if root != "" {
		roots = []string{root}
	}

	var candidates []string
	for _, r := range roots {
		sc := newScanner(r, idx.cfg.Include, idx.cfg.Exclude, idx.registry)
		if err := sc.walk(func(path string) error {
			candidates = append(candidates, path)
			return nil
		}); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r, err)
		}
	}

	result := &Result{TotalFiles: len(candidates)}
	var mu sync.Mutex
	changed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	for _, path := range candidates {
		path := path
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil // cancellation: finish in-flight work, drop the rest
			}
			didWrite, err := idx.IndexFile(gctx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if _, fatal := err.(*lzerrors.StorageError); fatal {
					return err // storage errors are fatal per spec.md §4.6
				}
				result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
				return nil
			}
			if didWrite {
				result.IndexedFiles++
				changed++
			} else {
				result.SkippedFiles++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	if _, err := idx.store.ResolveSymbolReferences(ctx); err != nil {
		return result, err
	}

	if idx.cfg.Markov.AutoRebuild && idx.rebuilder != nil && changed >= idx.cfg.AutoRebuildThreshold {
		if err := idx.rebuilder.BuildAllChains(ctx); err != nil {
			return result, err
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// IndexFile reads path, checksum-gates against the stored row, parses it
// on a cache miss, resolves its imports, and writes the result via
// PutFile. Returns false without writing when the checksum is unchanged
// or no parser handles the extension — spec.md §4.6, testable property 1.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (bool, error) {
	p := idx.registry.For(path)
	if p == nil {
		return false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	checksum := checksumOf(content)

	if existing, ok, err := idx.store.GetFile(ctx, path); err != nil {
		return false, err
	} else if ok && existing.Checksum == checksum {
		return false, nil
	}

	lang, _ := parser.LanguageFor(path)
	result := p.Parse(path, content)

	status := types.ParseComplete
	if result.Errored {
		status = types.ParseErrored
	}
	for _, w := range result.Warnings {
		if w.Code == "FILE_TOO_LARGE" {
			status = types.ParseSkipped
		}
	}

	resolver := importresolver.New(importresolver.Options{
		Language: lang,
		Root:     idx.cfg.Directories[0],
	})
	for i := range result.Imports {
		resolver.Resolve(&result.Imports[i], path)
	}

	fileIndex := types.FileIndex{
		File: types.FileEntry{
			Path:        path,
			Language:    lang,
			Checksum:    checksum,
			ModifiedAt:  time.Now(),
			LineCount:   countLines(content),
			ByteSize:    int64(len(content)),
			ParseStatus: status,
			Warnings:    result.Warnings,
		},
		Symbols:    result.Symbols,
		Imports:    result.Imports,
		Exports:    result.Exports,
		References: result.References,
		Calls:      result.Calls,
		TypeRels:   result.TypeRels,
	}

	if err := idx.store.PutFile(ctx, fileIndex); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveFile deletes path and everything derived from it, the
// putFile(null)-equivalent operation spec.md §4.6 describes.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	return idx.store.RemoveFile(ctx, path)
}

func checksumOf(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 1
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	return n
}
