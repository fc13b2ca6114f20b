package querytools

import (
	"context"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/markov"
	"github.com/ozekimasaki/lazyload/internal/pathresolver"
	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/synonym"
)

// Deps bundles everything a tool handler needs: the persistent store, the
// query-expansion and suggestion engines, and the project root used to
// build a fresh path resolver per call (storedPaths is cheap to snapshot;
// spec.md's concurrency model treats the indexer as the only writer, so a
// resolver built at request time always reflects the latest committed
// state without needing its own cache-invalidation path).
type Deps struct {
	Store     *storage.Store
	Expander  *synonym.Expander
	Engine    *markov.Engine
	Rebuilder ChainRebuilder
	Cfg       *config.Config
	Root      string
	Estimator TokenEstimator
}

// ChainRebuilder mirrors internal/indexer's ChainRebuilder interface —
// kept as its own narrow type here so this package doesn't need to import
// internal/indexer just to name the capability sync_index uses.
type ChainRebuilder interface {
	BuildAllChains(ctx context.Context) error
}

func (d *Deps) estimator() TokenEstimator {
	if d.Estimator != nil {
		return d.Estimator
	}
	return DefaultEstimator
}

// resolver builds a pathresolver.Resolver from the current file listing.
func (d *Deps) resolver(ctx context.Context) (*pathresolver.Resolver, error) {
	files, err := d.Store.ListFiles(ctx, storage.FileFilter{})
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return pathresolver.New(d.Root, paths), nil
}
