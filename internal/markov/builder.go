// Package markov builds and queries the four weighted transition chains
// spec.md §4.8 names (call_flow, cooccurrence, type_affinity, import_cluster)
// over the symbol/reference/type/import data internal/storage persists.
// The traversal idiom — walking a graph of states accumulating a decayed
// score per hop — is grounded on the teacher's
// internal/core/graph_propagator.go GraphPropagator, whose ModeDecay mode
// is the same "strength decays per hop, PageRank-style" shape as the
// random-walk query engine here; this package narrows that general
// multi-mode propagator down to the single decay-weighted walk the chains
// need.
package markov

import (
	"context"
	"sort"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// Builder rebuilds all four chains from storage and persists them via
// storage.Store.ReplaceChain. It implements internal/indexer's
// ChainRebuilder interface so the indexer can trigger a rebuild after a
// large enough batch of file changes.
type Builder struct {
	store *storage.Store
	cfg   config.MarkovConfig
}

func NewBuilder(store *storage.Store, cfg config.MarkovConfig) *Builder {
	return &Builder{store: store, cfg: cfg}
}

// BuildAllChains rebuilds every chain in sequence. A failure on one chain
// does not block the others — each chain is independently useful to the
// query engine, so a partial rebuild is still progress.
func (b *Builder) BuildAllChains(ctx context.Context) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(b.buildCallFlow(ctx))
	record(b.buildCooccurrence(ctx))
	record(b.buildTypeAffinity(ctx))
	record(b.buildImportCluster(ctx))
	return firstErr
}

// rawCounts accumulates directed edge counts before normalization, keyed
// by fromState and then toState. Self-edges are never recorded.
type rawCounts map[string]map[string]int

func (c rawCounts) add(from, to string, n int) {
	if from == to {
		return
	}
	row, ok := c[from]
	if !ok {
		row = make(map[string]int)
		c[from] = row
	}
	row[to] += n
}

// normalize turns raw per-fromState counts into probability-normalized
// transitions, per spec.md §4.8: probability = rawCount / ∑rawCount over
// that fromState's outgoing edges.
func normalize(chainType types.ChainType, counts rawCounts) []types.MarkovTransition {
	var out []types.MarkovTransition
	for from, row := range counts {
		var total int
		for _, n := range row {
			total += n
		}
		if total == 0 {
			continue
		}
		for to, n := range row {
			out = append(out, types.MarkovTransition{
				ChainID:     chainType,
				FromState:   from,
				ToState:     to,
				RawCount:    n,
				Probability: float64(n) / float64(total),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromState != out[j].FromState {
			return out[i].FromState < out[j].FromState
		}
		return out[i].ToState < out[j].ToState
	})
	return out
}

func (b *Builder) buildCallFlow(ctx context.Context) error {
	edges, err := b.store.ListResolvedCallEdges(ctx)
	if err != nil {
		return err
	}
	counts := make(rawCounts)
	for _, e := range edges {
		n := e.CallCount
		if n <= 0 {
			n = 1
		}
		counts.add(string(e.CallerSymbolID), string(e.CalleeSymbolID), n)
	}
	return b.store.ReplaceChain(ctx, types.ChainCallFlow, normalize(types.ChainCallFlow, counts))
}

// buildCooccurrence adds +1 in both directions for every pair of distinct
// symbols referenced within the same grouping unit (file or enclosing
// function, per cfg.CooccurrenceScope — spec.md §9's open question,
// defaulting to file-level).
func (b *Builder) buildCooccurrence(ctx context.Context) error {
	occurrences, err := b.store.ListResolvedReferenceOccurrences(ctx)
	if err != nil {
		return err
	}

	groups := make(map[string]map[string]bool)
	groupKey := func(o storage.ReferenceOccurrence) string {
		if b.cfg.CooccurrenceScope == "function" && o.EnclosingSymbolID != "" {
			return "fn:" + o.EnclosingSymbolID
		}
		return "file:" + o.FilePath
	}
	for _, o := range occurrences {
		key := groupKey(o)
		members, ok := groups[key]
		if !ok {
			members = make(map[string]bool)
			groups[key] = members
		}
		members[o.SymbolID] = true
	}

	counts := make(rawCounts)
	for _, members := range groups {
		symbols := make([]string, 0, len(members))
		for s := range members {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)
		for i := 0; i < len(symbols); i++ {
			for j := i + 1; j < len(symbols); j++ {
				counts.add(symbols[i], symbols[j], 1)
				counts.add(symbols[j], symbols[i], 1)
			}
		}
	}
	return b.store.ReplaceChain(ctx, types.ChainCooccurrence, normalize(types.ChainCooccurrence, counts))
}

// buildTypeAffinity links type base names that co-occur as the parameter
// or return types of the same function (return type included as one more
// member of that function's type set).
func (b *Builder) buildTypeAffinity(ctx context.Context) error {
	sigs, err := b.store.ListSymbolTypeSignatures(ctx)
	if err != nil {
		return err
	}

	counts := make(rawCounts)
	for _, sig := range sigs {
		typeSet := make(map[string]bool)
		if sig.ReturnBase != "" {
			typeSet[sig.ReturnBase] = true
		}
		for _, p := range sig.ParamBases {
			if p != "" {
				typeSet[p] = true
			}
		}
		members := make([]string, 0, len(typeSet))
		for t := range typeSet {
			members = append(members, t)
		}
		sort.Strings(members)
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				counts.add(members[i], members[j], 1)
				counts.add(members[j], members[i], 1)
			}
		}
	}
	return b.store.ReplaceChain(ctx, types.ChainTypeAffinity, normalize(types.ChainTypeAffinity, counts))
}

// buildImportCluster links files whose imports share a target module,
// weighted by how many such shared targets the two files have.
func (b *Builder) buildImportCluster(ctx context.Context) error {
	imports, err := b.store.ListImportTargets(ctx)
	if err != nil {
		return err
	}

	byTarget := make(map[string]map[string]bool)
	for _, imp := range imports {
		if imp.Target == "" {
			continue
		}
		files, ok := byTarget[imp.Target]
		if !ok {
			files = make(map[string]bool)
			byTarget[imp.Target] = files
		}
		files[imp.FilePath] = true
	}

	counts := make(rawCounts)
	for _, files := range byTarget {
		members := make([]string, 0, len(files))
		for f := range files {
			members = append(members, f)
		}
		sort.Strings(members)
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				counts.add(members[i], members[j], 1)
				counts.add(members[j], members[i], 1)
			}
		}
	}
	return b.store.ReplaceChain(ctx, types.ChainImportCluster, normalize(types.ChainImportCluster, counts))
}
