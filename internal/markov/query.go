package markov

import (
	"context"
	"fmt"
	"sort"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// QueryOptions configures one suggest_related call, per spec.md §4.8's
// query(chainTypes, startSymbol, depth, minProbability, maxResults,
// decayFactor) signature.
type QueryOptions struct {
	ChainTypes     []types.ChainType
	StartSymbol    string
	Depth          int
	MinProbability float64
	MaxResults     int
	DecayFactor    float64
	Explain        bool
}

// Result is the outcome of one query, mirroring spec.md §4.8's fallback
// annotation alongside the ranked suggestions.
type Result struct {
	Suggestions  []types.Suggestion
	FallbackUsed bool
	FallbackType string
}

// Engine runs the bounded random-walk query over chains persisted by Builder.
type Engine struct {
	store   *storage.Store
	weights config.ChainWeights
}

func NewEngine(store *storage.Store, weights config.ChainWeights) *Engine {
	return &Engine{store: store, weights: weights}
}

func (e *Engine) chainWeight(ct types.ChainType) float64 {
	switch ct {
	case types.ChainCallFlow:
		return e.weights.CallFlow
	case types.ChainCooccurrence:
		return e.weights.Cooccurrence
	case types.ChainTypeAffinity:
		return e.weights.TypeAffinity
	case types.ChainImportCluster:
		return e.weights.ImportCluster
	default:
		return 0
	}
}

// walkState is one frontier entry of the bounded BFS: the state reached,
// the path taken to reach it, the running product of per-hop
// probabilities (pre-decay), and the hop count.
type walkState struct {
	state string
	path  []string
	prob  float64
	depth int
}

// Query runs opts against every requested chain and aggregates scores for
// states reached by more than one chain by summing them, per spec.md §4.8.
func (e *Engine) Query(ctx context.Context, opts QueryOptions) (Result, error) {
	if opts.Depth <= 0 {
		opts.Depth = 2
	}
	if opts.Depth > 5 {
		opts.Depth = 5
	}
	if opts.DecayFactor <= 0 {
		opts.DecayFactor = 1.0
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	chainTypes := opts.ChainTypes
	if len(chainTypes) == 0 {
		chainTypes = types.AllChainTypes
	}

	aggregate := make(map[string]*types.Suggestion)
	for _, ct := range chainTypes {
		suggestions, err := e.walkChain(ctx, ct, opts)
		if err != nil {
			return Result{}, err
		}
		for _, s := range suggestions {
			if existing, ok := aggregate[s.State]; ok {
				existing.Score += s.Score
				continue
			}
			cp := s
			aggregate[s.State] = &cp
		}
	}

	if len(aggregate) == 0 {
		return e.fallback(ctx, opts)
	}

	out := make([]types.Suggestion, 0, len(aggregate))
	for _, s := range aggregate {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].State < out[j].State
	})
	if len(out) > opts.MaxResults {
		out = out[:opts.MaxResults]
	}
	return Result{Suggestions: out}, nil
}

// walkChain performs the bounded BFS random walk over a single chain,
// scoring each reached state as ∏prob(hop) × decayFactor^(k-1) × chainWeight
// and pruning any partial product below minProbability before it is ever
// expanded further — a state one hop past the prune threshold is never
// visited, matching spec.md §4.8's "prune any partial product below
// minProbability" rule.
func (e *Engine) walkChain(ctx context.Context, ct types.ChainType, opts QueryOptions) ([]types.Suggestion, error) {
	weight := e.chainWeight(ct)
	if weight <= 0 {
		return nil, nil
	}

	// expanded bounds the BFS: a state's own outgoing transitions are only
	// ever walked once, no matter how many incoming paths reach it. scores
	// aggregates every path's contribution to a state reached more than
	// once within this chain (e.g. two branches converging on the same
	// callee), so a convergent state's score is their sum rather than
	// whichever path happened to arrive first.
	expanded := map[string]bool{opts.StartSymbol: true}
	scores := make(map[string]*types.Suggestion)
	var order []string

	frontier := []walkState{{state: opts.StartSymbol, path: []string{opts.StartSymbol}, prob: 1.0, depth: 0}}

	for len(frontier) > 0 && frontier[0].depth < opts.Depth {
		var next []walkState
		for _, w := range frontier {
			transitions, err := e.store.GetTransitions(ctx, ct, w.state)
			if err != nil {
				return nil, err
			}
			for _, t := range transitions {
				rawProb := w.prob * t.Probability
				hop := w.depth + 1
				decay := 1.0
				if hop > 1 {
					decay = pow(opts.DecayFactor, float64(hop-1))
				}
				score := rawProb * decay * weight
				if score < opts.MinProbability {
					continue
				}
				path := append(append([]string{}, w.path...), t.ToState)
				if existing, ok := scores[t.ToState]; ok {
					existing.Score += score
				} else {
					s := types.Suggestion{
						State: t.ToState,
						Score: score,
						Depth: hop,
						Path:  path,
						Chain: ct,
					}
					if opts.Explain {
						s.Explanation = explain(ct, path, score)
					}
					scores[t.ToState] = &s
					order = append(order, t.ToState)
				}
				if !expanded[t.ToState] {
					expanded[t.ToState] = true
					next = append(next, walkState{state: t.ToState, path: path, prob: rawProb, depth: hop})
				}
			}
		}
		frontier = next
	}

	out := make([]types.Suggestion, 0, len(order))
	for _, state := range order {
		out = append(out, *scores[state])
	}
	return out, nil
}

func pow(base, exp float64) float64 {
	if exp <= 0 {
		return 1
	}
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}

func explain(ct types.ChainType, path []string, score float64) string {
	return fmt.Sprintf("via %s chain through %d hop(s) (%v), score %.4f", ct, len(path)-1, path, score)
}

// fallback resolves direct references/callers/callees for startSymbol when
// every requested chain produced nothing, per spec.md §4.8.
func (e *Engine) fallback(ctx context.Context, opts QueryOptions) (Result, error) {
	if callers, err := e.store.GetCallers(ctx, opts.StartSymbol); err == nil && len(callers) > 0 {
		return Result{Suggestions: callEdgesToSuggestions(callers, true), FallbackUsed: true, FallbackType: "callers"}, nil
	}
	if callees, err := e.store.GetCallees(ctx, opts.StartSymbol); err == nil && len(callees) > 0 {
		return Result{Suggestions: callEdgesToSuggestions(callees, false), FallbackUsed: true, FallbackType: "callees"}, nil
	}
	if refs, err := e.store.GetReferencesByName(ctx, opts.StartSymbol); err == nil && len(refs) > 0 {
		out := make([]types.Suggestion, 0, len(refs))
		for _, r := range refs {
			out = append(out, types.Suggestion{
				State: string(r.SymbolID),
				Score: 1.0,
				Depth: 1,
				Path:  []string{opts.StartSymbol, string(r.SymbolID)},
				Explanation: fmt.Sprintf("referenced in %s:%d", r.ReferencingFile, r.Line),
			})
		}
		return Result{Suggestions: out, FallbackUsed: true, FallbackType: "references"}, nil
	}
	return Result{FallbackUsed: true, FallbackType: "none"}, nil
}

func callEdgesToSuggestions(edges []types.CallEdge, fromCaller bool) []types.Suggestion {
	out := make([]types.Suggestion, 0, len(edges))
	for _, e := range edges {
		state := string(e.CalleeSymbolID)
		name := e.CalleeName
		if fromCaller {
			state = string(e.CallerSymbolID)
			name = e.CallerName
		}
		out = append(out, types.Suggestion{
			State:       state,
			Score:       float64(e.CallCount),
			Depth:       1,
			Path:        []string{name},
			Explanation: fmt.Sprintf("direct call edge (count=%d)", e.CallCount),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
