package markov

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// seedChain3 builds a three-hop call_flow chain A->B->C with certain
// probabilities, so the decay-weighted query engine has something to walk.
func seedChain3(t *testing.T, store *storage.Store) {
	t.Helper()
	idx := types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x", ModifiedAt: time.Now(), LineCount: 1, ByteSize: 1, ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{fn("a.ts:A:function:1", "a.ts", "A"), fn("a.ts:B:function:2", "a.ts", "B"), fn("a.ts:C:function:3", "a.ts", "C")},
		Calls: []types.CallEdge{
			{CallerSymbolID: "a.ts:A:function:1", CallerName: "A", CalleeSymbolID: "a.ts:B:function:2", CalleeName: "B", CallCount: 1},
			{CallerSymbolID: "a.ts:B:function:2", CallerName: "B", CalleeSymbolID: "a.ts:C:function:3", CalleeName: "C", CallCount: 1},
		},
	}
	require.NoError(t, store.PutFile(context.Background(), idx))
}

// seedDiamond builds a call_flow chain where two distinct paths converge on
// the same callee: A->B->D and A->C->D. A calls both B and C once each, so
// each branch carries probability 0.5 out of A; B and C each call only D, so
// each branch's second hop carries probability 1.0.
func seedDiamond(t *testing.T, store *storage.Store) {
	t.Helper()
	idx := types.FileIndex{
		File: types.FileEntry{Path: "d.ts", Language: types.LangTypeScript, Checksum: "x", ModifiedAt: time.Now(), LineCount: 1, ByteSize: 1, ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{
			fn("d.ts:A:function:1", "d.ts", "A"),
			fn("d.ts:B:function:2", "d.ts", "B"),
			fn("d.ts:C:function:3", "d.ts", "C"),
			fn("d.ts:D:function:4", "d.ts", "D"),
		},
		Calls: []types.CallEdge{
			{CallerSymbolID: "d.ts:A:function:1", CallerName: "A", CalleeSymbolID: "d.ts:B:function:2", CalleeName: "B", CallCount: 1},
			{CallerSymbolID: "d.ts:A:function:1", CallerName: "A", CalleeSymbolID: "d.ts:C:function:3", CalleeName: "C", CallCount: 1},
			{CallerSymbolID: "d.ts:B:function:2", CallerName: "B", CalleeSymbolID: "d.ts:D:function:4", CalleeName: "D", CallCount: 1},
			{CallerSymbolID: "d.ts:C:function:3", CallerName: "C", CalleeSymbolID: "d.ts:D:function:4", CalleeName: "D", CallCount: 1},
		},
	}
	require.NoError(t, store.PutFile(context.Background(), idx))
}

func TestEngineQuery_SumsScoresOfConvergentPaths(t *testing.T) {
	store := testStore(t)
	seedDiamond(t, store)
	require.NoError(t, NewBuilder(store, config.Default().Markov).BuildAllChains(context.Background()))

	weights := config.ChainWeights{CallFlow: 1.0}
	engine := NewEngine(store, weights)

	result, err := engine.Query(context.Background(), QueryOptions{
		ChainTypes:     []types.ChainType{types.ChainCallFlow},
		StartSymbol:    "d.ts:A:function:1",
		Depth:          2,
		MinProbability: 0.0,
		DecayFactor:    0.5,
		MaxResults:     10,
	})
	require.NoError(t, err)
	require.False(t, result.FallbackUsed)
	require.Len(t, result.Suggestions, 3, "B, C, and D each appear once despite D being reached twice")

	byState := map[string]types.Suggestion{}
	for _, s := range result.Suggestions {
		byState[s.State] = s
	}

	b, ok := byState["d.ts:B:function:2"]
	require.True(t, ok)
	require.InDelta(t, 0.5, b.Score, 1e-9, "one hop, probability split evenly between B and C")

	d, ok := byState["d.ts:D:function:4"]
	require.True(t, ok)
	require.Equal(t, 2, d.Depth)
	require.InDelta(t, 0.5, d.Score, 1e-9, "A->B->D (0.5*1.0*decay=0.25) plus A->C->D (0.25) must be summed, not dropped")
}

func TestEngineQuery_DecaysScorePerHop(t *testing.T) {
	store := testStore(t)
	seedChain3(t, store)
	require.NoError(t, NewBuilder(store, config.Default().Markov).BuildAllChains(context.Background()))

	weights := config.ChainWeights{CallFlow: 1.0}
	engine := NewEngine(store, weights)

	result, err := engine.Query(context.Background(), QueryOptions{
		ChainTypes:     []types.ChainType{types.ChainCallFlow},
		StartSymbol:    "a.ts:A:function:1",
		Depth:          2,
		MinProbability: 0.0,
		DecayFactor:    0.5,
		MaxResults:     10,
	})
	require.NoError(t, err)
	require.False(t, result.FallbackUsed)
	require.Len(t, result.Suggestions, 2)

	byState := map[string]types.Suggestion{}
	for _, s := range result.Suggestions {
		byState[s.State] = s
	}
	b, ok := byState["a.ts:B:function:2"]
	require.True(t, ok)
	require.Equal(t, 1, b.Depth)
	require.InDelta(t, 1.0, b.Score, 1e-9, "one hop: no decay applied yet")

	c, ok := byState["a.ts:C:function:3"]
	require.True(t, ok)
	require.Equal(t, 2, c.Depth)
	require.InDelta(t, 0.5, c.Score, 1e-9, "two hops: prob 1.0 * decay^(2-1)=0.5")
}

func TestEngineQuery_PrunesBelowMinProbability(t *testing.T) {
	store := testStore(t)
	seedChain3(t, store)
	require.NoError(t, NewBuilder(store, config.Default().Markov).BuildAllChains(context.Background()))

	weights := config.ChainWeights{CallFlow: 1.0}
	engine := NewEngine(store, weights)

	result, err := engine.Query(context.Background(), QueryOptions{
		ChainTypes:     []types.ChainType{types.ChainCallFlow},
		StartSymbol:    "a.ts:A:function:1",
		Depth:          2,
		MinProbability: 0.9,
		DecayFactor:    0.5,
		MaxResults:     10,
	})
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 1, "the two-hop state scores 0.5, below the 0.9 floor")
	require.Equal(t, "a.ts:B:function:2", result.Suggestions[0].State)
}

func TestEngineQuery_FallsBackToDirectReferencesWhenChainsEmpty(t *testing.T) {
	store := testStore(t)
	seedChain3(t, store)
	require.NoError(t, NewBuilder(store, config.Default().Markov).BuildAllChains(context.Background()))

	weights := config.ChainWeights{CallFlow: 1.0}
	engine := NewEngine(store, weights)

	result, err := engine.Query(context.Background(), QueryOptions{
		ChainTypes:     []types.ChainType{types.ChainCallFlow},
		StartSymbol:    "a.ts:C:function:3", // a dead end in the chain: C calls nothing
		Depth:          2,
		MinProbability: 0.0,
		DecayFactor:    0.5,
		MaxResults:     10,
	})
	require.NoError(t, err)
	require.True(t, result.FallbackUsed)
	require.Equal(t, "callers", result.FallbackType)
	require.NotEmpty(t, result.Suggestions)
}
