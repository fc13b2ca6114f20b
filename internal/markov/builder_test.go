package markov

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/types"
)

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fn(id, file, name string, params ...string) types.AnySymbol {
	var ps []types.Parameter
	for _, p := range params {
		ps = append(ps, types.Parameter{Name: "p", Type: p})
	}
	return types.AnySymbol{
		ID:       types.SymbolID(id),
		FQN:      name,
		File:     file,
		Language: types.LangTypeScript,
		Kind:     types.KindFunction,
		Name:     name,
		Location: types.Location{StartLine: 1, EndLine: 5},
		Parameters: ps,
	}
}

// seedCallGraph writes a file with three functions, A->B (count 3), A->C
// (count 1), so call_flow's normalization from A should split 0.75/0.25.
func seedCallGraph(t *testing.T, store *storage.Store) {
	t.Helper()
	idx := types.FileIndex{
		File: types.FileEntry{
			Path: "a.ts", Language: types.LangTypeScript, Checksum: "x",
			ModifiedAt: time.Now(), LineCount: 10, ByteSize: 100, ParseStatus: types.ParseComplete,
		},
		Symbols: []types.AnySymbol{fn("a.ts:A:function:1", "a.ts", "A"), fn("a.ts:B:function:2", "a.ts", "B"), fn("a.ts:C:function:3", "a.ts", "C")},
		Calls: []types.CallEdge{
			{CallerSymbolID: "a.ts:A:function:1", CallerName: "A", CalleeSymbolID: "a.ts:B:function:2", CalleeName: "B", CallCount: 3},
			{CallerSymbolID: "a.ts:A:function:1", CallerName: "A", CalleeSymbolID: "a.ts:C:function:3", CalleeName: "C", CallCount: 1},
		},
	}
	require.NoError(t, store.PutFile(context.Background(), idx))
}

func TestBuildCallFlow_NormalizesProbabilities(t *testing.T) {
	store := testStore(t)
	seedCallGraph(t, store)

	b := NewBuilder(store, config.Default().Markov)
	require.NoError(t, b.buildCallFlow(context.Background()))

	transitions, err := store.GetTransitions(context.Background(), types.ChainCallFlow, "a.ts:A:function:1")
	require.NoError(t, err)
	require.Len(t, transitions, 2)

	var sum float64
	for _, tr := range transitions {
		sum += tr.Probability
	}
	require.Less(t, math.Abs(sum-1.0), 1e-6, "probabilities out of a state must sum to 1")
	require.Equal(t, "a.ts:B:function:2", transitions[0].ToState, "highest callCount sorts first")
	require.InDelta(t, 0.75, transitions[0].Probability, 1e-9)
	require.InDelta(t, 0.25, transitions[1].Probability, 1e-9)
}

func TestBuildCallFlow_SkipsUnresolvedCallees(t *testing.T) {
	store := testStore(t)
	idx := types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x", ModifiedAt: time.Now(), LineCount: 1, ByteSize: 1, ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{fn("a.ts:A:function:1", "a.ts", "A")},
		Calls: []types.CallEdge{
			{CallerSymbolID: "a.ts:A:function:1", CallerName: "A", CalleeSymbolID: "", CalleeName: "externalLib.fn", CallCount: 1},
		},
	}
	require.NoError(t, store.PutFile(context.Background(), idx))

	b := NewBuilder(store, config.Default().Markov)
	require.NoError(t, b.buildCallFlow(context.Background()))

	transitions, err := store.GetTransitions(context.Background(), types.ChainCallFlow, "a.ts:A:function:1")
	require.NoError(t, err)
	require.Empty(t, transitions, "unresolved/external callees must not appear as edges")
}

func TestBuildTypeAffinity_LinksCoOccurringTypes(t *testing.T) {
	store := testStore(t)
	user := fn("a.ts:getUser:function:1", "a.ts", "getUser", "string")
	user.ReturnType = "User"
	idx := types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x", ModifiedAt: time.Now(), LineCount: 1, ByteSize: 1, ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{user},
	}
	require.NoError(t, store.PutFile(context.Background(), idx))

	b := NewBuilder(store, config.Default().Markov)
	require.NoError(t, b.buildTypeAffinity(context.Background()))

	transitions, err := store.GetTransitions(context.Background(), types.ChainTypeAffinity, "User")
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	require.Equal(t, "string", transitions[0].ToState)
	require.InDelta(t, 1.0, transitions[0].Probability, 1e-9)
}

func TestBuildCooccurrence_LinksSymbolsReferencedInSameFile(t *testing.T) {
	store := testStore(t)
	idx := types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x", ModifiedAt: time.Now(), LineCount: 1, ByteSize: 1, ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{fn("a.ts:A:function:1", "a.ts", "A"), fn("a.ts:B:function:2", "a.ts", "B")},
		References: []types.Reference{
			{SymbolID: "a.ts:A:function:1", SymbolName: "A", ReferencingFile: "a.ts", Line: 1, Kind: types.RefCall},
			{SymbolID: "a.ts:B:function:2", SymbolName: "B", ReferencingFile: "a.ts", Line: 2, Kind: types.RefCall},
		},
	}
	require.NoError(t, store.PutFile(context.Background(), idx))

	b := NewBuilder(store, config.Default().Markov)
	require.NoError(t, b.buildCooccurrence(context.Background()))

	ab, err := store.GetTransitions(context.Background(), types.ChainCooccurrence, "a.ts:A:function:1")
	require.NoError(t, err)
	require.Len(t, ab, 1)
	require.Equal(t, "a.ts:B:function:2", ab[0].ToState)

	ba, err := store.GetTransitions(context.Background(), types.ChainCooccurrence, "a.ts:B:function:2")
	require.NoError(t, err)
	require.Len(t, ba, 1)
	require.Equal(t, "a.ts:A:function:1", ba[0].ToState, "cooccurrence edges are added in both directions")
}

func TestBuildImportCluster_LinksFilesSharingTargetModule(t *testing.T) {
	store := testStore(t)
	now := time.Now()
	files := []types.FileIndex{
		{
			File:    types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x", ModifiedAt: now, LineCount: 1, ByteSize: 1, ParseStatus: types.ParseComplete},
			Imports: []types.Import{{Source: "./shared", ResolvedPath: "shared.ts"}},
		},
		{
			File:    types.FileEntry{Path: "b.ts", Language: types.LangTypeScript, Checksum: "x", ModifiedAt: now, LineCount: 1, ByteSize: 1, ParseStatus: types.ParseComplete},
			Imports: []types.Import{{Source: "./shared", ResolvedPath: "shared.ts"}},
		},
	}
	for _, f := range files {
		require.NoError(t, store.PutFile(context.Background(), f))
	}

	b := NewBuilder(store, config.Default().Markov)
	require.NoError(t, b.buildImportCluster(context.Background()))

	transitions, err := store.GetTransitions(context.Background(), types.ChainImportCluster, "a.ts")
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	require.Equal(t, "b.ts", transitions[0].ToState)
}

func TestBuildAllChains_RebuildsEveryChainIndependently(t *testing.T) {
	store := testStore(t)
	seedCallGraph(t, store)

	b := NewBuilder(store, config.Default().Markov)
	require.NoError(t, b.BuildAllChains(context.Background()))

	stats, err := store.GetAllChainStats(context.Background())
	require.NoError(t, err)
	require.Greater(t, stats[types.ChainCallFlow].EdgeCount, 0)
}
