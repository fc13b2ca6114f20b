package querytools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/types"
)

func seedCallChain(t *testing.T, d *Deps) {
	t.Helper()
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{
			fnSymbol("a.ts:A:1", "a.ts", "A", 1, types.KindFunction),
			fnSymbol("a.ts:B:10", "a.ts", "B", 10, types.KindFunction),
			fnSymbol("a.ts:C:20", "a.ts", "C", 20, types.KindFunction),
		},
		Calls: []types.CallEdge{
			{CallerSymbolID: "a.ts:A:1", CallerName: "A", CalleeSymbolID: "a.ts:B:10", CalleeName: "B", CallCount: 5},
			{CallerSymbolID: "a.ts:A:1", CallerName: "A", CalleeSymbolID: "a.ts:C:20", CalleeName: "C", CallCount: 2},
		},
	})
}

func TestTraceCalls_SortsByCallCountDescThenNameAsc(t *testing.T) {
	d := testDeps(t, "")
	seedCallChain(t, d)

	out, err := d.TraceCalls(context.Background(), TraceCallsInput{Name: "A", Direction: "callees", Depth: 1})
	require.NoError(t, err)
	require.Len(t, out.Callees, 2)
	require.Equal(t, "B", out.Callees[0].CalleeName)
	require.Equal(t, "C", out.Callees[1].CalleeName)
	require.False(t, out.CalleeFallback)
}

func TestTraceCalls_FallsBackOnlyWhenZeroEdges(t *testing.T) {
	d := testDeps(t, "")
	seedCallChain(t, d)

	out, err := d.TraceCalls(context.Background(), TraceCallsInput{Name: "C", Direction: "callees", Depth: 1})
	require.NoError(t, err)
	require.Empty(t, out.Callees)
	require.True(t, out.CalleeFallback)

	out2, err := d.TraceCalls(context.Background(), TraceCallsInput{Name: "A", Direction: "callers", Depth: 1})
	require.NoError(t, err)
	require.Empty(t, out2.Callers)
	require.True(t, out2.CallerFallback)
}

func TestTraceCalls_DepthWalksMultipleHops(t *testing.T) {
	d := testDeps(t, "")
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{
			fnSymbol("a.ts:A:1", "a.ts", "A", 1, types.KindFunction),
			fnSymbol("a.ts:B:10", "a.ts", "B", 10, types.KindFunction),
			fnSymbol("a.ts:C:20", "a.ts", "C", 20, types.KindFunction),
		},
		Calls: []types.CallEdge{
			{CallerSymbolID: "a.ts:A:1", CallerName: "A", CalleeSymbolID: "a.ts:B:10", CalleeName: "B", CallCount: 1},
			{CallerSymbolID: "a.ts:B:10", CallerName: "B", CalleeSymbolID: "a.ts:C:20", CalleeName: "C", CallCount: 1},
		},
	})

	out, err := d.TraceCalls(context.Background(), TraceCallsInput{Name: "A", Direction: "callees", Depth: 2})
	require.NoError(t, err)
	require.Len(t, out.Callees, 2)
}

func TestFindReferences_GroupsByFileInFirstSeenOrder(t *testing.T) {
	d := testDeps(t, "")
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "b.ts", Language: types.LangTypeScript, Checksum: "y"},
		References: []types.Reference{
			{SymbolName: "Target", ReferencingFile: "b.ts", Line: 3, Kind: types.RefRead},
			{SymbolName: "Target", ReferencingFile: "b.ts", Line: 8, Kind: types.RefRead},
		},
	})
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		References: []types.Reference{
			{SymbolName: "Target", ReferencingFile: "a.ts", Line: 1, Kind: types.RefCall},
		},
	})

	groups, err := d.FindReferences(context.Background(), FindReferencesInput{Name: "Target"})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	// storage orders by referencing_file then line, so "a.ts" sorts before "b.ts"
	require.Equal(t, "a.ts", groups[0].File)
	require.Equal(t, "b.ts", groups[1].File)
	require.Len(t, groups[1].Refs, 2)
}
