package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fnSymbol(path, name string, line int, kind types.SymbolKind) types.AnySymbol {
	return types.AnySymbol{
		ID:       types.NewSymbolID(path, name, kind, line),
		FQN:      types.FQN(path, "", name),
		File:     path,
		Language: types.LangTypeScript,
		Kind:     kind,
		Name:     name,
		Location: types.Location{StartLine: line, EndLine: line + 3},
		Documentation: types.Documentation{
			Description: "does things with " + name,
			Params:      map[string]string{},
		},
	}
}

func TestPutFileGetFile_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	idx := types.FileIndex{
		File: types.FileEntry{
			Path:        "/src/a.ts",
			Language:    types.LangTypeScript,
			Checksum:    "abc123",
			ModifiedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			LineCount:   10,
			ByteSize:    200,
			ParseStatus: types.ParseComplete,
			Warnings:    []types.ParseWarning{{Code: "UNUSED_IMPORT", Message: "foo unused", Line: 2}},
		},
		Symbols: []types.AnySymbol{fnSymbol("/src/a.ts", "doThing", 3, types.KindFunction)},
	}
	require.NoError(t, s.PutFile(ctx, idx))

	entry, ok, err := s.GetFile(ctx, "/src/a.ts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc123", entry.Checksum)
	assert.Equal(t, types.ParseComplete, entry.ParseStatus)
	require.Len(t, entry.Warnings, 1)
	assert.Equal(t, "UNUSED_IMPORT", entry.Warnings[0].Code)

	sym, ok, err := s.GetSymbol(ctx, types.NewSymbolID("/src/a.ts", "doThing", types.KindFunction, 3))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "doThing", sym.Name)
	assert.Equal(t, "does things with doThing", sym.Documentation.Description)
}

func TestPutFile_ReplacesPriorContents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := types.FileIndex{
		File:    types.FileEntry{Path: "/src/b.ts", Language: types.LangTypeScript, Checksum: "v1", ModifiedAt: time.Now(), ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{fnSymbol("/src/b.ts", "old", 1, types.KindFunction)},
	}
	require.NoError(t, s.PutFile(ctx, first))

	second := types.FileIndex{
		File:    types.FileEntry{Path: "/src/b.ts", Language: types.LangTypeScript, Checksum: "v2", ModifiedAt: time.Now(), ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{fnSymbol("/src/b.ts", "new", 1, types.KindFunction)},
	}
	require.NoError(t, s.PutFile(ctx, second))

	_, ok, err := s.GetSymbol(ctx, types.NewSymbolID("/src/b.ts", "old", types.KindFunction, 1))
	require.NoError(t, err)
	assert.False(t, ok, "symbol from the superseded parse must not survive PutFile")

	sym, ok, err := s.GetSymbol(ctx, types.NewSymbolID("/src/b.ts", "new", types.KindFunction, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", sym.Name)

	results, err := s.SearchSymbols(ctx, "old", types.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results, "fts_symbols must be cleared alongside the symbols it indexed")
}

func TestRemoveFile_CascadesSymbolsAndFTS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	idx := types.FileIndex{
		File:    types.FileEntry{Path: "/src/c.ts", Language: types.LangTypeScript, Checksum: "v1", ModifiedAt: time.Now(), ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{fnSymbol("/src/c.ts", "gone", 1, types.KindFunction)},
	}
	require.NoError(t, s.PutFile(ctx, idx))
	require.NoError(t, s.RemoveFile(ctx, "/src/c.ts"))

	_, ok, err := s.GetFile(ctx, "/src/c.ts")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.GetSymbol(ctx, types.NewSymbolID("/src/c.ts", "gone", types.KindFunction, 1))
	require.NoError(t, err)
	assert.False(t, ok)

	results, err := s.SearchSymbols(ctx, "gone", types.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSymbols_MatchesNameOverFTS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	idx := types.FileIndex{
		File: types.FileEntry{Path: "/src/d.ts", Language: types.LangTypeScript, Checksum: "v1", ModifiedAt: time.Now(), ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{
			fnSymbol("/src/d.ts", "calculateTotal", 1, types.KindFunction),
			fnSymbol("/src/d.ts", "renderWidget", 10, types.KindFunction),
		},
	}
	require.NoError(t, s.PutFile(ctx, idx))

	results, err := s.SearchSymbols(ctx, "calculate*", types.SearchOptions{PrefixWildcard: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "calculateTotal", results[0].Name)
}

func TestResolveSymbolReferences_FileLocalThenGlobal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	caller := fnSymbol("/src/e.ts", "caller", 1, types.KindFunction)
	callee := fnSymbol("/src/e.ts", "localHelper", 5, types.KindFunction)
	idx := types.FileIndex{
		File:    types.FileEntry{Path: "/src/e.ts", Language: types.LangTypeScript, Checksum: "v1", ModifiedAt: time.Now(), ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{caller, callee},
		References: []types.Reference{
			{
				SymbolName:            "localHelper",
				ReferencingFile:       "/src/e.ts",
				ReferencingSymbolName: "caller",
				Line:                  2,
				Kind:                  types.RefCall,
			},
		},
	}
	require.NoError(t, s.PutFile(ctx, idx))

	other := fnSymbol("/src/f.ts", "globalTarget", 1, types.KindFunction)
	idx2 := types.FileIndex{
		File:    types.FileEntry{Path: "/src/f.ts", Language: types.LangTypeScript, Checksum: "v1", ModifiedAt: time.Now(), ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{other},
	}
	require.NoError(t, s.PutFile(ctx, idx2))

	idx.References = append(idx.References, types.Reference{
		SymbolName:            "globalTarget",
		ReferencingFile:       "/src/e.ts",
		ReferencingSymbolName: "caller",
		Line:                  3,
		Kind:                  types.RefCall,
	})
	require.NoError(t, s.PutFile(ctx, idx))

	n, err := s.ResolveSymbolReferences(ctx)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	refs, err := s.GetReferencesByName(ctx, "localHelper")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, callee.ID, refs[0].SymbolID, "file-local reference must resolve within the same file")
	assert.Equal(t, caller.ID, refs[0].ReferencingSymbolID)

	refs2, err := s.GetReferencesByName(ctx, "globalTarget")
	require.NoError(t, err)
	require.Len(t, refs2, 1)
	assert.Equal(t, other.ID, refs2[0].SymbolID, "cross-file reference must resolve via the global fallback")
}

func TestGetTypeHierarchy_AncestorsAndDescendants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	idx := types.FileIndex{
		File: types.FileEntry{Path: "/src/g.ts", Language: types.LangTypeScript, Checksum: "v1", ModifiedAt: time.Now(), ParseStatus: types.ParseComplete},
		TypeRels: []types.TypeRelationship{
			{SourceName: "Dog", TargetName: "Animal", Kind: types.RelExtends},
			{SourceName: "Animal", TargetName: "Entity", Kind: types.RelExtends},
			{SourceName: "Poodle", TargetName: "Dog", Kind: types.RelExtends},
		},
	}
	require.NoError(t, s.PutFile(ctx, idx))

	nodes, err := s.GetTypeHierarchy(ctx, "Dog")
	require.NoError(t, err)

	var ancestorNames, descendantNames []string
	for _, n := range nodes {
		if n.Depth < 0 {
			ancestorNames = append(ancestorNames, n.Name)
		} else if n.Depth > 0 {
			descendantNames = append(descendantNames, n.Name)
		}
	}
	assert.ElementsMatch(t, []string{"Animal", "Entity"}, ancestorNames)
	assert.ElementsMatch(t, []string{"Poodle"}, descendantNames)
}

func TestDetectCircularDependencies_FindsCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, f := range []struct{ path, resolved string }{
		{"/src/x.ts", "/src/y.ts"},
		{"/src/y.ts", "/src/z.ts"},
		{"/src/z.ts", "/src/x.ts"},
	} {
		idx := types.FileIndex{
			File:    types.FileEntry{Path: f.path, Language: types.LangTypeScript, Checksum: "v1", ModifiedAt: time.Now(), ParseStatus: types.ParseComplete},
			Imports: []types.Import{{Source: f.resolved, ResolvedPath: f.resolved}},
		}
		require.NoError(t, s.PutFile(ctx, idx))
	}

	cycles, err := s.DetectCircularDependencies(ctx, "/src/x.ts")
	require.NoError(t, err)
	assert.NotEmpty(t, cycles, "x -> y -> z -> x must be detected as a cycle")
}

func TestMarkovChain_ReplaceAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	transitions := []types.MarkovTransition{
		{FromState: "sym:a", ToState: "sym:b", RawCount: 3, Probability: 0.75},
		{FromState: "sym:a", ToState: "sym:c", RawCount: 1, Probability: 0.25},
	}
	require.NoError(t, s.ReplaceChain(ctx, types.ChainCallFlow, transitions))

	got, err := s.GetTransitions(ctx, types.ChainCallFlow, "sym:a")
	require.NoError(t, err)
	require.Len(t, got, 2)

	var sum float64
	for _, tr := range got {
		sum += tr.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "transition probabilities out of one state must sum to 1")
	assert.Equal(t, "sym:b", got[0].ToState, "transitions must be ordered by descending probability")

	ok, err := s.HasChainSupport(ctx, types.ChainCallFlow, "sym:a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasChainSupport(ctx, types.ChainCallFlow, "sym:unseen")
	require.NoError(t, err)
	assert.False(t, ok)

	stats, err := s.GetAllChainStats(ctx)
	require.NoError(t, err)
	require.Contains(t, stats, types.ChainCallFlow)
	assert.Equal(t, 2, stats[types.ChainCallFlow].EdgeCount)

	require.NoError(t, s.ReplaceChain(ctx, types.ChainCallFlow, []types.MarkovTransition{
		{FromState: "sym:a", ToState: "sym:d", RawCount: 1, Probability: 1.0},
	}))
	got, err = s.GetTransitions(ctx, types.ChainCallFlow, "sym:a")
	require.NoError(t, err)
	require.Len(t, got, 1, "ReplaceChain must wholly replace prior transitions, not merge")
	assert.Equal(t, "sym:d", got[0].ToState)
}

func TestGetCallersAndCallees_MatchByNameOrID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	caller := fnSymbol("/src/h.ts", "outer", 1, types.KindFunction)
	idx := types.FileIndex{
		File:    types.FileEntry{Path: "/src/h.ts", Language: types.LangTypeScript, Checksum: "v1", ModifiedAt: time.Now(), ParseStatus: types.ParseComplete},
		Symbols: []types.AnySymbol{caller},
		Calls: []types.CallEdge{
			{CallerSymbolID: caller.ID, CallerName: "outer", CalleeName: "externalFn", CallCount: 2},
		},
	}
	require.NoError(t, s.PutFile(ctx, idx))

	byName, err := s.GetCallees(ctx, "outer")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "externalFn", byName[0].CalleeName)

	byID, err := s.GetCallees(ctx, string(caller.ID))
	require.NoError(t, err)
	require.Len(t, byID, 1)

	callers, err := s.GetCallers(ctx, "externalFn")
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "outer", callers[0].CallerName)
}
