package querytools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/markov"
	"github.com/ozekimasaki/lazyload/internal/types"
)

func TestGetRelatedContext_BundlesTargetTypesAndCallees(t *testing.T) {
	d := testDeps(t, "")
	target := fnSymbol("a.ts:process:1", "a.ts", "process", 1, types.KindFunction)
	target.ReturnType = "Result"
	target.Parameters = []types.Parameter{{Name: "input", Type: "Input"}}

	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{
			target,
			fnSymbol("a.ts:helper:10", "a.ts", "helper", 10, types.KindFunction),
			fnSymbol("a.ts:Input:20", "a.ts", "Input", 20, types.KindClass),
			fnSymbol("a.ts:Result:30", "a.ts", "Result", 30, types.KindClass),
		},
		Calls: []types.CallEdge{
			{CallerSymbolID: target.ID, CallerName: "process", CalleeSymbolID: "a.ts:helper:10", CalleeName: "helper", CallCount: 1},
		},
	})

	out, err := d.GetRelatedContext(context.Background(), RelatedContextInput{Symbol: "process"})
	require.NoError(t, err)
	require.NotNil(t, out.Target)
	require.Equal(t, "process", out.Target.Name)
	require.Len(t, out.Callees, 1)
	require.GreaterOrEqual(t, len(out.RelatedTypes), 2)
	require.Equal(t, 900*4, out.Budgets["symbol"])
}

func TestGetRelatedContext_IncludeTestsShiftsBudgetSplit(t *testing.T) {
	d := testDeps(t, "")
	target := fnSymbol("a.ts:process:1", "a.ts", "process", 1, types.KindFunction)
	putFile(t, d.Store, types.FileIndex{
		File:    types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{target},
	})

	out, err := d.GetRelatedContext(context.Background(), RelatedContextInput{Symbol: "process", IncludeTests: true})
	require.NoError(t, err)
	require.Equal(t, 800*4, out.Budgets["symbol"])
	require.Equal(t, 200*4, out.Budgets["tests"])
}

func TestSuggestRelated_PassesThroughToEngine(t *testing.T) {
	d := testDeps(t, "")
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{
			fnSymbol("a.ts:A:1", "a.ts", "A", 1, types.KindFunction),
			fnSymbol("a.ts:B:10", "a.ts", "B", 10, types.KindFunction),
		},
		Calls: []types.CallEdge{
			{CallerSymbolID: "a.ts:A:1", CallerName: "A", CalleeSymbolID: "a.ts:B:10", CalleeName: "B", CallCount: 1},
		},
	})
	builder := markov.NewBuilder(d.Store, config.MarkovConfig{})
	require.NoError(t, builder.BuildAllChains(context.Background()))
	d.Engine = markov.NewEngine(d.Store, config.ChainWeights{CallFlow: 1.0})

	result, err := d.SuggestRelated(context.Background(), SuggestRelatedInput{Symbol: "a.ts:A:1"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Suggestions)
}
