package querytools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/synonym"
	"github.com/ozekimasaki/lazyload/internal/types"
)

func TestSearchSymbols_FindsByNameViaFTS(t *testing.T) {
	d := testDeps(t, "")
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "auth.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{
			fnSymbol("auth.ts:validateUser:1", "auth.ts", "validateUser", 1, types.KindFunction),
			fnSymbol("auth.ts:deleteUser:10", "auth.ts", "deleteUser", 10, types.KindFunction),
		},
	})

	out, err := d.SearchSymbols(context.Background(), SearchSymbolsInput{Query: "validateUser"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "validateUser", out[0].Symbol.Name)
}

func TestSearchSymbols_ExpandsQueryWithSynonyms(t *testing.T) {
	d := testDeps(t, "")
	d.Expander = synonym.NewExpander(config.SynonymsConfig{})
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "auth.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{
			fnSymbol("auth.ts:login:1", "auth.ts", "login", 1, types.KindFunction),
		},
	})

	out, err := d.SearchSymbols(context.Background(), SearchSymbolsInput{Query: "login", ExpandQuery: true})
	require.NoError(t, err)
	require.NotEmpty(t, out)
}

func TestSearchSymbols_ByReturnTypeUsesTypeMatch(t *testing.T) {
	d := testDeps(t, "")
	sym := fnSymbol("a.ts:getUser:1", "a.ts", "getUser", 1, types.KindFunction)
	sym.ReturnType = "User"
	putFile(t, d.Store, types.FileIndex{
		File:    types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{sym},
	})

	out, err := d.SearchSymbols(context.Background(), SearchSymbolsInput{ReturnType: "User", MatchMode: "base"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "getUser", out[0].Symbol.Name)
}
