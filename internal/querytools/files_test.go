package querytools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/types"
)

func testDeps(t *testing.T, root string) *Deps {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return &Deps{Store: store, Root: root}
}

func putFile(t *testing.T, store *storage.Store, idx types.FileIndex) {
	t.Helper()
	if idx.File.ModifiedAt.IsZero() {
		idx.File.ModifiedAt = time.Now()
	}
	if idx.File.ParseStatus == "" {
		idx.File.ParseStatus = types.ParseComplete
	}
	require.NoError(t, store.PutFile(context.Background(), idx))
}

func seedFileTree(t *testing.T, store *storage.Store) {
	t.Helper()
	putFile(t, store, types.FileIndex{File: types.FileEntry{Path: "src/a.ts", Language: types.LangTypeScript, Checksum: "1", LineCount: 10, ByteSize: 100}})
	putFile(t, store, types.FileIndex{File: types.FileEntry{Path: "src/b.ts", Language: types.LangTypeScript, Checksum: "2", LineCount: 20, ByteSize: 200}})
	putFile(t, store, types.FileIndex{File: types.FileEntry{Path: "src/sub/c.ts", Language: types.LangTypeScript, Checksum: "3", LineCount: 5, ByteSize: 50}})
	putFile(t, store, types.FileIndex{File: types.FileEntry{Path: "src/a.test.ts", Language: types.LangTypeScript, Checksum: "4", LineCount: 8, ByteSize: 80}})
}

func TestListFiles_ExcludesTestFilesByDefault(t *testing.T) {
	d := testDeps(t, "")
	seedFileTree(t, d.Store)

	out, err := d.ListFiles(context.Background(), ListFilesInput{})
	require.NoError(t, err)
	require.Equal(t, 3, out.TotalMatched)
	for _, f := range out.Files {
		require.NotContains(t, f.Path, ".test.")
	}
}

func TestListFiles_IncludeTestsAddsThem(t *testing.T) {
	d := testDeps(t, "")
	seedFileTree(t, d.Store)

	out, err := d.ListFiles(context.Background(), ListFilesInput{IncludeTests: true})
	require.NoError(t, err)
	require.Equal(t, 4, out.TotalMatched)
}

func TestListFiles_NonRecursiveStaysAtDirectoryLevel(t *testing.T) {
	d := testDeps(t, "")
	seedFileTree(t, d.Store)

	out, err := d.ListFiles(context.Background(), ListFilesInput{Directory: "src", Recursive: false})
	require.NoError(t, err)
	for _, f := range out.Files {
		require.NotContains(t, f.Path, "sub/")
	}
}

func TestListFiles_PaginatesWithOffsetAndLimit(t *testing.T) {
	d := testDeps(t, "")
	seedFileTree(t, d.Store)

	out, err := d.ListFiles(context.Background(), ListFilesInput{IncludeTests: true, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, out.Files, 2)
	require.Equal(t, 4, out.TotalMatched)
}

func TestListFiles_AggregatesPerDirectory(t *testing.T) {
	d := testDeps(t, "")
	seedFileTree(t, d.Store)

	out, err := d.ListFiles(context.Background(), ListFilesInput{IncludeTests: true})
	require.NoError(t, err)

	var srcAgg, subAgg *DirectoryAggregate
	for i := range out.Aggregates {
		switch out.Aggregates[i].Directory {
		case "src":
			srcAgg = &out.Aggregates[i]
		case "src/sub":
			subAgg = &out.Aggregates[i]
		}
	}
	require.NotNil(t, srcAgg)
	require.NotNil(t, subAgg)
	require.Equal(t, 3, srcAgg.FileCount)
	require.Equal(t, 1, subAgg.FileCount)
	require.Equal(t, 5, subAgg.LineCount)
}

func fnSymbol(id, file, name string, startLine int, kind types.SymbolKind) types.AnySymbol {
	return types.AnySymbol{
		ID: types.SymbolID(id), File: file, Language: types.LangTypeScript, Kind: kind,
		Name: name, Signature: name + "()", Location: types.Location{StartLine: startLine, EndLine: startLine + 2},
	}
}

func TestListFunctions_ReturnsOnlyCallableKindsInFileOrder(t *testing.T) {
	d := testDeps(t, "")
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{
			fnSymbol("a.ts:B:2", "a.ts", "B", 10, types.KindFunction),
			fnSymbol("a.ts:Widget:1", "a.ts", "Widget", 1, types.KindClass),
			fnSymbol("a.ts:A:1", "a.ts", "A", 5, types.KindFunction),
		},
	})

	out, err := d.ListFunctions(context.Background(), ListFunctionsInput{FilePath: "a.ts"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "A", out[0].Name)
	require.Equal(t, "B", out[1].Name)
}

func TestListFunctions_OmitsSourceBeyondLimit(t *testing.T) {
	d := testDeps(t, "")
	s1 := fnSymbol("a.ts:A:1", "a.ts", "A", 1, types.KindFunction)
	s1.SourceText = "function A() {}"
	s2 := fnSymbol("a.ts:B:2", "a.ts", "B", 10, types.KindFunction)
	s2.SourceText = "function B() {}"
	putFile(t, d.Store, types.FileIndex{
		File:    types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		Symbols: []types.AnySymbol{s1, s2},
	})

	out, err := d.ListFunctions(context.Background(), ListFunctionsInput{FilePath: "a.ts", IncludeSource: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotEmpty(t, out[0].SourceText)
	require.Empty(t, out[1].SourceText)
}
