package mcpserver

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/governor"
	"github.com/ozekimasaki/lazyload/internal/querytools"
	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/types"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, sess := governor.NewManager(config.GovernorConfig{
		NovelExploreLimit:    8,
		NovelSynthesizeLimit: 15,
		TotalHardCap:         25,
	}).NewSession()

	return &Server{
		deps:    &querytools.Deps{Store: store},
		session: sess,
		log:     newDiagnosticLogger(),
	}
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

func callReq(args string) *mcp.CallToolRequest {
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: []byte(args)}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleListFiles_ReturnsSeededFiles(t *testing.T) {
	s := testServer(t)
	putFile(t, s.deps.Store, types.FileIndex{File: types.FileEntry{Path: "src/a.ts", Language: types.LangTypeScript, Checksum: "1"}})

	res, err := s.handleListFiles(context.Background(), callReq(`{}`))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(t, res), "src/a.ts")
}

func TestHandleListFiles_MalformedJSONReportsError(t *testing.T) {
	s := testServer(t)

	res, err := s.handleListFiles(context.Background(), callReq(`{"limit": "not-a-number"}`))
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestHandleGetFunction_ExtractsNameFromFunctionNameKey(t *testing.T) {
	s := testServer(t)
	putFile(t, s.deps.Store, types.FileIndex{
		File: types.FileEntry{Path: "src/a.ts", Language: types.LangTypeScript, Checksum: "1"},
		Symbols: []types.AnySymbol{
			{ID: "sym1", Name: "doThing", Kind: types.KindFunction, File: "src/a.ts", Signature: "function doThing(): void"},
		},
	})

	res, err := s.handleGetFunction(context.Background(), callReq(`{"functionName":"doThing"}`))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(t, res), "doThing")
}

func TestHandleGetClass_ExtractsNameFromClassNameKey(t *testing.T) {
	s := testServer(t)
	putFile(t, s.deps.Store, types.FileIndex{
		File: types.FileEntry{Path: "src/a.ts", Language: types.LangTypeScript, Checksum: "1"},
		Symbols: []types.AnySymbol{
			{ID: "sym1", Name: "Widget", Kind: types.KindClass, File: "src/a.ts", Signature: "class Widget"},
		},
	})

	res, err := s.handleGetClass(context.Background(), callReq(`{"className":"Widget"}`))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(t, res), "Widget")
}

func TestRunTool_SecondIdenticalCallIsCached(t *testing.T) {
	s := testServer(t)
	putFile(t, s.deps.Store, types.FileIndex{File: types.FileEntry{Path: "src/a.ts", Language: types.LangTypeScript, Checksum: "1"}})

	first, err := s.handleListFiles(context.Background(), callReq(`{"directory":"src"}`))
	require.NoError(t, err)
	firstText := resultText(t, first)

	second, err := s.handleListFiles(context.Background(), callReq(`{"directory":"src"}`))
	require.NoError(t, err)
	secondText := resultText(t, second)

	require.Equal(t, firstText+"\n\n[Cached call reused]", secondText)
}

func TestRunTool_FinalizeShortCircuitsAfterBudgetExhausted(t *testing.T) {
	s := testServer(t)
	putFile(t, s.deps.Store, types.FileIndex{File: types.FileEntry{Path: "src/a.ts", Language: types.LangTypeScript, Checksum: "1"}})

	for i := 0; i < 16; i++ {
		_, err := s.handleGetFunction(context.Background(), callReq(`{"functionName":"fn`+string(rune('a'+i))+`"}`))
		require.NoError(t, err)
	}

	res, err := s.handleGetFunction(context.Background(), callReq(`{"functionName":"oneMore"}`))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(t, res), "exploration budget exhausted")
}

func TestHandleSyncIndex_ForceRebuildWithoutRebuilderStaysFalse(t *testing.T) {
	s := testServer(t)

	res, err := s.handleSyncIndex(context.Background(), callReq(`{"files":[],"rebuild_chains":true}`))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(t, res), "rebuilt: false")
}
