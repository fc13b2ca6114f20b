package mcpserver

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ozekimasaki/lazyload/internal/querytools"
)

func (s *Server) registerSyncTool() {
	s.sdk.AddTool(&mcp.Tool{
		Name:        "sync_index",
		Description: "Re-index the given files and, optionally, force a Markov chain rebuild regardless of the indexer's own change threshold. Invalidates every cached tool response in this session.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"files":          strArraySchema("Paths to re-index"),
				"rebuild_chains": boolSchema("Force a full Markov chain rebuild"),
			},
		},
	}, s.handleSyncIndex)
}

func (s *Server) handleSyncIndex(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("sync_index", err), nil
	}
	var in querytools.SyncIndexInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("sync_index", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("sync_index", params, func() (string, error) {
		out, err := s.deps.SyncIndex(ctx, s.idx, in)
		if err != nil {
			return "", err
		}
		s.session.InvalidateCache()
		return querytools.RenderSyncIndex(out, format, defaultMaxBytes), nil
	})
}
