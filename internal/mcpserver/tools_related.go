package mcpserver

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ozekimasaki/lazyload/internal/querytools"
)

func (s *Server) registerRelatedTools() {
	s.sdk.AddTool(&mcp.Tool{
		Name:        "get_related_context",
		Description: "One symbol's full context bundle — its source, related types, callees, and optionally related tests — budgeted across sections to fit maxTokens.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"symbolName":     strSchema("Symbol to bundle context for"),
				"filePath":       strSchema("Narrow the search to one file"),
				"includeTypes":   boolSchema("Include related parameter/return types (default: on)"),
				"includeCallees": boolSchema("Include the callee subgraph (default: on)"),
				"includeTests":   boolSchema("Include references from test files"),
				"calleeDepth":    intSchema("Callee-trace depth (default: 2)"),
				"maxTokens":      intSchema("Total token budget to split across sections (default: 2000)"),
				"format":         strSchema("'compact' or 'markdown' (default)"),
			},
			Required: []string{"symbolName"},
		},
	}, s.handleRelatedContext)

	s.sdk.AddTool(&mcp.Tool{
		Name:        "suggest_related",
		Description: "Markov-chain-ranked symbols related to a starting symbol, walked across the call-flow/co-occurrence/type-affinity/import-cluster chains.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"symbol_name":     strSchema("Starting symbol"),
				"file_path":       strSchema("Narrow the starting symbol to one file"),
				"chain_types":     strArraySchema("Chains to walk: call_flow, cooccurrence, type_affinity, import_cluster"),
				"depth":           intSchema("Maximum walk depth, clamped to [1,5]"),
				"min_probability": numberSchema("Drop transitions below this probability, in [0,1]"),
				"limit":           intSchema("Maximum suggestions to return"),
				"explain":         boolSchema("Include a human-readable explanation per suggestion"),
				"format":          strSchema("'compact' or 'markdown' (default)"),
			},
			Required: []string{"symbol_name"},
		},
	}, s.handleSuggestRelated)
}

func (s *Server) handleRelatedContext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("get_related_context", err), nil
	}
	var in querytools.RelatedContextInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("get_related_context", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("get_related_context", params, func() (string, error) {
		out, err := s.deps.GetRelatedContext(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderRelatedContext(out, format), nil
	})
}

func (s *Server) handleSuggestRelated(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("suggest_related", err), nil
	}
	var in querytools.SuggestRelatedInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("suggest_related", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("suggest_related", params, func() (string, error) {
		result, err := s.deps.SuggestRelated(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderSuggestRelated(result, format, defaultMaxBytes), nil
	})
}
