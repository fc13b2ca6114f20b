package mcpserver

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ozekimasaki/lazyload/internal/querytools"
)

func (s *Server) registerReadTools() {
	s.sdk.AddTool(&mcp.Tool{
		Name:        "list_files",
		Description: "Paginated file listing with per-directory aggregates.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"directory":         strSchema("Directory prefix to list, relative to the project root"),
				"recursive":         boolSchema("Include files in subdirectories"),
				"language":          strSchema("Filter by language"),
				"limit":             intSchema("Maximum files to return"),
				"offset":            intSchema("Pagination offset"),
				"exclude_patterns":  strArraySchema("Glob-like fragments to exclude"),
				"include_tests":     boolSchema("Include test files (excluded by default)"),
				"summary_only":      boolSchema("Return only directory aggregates, no file rows"),
				"format":            strSchema("'compact' or 'markdown' (default)"),
			},
		},
	}, s.handleListFiles)

	s.sdk.AddTool(&mcp.Tool{
		Name:        "list_functions",
		Description: "Every function/method/constructor declared in one file, in declaration order.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"filePath":       strSchema("File to list, resolved via the fuzzy path resolver"),
				"include_source": boolSchema("Attach full source text to each symbol"),
				"limit":          intSchema("Maximum symbols to return source for"),
				"format":         strSchema("'compact' or 'markdown' (default)"),
			},
			Required: []string{"filePath"},
		},
	}, s.handleListFunctions)

	s.sdk.AddTool(&mcp.Tool{
		Name:        "search_symbols",
		Description: "Full-text symbol search with synonym expansion, or a type-signature search when return_type/param_type is set.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":            strSchema("Name/doc search query"),
				"type":             strArraySchema("Restrict to these symbol kinds (e.g. function, class, interface)"),
				"language":         strSchema("Filter by language"),
				"limit":            intSchema("Maximum results"),
				"expand_synonyms":  boolSchema("Expand the query through the synonym graph before searching"),
				"return_type":      strSchema("Match symbols whose return type matches this expression"),
				"param_type":       strSchema("Match symbols with a parameter type matching this expression"),
				"match_mode":       strSchema("Type match mode: exact, base, inner, or partial"),
				"verbose":          boolSchema("Include extra diagnostic fields in markdown output"),
				"format":           strSchema("'compact' or 'markdown' (default)"),
			},
		},
	}, s.handleSearchSymbols)

	s.sdk.AddTool(&mcp.Tool{
		Name:        "get_function",
		Description: "Full source and metadata for one function, method, constructor, or callback.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"functionName": strSchema("Symbol name to retrieve"),
				"filePath":     strSchema("Narrow the search to one file"),
				"format":       strSchema("'compact' or 'markdown' (default)"),
			},
			Required: []string{"functionName"},
		},
	}, s.handleGetFunction)

	s.sdk.AddTool(&mcp.Tool{
		Name:        "get_class",
		Description: "Full source and metadata for one class or interface, plus its declared members.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"className": strSchema("Symbol name to retrieve"),
				"filePath":  strSchema("Narrow the search to one file"),
				"format":    strSchema("'compact' or 'markdown' (default)"),
			},
			Required: []string{"className"},
		},
	}, s.handleGetClass)
}

func (s *Server) handleListFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("list_files", err), nil
	}
	var in querytools.ListFilesInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("list_files", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("list_files", params, func() (string, error) {
		out, err := s.deps.ListFiles(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderListFiles(out, format, defaultMaxBytes), nil
	})
}

func (s *Server) handleListFunctions(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("list_functions", err), nil
	}
	var in querytools.ListFunctionsInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("list_functions", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("list_functions", params, func() (string, error) {
		symbols, err := s.deps.ListFunctions(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderListFunctions(symbols, format, defaultMaxBytes), nil
	})
}

func (s *Server) handleSearchSymbols(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("search_symbols", err), nil
	}
	var in querytools.SearchSymbolsInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("search_symbols", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("search_symbols", params, func() (string, error) {
		results, err := s.deps.SearchSymbols(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderSearchSymbols(results, format, defaultMaxBytes), nil
	})
}

func (s *Server) handleGetFunction(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("get_function", err), nil
	}
	var in querytools.GetFunctionInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("get_function", err), nil
	}
	in.Name, _ = params["functionName"].(string)
	format := querytools.ParseFormat(in.Format)

	return s.runTool("get_function", params, func() (string, error) {
		symbols, err := s.deps.GetFunction(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderSymbolDetail(symbols, format, defaultMaxBytes), nil
	})
}

func (s *Server) handleGetClass(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("get_class", err), nil
	}
	var in querytools.GetFunctionInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("get_class", err), nil
	}
	in.Name, _ = params["className"].(string)
	format := querytools.ParseFormat(in.Format)

	return s.runTool("get_class", params, func() (string, error) {
		symbols, err := s.deps.GetClass(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderSymbolDetail(symbols, format, defaultMaxBytes), nil
	})
}
