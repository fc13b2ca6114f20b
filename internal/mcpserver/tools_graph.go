package mcpserver

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ozekimasaki/lazyload/internal/querytools"
)

func (s *Server) registerGraphTools() {
	s.sdk.AddTool(&mcp.Tool{
		Name:        "find_references",
		Description: "Every usage of a symbol, grouped by referencing file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"symbolName": strSchema("Symbol name to find references of"),
				"filePath":   strSchema("Narrow the search to one file"),
				"limit":      intSchema("Maximum references to return"),
				"format":     strSchema("'compact' or 'markdown' (default)"),
			},
			Required: []string{"symbolName"},
		},
	}, s.handleFindReferences)

	s.sdk.AddTool(&mcp.Tool{
		Name:        "trace_calls",
		Description: "Callers and/or callees of a function, up to depth hops, falling back to plain references only when a direction has no call-graph edges at all.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"functionName": strSchema("Function to trace"),
				"direction":    strSchema("'callers', 'callees', or 'both' (default)"),
				"depth":        intSchema("Hops to traverse, clamped to [1,3]"),
				"format":       strSchema("'compact' or 'markdown' (default)"),
			},
			Required: []string{"functionName"},
		},
	}, s.handleTraceCalls)

	s.sdk.AddTool(&mcp.Tool{
		Name:        "trace_types",
		Description: "The inheritance/implementation graph around a type: ancestors and descendants, or just subtypes/implementations.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"className": strSchema("Type to trace"),
				"mode":      strSchema("'hierarchy' (default), 'subtypes', or 'implementations'"),
				"limit":     intSchema("Maximum nodes to return"),
				"format":    strSchema("'compact' or 'markdown' (default)"),
			},
			Required: []string{"className"},
		},
	}, s.handleTraceTypes)

	s.sdk.AddTool(&mcp.Tool{
		Name:        "get_module_dependencies",
		Description: "Direct imports, reverse dependents, the transitive closure up to depth hops, and optional circular-dependency detection for one file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"filePath":     strSchema("File to analyze, resolved via the fuzzy path resolver"),
				"depth":        intSchema("Transitive closure depth, clamped to [1,5]"),
				"detectCycles": boolSchema("Also report circular dependency chains through this file"),
				"format":       strSchema("'compact' or 'markdown' (default)"),
			},
			Required: []string{"filePath"},
		},
	}, s.handleModuleDependencies)

	s.sdk.AddTool(&mcp.Tool{
		Name:        "get_architecture_overview",
		Description: "A module map grouped by top-level directory, each module's exported API surface, and candidate entry-point files.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"focus":  strSchema("Directory to scope the overview to (default: whole project)"),
				"format": strSchema("'compact' or 'markdown' (default)"),
			},
		},
	}, s.handleArchitectureOverview)
}

func (s *Server) handleFindReferences(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("find_references", err), nil
	}
	var in querytools.FindReferencesInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("find_references", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("find_references", params, func() (string, error) {
		groups, err := s.deps.FindReferences(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderFindReferences(groups, format, defaultMaxBytes), nil
	})
}

func (s *Server) handleTraceCalls(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("trace_calls", err), nil
	}
	var in querytools.TraceCallsInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("trace_calls", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("trace_calls", params, func() (string, error) {
		out, err := s.deps.TraceCalls(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderTraceCalls(out, format, defaultMaxBytes), nil
	})
}

func (s *Server) handleTraceTypes(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("trace_types", err), nil
	}
	var in querytools.TraceTypesInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("trace_types", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("trace_types", params, func() (string, error) {
		nodes, err := s.deps.TraceTypes(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderTraceTypes(in.Name, nodes, format, defaultMaxBytes), nil
	})
}

func (s *Server) handleModuleDependencies(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("get_module_dependencies", err), nil
	}
	var in querytools.ModuleDependenciesInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("get_module_dependencies", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("get_module_dependencies", params, func() (string, error) {
		out, err := s.deps.GetModuleDependencies(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderModuleDependencies(in.FilePath, out, format, defaultMaxBytes), nil
	})
}

func (s *Server) handleArchitectureOverview(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params, err := decodeParams(req.Params.Arguments)
	if err != nil {
		return errorResult("get_architecture_overview", err), nil
	}
	var in querytools.ArchitectureOverviewInput
	if err := decodeInto(req.Params.Arguments, &in); err != nil {
		return errorResult("get_architecture_overview", err), nil
	}
	format := querytools.ParseFormat(in.Format)

	return s.runTool("get_architecture_overview", params, func() (string, error) {
		out, err := s.deps.GetArchitectureOverview(ctx, in)
		if err != nil {
			return "", err
		}
		return querytools.RenderArchitectureOverview(out, format, defaultMaxBytes), nil
	})
}
