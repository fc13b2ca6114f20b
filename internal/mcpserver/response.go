package mcpserver

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// decodeParams parses a tool call's raw JSON arguments into a generic map,
// the shape governor.NormalizeTarget and governor.CanonicalKey both read.
// Empty arguments decode to an empty map rather than an error, since every
// tool's top-level fields are optional.
func decodeParams(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// decodeInto parses a tool call's raw JSON arguments directly into a typed
// input struct, relying on that struct's json tags to match the wire
// parameter names spec.md's tool table names.
func decodeInto(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// textResult wraps a rendered tool response in the single-text-block
// content shape every tool call returns on success.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult reports a tool failure inside the result object with
// IsError set, per the MCP SDK's documented contract: protocol-level
// errors hide the failure from the model, but a result with IsError lets
// it see and react to what went wrong.
func errorResult(operation string, err error) *mcp.CallToolResult {
	payload, marshalErr := json.Marshal(map[string]any{
		"success":   false,
		"operation": operation,
		"error":     err.Error(),
	})
	if marshalErr != nil {
		payload = []byte(`{"success":false}`)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		IsError: true,
	}
}
