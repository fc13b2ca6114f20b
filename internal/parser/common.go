package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// nodeText returns the exact source slice a node spans.
func nodeText(content []byte, n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

// location converts a node's byte-span into spec.md's 1-based-line,
// 0-based-column Location.
func location(n *tree_sitter.Node) types.Location {
	start := n.StartPosition()
	end := n.EndPosition()
	return types.Location{
		StartLine:   int(start.Row) + 1,
		EndLine:     int(end.Row) + 1,
		StartColumn: int(start.Column),
		EndColumn:   int(end.Column),
	}
}

// isPrivateName reports whether a name should be excluded under the
// default (non-includePrivate) configuration — underscore-prefixed names
// per spec.md §4.1.
func isPrivateName(name string) bool {
	return strings.HasPrefix(name, "_")
}

// callbackHostNames are the host-method names spec.md §4.1 recognizes for
// kind=callback classification (test frameworks, promises, events).
var callbackHostNames = map[string]bool{
	"describe": true, "it": true, "test": true, "beforeEach": true, "afterEach": true,
	"beforeAll": true, "afterAll": true, "then": true, "catch": true, "finally": true,
	"action": true,
}

// classifyCallbackContext returns the callbackContext modifier for a call
// like `host(fn)` or `emitter.on("click", fn)`, or "" if host isn't a
// recognized callback-bearing call. Array-method callbacks (map/filter/
// reduce/forEach) are deliberately excluded per spec.md §4.1.
func classifyCallbackContext(hostCall string) string {
	excluded := map[string]bool{"map": true, "filter": true, "reduce": true, "forEach": true}
	if excluded[hostCall] {
		return ""
	}
	if hostCall == "on" {
		return "on:<event>"
	}
	if callbackHostNames[hostCall] {
		return hostCall
	}
	return ""
}

// docFromComment turns a raw leading comment node's text into a
// Documentation record. JSDoc ("/** ... */") is parsed for @param/@returns/
// @throws tags; anything else becomes a plain description line.
func docFromComment(raw string) types.Documentation {
	doc := types.Documentation{Params: map[string]string{}}
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")

	var descLines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "@param"):
			rest := strings.TrimSpace(strings.TrimPrefix(line, "@param"))
			parts := strings.SplitN(rest, " ", 2)
			name := strings.Trim(parts[0], "{}[]")
			desc := ""
			if len(parts) > 1 {
				desc = strings.TrimSpace(parts[1])
			}
			doc.Params[name] = desc
		case strings.HasPrefix(line, "@return"):
			doc.Returns = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "@returns"), "@return"))
		case strings.HasPrefix(line, "@throws"):
			doc.Throws = append(doc.Throws, strings.TrimSpace(strings.TrimPrefix(line, "@throws")))
		default:
			descLines = append(descLines, line)
		}
	}
	doc.Description = strings.Join(descLines, " ")
	return doc
}

// docFromDocstring parses a Python docstring, auto-detecting
// Google/NumPy/Sphinx layout per spec.md §4.1.
func docFromDocstring(raw string) types.Documentation {
	doc := types.Documentation{Params: map[string]string{}}
	text := strings.Trim(raw, `"'`)
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var descLines []string
	section := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		switch {
		case lower == "args:" || lower == "parameters" || lower == "params:":
			section = "params"
			continue
		case lower == "returns:" || lower == "returns":
			section = "returns"
			continue
		case lower == "raises:" || lower == "throws:":
			section = "throws"
			continue
		case strings.HasPrefix(trimmed, ":param "):
			rest := strings.TrimPrefix(trimmed, ":param ")
			parts := strings.SplitN(rest, ":", 2)
			if len(parts) == 2 {
				doc.Params[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
			}
			continue
		case strings.HasPrefix(trimmed, ":returns:"):
			doc.Returns = strings.TrimSpace(strings.TrimPrefix(trimmed, ":returns:"))
			continue
		}

		switch section {
		case "params":
			parts := strings.SplitN(trimmed, ":", 2)
			if len(parts) == 2 && trimmed != "" {
				name := strings.SplitN(strings.TrimSpace(parts[0]), " ", 2)[0]
				doc.Params[name] = strings.TrimSpace(parts[1])
			}
		case "returns":
			if trimmed != "" {
				if doc.Returns != "" {
					doc.Returns += " "
				}
				doc.Returns += trimmed
			}
		case "throws":
			if trimmed != "" {
				doc.Throws = append(doc.Throws, trimmed)
			}
		default:
			if trimmed != "" {
				descLines = append(descLines, trimmed)
			}
		}
	}
	doc.Description = strings.Join(descLines, " ")
	return doc
}

func errored(warnings []types.ParseWarning, path string, err error) *types.ParseResult {
	pe := lzerrors.NewParseError(path, 0, 0, "", err)
	return &types.ParseResult{
		Warnings: append(warnings, types.ParseWarning{Code: "PARSE_ERROR", Message: pe.Error()}),
		Errored:  true,
	}
}
