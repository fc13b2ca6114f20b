package governor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// NormalizeTarget implements spec.md §6's per-tool target-normalization
// table: the (tool, target) pair the governor tracks novelty against.
// params holds the tool's raw JSON input, already unmarshaled into
// map[string]any.
func NormalizeTarget(tool string, params map[string]any) string {
	str := func(key string) string { return normalizeString(stringField(params, key)) }

	switch tool {
	case "search_symbols":
		return fmt.Sprintf("query:%s||return_type:%s||param_type:%s",
			str("query"), str("return_type"), str("param_type"))
	case "get_function", "trace_calls":
		return stringField(params, "functionName")
	case "get_class", "trace_types":
		return stringField(params, "className")
	case "find_references", "suggest_related", "get_related_context":
		target := stringField(params, "symbolName")
		if target == "" {
			target = stringField(params, "symbol_name")
		}
		return target
	case "list_functions", "get_module_dependencies":
		return stringField(params, "filePath")
	case "list_files":
		if dir := stringField(params, "directory"); dir != "" {
			return dir
		}
		return "*"
	case "get_architecture_overview":
		if focus := stringField(params, "focus"); focus != "" {
			return focus
		}
		return "*"
	case "sync_index":
		return ""
	default:
		return CanonicalKey(params)
	}
}

func stringField(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// normalizeString trims, collapses internal whitespace, and lowercases —
// the query/return_type/param_type normalization search_symbols' cache
// and novelty keys both apply.
func normalizeString(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}

// CanonicalKey produces a stable cache key for a tool call: params'
// keys are sorted recursively before marshaling, so two semantically
// identical calls with differently-ordered JSON object keys collapse to
// the same key.
func CanonicalKey(params map[string]any) string {
	return canonicalize(params)
}

func canonicalize(v any) string {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			b.Write(kb)
			b.WriteByte(':')
			b.WriteString(canonicalize(val[k]))
		}
		b.WriteByte('}')
		return b.String()
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(canonicalize(item))
		}
		b.WriteByte(']')
		return b.String()
	default:
		out, _ := json.Marshal(val)
		return string(out)
	}
}
