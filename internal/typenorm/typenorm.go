// Package typenorm parses raw TS/Python type strings into a cross-language
// ParsedType and evaluates match predicates against them (spec.md §4.2).
// This is a bespoke small grammar: no corpus library parses free-form type
// annotation strings (tree-sitter grammars parse syntax, not this
// post-extraction text), so it is built on strings/unicode only — see
// DESIGN.md's standard-library justification.
package typenorm

import (
	"strings"

	"github.com/ozekimasaki/lazyload/internal/types"
)

// ParsedType is the cross-language normalized type shape.
type ParsedType struct {
	Raw        string
	Normalized string
	Base       string
	Inner      []string
	IsAsync    bool
	IsNullable bool
	IsArray    bool
	IsGeneric  bool
	IsOptional bool
	HasDefault bool
}

// baseNameMap maps language-specific base names onto the shared vocabulary.
var baseNameMap = map[string]string{
	"str": "String", "string": "String",
	"int": "Number", "float": "Number", "number": "Number", "double": "Number", "long": "Number",
	"bool": "Boolean", "boolean": "Boolean",
	"none": "Void", "void": "Void", "undefined": "Void", "null": "Void",
	"list": "Array", "array": "Array",
	"dict": "Map", "map": "Map",
	"promise": "Promise", "awaitable": "Promise", "future": "Promise", "coroutine": "Promise",
	"any": "Any", "object": "Object", "unknown": "Unknown",
}

func normalizeBase(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	lower = strings.TrimSuffix(lower, "[]")
	if m, ok := baseNameMap[lower]; ok {
		return m
	}
	return strings.TrimSpace(raw)
}

// ParseType parses a raw type expression for the given language into a
// ParsedType. Returns nil for an empty/unparseable raw string.
func ParseType(raw string, lang types.Language) *ParsedType {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	pt := &ParsedType{Raw: raw}

	// Optional marker: TS "Foo?" or Python "Optional[Foo]" (handled via generic below).
	if strings.HasSuffix(trimmed, "?") {
		pt.IsOptional = true
		trimmed = strings.TrimSuffix(trimmed, "?")
	}

	// Array sugar: "T[]" (TS) collapses to Array<T>.
	if strings.HasSuffix(trimmed, "[]") {
		inner := strings.TrimSuffix(trimmed, "[]")
		pt.IsArray = true
		pt.Base = "Array"
		pt.Inner = []string{strings.TrimSpace(inner)}
		pt.IsGeneric = true
		pt.Normalized = render(pt)
		return pt
	}

	// Union: split on top-level '|' and fold null/None/undefined arms into IsNullable.
	if arms := splitTopLevel(trimmed, '|'); len(arms) > 1 {
		var real []string
		for _, a := range arms {
			a = strings.TrimSpace(a)
			low := strings.ToLower(a)
			if low == "null" || low == "none" || low == "undefined" {
				pt.IsNullable = true
				continue
			}
			real = append(real, a)
		}
		if len(real) == 1 {
			sub := ParseType(real[0], lang)
			if sub != nil {
				*pt = *sub
				pt.IsNullable = true
				pt.Raw = raw
				pt.Normalized = render(pt)
				return pt
			}
		}
		pt.Base = "Union"
		pt.Inner = real
		pt.Normalized = render(pt)
		return pt
	}

	// Generic: Base<Inner,...> (TS) or Base[Inner,...] (Python).
	if open := strings.IndexAny(trimmed, "<["); open >= 0 {
		closeCh := byte('>')
		if trimmed[open] == '[' {
			closeCh = ']'
		}
		if strings.HasSuffix(trimmed, string(closeCh)) {
			baseRaw := trimmed[:open]
			argsRaw := trimmed[open+1 : len(trimmed)-1]
			base := normalizeBase(baseRaw)
			args := splitTopLevel(argsRaw, ',')
			for i := range args {
				args[i] = strings.TrimSpace(args[i])
			}
			// Optional[X] in Python is sugar for X | None.
			if strings.EqualFold(strings.TrimSpace(baseRaw), "Optional") && len(args) == 1 {
				sub := ParseType(args[0], lang)
				if sub != nil {
					*pt = *sub
					pt.IsNullable = true
					pt.Raw = raw
					pt.Normalized = render(pt)
					return pt
				}
			}
			// Each argument is itself a type expression (e.g. the "User | null"
			// in "Promise<User | null>"): parse it recursively so a nested
			// union's null arm folds into this generic's own IsNullable rather
			// than surviving as literal text inside Inner.
			inner := make([]string, 0, len(args))
			for _, a := range args {
				sub := ParseType(a, lang)
				if sub == nil {
					inner = append(inner, a)
					continue
				}
				if sub.IsNullable {
					pt.IsNullable = true
				}
				inner = append(inner, strings.TrimSuffix(sub.Normalized, "?"))
			}
			pt.Base = base
			pt.Inner = inner
			pt.IsGeneric = true
			if base == "Promise" {
				pt.IsAsync = true
			}
			if base == "Array" {
				pt.IsArray = true
			}
			pt.Normalized = render(pt)
			return pt
		}
	}

	pt.Base = normalizeBase(trimmed)
	pt.Normalized = render(pt)
	return pt
}

func render(pt *ParsedType) string {
	var b strings.Builder
	b.WriteString(pt.Base)
	if len(pt.Inner) > 0 {
		b.WriteByte('<')
		b.WriteString(strings.Join(pt.Inner, ","))
		b.WriteByte('>')
	}
	if pt.IsNullable {
		b.WriteString("?")
	}
	return b.String()
}

// splitTopLevel splits s on sep, ignoring seps nested inside <>, [], () pairs.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '[', '(':
			depth++
		case '>', ']', ')':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// MatchMode mirrors types.TypeMatchMode for readability at call sites.
type MatchMode = types.TypeMatchMode

// MatchOptions configures TypesMatch.
type MatchOptions struct {
	IncludeAsyncVariants bool
}

// TypesMatch implements the four match predicates from spec.md §4.2.
func TypesMatch(t *ParsedType, searchExpr string, mode MatchMode, opts MatchOptions) bool {
	if t == nil {
		return false
	}
	search := strings.TrimSpace(searchExpr)
	if search == "" {
		return false
	}

	switch mode {
	case types.MatchExact:
		return strings.EqualFold(t.Normalized, search)
	case types.MatchBase:
		if strings.EqualFold(t.Base, search) {
			return true
		}
		if opts.IncludeAsyncVariants && t.Base == "Promise" {
			for _, inner := range t.Inner {
				if strings.EqualFold(strings.TrimSpace(inner), search) {
					return true
				}
			}
		}
		return false
	case types.MatchInner:
		for _, inner := range t.Inner {
			if strings.Contains(strings.ToLower(inner), strings.ToLower(search)) {
				return true
			}
		}
		return false
	case types.MatchPartial:
		low := strings.ToLower(search)
		return strings.Contains(strings.ToLower(t.Normalized), low) || strings.Contains(strings.ToLower(t.Base), low)
	default:
		return false
	}
}
