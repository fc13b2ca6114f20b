// Package parser extracts a language-neutral types.ParseResult from source
// files using tree-sitter grammars, dispatched by file extension. Parsers
// are registered once at startup and reused across files — the "static
// registry populated at startup" spec.md §9 recommends in place of runtime
// dynamic dispatch.
package parser

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/ozekimasaki/lazyload/internal/types"
)

// Parser is the contract every language extractor implements (spec.md §4.1).
type Parser interface {
	// CanParse reports whether this parser handles the given path's extension.
	CanParse(path string) bool
	// Parse extracts a ParseResult from content. It never returns a Go error
	// for malformed source: parse failures degrade to Errored=true plus a
	// warning, per spec.md §4.1's "Errors" subsection.
	Parse(path string, content []byte) *types.ParseResult
}

// Registry dispatches file path -> language parser by extension.
type Registry struct {
	mu      sync.RWMutex
	byExt   map[string]Parser
}

// NewRegistry builds a registry with the TS/JS and Python parsers
// pre-registered, following the teacher's TreeSitterParser construction
// in internal/parser/parser_language_setup.go.
func NewRegistry(opts Options) (*Registry, error) {
	r := &Registry{byExt: make(map[string]Parser)}

	ts, err := NewTypeScriptParser(opts)
	if err != nil {
		return nil, err
	}
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"} {
		r.byExt[ext] = ts
	}

	py, err := NewPythonParser(opts)
	if err != nil {
		return nil, err
	}
	r.byExt[".py"] = py

	return r, nil
}

// Options configures every language parser the registry constructs.
type Options struct {
	IncludePrivate bool // include underscore-prefixed names (spec.md §4.1)
}

// For selects the parser registered for path's extension, or nil.
func (r *Registry) For(path string) Parser {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExt[ext]
}

// LanguageFor maps an extension to its language tag, for file-entry bookkeeping.
func LanguageFor(path string) (types.Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx":
		return types.LangTypeScript, true
	case ".js", ".jsx", ".mjs", ".cjs":
		return types.LangJavaScript, true
	case ".py":
		return types.LangPython, true
	default:
		return "", false
	}
}
