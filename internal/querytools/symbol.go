package querytools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/types"
)

// GetFunctionInput configures get_function/get_class: a symbol name plus an
// optional file hint the path resolver ladder narrows against.
// Name is left untagged: get_function's wire key is "functionName" and
// get_class's is "className", so the mcpserver layer fills it in by hand
// from whichever key the tool actually received rather than relying on a
// single json tag that could only match one of the two.
type GetFunctionInput struct {
	Name     string `json:"-"`
	FilePath string `json:"filePath,omitempty"`
	Format   string `json:"format,omitempty"`
}

// resolveOneSymbol finds the unique symbol named `name`, optionally
// narrowed to a resolved file. Multiple same-named matches across files
// without a FilePath hint are returned as-is; callers decide whether that's
// an ambiguity error or a "pick the first" default.
func (d *Deps) resolveOneSymbol(ctx context.Context, name, filePath string, kinds ...types.SymbolKind) ([]types.AnySymbol, error) {
	resolved := ""
	if filePath != "" {
		resolver, err := d.resolver(ctx)
		if err != nil {
			return nil, err
		}
		result, rerr := resolver.Resolve(filePath)
		if rerr != nil {
			return nil, rerr
		}
		resolved = result.ResolvedPath
	}

	candidates, err := d.Store.FindSymbolsByName(ctx, name, resolved)
	if err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		return candidates, nil
	}

	allowed := make(map[types.SymbolKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	var out []types.AnySymbol
	for _, c := range candidates {
		if allowed[c.Kind] {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetFunction implements get_function: the full source and metadata for one
// function/method/constructor/callback symbol.
func (d *Deps) GetFunction(ctx context.Context, in GetFunctionInput) ([]types.AnySymbol, error) {
	return d.resolveOneSymbol(ctx, in.Name, in.FilePath,
		types.KindFunction, types.KindMethod, types.KindConstructor, types.KindCallback)
}

// GetClass implements get_class: the full source and metadata for one
// class/interface symbol, plus its declared members.
func (d *Deps) GetClass(ctx context.Context, in GetFunctionInput) ([]types.AnySymbol, error) {
	return d.resolveOneSymbol(ctx, in.Name, in.FilePath, types.KindClass, types.KindInterface)
}

// RenderSymbolDetail shapes a get_function/get_class result.
func RenderSymbolDetail(symbols []types.AnySymbol, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		for _, s := range symbols {
			b.WriteString(compactRow(s.Name, s.File, fmt.Sprintf("%d-%d", s.Location.StartLine, s.Location.EndLine), s.Signature))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	for _, s := range symbols {
		fmt.Fprintf(&b, "## `%s` (%s:%d-%d)\n\n", s.Name, s.File, s.Location.StartLine, s.Location.EndLine)
		if s.Signature != "" {
			fmt.Fprintf(&b, "`%s`\n\n", s.Signature)
		}
		if s.Documentation.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", s.Documentation.Description)
		}
		if len(s.Implements) > 0 {
			fmt.Fprintf(&b, "Implements: %s\n\n", strings.Join(s.Implements, ", "))
		}
		if s.SourceText != "" {
			fmt.Fprintf(&b, "```\n%s\n```\n\n", s.SourceText)
		}
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}
