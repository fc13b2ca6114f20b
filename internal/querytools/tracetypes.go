package querytools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/storage"
)

// TraceTypesInput configures trace_types.
type TraceTypesInput struct {
	Name   string `json:"className,omitempty"`
	Mode   string `json:"mode,omitempty"` // "hierarchy" (default), "subtypes", "implementations"
	Format string `json:"format,omitempty"`
}

// TraceTypes implements trace_types: the inheritance/implementation graph
// around one named type.
func (d *Deps) TraceTypes(ctx context.Context, in TraceTypesInput) ([]storage.TypeHierarchyNode, error) {
	switch in.Mode {
	case "subtypes":
		rels, err := d.Store.GetSubtypes(ctx, in.Name)
		if err != nil {
			return nil, err
		}
		out := make([]storage.TypeHierarchyNode, len(rels))
		for i, r := range rels {
			out[i] = storage.TypeHierarchyNode{Name: r.SourceName, Depth: 1, Kind: r.Kind}
		}
		return out, nil
	case "implementations":
		rels, err := d.Store.FindImplementations(ctx, in.Name)
		if err != nil {
			return nil, err
		}
		out := make([]storage.TypeHierarchyNode, len(rels))
		for i, r := range rels {
			out[i] = storage.TypeHierarchyNode{Name: r.SourceName, Depth: 1, Kind: r.Kind}
		}
		return out, nil
	default:
		return d.Store.GetTypeHierarchy(ctx, in.Name)
	}
}

// RenderTraceTypes shapes a TraceTypes result.
func RenderTraceTypes(name string, nodes []storage.TypeHierarchyNode, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		for _, n := range nodes {
			b.WriteString(compactRow(n.Name, fmt.Sprintf("%d", n.Depth), string(n.Kind)))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Type hierarchy for `%s`\n\n", name)
	for _, n := range nodes {
		switch {
		case n.Depth < 0:
			fmt.Fprintf(&b, "- ancestor (%d): `%s` (%s)\n", -n.Depth, n.Name, n.Kind)
		case n.Depth > 0:
			fmt.Fprintf(&b, "- descendant (%d): `%s` (%s)\n", n.Depth, n.Name, n.Kind)
		default:
			fmt.Fprintf(&b, "- self: `%s`\n", n.Name)
		}
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}
