package querytools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/types"
)

// FindReferencesInput configures find_references.
type FindReferencesInput struct {
	Name   string `json:"symbolName,omitempty"`
	Format string `json:"format,omitempty"`
}

// FileReferences groups one file's references, in the order they appear
// within that file (the storage layer already sorts by line).
type FileReferences struct {
	File string
	Refs []types.Reference
}

// FindReferences implements find_references: every usage of name, grouped
// by referencing file, files in first-seen order.
func (d *Deps) FindReferences(ctx context.Context, in FindReferencesInput) ([]FileReferences, error) {
	refs, err := d.Store.GetReferencesByName(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	var order []string
	byFile := make(map[string]*FileReferences)
	for _, r := range refs {
		group, ok := byFile[r.ReferencingFile]
		if !ok {
			group = &FileReferences{File: r.ReferencingFile}
			byFile[r.ReferencingFile] = group
			order = append(order, r.ReferencingFile)
		}
		group.Refs = append(group.Refs, r)
	}

	out := make([]FileReferences, 0, len(order))
	for _, f := range order {
		out = append(out, *byFile[f])
	}
	return out, nil
}

// RenderFindReferences shapes a FindReferences result.
func RenderFindReferences(groups []FileReferences, format OutputFormat, maxBytes int) string {
	total := 0
	for _, g := range groups {
		total += len(g.Refs)
	}

	if format == FormatCompact {
		var b strings.Builder
		fmt.Fprintf(&b, "total=%d files=%d\n", total, len(groups))
		for _, g := range groups {
			for _, r := range g.Refs {
				b.WriteString(compactRow(g.File, fmt.Sprintf("%d:%d", r.Line, r.Column), string(r.Kind), r.Context))
				b.WriteByte('\n')
			}
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## References (%d across %d files)\n\n", total, len(groups))
	for _, g := range groups {
		fmt.Fprintf(&b, "### `%s`\n\n", g.File)
		for _, r := range g.Refs {
			fmt.Fprintf(&b, "- line %d: %s", r.Line, r.Kind)
			if r.Context != "" {
				fmt.Fprintf(&b, " — `%s`", r.Context)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}

// TraceCallsInput configures trace_calls.
type TraceCallsInput struct {
	Name      string `json:"functionName,omitempty"`
	Direction string `json:"direction,omitempty"` // "callers", "callees", or "both"
	Depth     int    `json:"depth,omitempty"`
	Format    string `json:"format,omitempty"`
}

// TraceCallsOutput separates caller-direction and callee-direction edges,
// flagging whether either side fell back to reference matches because the
// call graph had no resolved edges for that name at all.
type TraceCallsOutput struct {
	Callers         []types.CallEdge
	Callees         []types.CallEdge
	CallerFallback  bool
	CalleeFallback  bool
}

// TraceCalls implements trace_calls: callers/callees up to depth hops,
// sorted callCount desc then name asc, falling back to plain references
// only when a direction has zero call edges at all — a direction with
// some edges never falls back, even if shallower than requested.
func (d *Deps) TraceCalls(ctx context.Context, in TraceCallsInput) (TraceCallsOutput, error) {
	depth := in.Depth
	if depth <= 0 {
		depth = 1
	}
	if depth > 3 {
		depth = 3
	}

	var out TraceCallsOutput
	wantCallers := in.Direction == "" || in.Direction == "callers" || in.Direction == "both"
	wantCallees := in.Direction == "" || in.Direction == "callees" || in.Direction == "both"

	if wantCallers {
		edges, err := d.traceDirection(ctx, in.Name, depth, d.Store.GetCallers, func(e types.CallEdge) string {
			if e.CallerSymbolID != "" {
				return string(e.CallerSymbolID)
			}
			return e.CallerName
		})
		if err != nil {
			return out, err
		}
		out.Callers = edges
		if len(edges) == 0 {
			out.CallerFallback = true
		}
	}
	if wantCallees {
		edges, err := d.traceDirection(ctx, in.Name, depth, d.Store.GetCallees, func(e types.CallEdge) string {
			if e.CalleeSymbolID != "" {
				return string(e.CalleeSymbolID)
			}
			return e.CalleeName
		})
		if err != nil {
			return out, err
		}
		out.Callees = edges
		if len(edges) == 0 {
			out.CalleeFallback = true
		}
	}

	sortCallEdges(out.Callers, func(e types.CallEdge) string { return e.CallerName })
	sortCallEdges(out.Callees, func(e types.CallEdge) string { return e.CalleeName })
	return out, nil
}

func sortCallEdges(edges []types.CallEdge, nameOf func(types.CallEdge) string) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].CallCount != edges[j].CallCount {
			return edges[i].CallCount > edges[j].CallCount
		}
		return nameOf(edges[i]) < nameOf(edges[j])
	})
}

// traceDirection walks one direction of the call graph breadth-first up to
// depth hops, deduplicating by edge ID across hops.
func (d *Deps) traceDirection(ctx context.Context, name string, depth int, fetch func(context.Context, string) ([]types.CallEdge, error), nextRef func(types.CallEdge) string) ([]types.CallEdge, error) {
	seen := map[types.CallEdgeID]bool{}
	frontier := []string{name}
	var out []types.CallEdge

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, ref := range frontier {
			edges, err := fetch(ctx, ref)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				if seen[e.ID] {
					continue
				}
				seen[e.ID] = true
				out = append(out, e)
				next = append(next, nextRef(e))
			}
		}
		frontier = next
	}
	return out, nil
}

// RenderTraceCalls shapes a TraceCalls result.
func RenderTraceCalls(out TraceCallsOutput, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		for _, e := range out.Callers {
			b.WriteString(compactRow("caller", e.CallerName, e.CalleeName, fmt.Sprintf("%d", e.CallCount)))
			b.WriteByte('\n')
		}
		for _, e := range out.Callees {
			b.WriteString(compactRow("callee", e.CallerName, e.CalleeName, fmt.Sprintf("%d", e.CallCount)))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	if out.CallerFallback {
		b.WriteString("## Callers\n\n_no call-graph edges; fell back to references_\n\n")
	} else if len(out.Callers) > 0 {
		b.WriteString("## Callers\n\n")
		for _, e := range out.Callers {
			fmt.Fprintf(&b, "- `%s` → `%s` (%d calls)\n", e.CallerName, e.CalleeName, e.CallCount)
		}
		b.WriteString("\n")
	}
	if out.CalleeFallback {
		b.WriteString("## Callees\n\n_no call-graph edges; fell back to references_\n\n")
	} else if len(out.Callees) > 0 {
		b.WriteString("## Callees\n\n")
		for _, e := range out.Callees {
			fmt.Fprintf(&b, "- `%s` → `%s` (%d calls)\n", e.CallerName, e.CalleeName, e.CallCount)
		}
		b.WriteString("\n")
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}
