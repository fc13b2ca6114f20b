package querytools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/markov"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// SuggestRelatedInput configures suggest_related.
type SuggestRelatedInput struct {
	Symbol         string   `json:"symbol_name,omitempty"`
	ChainTypes     []string `json:"chain_types,omitempty"`
	Depth          int      `json:"depth,omitempty"`
	MinProbability float64  `json:"min_probability,omitempty"`
	MaxResults     int      `json:"limit,omitempty"`
	DecayFactor    float64  `json:"decay_factor,omitempty"`
	Explain        bool     `json:"explain,omitempty"`
	Format         string   `json:"format,omitempty"`
}

// SuggestRelated implements suggest_related: a thin pass-through to the
// Markov query engine, score descending.
func (d *Deps) SuggestRelated(ctx context.Context, in SuggestRelatedInput) (markov.Result, error) {
	chains := make([]types.ChainType, len(in.ChainTypes))
	for i, c := range in.ChainTypes {
		chains[i] = types.ChainType(c)
	}
	return d.Engine.Query(ctx, markov.QueryOptions{
		ChainTypes:     chains,
		StartSymbol:    in.Symbol,
		Depth:          in.Depth,
		MinProbability: in.MinProbability,
		MaxResults:     in.MaxResults,
		DecayFactor:    in.DecayFactor,
		Explain:        in.Explain,
	})
}

// RenderSuggestRelated shapes a SuggestRelated result.
func RenderSuggestRelated(result markov.Result, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		fmt.Fprintf(&b, "fallback=%v fallbackType=%s\n", result.FallbackUsed, result.FallbackType)
		for _, s := range result.Suggestions {
			b.WriteString(compactRow(s.State, fmt.Sprintf("%.4f", s.Score), string(s.Chain), fmt.Sprintf("%d", s.Depth)))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	b.WriteString("## Related\n\n")
	if result.FallbackUsed {
		fmt.Fprintf(&b, "_no chain suggestions; fell back to %s_\n\n", result.FallbackType)
	}
	for _, s := range result.Suggestions {
		fmt.Fprintf(&b, "- `%s` (score %.4f, %s chain, depth %d)", s.State, s.Score, s.Chain, s.Depth)
		if s.Explanation != "" {
			fmt.Fprintf(&b, " — %s", s.Explanation)
		}
		b.WriteString("\n")
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}

// RelatedContextInput configures get_related_context.
type RelatedContextInput struct {
	Symbol       string `json:"symbolName,omitempty"`
	FilePath     string `json:"filePath,omitempty"`
	MaxTokens    int    `json:"maxTokens,omitempty"`
	IncludeTests bool   `json:"includeTests,omitempty"`
	Format       string `json:"format,omitempty"`
}

// RelatedContextOutput bundles a target symbol with its related types,
// callees up to depth 2, and (optionally) related tests — each section
// independently budgeted via AllocateBudget.
type RelatedContextOutput struct {
	Target       *types.AnySymbol
	RelatedTypes []types.AnySymbol
	Callees      []types.CallEdge
	Tests        []types.Reference
	Budgets      map[string]int
}

// GetRelatedContext implements get_related_context: the target symbol plus
// its related types and call graph, and optionally related tests, budgeted
// 45/28/27 (symbol/types/calls) or 40/25/25/10 when tests are included, per
// spec.md §4.9.
func (d *Deps) GetRelatedContext(ctx context.Context, in RelatedContextInput) (RelatedContextOutput, error) {
	var out RelatedContextOutput

	maxTokens := in.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	var sections []SectionBudget
	if in.IncludeTests {
		sections = []SectionBudget{
			{Name: "symbol", Fraction: 0.40},
			{Name: "types", Fraction: 0.25},
			{Name: "calls", Fraction: 0.25},
			{Name: "tests", Fraction: 0.10},
		}
	} else {
		sections = []SectionBudget{
			{Name: "symbol", Fraction: 0.45},
			{Name: "types", Fraction: 0.28},
			{Name: "calls", Fraction: 0.27},
		}
	}
	out.Budgets = AllocateBudget(maxTokens, sections)

	matches, err := d.resolveOneSymbol(ctx, in.Symbol, in.FilePath)
	if err != nil {
		return out, err
	}
	if len(matches) == 0 {
		return out, nil
	}
	target := matches[0]
	out.Target = &target

	seenTypes := map[string]bool{}
	for _, p := range target.Parameters {
		if p.Type != "" && !seenTypes[p.Type] {
			seenTypes[p.Type] = true
			related, err := d.Store.FindSymbolsByName(ctx, p.Type, "")
			if err != nil {
				return out, err
			}
			out.RelatedTypes = append(out.RelatedTypes, related...)
		}
	}
	if target.ReturnType != "" && !seenTypes[target.ReturnType] {
		related, err := d.Store.FindSymbolsByName(ctx, target.ReturnType, "")
		if err != nil {
			return out, err
		}
		out.RelatedTypes = append(out.RelatedTypes, related...)
	}

	callees, err := d.traceDirection(ctx, in.Symbol, 2, d.Store.GetCallees, func(e types.CallEdge) string { return e.CalleeName })
	if err != nil {
		return out, err
	}
	out.Callees = callees

	if in.IncludeTests {
		refs, err := d.Store.GetReferencesByName(ctx, in.Symbol)
		if err != nil {
			return out, err
		}
		for _, r := range refs {
			if isTestFile(r.ReferencingFile) {
				out.Tests = append(out.Tests, r)
				if len(out.Tests) >= 5 {
					break
				}
			}
		}
	}

	return out, nil
}

// RenderRelatedContext shapes a GetRelatedContext result, truncating each
// section independently to its allocated byte budget.
func RenderRelatedContext(out RelatedContextOutput, format OutputFormat) string {
	if out.Target == nil {
		return "no matching symbol"
	}

	symbolBudget := out.Budgets["symbol"]
	typesBudget := out.Budgets["types"]
	callsBudget := out.Budgets["calls"]
	testsBudget := out.Budgets["tests"]

	if format == FormatCompact {
		var b strings.Builder
		b.WriteString(TruncateToByteBudget(compactRow(out.Target.Name, out.Target.File, out.Target.Signature), symbolBudget))
		b.WriteByte('\n')
		var tb strings.Builder
		for _, t := range out.RelatedTypes {
			tb.WriteString(compactRow(t.Name, t.File))
			tb.WriteByte('\n')
		}
		b.WriteString(TruncateToByteBudget(tb.String(), typesBudget))
		var cb strings.Builder
		for _, c := range out.Callees {
			cb.WriteString(compactRow(c.CallerName, c.CalleeName))
			cb.WriteByte('\n')
		}
		b.WriteString(TruncateToByteBudget(cb.String(), callsBudget))
		if testsBudget > 0 {
			var tsb strings.Builder
			for _, t := range out.Tests {
				tsb.WriteString(compactRow(t.ReferencingFile, fmt.Sprintf("%d", t.Line)))
				tsb.WriteByte('\n')
			}
			b.WriteString(TruncateToByteBudget(tsb.String(), testsBudget))
		}
		return b.String()
	}

	var b strings.Builder
	symbolSection := fmt.Sprintf("## `%s`\n\n`%s`\n\n", out.Target.Name, out.Target.Signature)
	if out.Target.SourceText != "" {
		symbolSection += fmt.Sprintf("```\n%s\n```\n\n", out.Target.SourceText)
	}
	b.WriteString(TruncateToByteBudget(symbolSection, symbolBudget))

	var typesSection strings.Builder
	typesSection.WriteString("### Related types\n\n")
	for _, t := range out.RelatedTypes {
		fmt.Fprintf(&typesSection, "- `%s` (%s)\n", t.Name, t.File)
	}
	b.WriteString(TruncateToByteBudget(typesSection.String(), typesBudget))

	var callsSection strings.Builder
	callsSection.WriteString("\n### Callees\n\n")
	for _, c := range out.Callees {
		fmt.Fprintf(&callsSection, "- `%s` → `%s`\n", c.CallerName, c.CalleeName)
	}
	b.WriteString(TruncateToByteBudget(callsSection.String(), callsBudget))

	if testsBudget > 0 {
		var testsSection strings.Builder
		testsSection.WriteString("\n### Related tests\n\n")
		for _, t := range out.Tests {
			fmt.Fprintf(&testsSection, "- `%s:%d`\n", t.ReferencingFile, t.Line)
		}
		b.WriteString(TruncateToByteBudget(testsSection.String(), testsBudget))
	}

	return b.String()
}
