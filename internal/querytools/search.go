package querytools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/synonym"
	"github.com/ozekimasaki/lazyload/internal/typenorm"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// SearchSymbolsInput configures search_symbols. Exactly one of Query
// (name/doc full-text search) or ReturnType/ParamType (signature search)
// drives the backend lookup. When ReturnType or ParamType is set, the
// signature search runs alone and Query is not applied to its results.
type SearchSymbolsInput struct {
	Query       string   `json:"query,omitempty"`
	ReturnType  string   `json:"return_type,omitempty"`
	ParamType   string   `json:"param_type,omitempty"`
	MatchMode   string   `json:"match_mode,omitempty"`
	Kinds       []string `json:"type,omitempty"`
	Language    string   `json:"language,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	ExpandQuery bool     `json:"expand_synonyms,omitempty"`
	Format      string   `json:"format,omitempty"`
}

// ScoredSymbol pairs a matched symbol with the rerank score that ordered it.
type ScoredSymbol struct {
	Symbol types.AnySymbol
	Score  float64
}

// SearchSymbols implements search_symbols: FTS name/doc search with
// synonym expansion and rerank per spec.md §4.7, or a type-signature search
// via internal/typenorm when ReturnType/ParamType is set.
func (d *Deps) SearchSymbols(ctx context.Context, in SearchSymbolsInput) ([]ScoredSymbol, error) {
	if in.ReturnType != "" || in.ParamType != "" {
		return d.searchByType(ctx, in)
	}
	return d.searchByName(ctx, in)
}

func (d *Deps) searchByName(ctx context.Context, in SearchSymbolsInput) ([]ScoredSymbol, error) {
	query := in.Query
	var expansions []types.Expansion
	prefixWildcard := false
	if in.ExpandQuery && d.Expander != nil {
		expanded := d.Expander.Expand(in.Query)
		expansions = expanded.Expansions
		if expanded.FTSQuery != "" {
			query = expanded.FTSQuery
			prefixWildcard = true
		}
	}

	kinds := make([]types.SymbolKind, len(in.Kinds))
	for i, k := range in.Kinds {
		kinds[i] = types.SymbolKind(k)
	}

	hits, err := d.Store.SearchSymbols(ctx, query, types.SearchOptions{
		Kinds:          kinds,
		Language:       types.Language(in.Language),
		Limit:          in.Limit,
		PrefixWildcard: prefixWildcard,
	})
	if err != nil {
		return nil, err
	}

	scored := make([]synonym.Scored, len(hits))
	for i, h := range hits {
		// FTS doesn't surface bm25() to the caller here, so every hit starts
		// from an equal backend score and rerank separates them purely on
		// synonym-term overlap; still the weighted-sum formula spec.md §4.7
		// specifies, just with a flat backend term.
		scored[i] = synonym.Scored{Name: h.Name, Signature: h.Signature, BackendScore: 1.0}
	}
	ranked := synonym.Rerank(scored, expansions)

	out := make([]ScoredSymbol, len(hits))
	for i, r := range ranked {
		for _, h := range hits {
			if h.Name == r.Name && h.Signature == r.Signature {
				out[i] = ScoredSymbol{Symbol: h, Score: r.CombinedScore}
				break
			}
		}
	}
	return out, nil
}

func (d *Deps) searchByType(ctx context.Context, in SearchSymbolsInput) ([]ScoredSymbol, error) {
	mode := types.TypeMatchMode(in.MatchMode)
	if mode == "" {
		mode = types.MatchBase
	}

	searchExpr := in.ReturnType
	if searchExpr == "" {
		searchExpr = in.ParamType
	}

	matchFn := func(raw string) bool {
		lang := types.LangTypeScript
		if len(in.Language) > 0 {
			lang = types.Language(in.Language)
		}
		parsed := typenorm.ParseType(raw, lang)
		return typenorm.TypesMatch(parsed, searchExpr, mode, typenorm.MatchOptions{})
	}

	hits, err := d.Store.SearchByType(ctx, types.TypeSearchOptions{
		ReturnType: in.ReturnType,
		ParamType:  in.ParamType,
		MatchMode:  mode,
		Language:   types.Language(in.Language),
		Limit:      in.Limit,
	}, matchFn)
	if err != nil {
		return nil, err
	}

	out := make([]ScoredSymbol, len(hits))
	for i, h := range hits {
		out[i] = ScoredSymbol{Symbol: h, Score: 1.0}
	}
	return out, nil
}

// RenderSearchSymbols shapes a SearchSymbols result.
func RenderSearchSymbols(results []ScoredSymbol, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		for _, r := range results {
			b.WriteString(compactRow(r.Symbol.Name, r.Symbol.File, fmt.Sprintf("%d", r.Symbol.Location.StartLine),
				string(r.Symbol.Kind), fmt.Sprintf("%.3f", r.Score)))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Search results (%d)\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "- `%s` in `%s:%d` (%s, score %.3f)\n", r.Symbol.Name, r.Symbol.File, r.Symbol.Location.StartLine, r.Symbol.Kind, r.Score)
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}
