package synonym

import (
	"sort"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// Expander is the top-level entry point for expandQuery (spec.md §4.7).
// Wraps a Graph with the config knobs that shape the result.
type Expander struct {
	graph              *Graph
	minWeightThreshold float64
	maxExpansions      int
}

func NewExpander(cfg config.SynonymsConfig) *Expander {
	threshold := cfg.MinWeightThreshold
	if threshold <= 0 {
		threshold = 0.3
	}
	maxExpansions := cfg.MaxExpansions
	if maxExpansions <= 0 {
		maxExpansions = 15
	}
	return &Expander{
		graph:              NewGraph(cfg),
		minWeightThreshold: threshold,
		maxExpansions:      maxExpansions,
	}
}

// Expand runs spec.md §4.7's expandQuery: tokenize, look up each token
// against the synonym graph, add the canonical term (weight = 0.9 ×
// matchWeight) plus every synonym at or above minWeightThreshold, keep the
// max weight on duplicate terms, sort by weight descending and truncate to
// maxExpansions. A multi-word query additionally contributes the
// concatenated phrase at weight 1.0.
func (e *Expander) Expand(query string) types.ExpandedQuery {
	tokens, isReexpansion := tokensOf(query)

	byTerm := make(map[string]types.Expansion)
	add := func(term string, weight float64, source types.ExpansionSource) {
		term = strings.ToLower(term)
		if existing, ok := byTerm[term]; !ok || weight > existing.Weight {
			byTerm[term] = types.Expansion{Term: term, Weight: weight, Source: source}
		}
	}

	for _, tok := range tokens {
		add(tok, 1.0, types.SourceOriginal)

		for _, match := range e.graph.Lookup(tok) {
			canonicalWeight := 0.9 * match.matchWeight
			add(match.term.Term, canonicalWeight, types.SourceCanonical)

			for _, syn := range match.term.Synonyms {
				if syn.Weight < e.minWeightThreshold {
					continue
				}
				add(syn.Term, syn.Weight, types.SourceSynonym)
			}
		}
	}

	// Re-expanding our own ftsQuery output feeds in terms that are already
	// an OR of atomic expansion terms, not a natural-language phrase — don't
	// contribute a fresh concatenated phrase for it, or expandQuery would
	// never reach a fixed point on its own output (spec.md §8 idempotence).
	if !isReexpansion && len(tokens) > 1 {
		phrase := strings.Join(tokens, "")
		add(phrase, 1.0, types.SourceOriginal)
	}

	expansions := make([]types.Expansion, 0, len(byTerm))
	for _, exp := range byTerm {
		expansions = append(expansions, exp)
	}
	sort.Slice(expansions, func(i, j int) bool {
		if expansions[i].Weight != expansions[j].Weight {
			return expansions[i].Weight > expansions[j].Weight
		}
		return expansions[i].Term < expansions[j].Term
	})
	if len(expansions) > e.maxExpansions {
		expansions = expansions[:e.maxExpansions]
	}

	return types.ExpandedQuery{
		Original:   query,
		Expansions: expansions,
		FTSQuery:   buildFTSQuery(expansions),
	}
}

// buildFTSQuery joins expansion terms as an OR of prefix matches, per
// spec.md §4.7's "FTS query is the OR of prefix-match terms".
func buildFTSQuery(expansions []types.Expansion) string {
	if len(expansions) == 0 {
		return ""
	}
	terms := make([]string, 0, len(expansions))
	for _, exp := range expansions {
		terms = append(terms, ftsQuoteTerm(exp.Term)+"*")
	}
	return strings.Join(terms, " OR ")
}

// ftsQuoteTerm wraps a term in double quotes when it isn't a single bare
// word, so multi-word phrase expansions stay one FTS5 token sequence
// instead of being parsed as separate OR'd terms.
func ftsQuoteTerm(term string) string {
	if strings.ContainsAny(term, " \t\"") {
		return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return term
}
