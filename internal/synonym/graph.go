// Package synonym implements query expansion over a graph of canonical
// terms and their weighted synonyms: expandQuery from spec.md §4.7. The
// term/synonym/weight shape is grounded on the teacher's
// internal/semantic/translation_loader.go TranslationDictionary, collapsed
// from its abbreviation/domain maps into a single weighted graph since
// spec.md has no separate notion of "abbreviation cluster" vs "domain
// cluster" — every relation carries its own weight and Relation label
// instead.
package synonym

import (
	"strings"

	"github.com/surgebase/porter2"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// Graph holds canonical terms, each with a set of weighted synonyms, plus a
// reverse index from any term (canonical or synonym) back to the canonical
// terms it belongs to. stems backs a second, coarser lookup: the
// teacher's internal/semantic/stemmer.go Stemmer.Stem normalization,
// applied here so "authenticating"/"authenticates" resolve to the same
// "auth" cluster as "authenticate" without every inflection needing its
// own graph entry.
type Graph struct {
	canonical map[string]*types.CanonicalTerm
	reverse   map[string][]string // term -> canonical terms it appears under
	stems     map[string][]string // porter2 stem -> canonical terms whose vocabulary stems to it
}

// NewGraph builds a graph from the builtin synonym set (when enabled),
// overlaid with cfg.CustomSynonyms, cfg.Overrides (per-term weight
// overrides) and cfg.Disabled (terms dropped entirely).
func NewGraph(cfg config.SynonymsConfig) *Graph {
	g := &Graph{
		canonical: make(map[string]*types.CanonicalTerm),
		reverse:   make(map[string][]string),
		stems:     make(map[string][]string),
	}

	if cfg.UseBuiltinSynonyms {
		for _, ct := range builtinCanonicalTerms() {
			g.addCanonical(ct)
		}
	}

	for _, cs := range cfg.CustomSynonyms {
		g.addSynonym(cs.Canonical, types.SynonymEntry{
			Term:          strings.ToLower(cs.Term),
			Relation:      types.SynonymRelation(cs.Relation),
			Weight:        cs.Weight,
			Bidirectional: cs.Bidirectional,
		})
	}

	for term, weight := range cfg.Overrides {
		g.overrideWeight(strings.ToLower(term), weight)
	}

	for _, term := range cfg.Disabled {
		g.disable(strings.ToLower(term))
	}

	g.rebuildStems()
	return g
}

// rebuildStems recomputes the stem index from the current reverse index.
// Called once at construction time, after overrides/disables have settled,
// so a disabled term's stem entries don't linger.
func (g *Graph) rebuildStems() {
	g.stems = make(map[string][]string)
	for term, canonicals := range g.reverse {
		stem := porter2.Stem(term)
		if stem == term {
			continue
		}
		g.stems[stem] = append(g.stems[stem], canonicals...)
	}
}

func (g *Graph) addCanonical(ct types.CanonicalTerm) {
	term := strings.ToLower(ct.Term)
	cp := ct
	cp.Term = term
	g.canonical[term] = &cp
	g.reverse[term] = append(g.reverse[term], term)
	for _, syn := range ct.Synonyms {
		g.reverse[strings.ToLower(syn.Term)] = append(g.reverse[strings.ToLower(syn.Term)], term)
	}
}

func (g *Graph) addSynonym(canonical string, entry types.SynonymEntry) {
	canonical = strings.ToLower(canonical)
	ct, ok := g.canonical[canonical]
	if !ok {
		ct = &types.CanonicalTerm{Term: canonical}
		g.canonical[canonical] = ct
		g.reverse[canonical] = append(g.reverse[canonical], canonical)
	}
	ct.Synonyms = append(ct.Synonyms, entry)
	g.reverse[entry.Term] = append(g.reverse[entry.Term], canonical)
}

func (g *Graph) overrideWeight(term string, weight float64) {
	for _, ct := range g.canonical {
		if strings.ToLower(ct.Term) == term {
			for i := range ct.Synonyms {
				ct.Synonyms[i].Weight = weight
			}
			continue
		}
		for i := range ct.Synonyms {
			if strings.ToLower(ct.Synonyms[i].Term) == term {
				ct.Synonyms[i].Weight = weight
			}
		}
	}
}

func (g *Graph) disable(term string) {
	delete(g.canonical, term)
	delete(g.reverse, term)
	for canonical, ct := range g.canonical {
		kept := ct.Synonyms[:0]
		for _, syn := range ct.Synonyms {
			if strings.ToLower(syn.Term) != term {
				kept = append(kept, syn)
			}
		}
		ct.Synonyms = kept
		_ = canonical
	}
}

// Lookup returns every (canonical term, matchWeight) pair that token
// belongs to: weight 1.0 if token is itself a canonical term, else the
// synonym's own weight. A token can belong to more than one canonical
// cluster (e.g. "query" appears under both "fetch" and "search" in the
// builtin set).
//
// A token with no exact match falls back to a stem match: "authenticating"
// carries no graph entry of its own, but porter2.Stem reduces it to the
// same stem as "authenticate", and matchWeight is discounted by
// stemMatchDiscount to mark the looser match.
func (g *Graph) Lookup(token string) []canonicalMatch {
	token = strings.ToLower(token)
	canonicals, ok := g.reverse[token]
	if !ok {
		return g.lookupByStem(token)
	}
	seen := make(map[string]bool, len(canonicals))
	var matches []canonicalMatch
	for _, canonical := range canonicals {
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		ct := g.canonical[canonical]
		if ct == nil {
			continue
		}
		if canonical == token {
			matches = append(matches, canonicalMatch{term: ct, matchWeight: 1.0})
			continue
		}
		for _, syn := range ct.Synonyms {
			if strings.ToLower(syn.Term) == token {
				matches = append(matches, canonicalMatch{term: ct, matchWeight: syn.Weight})
				break
			}
		}
	}
	return matches
}

// stemMatchDiscount scales down matchWeight for stem-based fallback matches
// relative to an exact vocabulary hit.
const stemMatchDiscount = 0.85

func (g *Graph) lookupByStem(token string) []canonicalMatch {
	canonicals, ok := g.stems[porter2.Stem(token)]
	if !ok {
		return nil
	}
	seen := make(map[string]bool, len(canonicals))
	var matches []canonicalMatch
	for _, canonical := range canonicals {
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		if ct := g.canonical[canonical]; ct != nil {
			matches = append(matches, canonicalMatch{term: ct, matchWeight: stemMatchDiscount})
		}
	}
	return matches
}

type canonicalMatch struct {
	term        *types.CanonicalTerm
	matchWeight float64
}
