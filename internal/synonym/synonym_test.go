package synonym

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/types"
)

func testConfig() config.SynonymsConfig {
	cfg := config.Default().Synonyms
	cfg.Enabled = true
	return cfg
}

func expansionTerms(exps []types.Expansion) []string {
	out := make([]string, len(exps))
	for i, exp := range exps {
		out[i] = exp.Term
	}
	return out
}

func TestTokenize_CamelCaseAndSeparators(t *testing.T) {
	assert.Equal(t, []string{"get", "user", "profile"}, tokenize("getUserProfile"))
	assert.Equal(t, []string{"user", "profile"}, tokenize("user_profile"))
	assert.Equal(t, []string{"user", "profile"}, tokenize("user-profile"))
	assert.Equal(t, []string{"http", "server"}, tokenize("HTTPServer"))
	assert.Empty(t, tokenize("a"), "single-char tokens are dropped")
}

func TestExpand_CanonicalAndSynonyms(t *testing.T) {
	e := NewExpander(testConfig())
	result := e.Expand("auth")

	names := expansionTerms(result.Expansions)
	assert.Contains(t, names, "auth")
	assert.Contains(t, names, "authenticate")
	assert.Contains(t, names, "login")

	for _, exp := range result.Expansions {
		assert.GreaterOrEqual(t, exp.Weight, 0.0)
		assert.LessOrEqual(t, exp.Weight, 1.0)
	}
}

func TestExpand_StemFallbackMatchesInflectedForm(t *testing.T) {
	e := NewExpander(testConfig())
	result := e.Expand("authenticating")

	names := expansionTerms(result.Expansions)
	assert.Contains(t, names, "authenticating", "the original token is always kept")
	assert.Contains(t, names, "auth", "the stemmed form should still reach the auth cluster")
}

func TestExpand_MultiWordContributesPhrase(t *testing.T) {
	e := NewExpander(testConfig())
	result := e.Expand("getUser")

	names := expansionTerms(result.Expansions)
	assert.Contains(t, names, "get")
	assert.Contains(t, names, "user")
	assert.Contains(t, names, "getuser")
}

func TestExpand_SortedByWeightDescending(t *testing.T) {
	e := NewExpander(testConfig())
	result := e.Expand("auth")

	for i := 1; i < len(result.Expansions); i++ {
		assert.GreaterOrEqual(t, result.Expansions[i-1].Weight, result.Expansions[i].Weight)
	}
}

func TestExpand_TruncatesToMaxExpansions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxExpansions = 3
	e := NewExpander(cfg)

	result := e.Expand("auth")
	assert.LessOrEqual(t, len(result.Expansions), 3)
}

func TestExpand_DuplicateTermsKeepMaxWeight(t *testing.T) {
	e := NewExpander(testConfig())
	result := e.Expand("auth authenticate")

	seen := map[string]int{}
	for _, exp := range result.Expansions {
		seen[exp.Term]++
	}
	for term, count := range seen {
		assert.Equal(t, 1, count, "term %q appeared more than once", term)
	}
}

func TestBuildFTSQuery_OrsPrefixTerms(t *testing.T) {
	e := NewExpander(testConfig())
	result := e.Expand("ctx")

	assert.Contains(t, result.FTSQuery, "ctx*")
	assert.Contains(t, result.FTSQuery, "context*")
	assert.Contains(t, result.FTSQuery, " OR ")
}

// TestExpand_Idempotent exercises spec.md §8's round-trip property using a
// query whose canonical cluster ("ctx" -> "context") shares no vocabulary
// with any other cluster, so expanding its own ftsQuery output is a fixed
// point on the term set (weights may shift, since re-seen terms arrive as
// fresh literal tokens on the second pass, but which terms appear does not).
func TestExpand_Idempotent(t *testing.T) {
	e := NewExpander(testConfig())

	first := e.Expand("ctx")
	second := e.Expand(first.FTSQuery)

	assert.ElementsMatch(t, expansionTerms(first.Expansions), expansionTerms(second.Expansions))
}

func TestExpand_IdempotentSingleClusterNoOverlap(t *testing.T) {
	e := NewExpander(testConfig())

	first := e.Expand("msg")
	second := e.Expand(first.FTSQuery)

	assert.ElementsMatch(t, expansionTerms(first.Expansions), expansionTerms(second.Expansions))
}

func TestRerank_BoostsNameMatchesAndSortsDescending(t *testing.T) {
	e := NewExpander(testConfig())
	expanded := e.Expand("auth")

	hits := []Scored{
		{Name: "computeChecksum", BackendScore: 0.9},
		{Name: "authenticateUser", Signature: "func authenticateUser(token string) bool", BackendScore: 0.5},
	}

	ranked := Rerank(hits, expanded.Expansions)
	require.Len(t, ranked, 2)
	assert.Equal(t, "authenticateUser", ranked[0].Name, "synonym-matching hit should outrank a higher raw backend score")
	assert.Greater(t, ranked[0].SynonymScore, 0.0)
	assert.Equal(t, 0.0, ranked[1].SynonymScore)
}

func TestGraph_CustomSynonymsOverridesAndDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.CustomSynonyms = []config.CustomSynonym{
		{Canonical: "widget", Term: "gadget", Relation: "conceptual", Weight: 0.6, Bidirectional: true},
	}
	cfg.Disabled = []string{"login"}

	g := NewGraph(cfg)

	matches := g.Lookup("gadget")
	require.Len(t, matches, 1)
	assert.Equal(t, "widget", matches[0].term.Term)

	assert.Empty(t, g.Lookup("login"))
}
