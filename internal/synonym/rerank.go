package synonym

import (
	"sort"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/types"
)

// Scored is anything rerank can boost by name/signature content: a backend
// search hit plus its raw backend score.
type Scored struct {
	Name          string
	Signature     string
	BackendScore  float64
	SynonymScore  float64
	CombinedScore float64
}

const (
	backendWeight = 0.6
	synonymWeight = 0.4
)

// Rerank applies spec.md §4.7's reranking rule: a secondary score boosts
// items whose name or signature contains an expanded term, weighted by
// that term's expansion weight, then combines backend-score×0.6 +
// synonym-score×0.4. Input order is not assumed to be meaningful; results
// are returned sorted by CombinedScore descending.
func Rerank(hits []Scored, expansions []types.Expansion) []Scored {
	out := make([]Scored, len(hits))
	copy(out, hits)

	for i := range out {
		out[i].SynonymScore = synonymScore(out[i], expansions)
		out[i].CombinedScore = out[i].BackendScore*backendWeight + out[i].SynonymScore*synonymWeight
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CombinedScore > out[j].CombinedScore })
	return out
}

func synonymScore(hit Scored, expansions []types.Expansion) float64 {
	haystack := strings.ToLower(hit.Name + " " + hit.Signature)
	var sum, max float64
	for _, exp := range expansions {
		if exp.Weight > max {
			max = exp.Weight
		}
		if strings.Contains(haystack, exp.Term) {
			sum += exp.Weight
		}
	}
	if max == 0 {
		return 0
	}
	score := sum / max
	if score > 1 {
		score = 1
	}
	return score
}
