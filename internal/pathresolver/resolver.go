// Package pathresolver maps user-provided paths (absolute, relative,
// suffix, fuzzy) to indexed entries, per spec.md §4.4's strategy ladder.
// Fuzzy similarity reuses the Jaro-Winkler scorer the teacher's
// internal/semantic/fuzzy_matcher.go wraps around hbollon/go-edlib.
package pathresolver

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
)

const (
	// MinAutoResolveScore is the minimum fuzzy score (0-100) required to
	// auto-resolve without disambiguation, per spec.md §4.4.
	MinAutoResolveScore = 80.0
	// AutoResolveMargin is the minimum lead over the second-best score.
	AutoResolveMargin = 20.0
	maxSuggestions     = 5
	maxNearbyFiles     = 15
)

// Result is a successful resolution.
type Result struct {
	ResolvedPath string
	RelativePath string
	AutoResolved bool
}

// Resolver resolves against a fixed root directory and a snapshot of stored paths.
type Resolver struct {
	root        string
	storedPaths []string // absolute paths as stored by the indexer
}

func New(root string, storedPaths []string) *Resolver {
	return &Resolver{root: root, storedPaths: storedPaths}
}

// Resolve runs the five-step ladder from spec.md §4.4.
func (r *Resolver) Resolve(userPath string) (*Result, *lzerrors.ResolveError) {
	if userPath == "" {
		return nil, &lzerrors.ResolveError{Type: lzerrors.ResolveNotFound, Query: userPath}
	}

	// 1. Exact absolute match.
	for _, p := range r.storedPaths {
		if p == userPath {
			return r.ok(p, false), nil
		}
	}

	// 2. Absolute after resolving relative to root.
	joined := filepath.Clean(filepath.Join(r.root, userPath))
	for _, p := range r.storedPaths {
		if p == joined {
			return r.ok(p, false), nil
		}
	}

	// 3. Stored relative-path match after stripping leading "./".
	stripped := strings.TrimPrefix(userPath, "./")
	for _, p := range r.storedPaths {
		if rel, err := filepath.Rel(r.root, p); err == nil && rel == stripped {
			return r.ok(p, false), nil
		}
	}

	// 4. Suffix match (forward-slash normalized).
	normQuery := filepath.ToSlash(stripped)
	var suffixHits []string
	for _, p := range r.storedPaths {
		if strings.HasSuffix(filepath.ToSlash(p), normQuery) {
			suffixHits = append(suffixHits, p)
		}
	}
	if len(suffixHits) == 1 {
		return r.ok(suffixHits[0], false), nil
	}
	if len(suffixHits) > 1 {
		return nil, &lzerrors.ResolveError{
			Type:        lzerrors.ResolveAmbiguous,
			Query:       userPath,
			Suggestions: r.toRelative(suffixHits, maxSuggestions),
		}
	}

	// 5. Fuzzy similarity.
	type scored struct {
		path  string
		score float64
	}
	var scores []scored
	for _, p := range r.storedPaths {
		scores = append(scores, scored{p, fuzzyScore(userPath, p)})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if len(scores) > 0 && scores[0].score >= MinAutoResolveScore {
		secondBest := 0.0
		if len(scores) > 1 {
			secondBest = scores[1].score
		}
		if scores[0].score-secondBest >= AutoResolveMargin {
			return r.ok(scores[0].path, true), nil
		}
	}

	return nil, &lzerrors.ResolveError{
		Type:        lzerrors.ResolveNotFound,
		Query:       userPath,
		Suggestions: topSuggestions(scores, maxSuggestions, r),
		NearbyFiles: r.nearbyFiles(userPath),
	}
}

func (r *Resolver) ok(path string, auto bool) *Result {
	rel, _ := filepath.Rel(r.root, path)
	return &Result{ResolvedPath: path, RelativePath: filepath.ToSlash(rel), AutoResolved: auto}
}

func (r *Resolver) toRelative(paths []string, limit int) []string {
	var out []string
	for _, p := range paths {
		if len(out) >= limit {
			break
		}
		rel, _ := filepath.Rel(r.root, p)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func topSuggestions(scores []struct {
	path  string
	score float64
}, limit int, r *Resolver) []string {
	var out []string
	for _, s := range scores {
		if len(out) >= limit || s.score <= 0 {
			break
		}
		rel, _ := filepath.Rel(r.root, s.path)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// nearbyFiles lists files in the directory nearest to the query's directory component.
func (r *Resolver) nearbyFiles(userPath string) []string {
	dir := filepath.Dir(userPath)
	var out []string
	for _, p := range r.storedPaths {
		if len(out) >= maxNearbyFiles {
			break
		}
		if strings.Contains(filepath.ToSlash(filepath.Dir(p)), filepath.ToSlash(dir)) {
			rel, _ := filepath.Rel(r.root, p)
			out = append(out, filepath.ToSlash(rel))
		}
	}
	return out
}

// fuzzyScore combines basename match, directory overlap, substring
// containment and character-set Jaccard similarity into a 0-100 score, per
// spec.md §4.4.
func fuzzyScore(query, candidate string) float64 {
	qBase := filepath.Base(query)
	cBase := filepath.Base(candidate)

	basenameScore := jaroWinkler(qBase, cBase) * 100

	dirScore := 0.0
	qDir := filepath.ToSlash(filepath.Dir(query))
	cDir := filepath.ToSlash(filepath.Dir(candidate))
	if qDir != "." && strings.Contains(cDir, qDir) {
		dirScore = 100
	}

	substringScore := 0.0
	if strings.Contains(strings.ToLower(candidate), strings.ToLower(query)) {
		substringScore = 100
	}

	jaccard := charJaccard(qBase, cBase) * 100

	return basenameScore*0.5 + dirScore*0.2 + substringScore*0.2 + jaccard*0.1
}

func jaroWinkler(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(score)
}

func charJaccard(a, b string) float64 {
	setA := make(map[rune]bool)
	setB := make(map[rune]bool)
	for _, r := range strings.ToLower(a) {
		setA[r] = true
	}
	for _, r := range strings.ToLower(b) {
		setB[r] = true
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	inter, union := 0, 0
	for r := range setA {
		if setB[r] {
			inter++
		}
	}
	union = len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
