package indexer

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// gitignorePattern is one parsed .gitignore line. Matching delegates to
// doublestar rather than the teacher's hand-rolled regex/prefix-suffix
// optimizer in internal/config/gitignore.go, since doublestar is already
// the glob engine the scanner uses for include/exclude — one glob dialect
// for the whole package instead of two.
type gitignorePattern struct {
	raw       string
	negate    bool
	directory bool
	anchored  bool
}

// gitignoreParser accumulates patterns from one or more .gitignore files
// and answers ShouldIgnore queries against paths relative to its root.
type gitignoreParser struct {
	patterns []gitignorePattern
}

func newGitignoreParser() *gitignoreParser {
	return &gitignoreParser{}
}

// loadGitignore reads root/.gitignore, if present. A missing file is not
// an error: most projects don't have one.
func (g *gitignoreParser) loadGitignore(root string) error {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		g.patterns = append(g.patterns, parseGitignoreLine(line))
	}
	return scanner.Err()
}

func parseGitignoreLine(line string) gitignorePattern {
	p := gitignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	}
	p.raw = line
	return p
}

// shouldIgnore reports whether relPath (forward-slash, relative to the
// gitignore's root) is excluded. Later patterns override earlier ones, and
// a negated pattern un-ignores a path matched by an earlier rule — the
// same last-match-wins semantics as git itself and the teacher's
// GitignoreParser.ShouldIgnore.
func (g *gitignoreParser) shouldIgnore(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	ignored := false
	for _, p := range g.patterns {
		if matchesGitignorePattern(p, relPath, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

func matchesGitignorePattern(p gitignorePattern, relPath string, isDir bool) bool {
	if p.directory && !isDir {
		// Match if relPath is inside a directory named p.raw.
		return pathHasDirSegment(relPath, p.raw)
	}

	if p.anchored {
		ok, _ := doublestar.Match(p.raw, relPath)
		return ok || (p.directory && pathHasDirSegment(relPath, p.raw))
	}

	// Unanchored: match the pattern against the full path or any suffix
	// starting at a path segment boundary (git's "matches anywhere" rule).
	if !strings.Contains(p.raw, "/") {
		base := filepath.Base(relPath)
		if ok, _ := doublestar.Match(p.raw, base); ok {
			return true
		}
		return pathHasDirSegment(relPath, p.raw)
	}
	ok, _ := doublestar.Match(p.raw, relPath)
	if ok {
		return true
	}
	ok, _ = doublestar.Match("**/"+p.raw, relPath)
	return ok
}

func pathHasDirSegment(relPath, name string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if seg == name {
			return true
		}
	}
	return false
}
