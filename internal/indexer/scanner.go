package indexer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ozekimasaki/lazyload/internal/parser"
)

// scanner walks a project root and yields candidate source files: ones a
// registered parser can handle, not excluded by config.Exclude or a
// .gitignore, and matching config.Include when that list is non-empty.
// Mirrors the teacher's FileScanner/shouldProcessFile split between glob
// filters and gitignore in internal/indexing/pipeline_scanner.go.
type scanner struct {
	root      string
	include   []string
	exclude   []string
	gitignore *gitignoreParser
	registry  *parser.Registry
}

func newScanner(root string, include, exclude []string, registry *parser.Registry) *scanner {
	gi := newGitignoreParser()
	_ = gi.loadGitignore(root) // a missing .gitignore is not fatal
	return &scanner{root: root, include: include, exclude: exclude, gitignore: gi, registry: registry}
}

// walk invokes fn for every candidate file under s.root, in lexical order.
func (s *scanner) walk(fn func(path string) error) error {
	return filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && s.isExcludedDir(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.shouldProcess(rel, path) {
			return nil
		}
		return fn(path)
	})
}

func (s *scanner) isExcludedDir(rel, base string) bool {
	if base == ".git" {
		return true
	}
	for _, pat := range s.exclude {
		dirPat := strings.TrimSuffix(pat, "/**")
		if ok, _ := doublestar.Match(dirPat, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return s.gitignore.shouldIgnore(rel, true)
}

// shouldProcess applies, in order: parser support by extension, exclude
// globs, gitignore, then include globs (only when the list is non-empty —
// an empty include list means "everything the parser registry supports").
func (s *scanner) shouldProcess(rel, absPath string) bool {
	if s.registry.For(absPath) == nil {
		return false
	}
	for _, pat := range s.exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	if s.gitignore.shouldIgnore(rel, false) {
		return false
	}
	if len(s.include) == 0 {
		return true
	}
	for _, pat := range s.include {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
