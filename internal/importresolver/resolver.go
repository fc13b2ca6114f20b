// Package importresolver resolves raw import source strings to absolute
// file paths, following the resolution order in spec.md §4.3. Modeled on
// the teacher's internal/core/import_resolver.go: a platform-builtin list,
// relative resolution with extension fallback, path aliases, base-URL
// resolution, else external.
package importresolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/types"
)

var nodeBuiltins = map[string]bool{
	"fs": true, "path": true, "os": true, "http": true, "https": true, "crypto": true,
	"util": true, "events": true, "stream": true, "child_process": true, "net": true,
	"url": true, "querystring": true, "buffer": true, "assert": true, "zlib": true,
}

var pythonBuiltins = map[string]bool{
	"os": true, "sys": true, "json": true, "re": true, "typing": true, "collections": true,
	"itertools": true, "functools": true, "dataclasses": true, "pathlib": true, "asyncio": true,
	"logging": true, "abc": true, "enum": true, "math": true, "time": true, "datetime": true,
}

// PathAlias is one entry of a project's path-mapping config (e.g. tsconfig "paths").
type PathAlias struct {
	Pattern string // may contain a single '*' wildcard
	Targets []string
}

// Options configures one resolution pass.
type Options struct {
	Language  types.Language
	BaseURL   string      // resolved against the project root, e.g. tsconfig baseUrl
	Aliases   []PathAlias
	Root      string
	Extensions []string // fallback extensions tried for extension-less specifiers
}

// Resolver resolves imports for one indexing pass. It keeps a
// file-existence cache for the lifetime of the pass, per spec.md §4.3.
type Resolver struct {
	opts  Options
	cache map[string]bool
}

func New(opts Options) *Resolver {
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".ts", ".tsx", ".js", ".jsx", ".py", ".d.ts"}
	}
	return &Resolver{opts: opts, cache: make(map[string]bool)}
}

func (r *Resolver) exists(path string) bool {
	if v, ok := r.cache[path]; ok {
		return v
	}
	_, err := os.Stat(path)
	ok := err == nil
	r.cache[path] = ok
	return ok
}

// Resolve annotates one import against the file that contains it.
func (r *Resolver) Resolve(imp *types.Import, containingFile string) {
	source := imp.Source
	if strings.HasPrefix(source, "platform:") {
		imp.IsBuiltIn = true
		return
	}

	// 1. Platform builtins.
	root := strings.SplitN(source, "/", 2)[0]
	if r.opts.Language == types.LangPython && pythonBuiltins[root] {
		imp.IsBuiltIn = true
		return
	}
	if (r.opts.Language == types.LangTypeScript || r.opts.Language == types.LangJavaScript) && nodeBuiltins[root] {
		imp.IsBuiltIn = true
		return
	}

	// 2. Relative / absolute.
	if strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../") || filepath.IsAbs(source) {
		base := source
		if !filepath.IsAbs(source) {
			base = filepath.Join(filepath.Dir(containingFile), source)
		}
		if resolved := r.tryExtensions(base); resolved != "" {
			imp.ResolvedPath = resolved
			return
		}
		imp.IsExternal = true
		return
	}

	// 3. Path aliases.
	for _, alias := range r.opts.Aliases {
		if target, ok := matchAlias(alias, source); ok {
			for _, candidate := range target {
				full := filepath.Join(r.opts.Root, candidate)
				if resolved := r.tryExtensions(full); resolved != "" {
					imp.ResolvedPath = resolved
					return
				}
			}
		}
	}

	// 4. Base URL.
	if r.opts.BaseURL != "" {
		full := filepath.Join(r.opts.Root, r.opts.BaseURL, source)
		if resolved := r.tryExtensions(full); resolved != "" {
			imp.ResolvedPath = resolved
			return
		}
	}

	// 5. External.
	imp.IsExternal = true
}

func (r *Resolver) tryExtensions(base string) string {
	if r.exists(base) {
		if fi, err := os.Stat(base); err == nil && !fi.IsDir() {
			return base
		}
	}
	for _, ext := range r.opts.Extensions {
		candidate := base + ext
		if r.exists(candidate) {
			return candidate
		}
	}
	for _, ext := range r.opts.Extensions {
		candidate := filepath.Join(base, "index"+ext)
		if r.exists(candidate) {
			return candidate
		}
	}
	return ""
}

// matchAlias substitutes a single '*' wildcard in pattern/targets from source.
func matchAlias(alias PathAlias, source string) ([]string, bool) {
	pattern := alias.Pattern
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		if pattern == source {
			return alias.Targets, true
		}
		return nil, false
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if !strings.HasPrefix(source, prefix) || !strings.HasSuffix(source, suffix) {
		return nil, false
	}
	matched := source[len(prefix) : len(source)-len(suffix)]
	result := make([]string, len(alias.Targets))
	for i, t := range alias.Targets {
		result[i] = strings.Replace(t, "*", matched, 1)
	}
	return result, true
}
