package querytools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/storage"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// ListFilesInput configures list_files, per spec.md §6's key-input list.
type ListFilesInput struct {
	Directory       string   `json:"directory,omitempty"`
	Recursive       bool     `json:"recursive,omitempty"`
	Language        string   `json:"language,omitempty"`
	Limit           int      `json:"limit,omitempty"`
	Offset          int      `json:"offset,omitempty"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`
	IncludeTests    bool     `json:"include_tests,omitempty"`
	SummaryOnly     bool     `json:"summary_only,omitempty"`
	Format          string   `json:"format,omitempty"`
}

// DirectoryAggregate summarizes one directory's file count and total lines,
// the per-directory rollup list_files bundles alongside the raw listing.
type DirectoryAggregate struct {
	Directory string
	FileCount int
	LineCount int
}

// ListFilesOutput is list_files' full result before rendering.
type ListFilesOutput struct {
	Files        []types.FileEntry
	Aggregates   []DirectoryAggregate
	TotalMatched int
}

func isTestFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "_test.") || strings.Contains(lower, ".test.") ||
		strings.Contains(lower, ".spec.") || strings.Contains(lower, "/test/") || strings.Contains(lower, "/tests/")
}

// ListFiles implements list_files: a paginated listing in insertion
// (path-ascending, which storage.ListFiles already orders by) order, with
// per-directory aggregates, excluding test files unless requested.
func (d *Deps) ListFiles(ctx context.Context, in ListFilesInput) (ListFilesOutput, error) {
	filter := storage.FileFilter{DirectoryPrefix: in.Directory, Language: types.Language(in.Language)}
	all, err := d.Store.ListFiles(ctx, filter)
	if err != nil {
		return ListFilesOutput{}, err
	}

	var filtered []types.FileEntry
	for _, f := range all {
		if !in.IncludeTests && isTestFile(f.Path) {
			continue
		}
		if !in.Recursive && in.Directory != "" {
			rest := strings.TrimPrefix(f.Path, in.Directory)
			rest = strings.TrimPrefix(rest, "/")
			if strings.Contains(rest, "/") {
				continue
			}
		}
		if matchesAnyExclude(f.Path, in.ExcludePatterns) {
			continue
		}
		filtered = append(filtered, f)
	}

	total := len(filtered)
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 100
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := filtered[offset:end]

	aggByDir := make(map[string]*DirectoryAggregate)
	var dirOrder []string
	for _, f := range filtered {
		dir := parentDir(f.Path)
		agg, ok := aggByDir[dir]
		if !ok {
			agg = &DirectoryAggregate{Directory: dir}
			aggByDir[dir] = agg
			dirOrder = append(dirOrder, dir)
		}
		agg.FileCount++
		agg.LineCount += f.LineCount
	}
	sort.Strings(dirOrder)
	aggregates := make([]DirectoryAggregate, 0, len(dirOrder))
	for _, dir := range dirOrder {
		aggregates = append(aggregates, *aggByDir[dir])
	}

	return ListFilesOutput{Files: page, Aggregates: aggregates, TotalMatched: total}, nil
}

func parentDir(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return "."
}

func matchesAnyExclude(path string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(path, strings.TrimSuffix(strings.TrimPrefix(p, "**/"), "/**")) {
			return true
		}
	}
	return false
}

// RenderListFiles shapes ListFilesOutput per the requested format, budgeted
// to maxBytes in compact mode.
func RenderListFiles(out ListFilesOutput, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		fmt.Fprintf(&b, "total=%d shown=%d\n", out.TotalMatched, len(out.Files))
		for _, f := range out.Files {
			b.WriteString(compactRow(f.Path, string(f.Language), fmt.Sprintf("%d", f.LineCount), string(f.ParseStatus)))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Files (%d of %d)\n\n", len(out.Files), out.TotalMatched)
	for _, f := range out.Files {
		fmt.Fprintf(&b, "- `%s` (%s, %d lines, %s)\n", f.Path, f.Language, f.LineCount, f.ParseStatus)
	}
	if len(out.Aggregates) > 0 {
		b.WriteString("\n### Directory summary\n\n")
		for _, a := range out.Aggregates {
			fmt.Fprintf(&b, "- `%s`: %d files, %d lines\n", a.Directory, a.FileCount, a.LineCount)
		}
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}

// ListFunctionsInput configures list_functions.
type ListFunctionsInput struct {
	FilePath      string `json:"filePath,omitempty"`
	IncludeSource bool   `json:"include_source,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Format        string `json:"format,omitempty"`
}

// ListFunctions implements list_functions: every signature declared in
// filePath, in file (declaration) order, with source attached for the
// first Limit symbols when requested.
func (d *Deps) ListFunctions(ctx context.Context, in ListFunctionsInput) ([]types.AnySymbol, error) {
	resolver, err := d.resolver(ctx)
	if err != nil {
		return nil, err
	}
	result, rerr := resolver.Resolve(in.FilePath)
	if rerr != nil {
		return nil, rerr
	}

	symbols, err := d.Store.ListSymbolsByFile(ctx, result.ResolvedPath)
	if err != nil {
		return nil, err
	}

	var out []types.AnySymbol
	for _, s := range symbols {
		switch s.Kind {
		case types.KindFunction, types.KindMethod, types.KindConstructor, types.KindCallback:
			out = append(out, s)
		}
	}

	limit := in.Limit
	if limit <= 0 {
		limit = len(out)
	}
	for i := range out {
		if i >= limit || !in.IncludeSource {
			out[i].SourceText = ""
		}
	}
	return out, nil
}

// RenderListFunctions shapes a ListFunctions result.
func RenderListFunctions(symbols []types.AnySymbol, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		for _, s := range symbols {
			b.WriteString(compactRow(s.Name, s.Signature, fmt.Sprintf("%d", s.Location.StartLine), string(s.Kind)))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Functions (%d)\n\n", len(symbols))
	for _, s := range symbols {
		fmt.Fprintf(&b, "### `%s` (line %d)\n\n%s\n\n", s.Name, s.Location.StartLine, s.Signature)
		if s.SourceText != "" {
			fmt.Fprintf(&b, "```\n%s\n```\n\n", s.SourceText)
		}
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}
