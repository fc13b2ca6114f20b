package querytools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/storage"
)

// ArchitectureOverviewInput configures get_architecture_overview.
type ArchitectureOverviewInput struct {
	Directory string `json:"focus,omitempty"`
	Format    string `json:"format,omitempty"`
}

// ModuleSummary is one top-level directory's file/symbol footprint.
type ModuleSummary struct {
	Directory string
	FileCount int
	Exports   []string
}

// ArchitectureOverviewOutput bundles the module map, candidate entry
// points, and the public API surface for one subtree of the repository.
type ArchitectureOverviewOutput struct {
	Modules     []ModuleSummary
	EntryPoints []string
}

// isEntryPointCandidate flags files that conventionally host a program's
// entry point — main packages, CLI commands, and server bootstrap files.
func isEntryPointCandidate(path string) bool {
	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	lower := strings.ToLower(base)
	return lower == "main.go" || lower == "main.ts" || lower == "main.py" ||
		lower == "index.ts" || lower == "index.js" || lower == "server.ts" || lower == "cli.ts"
}

// topLevelDir returns the first path segment under root, or "." for a
// file directly at root.
func topLevelDir(path, root string) string {
	rel := strings.TrimPrefix(path, root)
	rel = strings.TrimPrefix(rel, "/")
	if i := strings.Index(rel, "/"); i >= 0 {
		return rel[:i]
	}
	return "."
}

// GetArchitectureOverview implements get_architecture_overview: a module
// map grouped by top-level directory under Directory, each module's
// exported public API, and a best-effort list of entry-point files.
func (d *Deps) GetArchitectureOverview(ctx context.Context, in ArchitectureOverviewInput) (ArchitectureOverviewOutput, error) {
	files, err := d.Store.ListFiles(ctx, storage.FileFilter{DirectoryPrefix: in.Directory})
	if err != nil {
		return ArchitectureOverviewOutput{}, err
	}
	exportsByFile, err := d.Store.ListExports(ctx, in.Directory)
	if err != nil {
		return ArchitectureOverviewOutput{}, err
	}
	exportNamesByFile := make(map[string][]string, len(exportsByFile))
	for _, fe := range exportsByFile {
		names := make([]string, len(fe.Exports))
		for i, e := range fe.Exports {
			names[i] = e.Name
		}
		exportNamesByFile[fe.FilePath] = names
	}

	moduleFiles := make(map[string]int)
	var moduleOrder []string
	moduleExports := make(map[string][]string)
	var entryPoints []string

	for _, f := range files {
		mod := topLevelDir(f.Path, in.Directory)
		if _, ok := moduleFiles[mod]; !ok {
			moduleOrder = append(moduleOrder, mod)
		}
		moduleFiles[mod]++
		moduleExports[mod] = append(moduleExports[mod], exportNamesByFile[f.Path]...)
		if isEntryPointCandidate(f.Path) {
			entryPoints = append(entryPoints, f.Path)
		}
	}
	sort.Strings(moduleOrder)

	out := ArchitectureOverviewOutput{EntryPoints: entryPoints}
	for _, mod := range moduleOrder {
		out.Modules = append(out.Modules, ModuleSummary{
			Directory: mod,
			FileCount: moduleFiles[mod],
			Exports:   moduleExports[mod],
		})
	}
	return out, nil
}

// RenderArchitectureOverview shapes a GetArchitectureOverview result.
func RenderArchitectureOverview(out ArchitectureOverviewOutput, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		for _, m := range out.Modules {
			b.WriteString(compactRow(m.Directory, fmt.Sprintf("%d", m.FileCount), fmt.Sprintf("%d", len(m.Exports))))
			b.WriteByte('\n')
		}
		for _, e := range out.EntryPoints {
			b.WriteString(compactRow("entry", e))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	b.WriteString("## Modules\n\n")
	for _, m := range out.Modules {
		fmt.Fprintf(&b, "- `%s` (%d files, %d exports)\n", m.Directory, m.FileCount, len(m.Exports))
	}
	if len(out.EntryPoints) > 0 {
		b.WriteString("\n## Entry points\n\n")
		for _, e := range out.EntryPoints {
			fmt.Fprintf(&b, "- `%s`\n", e)
		}
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}
