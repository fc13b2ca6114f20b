package querytools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/types"
)

// ModuleDependenciesInput configures get_module_dependencies.
type ModuleDependenciesInput struct {
	FilePath     string `json:"filePath,omitempty"`
	Depth        int    `json:"depth,omitempty"`
	DetectCycles bool   `json:"detectCycles,omitempty"`
	Format       string `json:"format,omitempty"`
}

// ModuleDependenciesOutput bundles every dependency-graph facet
// get_module_dependencies exposes for one file.
type ModuleDependenciesOutput struct {
	DirectImports []types.Import
	ReverseDeps   []string
	Transitive    []string
	Cycles        [][]string
}

// GetModuleDependencies implements get_module_dependencies: direct imports,
// reverse dependents, the transitive closure up to Depth hops, and
// optional cycle detection.
func (d *Deps) GetModuleDependencies(ctx context.Context, in ModuleDependenciesInput) (ModuleDependenciesOutput, error) {
	resolver, err := d.resolver(ctx)
	if err != nil {
		return ModuleDependenciesOutput{}, err
	}
	result, rerr := resolver.Resolve(in.FilePath)
	if rerr != nil {
		return ModuleDependenciesOutput{}, rerr
	}
	path := result.ResolvedPath

	var out ModuleDependenciesOutput
	if out.DirectImports, err = d.Store.GetFileImports(ctx, path); err != nil {
		return out, err
	}
	if out.ReverseDeps, err = d.Store.GetReverseDependencies(ctx, path); err != nil {
		return out, err
	}
	if out.Transitive, err = d.Store.GetTransitiveDependencies(ctx, path, in.Depth); err != nil {
		return out, err
	}
	if in.DetectCycles {
		if out.Cycles, err = d.Store.DetectCircularDependencies(ctx, path); err != nil {
			return out, err
		}
	}
	return out, nil
}

// RenderModuleDependencies shapes a GetModuleDependencies result.
func RenderModuleDependencies(path string, out ModuleDependenciesOutput, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		for _, imp := range out.DirectImports {
			b.WriteString(compactRow("import", imp.Source, imp.ResolvedPath))
			b.WriteByte('\n')
		}
		for _, r := range out.ReverseDeps {
			b.WriteString(compactRow("reverse", r))
			b.WriteByte('\n')
		}
		for _, t := range out.Transitive {
			b.WriteString(compactRow("transitive", t))
			b.WriteByte('\n')
		}
		for _, cycle := range out.Cycles {
			b.WriteString(compactRow("cycle", strings.Join(cycle, " -> ")))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Dependencies of `%s`\n\n", path)

	b.WriteString("### Direct imports\n\n")
	for _, imp := range out.DirectImports {
		if imp.ResolvedPath != "" {
			fmt.Fprintf(&b, "- `%s` → `%s`\n", imp.Source, imp.ResolvedPath)
		} else {
			fmt.Fprintf(&b, "- `%s` (external)\n", imp.Source)
		}
	}

	b.WriteString("\n### Reverse dependencies\n\n")
	for _, r := range out.ReverseDeps {
		fmt.Fprintf(&b, "- `%s`\n", r)
	}

	b.WriteString("\n### Transitive closure\n\n")
	for _, t := range out.Transitive {
		fmt.Fprintf(&b, "- `%s`\n", t)
	}

	if len(out.Cycles) > 0 {
		b.WriteString("\n### Circular dependencies\n\n")
		for _, cycle := range out.Cycles {
			fmt.Fprintf(&b, "- %s\n", strings.Join(cycle, " -> "))
		}
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}
