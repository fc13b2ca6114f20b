package querytools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/types"
)

func TestTraceTypes_HierarchyWalksBothDirections(t *testing.T) {
	d := testDeps(t, "")
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		TypeRels: []types.TypeRelationship{
			{SourceName: "Dog", TargetName: "Animal", Kind: types.RelExtends},
			{SourceName: "Puppy", TargetName: "Dog", Kind: types.RelExtends},
		},
	})

	nodes, err := d.TraceTypes(context.Background(), TraceTypesInput{Name: "Dog"})
	require.NoError(t, err)

	var ancestor, descendant bool
	for _, n := range nodes {
		if n.Name == "Animal" && n.Depth < 0 {
			ancestor = true
		}
		if n.Name == "Puppy" && n.Depth > 0 {
			descendant = true
		}
	}
	require.True(t, ancestor)
	require.True(t, descendant)
}

func TestTraceTypes_ImplementationsMode(t *testing.T) {
	d := testDeps(t, "")
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "a.ts", Language: types.LangTypeScript, Checksum: "x"},
		TypeRels: []types.TypeRelationship{
			{SourceName: "FileStore", TargetName: "Storage", Kind: types.RelImplements},
		},
	})

	nodes, err := d.TraceTypes(context.Background(), TraceTypesInput{Name: "Storage", Mode: "implementations"})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "FileStore", nodes[0].Name)
}

func TestGetModuleDependencies_ReportsDirectAndReverse(t *testing.T) {
	d := testDeps(t, "")
	putFile(t, d.Store, types.FileIndex{
		File:    types.FileEntry{Path: "util.ts", Language: types.LangTypeScript, Checksum: "x"},
		Imports: nil,
	})
	putFile(t, d.Store, types.FileIndex{
		File: types.FileEntry{Path: "main.ts", Language: types.LangTypeScript, Checksum: "y"},
		Imports: []types.Import{
			{Source: "./util", ResolvedPath: "util.ts"},
		},
	})

	out, err := d.GetModuleDependencies(context.Background(), ModuleDependenciesInput{FilePath: "main.ts"})
	require.NoError(t, err)
	require.Len(t, out.DirectImports, 1)
	require.Equal(t, "util.ts", out.DirectImports[0].ResolvedPath)

	revOut, err := d.GetModuleDependencies(context.Background(), ModuleDependenciesInput{FilePath: "util.ts"})
	require.NoError(t, err)
	require.Equal(t, []string{"main.ts"}, revOut.ReverseDeps)
}
