package querytools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/types"
)

func TestGetArchitectureOverview_GroupsByTopLevelDirectory(t *testing.T) {
	d := testDeps(t, "")
	putFile(t, d.Store, types.FileIndex{
		File:    types.FileEntry{Path: "cmd/lazyload/main.go", Language: types.LangTypeScript, Checksum: "a"},
		Exports: []types.Export{{Name: "main"}},
	})
	putFile(t, d.Store, types.FileIndex{
		File:    types.FileEntry{Path: "internal/storage/store.go", Language: types.LangTypeScript, Checksum: "b"},
		Exports: []types.Export{{Name: "Store"}, {Name: "Open"}},
	})

	out, err := d.GetArchitectureOverview(context.Background(), ArchitectureOverviewInput{})
	require.NoError(t, err)
	require.Len(t, out.Modules, 2)
	require.Contains(t, out.EntryPoints, "cmd/lazyload/main.go")

	var storageMod *ModuleSummary
	for i := range out.Modules {
		if out.Modules[i].Directory == "internal" {
			storageMod = &out.Modules[i]
		}
	}
	require.NotNil(t, storageMod)
	require.Len(t, storageMod.Exports, 2)
}
