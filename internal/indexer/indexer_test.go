package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozekimasaki/lazyload/internal/config"
	"github.com/ozekimasaki/lazyload/internal/parser"
	"github.com/ozekimasaki/lazyload/internal/storage"
)

func newTestIndexer(t *testing.T, root string) (*Indexer, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	registry, err := parser.NewRegistry(parser.Options{})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Directories = []string{root}
	cfg.Markov.AutoRebuild = false

	return New(store, registry, cfg, nil), store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIndexFile_ChecksumGating(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.ts")
	writeFile(t, path, "export function greet(name: string): string {\n  return `hi ${name}`;\n}\n")

	idx, _ := newTestIndexer(t, root)
	ctx := context.Background()

	wrote, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = idx.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.False(t, wrote, "re-indexing unchanged content must be a no-op")
}

func TestIndexFile_ReindexesOnChange(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "b.ts")
	writeFile(t, path, "export function greet() {}\n")

	idx, store := newTestIndexer(t, root)
	ctx := context.Background()

	_, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)

	writeFile(t, path, "export function greet() {}\nexport function farewell() {}\n")
	wrote, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, wrote)

	entry, ok, err := store.GetFile(ctx, path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, entry.Checksum)
}

func TestIndexFile_NoParserForExtension(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "readme.md")
	writeFile(t, path, "# hello")

	idx, _ := newTestIndexer(t, root)
	wrote, err := idx.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, wrote)
}

func TestIndexDirectory_RespectsExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "keep.ts"), "export function keep() {}\n")
	writeFile(t, filepath.Join(root, "node_modules", "dep", "skip.ts"), "export function skip() {}\n")

	idx, store := newTestIndexer(t, root)
	ctx := context.Background()

	result, err := idx.IndexDirectory(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalFiles, "node_modules must be excluded by default config")
	assert.Equal(t, 1, result.IndexedFiles)

	_, ok, err := store.GetFile(ctx, filepath.Join(root, "node_modules", "dep", "skip.ts"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndexDirectory_CleanFileRecordsNoErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good.ts"), "export function good() {}\n")

	idx, _ := newTestIndexer(t, root)
	result, err := idx.IndexDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, result.IndexedFiles)
	assert.Empty(t, result.Errors)
}

func TestRemoveFile_DeletesRow(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "c.ts")
	writeFile(t, path, "export function c() {}\n")

	idx, store := newTestIndexer(t, root)
	ctx := context.Background()

	_, err := idx.IndexFile(ctx, path)
	require.NoError(t, err)

	require.NoError(t, idx.RemoveFile(ctx, path))

	_, ok, err := store.GetFile(ctx, path)
	require.NoError(t, err)
	assert.False(t, ok)
}
