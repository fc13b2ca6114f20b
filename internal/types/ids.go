// Package types holds the language-neutral symbol model shared by every
// layer of the indexer: parsers produce it, storage persists it, and the
// query tools read it back.
package types

import "fmt"

// SymbolID is the stable identifier of a symbol: "<path>:<name>:<kind>:<line>".
// It is recomputed on every parse, never stored as an opaque surrogate key,
// so re-indexing a file naturally replaces all of its old symbol IDs.
type SymbolID string

// NewSymbolID builds the canonical stable ID for a symbol.
func NewSymbolID(path, name string, kind SymbolKind, startLine int) SymbolID {
	return SymbolID(fmt.Sprintf("%s:%s:%s:%d", path, name, kind, startLine))
}

// FileID is the absolute, OS-normalized path of an indexed file. Paths are
// the natural primary key for files: they are stable across re-indexing and
// human-readable in query results.
type FileID = string

// ReferenceID is a synthetic, storage-assigned identifier for a reference row.
type ReferenceID int64

// CallEdgeID is a synthetic, storage-assigned identifier for a call_edges row.
type CallEdgeID int64

// TypeRelID is a synthetic, storage-assigned identifier for a type_relationships row.
type TypeRelID int64

// FQN builds a fully-qualified name "<module-path>#[<parent>.]<name>".
func FQN(modulePath, parent, name string) string {
	if parent == "" {
		return fmt.Sprintf("%s#%s", modulePath, name)
	}
	return fmt.Sprintf("%s#%s.%s", modulePath, parent, name)
}
