package types

// ParseResult is what a language parser hands back to the indexer for one
// file. It intentionally mirrors FileIndex minus the FileEntry itself,
// since the indexer attaches file-level metadata (checksum, size, status)
// after the parse completes.
type ParseResult struct {
	Symbols    []AnySymbol
	Imports    []Import
	Exports    []Export
	References []Reference
	Calls      []CallEdge
	TypeRels   []TypeRelationship
	Warnings   []ParseWarning
	Errored    bool
}

// SearchOptions configures searchSymbols.
type SearchOptions struct {
	Kinds         []SymbolKind
	Language      Language
	Limit         int
	PrefixWildcard bool
}

// TypeMatchMode selects a typesMatch predicate.
type TypeMatchMode string

const (
	MatchExact   TypeMatchMode = "exact"
	MatchBase    TypeMatchMode = "base"
	MatchInner   TypeMatchMode = "inner"
	MatchPartial TypeMatchMode = "partial"
)

// TypeSearchOptions configures searchByType.
type TypeSearchOptions struct {
	ReturnType           string
	ParamType            string
	MatchMode            TypeMatchMode
	IncludeAsyncVariants bool
	Language             Language
	Limit                int
}
