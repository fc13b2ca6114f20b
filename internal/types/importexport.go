package types

// ImportSpecifier is one named/default/namespace binding of an import.
type ImportSpecifier struct {
	Name        string
	Alias       string
	IsDefault   bool
	IsNamespace bool
}

// Import is a raw import record as extracted by a parser. ResolvedPath,
// IsExternal and IsBuiltIn are filled in by the import resolver.
type Import struct {
	Source       string
	Specifiers   []ImportSpecifier
	IsTypeOnly   bool
	ResolvedPath string
	IsExternal   bool
	IsBuiltIn    bool
}

// Export is a raw export record as extracted by a parser.
type Export struct {
	Name           string
	Kind           SymbolKind
	IsReExport     bool
	ReExportSource string
}
