package types

// Language is the source language tag carried on files and symbols.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
)

// SymbolKind discriminates the polymorphic Symbol variants. It is also the
// `kind` column used to filter rows in the symbols table.
type SymbolKind string

const (
	KindFunction    SymbolKind = "function"
	KindMethod      SymbolKind = "method"
	KindConstructor SymbolKind = "constructor"
	KindCallback    SymbolKind = "callback"
	KindClass       SymbolKind = "class"
	KindInterface   SymbolKind = "interface"
	KindTypeAlias   SymbolKind = "type_alias"
	KindVariable    SymbolKind = "variable"
)

// Visibility mirrors the access modifiers the parsers can observe.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// Location is 1-based for lines, 0-based for columns, per spec.
type Location struct {
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int
}

// Parameter describes one function/method parameter.
type Parameter struct {
	Name     string
	Type     string
	Default  string
	Optional bool
	Rest     bool
}

// FunctionModifiers captures the boolean/enum flags a function symbol can carry.
type FunctionModifiers struct {
	Exported         bool
	Async            bool
	Generator        bool
	Static           bool
	Abstract         bool
	Visibility       Visibility
	CallbackContext  string // host method name for kind=callback ("describe", "it", "on:click", ...)
}

// Documentation is the normalized doc-comment record (JSDoc or
// Google/NumPy/Sphinx docstring).
type Documentation struct {
	Description string
	Params      map[string]string
	Returns     string
	Throws      []string
}

// FunctionSymbol is the variant for functions, methods, constructors and callbacks.
type FunctionSymbol struct {
	ID             SymbolID
	FQN            string
	File           FileID
	Language       Language
	Kind           SymbolKind // function | method | constructor | callback
	Name           string
	LocalName      string // name within nested-function scope, if different from Name
	ParentClass    string // set for methods/constructors
	Location       Location
	Parameters     []Parameter
	ReturnType     string
	TypeParameters []string
	Modifiers      FunctionModifiers
	Documentation  Documentation
	SourceText     string
}

// ClassSymbol is the variant for classes.
type ClassSymbol struct {
	ID             SymbolID
	FQN            string
	File           FileID
	Language       Language
	Name           string
	Location       Location
	Methods        []string // method symbol IDs
	Properties     []Parameter
	Extends        string
	Implements     []string
	TypeParameters []string
	Abstract       bool
	Exported       bool
	Documentation  Documentation
	SourceText     string
}

// InterfaceSymbol is the variant for interfaces.
type InterfaceSymbol struct {
	ID             SymbolID
	FQN            string
	File           FileID
	Language       Language
	Name           string
	Location       Location
	Methods        []string
	Properties     []Parameter
	Extends        []string
	TypeParameters []string
	Documentation  Documentation
}

// TypeAliasSymbol is the variant for type aliases.
type TypeAliasSymbol struct {
	ID            SymbolID
	FQN           string
	File          FileID
	Language      Language
	Name          string
	Location      Location
	AliasedType   string
	Documentation Documentation
}

// InitializerKind classifies how a variable symbol was initialized.
type InitializerKind string

const (
	InitLiteral     InitializerKind = "literal"
	InitCall        InitializerKind = "call"
	InitArrow       InitializerKind = "arrow_function"
	InitObject      InitializerKind = "object"
	InitArray       InitializerKind = "array"
	InitUnknown     InitializerKind = "unknown"
)

// VariableSymbol is the variant for top-level/module variables.
type VariableSymbol struct {
	ID              SymbolID
	FQN             string
	File            FileID
	Language        Language
	Name            string
	Location        Location
	DeclaredType    string
	InitializerKind InitializerKind
	Exported        bool
}

// AnySymbol is a uniform read-only view over all symbol variants, used by
// storage and query layers that need to treat symbols polymorphically
// without re-discriminating on every access. Parsers build the concrete
// variant; AnySymbol is the flattened row shape persisted to SQL.
type AnySymbol struct {
	ID             SymbolID
	FQN            string
	File           FileID
	Language       Language
	Kind           SymbolKind
	Name           string
	LocalName      string
	ParentClass    string
	Location       Location
	Signature      string // rendered parameter/return signature, used for FTS + display
	ReturnType     string
	Parameters     []Parameter
	TypeParameters []string
	Extends        string
	Implements     []string
	AliasedType    string
	DeclaredType   string
	Exported       bool
	Async          bool
	Generator      bool
	Static         bool
	Abstract       bool
	Visibility     Visibility
	CallbackCtx    string
	Documentation  Documentation
	SourceText     string
}
