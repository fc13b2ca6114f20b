package types

// ReferenceKind classifies an identifier use.
type ReferenceKind string

const (
	RefCall   ReferenceKind = "call"
	RefRead   ReferenceKind = "read"
	RefWrite  ReferenceKind = "write"
	RefType   ReferenceKind = "type"
	RefImport ReferenceKind = "import"
)

// Reference records one identifier use. SymbolID and ReferencingSymbolID are
// populated lazily by the symbol resolution pass; before that they are empty.
type Reference struct {
	ID                   ReferenceID
	SymbolID             SymbolID // empty until resolved, or permanently empty for external symbols
	SymbolName           string
	ReferencingFile      FileID
	ReferencingSymbolID  SymbolID
	ReferencingSymbolName string
	Line                 int
	Column               int
	Context              string
	Kind                 ReferenceKind
}

// CallEdge is a collapsed caller->callee edge with an occurrence count.
type CallEdge struct {
	ID              CallEdgeID
	CallerSymbolID  SymbolID
	CallerName      string
	CalleeSymbolID  SymbolID // empty when the callee is external/unresolved
	CalleeName      string
	CallCount       int
	IsAsync         bool
	IsConditional   bool
}

// TypeRelKind classifies a type relationship edge.
type TypeRelKind string

const (
	RelExtends    TypeRelKind = "extends"
	RelImplements TypeRelKind = "implements"
	RelMixin      TypeRelKind = "mixin"
)

// TypeRelationship is an edge in the class/interface inheritance graph.
type TypeRelationship struct {
	ID             TypeRelID
	SourceSymbolID SymbolID
	SourceName     string
	TargetSymbolID SymbolID // empty until resolved
	TargetName     string
	Kind           TypeRelKind
}
