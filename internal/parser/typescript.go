package parser

import (
	"errors"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/ozekimasaki/lazyload/internal/types"
)

const maxFileBytes = 1 * 1024 * 1024 // spec.md §4.1 FILE_TOO_LARGE guard

var errParseFailed = errors.New("tree-sitter returned no tree")

// tsQuery captures the top-level constructs spec.md §4.1 extracts from
// TypeScript/JavaScript sources. JS files reuse the TypeScript grammar,
// which is a syntactic superset, mirroring the teacher's langGroups.
const tsQuery = `
(function_declaration name: (identifier) @function.name) @function
(generator_function_declaration name: (identifier) @function.name) @function
(variable_declarator
    name: (identifier) @function.name
    value: [(arrow_function) (function_expression) (generator_function)]) @function
(variable_declarator
    name: (identifier) @variable.name
    value: (_) @variable.value) @variable
(method_definition name: (property_identifier) @method.name) @method
(public_field_definition
    name: (property_identifier) @field.name
    value: [(arrow_function) (function_expression)]) @method
(class_declaration name: (type_identifier) @class.name) @class
(interface_declaration name: (type_identifier) @interface.name) @interface
(type_alias_declaration name: (type_identifier) @type.name) @type
(enum_declaration name: (identifier) @enum.name) @type
(export_statement declaration: (_) @export)
(import_statement source: (string) @import.source) @import
(call_expression function: (identifier) @call.name) @call
(call_expression function: (member_expression property: (property_identifier) @call.name)) @call
`

// TypeScriptParser extracts symbols from TypeScript/JavaScript sources,
// grounded on the teacher's setupTypeScript/setupJavaScript and
// extractBasicSymbolsStringRef (internal/parser/parser_language_setup.go,
// internal/parser/parser.go).
type TypeScriptParser struct {
	opts     Options
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

func NewTypeScriptParser(opts Options) (*TypeScriptParser, error) {
	languagePtr := tree_sitter_typescript.LanguageTypescript()
	language := tree_sitter.NewLanguage(languagePtr)
	query, err := tree_sitter.NewQuery(language, tsQuery)
	if err != nil {
		return nil, err
	}
	return &TypeScriptParser{opts: opts, language: language, query: query}, nil
}

func (p *TypeScriptParser) CanParse(path string) bool {
	lang, ok := LanguageFor(path)
	return ok && (lang == types.LangTypeScript || lang == types.LangJavaScript)
}

func (p *TypeScriptParser) Parse(path string, content []byte) *types.ParseResult {
	if len(content) > maxFileBytes {
		return &types.ParseResult{
			Warnings: []types.ParseWarning{{Code: "FILE_TOO_LARGE", Message: "file exceeds parser size limit"}},
		}
	}

	lang := types.LangTypeScript
	if l, ok := LanguageFor(path); ok {
		lang = l
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return errored(nil, path, err)
	}
	tree := parser.Parse(content, nil)
	if tree == nil {
		return errored(nil, path, errParseFailed)
	}
	defer tree.Close()

	result := &types.ParseResult{}
	names := p.query.CaptureNames()

	exportedNames := map[string]bool{}
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(p.query, tree.RootNode(), content)
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		for _, c := range m.Captures {
			if names[c.Index] != "export" {
				continue
			}
			node := c.Node
			if n := declaredName(&node, content); n != "" {
				exportedNames[n] = true
			}
		}
	}

	ts := &tsExtractor{
		path:          path,
		lang:          lang,
		content:       content,
		opts:          p.opts,
		exportedNames: exportedNames,
		result:        result,
	}

	qc2 := tree_sitter.NewQueryCursor()
	defer qc2.Close()
	matches2 := qc2.Matches(p.query, tree.RootNode(), content)
	for {
		m := matches2.Next()
		if m == nil {
			break
		}
		captured := map[string]string{}
		for _, c := range m.Captures {
			cn := names[c.Index]
			if strings.HasSuffix(cn, ".name") {
				node := c.Node
				captured[cn] = nodeText(content, &node)
			}
		}
		for _, c := range m.Captures {
			node := c.Node
			switch names[c.Index] {
			case "function":
				ts.extractFunction(&node, captured)
			case "method":
				ts.extractMethod(&node, captured)
			case "variable":
				ts.extractVariable(&node, captured)
			case "class":
				ts.extractClass(&node, captured)
			case "interface":
				ts.extractInterface(&node, captured)
			case "type":
				ts.extractTypeOrEnum(&node, captured)
			case "import":
				ts.extractImport(&node, captured)
			case "call":
				ts.extractCall(&node, captured)
			}
		}
	}

	result.Warnings = append(result.Warnings, ts.warnings...)
	return result
}

// declaredName finds the identifier bound by an export declaration, for
// marking matching functions/classes/variables Exported.
func declaredName(exportClause *tree_sitter.Node, content []byte) string {
	if n := exportClause.ChildByFieldName("name"); n != nil {
		return nodeText(content, n)
	}
	for i := uint(0); i < exportClause.ChildCount(); i++ {
		c := exportClause.Child(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "function_declaration", "class_declaration", "interface_declaration",
			"type_alias_declaration", "enum_declaration", "generator_function_declaration":
			if n := c.ChildByFieldName("name"); n != nil {
				return nodeText(content, n)
			}
		case "variable_declaration", "lexical_declaration":
			for j := uint(0); j < c.ChildCount(); j++ {
				d := c.Child(j)
				if d != nil && d.Kind() == "variable_declarator" {
					if n := d.ChildByFieldName("name"); n != nil {
						return nodeText(content, n)
					}
				}
			}
		}
	}
	return ""
}

type tsExtractor struct {
	path          string
	lang          types.Language
	content       []byte
	opts          Options
	exportedNames map[string]bool
	result        *types.ParseResult
	warnings      []types.ParseWarning
	currentClass  string
}

func (e *tsExtractor) leadingDoc(n *tree_sitter.Node) types.Documentation {
	prev := n.PrevSibling()
	if prev != nil && prev.Kind() == "comment" {
		text := nodeText(e.content, prev)
		if strings.HasPrefix(text, "/**") {
			return docFromComment(text)
		}
	}
	return types.Documentation{Params: map[string]string{}}
}

// bodyOf returns the function-bearing node for async/generator detection:
// the node itself for declarations, or its value for variable declarators.
func bodyOf(n *tree_sitter.Node) *tree_sitter.Node {
	if n.Kind() == "variable_declarator" {
		if v := n.ChildByFieldName("value"); v != nil {
			return v
		}
	}
	return n
}

func (e *tsExtractor) extractFunction(n *tree_sitter.Node, captured map[string]string) {
	name := captured["function.name"]
	if name == "" || (isPrivateName(name) && !e.opts.IncludePrivate) {
		return
	}
	loc := location(n)
	body := bodyOf(n)
	sym := types.AnySymbol{
		ID:            types.NewSymbolID(e.path, name, types.KindFunction, loc.StartLine),
		FQN:           types.FQN(e.path, "", name),
		File:          e.path,
		Language:      e.lang,
		Kind:          types.KindFunction,
		Name:          name,
		Location:      loc,
		Exported:      e.exportedNames[name],
		Documentation: e.leadingDoc(n),
		SourceText:    nodeText(e.content, n),
		Async:         strings.HasPrefix(strings.TrimSpace(nodeText(e.content, body)), "async"),
		Generator:     body.Kind() == "generator_function_declaration" || body.Kind() == "generator_function",
		Parameters:    e.extractParams(body),
	}
	if ret := body.ChildByFieldName("return_type"); ret != nil {
		sym.ReturnType = strings.TrimSpace(strings.TrimPrefix(nodeText(e.content, ret), ":"))
	}
	sym.Signature = renderSignature(name, sym.Parameters, sym.ReturnType)
	e.result.Symbols = append(e.result.Symbols, sym)
}

func (e *tsExtractor) extractMethod(n *tree_sitter.Node, captured map[string]string) {
	name := captured["method.name"]
	if name == "" {
		name = captured["field.name"]
	}
	if name == "" || (isPrivateName(name) && !e.opts.IncludePrivate) {
		return
	}
	kind := types.KindMethod
	if name == "constructor" {
		kind = types.KindConstructor
	}
	loc := location(n)
	parent := e.currentClass
	sym := types.AnySymbol{
		ID:            types.NewSymbolID(e.path, name, kind, loc.StartLine),
		FQN:           types.FQN(e.path, parent, name),
		File:          e.path,
		Language:      e.lang,
		Kind:          kind,
		Name:          name,
		ParentClass:   parent,
		Location:      loc,
		Documentation: e.leadingDoc(n),
		SourceText:    nodeText(e.content, n),
		Parameters:    e.extractParams(n),
		Static:        hasModifier(n, "static"),
		Abstract:      hasModifier(n, "abstract"),
		Async:         hasModifier(n, "async"),
	}
	switch {
	case hasModifier(n, "private") || hasModifier(n, "#"):
		sym.Visibility = types.VisibilityPrivate
	case hasModifier(n, "protected"):
		sym.Visibility = types.VisibilityProtected
	default:
		sym.Visibility = types.VisibilityPublic
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		sym.ReturnType = strings.TrimSpace(strings.TrimPrefix(nodeText(e.content, ret), ":"))
	}
	sym.Signature = renderSignature(name, sym.Parameters, sym.ReturnType)
	e.result.Symbols = append(e.result.Symbols, sym)
}

func (e *tsExtractor) extractVariable(n *tree_sitter.Node, captured map[string]string) {
	name := captured["variable.name"]
	if name == "" || (isPrivateName(name) && !e.opts.IncludePrivate) {
		return
	}
	valueNode := n.ChildByFieldName("value")
	if valueNode != nil {
		switch valueNode.Kind() {
		case "arrow_function", "function_expression", "generator_function":
			return // already captured by the function pattern
		}
	}
	loc := location(n)
	sym := types.AnySymbol{
		ID:         types.NewSymbolID(e.path, name, types.KindVariable, loc.StartLine),
		FQN:        types.FQN(e.path, "", name),
		File:       e.path,
		Language:   e.lang,
		Kind:       types.KindVariable,
		Name:       name,
		Location:   loc,
		Exported:   e.exportedNames[name],
		SourceText: nodeText(e.content, n),
		Signature:  name,
	}
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		sym.DeclaredType = strings.TrimSpace(strings.TrimPrefix(nodeText(e.content, typeNode), ":"))
	}
	e.result.Symbols = append(e.result.Symbols, sym)
}

func (e *tsExtractor) extractClass(n *tree_sitter.Node, captured map[string]string) {
	name := captured["class.name"]
	if name == "" {
		return
	}
	loc := location(n)
	sym := types.AnySymbol{
		ID:            types.NewSymbolID(e.path, name, types.KindClass, loc.StartLine),
		FQN:           types.FQN(e.path, "", name),
		File:          e.path,
		Language:      e.lang,
		Kind:          types.KindClass,
		Name:          name,
		Location:      loc,
		Exported:      e.exportedNames[name],
		Documentation: e.leadingDoc(n),
		SourceText:    nodeText(e.content, n),
		Abstract:      hasModifier(n, "abstract"),
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		clause := n.Child(i)
		if clause == nil {
			continue
		}
		switch clause.Kind() {
		case "class_heritage":
			for j := uint(0); j < clause.ChildCount(); j++ {
				sub := clause.Child(j)
				if sub == nil {
					continue
				}
				e.collectHeritage(sub, name, &sym)
			}
		}
	}
	e.result.Symbols = append(e.result.Symbols, sym)
	e.currentClass = name
}

func (e *tsExtractor) collectHeritage(clause *tree_sitter.Node, ownerName string, sym *types.AnySymbol) {
	switch clause.Kind() {
	case "extends_clause":
		if t := clause.Child(1); t != nil {
			txt := nodeText(e.content, t)
			sym.Extends = txt
			e.result.TypeRels = append(e.result.TypeRels, types.TypeRelationship{SourceName: ownerName, TargetName: txt, Kind: types.RelExtends})
		}
	case "implements_clause":
		for i := uint(0); i < clause.ChildCount(); i++ {
			t := clause.Child(i)
			if t == nil || t.Kind() == "implements" || t.Kind() == "," {
				continue
			}
			txt := nodeText(e.content, t)
			sym.Implements = append(sym.Implements, txt)
			e.result.TypeRels = append(e.result.TypeRels, types.TypeRelationship{SourceName: ownerName, TargetName: txt, Kind: types.RelImplements})
		}
	}
}

func (e *tsExtractor) extractInterface(n *tree_sitter.Node, captured map[string]string) {
	name := captured["interface.name"]
	if name == "" {
		return
	}
	loc := location(n)
	sym := types.AnySymbol{
		ID:            types.NewSymbolID(e.path, name, types.KindInterface, loc.StartLine),
		FQN:           types.FQN(e.path, "", name),
		File:          e.path,
		Language:      e.lang,
		Kind:          types.KindInterface,
		Name:          name,
		Location:      loc,
		Exported:      e.exportedNames[name],
		Documentation: e.leadingDoc(n),
		SourceText:    nodeText(e.content, n),
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && c.Kind() == "extends_type_clause" {
			for j := uint(0); j < c.ChildCount(); j++ {
				t := c.Child(j)
				if t == nil || t.Kind() == "extends" || t.Kind() == "," {
					continue
				}
				txt := nodeText(e.content, t)
				sym.Implements = append(sym.Implements, txt)
				e.result.TypeRels = append(e.result.TypeRels, types.TypeRelationship{SourceName: name, TargetName: txt, Kind: types.RelExtends})
			}
		}
	}
	e.result.Symbols = append(e.result.Symbols, sym)
}

func (e *tsExtractor) extractTypeOrEnum(n *tree_sitter.Node, captured map[string]string) {
	name := captured["type.name"]
	if name == "" {
		name = captured["enum.name"]
	}
	if name == "" {
		return
	}
	loc := location(n)
	sym := types.AnySymbol{
		ID:            types.NewSymbolID(e.path, name, types.KindTypeAlias, loc.StartLine),
		FQN:           types.FQN(e.path, "", name),
		File:          e.path,
		Language:      e.lang,
		Kind:          types.KindTypeAlias,
		Name:          name,
		Location:      loc,
		Exported:      e.exportedNames[name],
		Documentation: e.leadingDoc(n),
		SourceText:    nodeText(e.content, n),
	}
	if value := n.ChildByFieldName("value"); value != nil {
		sym.AliasedType = nodeText(e.content, value)
	}
	e.result.Symbols = append(e.result.Symbols, sym)
}

func (e *tsExtractor) extractImport(n *tree_sitter.Node, captured map[string]string) {
	raw := captured["import.source"]
	if raw == "" {
		return
	}
	source := strings.Trim(raw, "\"'`")
	imp := types.Import{Source: source, IsTypeOnly: strings.Contains(nodeText(e.content, n), "import type")}

	clause := n.ChildByFieldName("import_clause")
	// Some grammar versions expose the clause as the first named child.
	if clause == nil {
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c != nil && c.Kind() == "import_clause" {
				clause = c
				break
			}
		}
	}
	if clause != nil {
		for i := uint(0); i < clause.ChildCount(); i++ {
			child := clause.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "identifier":
				imp.Specifiers = append(imp.Specifiers, types.ImportSpecifier{Name: nodeText(e.content, child), IsDefault: true})
			case "namespace_import":
				for j := uint(0); j < child.ChildCount(); j++ {
					if id := child.Child(j); id != nil && id.Kind() == "identifier" {
						imp.Specifiers = append(imp.Specifiers, types.ImportSpecifier{Name: nodeText(e.content, id), IsNamespace: true})
					}
				}
			case "named_imports":
				for j := uint(0); j < child.ChildCount(); j++ {
					spec := child.Child(j)
					if spec == nil || spec.Kind() != "import_specifier" {
						continue
					}
					name, alias := "", ""
					if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
						name = nodeText(e.content, nameNode)
					}
					if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
						alias = nodeText(e.content, aliasNode)
					}
					imp.Specifiers = append(imp.Specifiers, types.ImportSpecifier{Name: name, Alias: alias})
				}
			}
		}
	}
	e.result.Imports = append(e.result.Imports, imp)
}

func (e *tsExtractor) extractCall(n *tree_sitter.Node, captured map[string]string) {
	callee := captured["call.name"]
	if callee == "" {
		return
	}
	loc := location(n)
	e.result.References = append(e.result.References, types.Reference{
		SymbolName:      callee,
		ReferencingFile: e.path,
		Line:            loc.StartLine,
		Column:          loc.StartColumn,
		Kind:            types.RefCall,
	})
	e.result.Calls = append(e.result.Calls, types.CallEdge{CalleeName: callee, CallCount: 1})
}

func (e *tsExtractor) extractParams(n *tree_sitter.Node) []types.Parameter {
	paramsNode := n.ChildByFieldName("parameters")
	if paramsNode == nil {
		// arrow functions with a single bare identifier parameter, e.g. `x => x + 1`.
		if p := n.ChildByFieldName("parameter"); p != nil {
			return []types.Parameter{{Name: nodeText(e.content, p)}}
		}
		return nil
	}
	var out []types.Parameter
	for i := uint(0); i < paramsNode.ChildCount(); i++ {
		p := paramsNode.Child(i)
		if p == nil {
			continue
		}
		param := types.Parameter{}
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			if nameNode := p.ChildByFieldName("pattern"); nameNode != nil {
				param.Name = nodeText(e.content, nameNode)
			}
			param.Optional = p.Kind() == "optional_parameter"
			if typeNode := p.ChildByFieldName("type"); typeNode != nil {
				param.Type = strings.TrimSpace(strings.TrimPrefix(nodeText(e.content, typeNode), ":"))
			}
			if valueNode := p.ChildByFieldName("value"); valueNode != nil {
				param.Default = nodeText(e.content, valueNode)
			}
		case "identifier":
			param.Name = nodeText(e.content, p)
		case "rest_pattern":
			param.Rest = true
			for j := uint(0); j < p.ChildCount(); j++ {
				if id := p.Child(j); id != nil && id.Kind() == "identifier" {
					param.Name = nodeText(e.content, id)
				}
			}
		default:
			continue // punctuation: "(" ")" ","
		}
		out = append(out, param)
	}
	return out
}

func hasModifier(n *tree_sitter.Node, keyword string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && c.Kind() == keyword {
			return true
		}
	}
	return false
}

func renderSignature(name string, params []types.Parameter, returnType string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Type != "" {
			b.WriteString(": ")
			b.WriteString(p.Type)
		}
	}
	b.WriteByte(')')
	if returnType != "" {
		b.WriteString(": ")
		b.WriteString(returnType)
	}
	return b.String()
}
