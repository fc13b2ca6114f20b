package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/ozekimasaki/lazyload/internal/types"
)

// pyFlatQuery covers constructs that never nest inside one another, so a
// single query pass (unlike class/method extraction) can't double-capture.
const pyFlatQuery = `
(import_statement) @import
(import_from_statement) @import
(call function: (identifier) @call.name) @call
(call function: (attribute attribute: (identifier) @call.name)) @call
`

// PythonParser extracts symbols from Python sources. Grounded on the
// teacher's setupPython (internal/parser/parser_language_setup.go), but
// classes/methods are extracted by direct tree walking rather than a
// nested query: a query pattern that matches a function_definition inside
// a class body also matches the bare top-level function pattern at the
// same node, producing duplicate symbols.
type PythonParser struct {
	opts     Options
	language *tree_sitter.Language
	flatQ    *tree_sitter.Query
}

func NewPythonParser(opts Options) (*PythonParser, error) {
	languagePtr := tree_sitter_python.Language()
	language := tree_sitter.NewLanguage(languagePtr)
	flatQ, err := tree_sitter.NewQuery(language, pyFlatQuery)
	if err != nil {
		return nil, err
	}
	return &PythonParser{opts: opts, language: language, flatQ: flatQ}, nil
}

func (p *PythonParser) CanParse(path string) bool {
	lang, ok := LanguageFor(path)
	return ok && lang == types.LangPython
}

func (p *PythonParser) Parse(path string, content []byte) *types.ParseResult {
	if len(content) > maxFileBytes {
		return &types.ParseResult{
			Warnings: []types.ParseWarning{{Code: "FILE_TOO_LARGE", Message: "file exceeds parser size limit"}},
		}
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
	px := &pyExtractor{path: path, content: content, opts: p.opts, result: result, allExports: map[string]bool{}}

	root := tree.RootNode()
	for i := uint(0); i < root.ChildCount(); i++ {
		px.walkTopLevel(root.Child(i))
	}

	names := p.flatQ.CaptureNames()
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(p.flatQ, root, content)
	for {
		m := matches.Next()
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
			case "import":
				px.extractImport(&node)
			case "call":
				px.extractCall(&node, captured)
			}
		}
	}

	if len(px.allExports) > 0 {
		for i := range result.Symbols {
			if px.allExports[result.Symbols[i].Name] {
				result.Symbols[i].Exported = true
			}
		}
	}

	result.Warnings = append(result.Warnings, px.warnings...)
	return result
}

type pyExtractor struct {
	path       string
	content    []byte
	opts       Options
	result     *types.ParseResult
	warnings   []types.ParseWarning
	allExports map[string]bool
}

// walkTopLevel dispatches a module-level statement, unwrapping
// decorated_definition and expression_statement wrappers.
func (e *pyExtractor) walkTopLevel(n *tree_sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "function_definition":
		e.extractFunction(n, "", nil)
	case "class_definition":
		e.extractClass(n)
	case "decorated_definition":
		decorators := e.decoratorNames(n)
		if def := n.ChildByFieldName("definition"); def != nil {
			switch def.Kind() {
			case "function_definition":
				e.extractFunction(def, "", decorators)
			case "class_definition":
				e.extractClass(def)
			}
		}
	case "expression_statement":
		for i := uint(0); i < n.ChildCount(); i++ {
			e.extractDunderAllOrVariable(n.Child(i))
		}
	}
}

func (e *pyExtractor) extractDunderAllOrVariable(n *tree_sitter.Node) {
	if n == nil || n.Kind() != "assignment" {
		return
	}
	left := n.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	name := nodeText(e.content, left)
	if name == "__all__" {
		if right := n.ChildByFieldName("right"); right != nil && right.Kind() == "list" {
			for i := uint(0); i < right.ChildCount(); i++ {
				item := right.Child(i)
				if item != nil && item.Kind() == "string" {
					e.allExports[strings.Trim(nodeText(e.content, item), "\"'")] = true
				}
			}
		}
		return
	}
	if isPrivateName(name) && !e.opts.IncludePrivate {
		return
	}
	loc := location(n)
	e.result.Symbols = append(e.result.Symbols, types.AnySymbol{
		ID:         types.NewSymbolID(e.path, name, types.KindVariable, loc.StartLine),
		FQN:        types.FQN(e.path, "", name),
		File:       e.path,
		Language:   types.LangPython,
		Kind:       types.KindVariable,
		Name:       name,
		Location:   loc,
		SourceText: nodeText(e.content, n),
		Signature:  name,
	})
}

func (e *pyExtractor) decoratorNames(n *tree_sitter.Node) []string {
	var out []string
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && c.Kind() == "decorator" {
			out = append(out, strings.TrimPrefix(nodeText(e.content, c), "@"))
		}
	}
	return out
}

func (e *pyExtractor) extractFunction(n *tree_sitter.Node, parentClass string, decorators []string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(e.content, nameNode)
	if isPrivateName(name) && !e.opts.IncludePrivate && name != "__init__" {
		return
	}

	kind := types.KindFunction
	if parentClass != "" {
		kind = types.KindMethod
		if name == "__init__" {
			kind = types.KindConstructor
		}
	}

	loc := location(n)
	sym := types.AnySymbol{
		ID:            types.NewSymbolID(e.path, name, kind, loc.StartLine),
		FQN:           types.FQN(e.path, parentClass, name),
		File:          e.path,
		Language:      types.LangPython,
		Kind:          kind,
		Name:          name,
		ParentClass:   parentClass,
		Location:      loc,
		SourceText:    nodeText(e.content, n),
		Documentation: e.docstringOf(n),
		Parameters:    e.extractParams(n),
		Async:         hasModifier(n, "async"),
		Static:        containsString(decorators, "staticmethod"),
		Abstract:      containsString(decorators, "abstractmethod"),
		Visibility:    types.VisibilityPublic,
	}
	if containsString(decorators, "classmethod") {
		sym.Static = true // no distinct classmethod flag; folded into Static per spec.md §9 decision
	}
	if isPrivateName(name) {
		sym.Visibility = types.VisibilityPrivate
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		sym.ReturnType = strings.TrimSpace(strings.TrimPrefix(nodeText(e.content, ret), "->"))
	}
	sym.Signature = renderSignature(name, sym.Parameters, sym.ReturnType)
	e.result.Symbols = append(e.result.Symbols, sym)
}

func (e *pyExtractor) extractClass(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(e.content, nameNode)
	loc := location(n)
	sym := types.AnySymbol{
		ID:            types.NewSymbolID(e.path, name, types.KindClass, loc.StartLine),
		FQN:           types.FQN(e.path, "", name),
		File:          e.path,
		Language:      types.LangPython,
		Kind:          types.KindClass,
		Name:          name,
		Location:      loc,
		SourceText:    nodeText(e.content, n),
		Documentation: e.docstringOf(n),
	}
	if superclasses := n.ChildByFieldName("superclasses"); superclasses != nil {
		for i := uint(0); i < superclasses.ChildCount(); i++ {
			arg := superclasses.Child(i)
			if arg == nil || arg.Kind() == "(" || arg.Kind() == ")" || arg.Kind() == "," {
				continue
			}
			txt := nodeText(e.content, arg)
			if txt == "ABC" || strings.HasPrefix(txt, "metaclass") {
				continue
			}
			sym.Implements = append(sym.Implements, txt)
			e.result.TypeRels = append(e.result.TypeRels, types.TypeRelationship{SourceName: name, TargetName: txt, Kind: types.RelExtends})
		}
		if len(sym.Implements) > 0 {
			sym.Extends = sym.Implements[0]
		}
	}
	e.result.Symbols = append(e.result.Symbols, sym)

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		stmt := body.Child(i)
		if stmt == nil {
			continue
		}
		switch stmt.Kind() {
		case "function_definition":
			e.extractFunction(stmt, name, nil)
		case "decorated_definition":
			decorators := e.decoratorNames(stmt)
			if def := stmt.ChildByFieldName("definition"); def != nil && def.Kind() == "function_definition" {
				e.extractFunction(def, name, decorators)
			}
		}
	}
}

// docstringOf returns the first statement of a function/class body if it's
// a bare string expression, auto-detecting Google/NumPy/Sphinx layout.
func (e *pyExtractor) docstringOf(n *tree_sitter.Node) types.Documentation {
	body := n.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return types.Documentation{Params: map[string]string{}}
	}
	first := body.Child(0)
	if first == nil || first.Kind() != "expression_statement" || first.ChildCount() == 0 {
		return types.Documentation{Params: map[string]string{}}
	}
	strNode := first.Child(0)
	if strNode == nil || strNode.Kind() != "string" {
		return types.Documentation{Params: map[string]string{}}
	}
	return docFromDocstring(nodeText(e.content, strNode))
}

func (e *pyExtractor) extractParams(n *tree_sitter.Node) []types.Parameter {
	paramsNode := n.ChildByFieldName("parameters")
	if paramsNode == nil {
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
		case "identifier":
			param.Name = nodeText(e.content, p)
		case "typed_parameter":
			for j := uint(0); j < p.ChildCount(); j++ {
				c := p.Child(j)
				if c == nil {
					continue
				}
				if c.Kind() == "identifier" && param.Name == "" {
					param.Name = nodeText(e.content, c)
				}
				if c.Kind() == "type" {
					param.Type = nodeText(e.content, c)
				}
			}
		case "default_parameter":
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				param.Name = nodeText(e.content, nameNode)
			}
			param.Optional = true
			if valueNode := p.ChildByFieldName("value"); valueNode != nil {
				param.Default = nodeText(e.content, valueNode)
			}
		case "typed_default_parameter":
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				param.Name = nodeText(e.content, nameNode)
			}
			if typeNode := p.ChildByFieldName("type"); typeNode != nil {
				param.Type = nodeText(e.content, typeNode)
			}
			param.Optional = true
			if valueNode := p.ChildByFieldName("value"); valueNode != nil {
				param.Default = nodeText(e.content, valueNode)
			}
		case "list_splat_pattern":
			param.Rest = true
			for j := uint(0); j < p.ChildCount(); j++ {
				if id := p.Child(j); id != nil && id.Kind() == "identifier" {
					param.Name = nodeText(e.content, id)
				}
			}
		case "dictionary_splat_pattern":
			param.Rest = true
			param.Name = "**" + strings.TrimPrefix(nodeText(e.content, p), "**")
		default:
			continue
		}
		if param.Name == "self" || param.Name == "cls" {
			continue
		}
		out = append(out, param)
	}
	return out
}

func (e *pyExtractor) extractImport(n *tree_sitter.Node) {
	switch n.Kind() {
	case "import_statement":
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c == nil {
				continue
			}
			switch c.Kind() {
			case "dotted_name":
				e.result.Imports = append(e.result.Imports, types.Import{
					Source:     nodeText(e.content, c),
					Specifiers: []types.ImportSpecifier{{IsNamespace: true}},
				})
			case "aliased_import":
				if moduleNode := c.ChildByFieldName("name"); moduleNode != nil {
					alias := ""
					if aliasNode := c.ChildByFieldName("alias"); aliasNode != nil {
						alias = nodeText(e.content, aliasNode)
					}
					e.result.Imports = append(e.result.Imports, types.Import{
						Source:     nodeText(e.content, moduleNode),
						Specifiers: []types.ImportSpecifier{{Alias: alias, IsNamespace: true}},
					})
				}
			}
		}
	case "import_from_statement":
		moduleNode := n.ChildByFieldName("module_name")
		if moduleNode == nil {
			return
		}
		imp := types.Import{Source: nodeText(e.content, moduleNode)}
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c == nil {
				continue
			}
			switch c.Kind() {
			case "dotted_name":
				if c != moduleNode {
					imp.Specifiers = append(imp.Specifiers, types.ImportSpecifier{Name: nodeText(e.content, c)})
				}
			case "aliased_import":
				name, alias := "", ""
				if nn := c.ChildByFieldName("name"); nn != nil {
					name = nodeText(e.content, nn)
				}
				if an := c.ChildByFieldName("alias"); an != nil {
					alias = nodeText(e.content, an)
				}
				imp.Specifiers = append(imp.Specifiers, types.ImportSpecifier{Name: name, Alias: alias})
			case "wildcard_import":
				imp.Specifiers = append(imp.Specifiers, types.ImportSpecifier{Name: "*", IsNamespace: true})
			}
		}
		e.result.Imports = append(e.result.Imports, imp)
	}
}

func (e *pyExtractor) extractCall(n *tree_sitter.Node, captured map[string]string) {
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

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
