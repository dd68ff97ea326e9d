package parser

import (
	"context"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/standardbeagle/declscan/internal/ast"
	"github.com/standardbeagle/declscan/internal/debug"
)

// DefaultVariadic lists the well-known standard containers whose template
// parameter is a pack. Syntactic template arguments of these containers are
// folded into a single pack argument, mirroring the semantic argument list
// a real compiler front end would report.
var DefaultVariadic = []string{"std::tuple", "std::variant"}

// CppProvider parses C++ source units with tree-sitter and lowers the
// syntax tree into the arena-backed declaration model.
type CppProvider struct {
	language *tree_sitter.Language
	variadic map[string]bool
}

// NewCppProvider creates a provider. variadic names templates whose
// argument lists fold into a single pack; an empty list selects
// DefaultVariadic.
func NewCppProvider(variadic []string) *CppProvider {
	if len(variadic) == 0 {
		variadic = DefaultVariadic
	}
	set := make(map[string]bool, len(variadic))
	for _, name := range variadic {
		set[name] = true
	}
	return &CppProvider{
		language: tree_sitter.NewLanguage(tree_sitter_cpp.Language()),
		variadic: set,
	}
}

// Parse builds the declaration tree for one source unit.
func (p *CppProvider) Parse(ctx context.Context, path string, content []byte) (unit *ast.Unit, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("cpp language setup: %w", err)
	}

	// Tree-sitter mutates input buffers via CGO; parse a private copy so
	// callers keep ownership of content.
	buf := make([]byte, len(content))
	copy(buf, content)

	defer func() {
		if r := recover(); r != nil {
			debug.LogParse("tree-sitter panic in %s: %v\n", path, r)
			err = fmt.Errorf("parse %s: tree-sitter panic: %v", path, r)
		}
	}()

	tree := parser.Parse(buf, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: tree-sitter returned no tree", path)
	}
	defer tree.Close()

	b := &builder{
		src:      buf,
		unit:     ast.NewUnit(path),
		variadic: p.variadic,
	}
	b.walkChildren(tree.RootNode(), scope{
		parent:   ast.RootID,
		function: ast.NoNode,
	})
	debug.LogParse("%s: %d declaration nodes\n", path, b.unit.Tree.Len())
	return b.unit, nil
}

// scope carries context down the syntax tree: the arena id of the current
// syntactic container, the qualified-name prefix (empty or "…::"), the
// forced linkage of an enclosing extern block, the innermost enclosing
// function, and whether we are inside a class body.
type scope struct {
	parent   ast.NodeID
	prefix   string
	linkage  ast.Linkage
	function ast.NodeID
	inClass  bool
}

type builder struct {
	src      []byte
	unit     *ast.Unit
	variadic map[string]bool
}

func (b *builder) walk(node *tree_sitter.Node, sc scope) {
	switch node.Kind() {
	case "namespace_definition":
		b.namespaceScope(node, sc)
	case "linkage_specification":
		b.linkageScope(node, sc)
	case "class_specifier", "struct_specifier", "union_specifier":
		b.classScope(node, sc)
	case "function_definition":
		b.functionScope(node, sc)
	case "declaration":
		b.declaration(node, sc)
	case "field_declaration":
		b.fieldDeclaration(node, sc)
	default:
		b.walkChildren(node, sc)
	}
}

func (b *builder) walkChildren(node *tree_sitter.Node, sc scope) {
	for i := uint(0); i < node.ChildCount(); i++ {
		b.walk(node.Child(i), sc)
	}
}

func (b *builder) namespaceScope(node *tree_sitter.Node, sc scope) {
	name := "(anonymous namespace)"
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = b.text(nameNode)
	}
	id := b.unit.Tree.AddNode(ast.Node{
		Kind:              ast.KindNamespace,
		Name:              name,
		QualifiedName:     sc.prefix + name,
		Loc:               b.loc(node),
		Parent:            sc.parent,
		EnclosingFunction: sc.function,
	})
	inner := sc
	inner.parent = id
	inner.prefix = sc.prefix + name + "::"
	if body := node.ChildByFieldName("body"); body != nil {
		b.walkChildren(body, inner)
	}
}

// linkageScope handles extern "C" / extern "C++" blocks. The block itself
// becomes a node so that declarations inside it have a non-root parent,
// exactly like the front-end model where a linkage block sits between a
// declaration and the translation unit.
func (b *builder) linkageScope(node *tree_sitter.Node, sc scope) {
	lang := ""
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == "string_literal" {
			lang = strings.Trim(b.text(child), `"`)
		}
	}
	id := b.unit.Tree.AddNode(ast.Node{
		Kind:              ast.KindOther,
		Name:              "extern " + quoted(lang),
		QualifiedName:     "extern " + quoted(lang),
		Loc:               b.loc(node),
		Parent:            sc.parent,
		EnclosingFunction: sc.function,
	})
	inner := sc
	inner.parent = id
	if lang == "C" {
		inner.linkage = ast.LinkageExternalC
	}
	b.walkChildren(node, inner)
}

func (b *builder) classScope(node *tree_sitter.Node, sc scope) {
	nameNode := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	if nameNode == nil && body == nil {
		return
	}
	name := "(anonymous)"
	if nameNode != nil {
		name = b.text(nameNode)
	}
	id := b.unit.Tree.AddNode(ast.Node{
		Kind:              ast.KindClass,
		Name:              name,
		QualifiedName:     sc.prefix + name,
		Loc:               b.loc(node),
		Parent:            sc.parent,
		EnclosingFunction: sc.function,
	})
	if body == nil {
		return // forward declaration
	}
	inner := sc
	inner.parent = id
	inner.prefix = sc.prefix + name + "::"
	inner.inClass = true
	b.walkChildren(body, inner)
}

func (b *builder) functionScope(node *tree_sitter.Node, sc scope) {
	declarator := findFunctionDeclarator(node)
	name := ""
	if declarator != nil {
		name = b.declaratorName(declarator)
	}
	qualified := name
	if !strings.Contains(name, "::") {
		qualified = sc.prefix + name
	}
	id := b.unit.Tree.AddNode(ast.Node{
		Kind:              ast.KindFunction,
		Name:              name,
		QualifiedName:     qualified,
		Loc:               b.loc(node),
		Linkage:           b.linkageFor(sc, ast.StorageAutomatic, false),
		Parent:            sc.parent,
		EnclosingFunction: sc.function,
	})
	inner := sc
	inner.parent = id
	inner.function = id
	inner.inClass = false
	if declarator != nil {
		b.parameters(declarator, inner)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		b.walkChildren(body, inner)
	}
}

func (b *builder) parameters(declarator *tree_sitter.Node, sc scope) {
	paramList := findChildByKind(declarator, "parameter_list")
	if paramList == nil {
		return
	}
	for i := uint(0); i < paramList.ChildCount(); i++ {
		param := paramList.Child(i)
		kind := param.Kind()
		if kind != "parameter_declaration" && kind != "optional_parameter_declaration" {
			continue
		}
		name := b.declaratorName(param)
		if name == "" {
			continue // unnamed parameter
		}
		ti, _ := b.typeAndStorage(param)
		b.unit.Tree.AddNode(ast.Node{
			Kind:              ast.KindVariable,
			Name:              name,
			QualifiedName:     name,
			Type:              ti,
			Loc:               b.loc(param),
			Parent:            sc.parent,
			EnclosingFunction: sc.function,
			IsParameter:       true,
			IsLocal:           true,
		})
	}
}

func (b *builder) declaration(node *tree_sitter.Node, sc scope) {
	ti, storage := b.typeAndStorage(node)
	local := sc.function != ast.NoNode
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !isDeclaratorKind(child.Kind()) {
			continue
		}
		if declaratorIsFunction(child) {
			continue // function prototype, not a variable
		}
		name := b.declaratorName(child)
		if name == "" {
			continue
		}
		qualified := name
		if !strings.Contains(name, "::") {
			qualified = sc.prefix + name
		}
		b.unit.Tree.AddNode(ast.Node{
			Kind:              ast.KindVariable,
			Name:              name,
			QualifiedName:     qualified,
			Type:              ti,
			Loc:               b.loc(child),
			Linkage:           b.linkageFor(sc, storage, local),
			Storage:           storage,
			Parent:            sc.parent,
			EnclosingFunction: sc.function,
			IsLocal:           local,
		})
	}
}

// fieldDeclaration lowers class member variables. Static members are
// flagged so the loose-global filter can reject them independently of the
// parent rule.
func (b *builder) fieldDeclaration(node *tree_sitter.Node, sc scope) {
	ti, storage := b.typeAndStorage(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		kind := child.Kind()
		if kind != "field_identifier" && !isDeclaratorKind(kind) {
			continue
		}
		if declaratorIsFunction(child) {
			continue // method prototype
		}
		name := b.declaratorName(child)
		if name == "" {
			continue
		}
		b.unit.Tree.AddNode(ast.Node{
			Kind:              ast.KindVariable,
			Name:              name,
			QualifiedName:     sc.prefix + name,
			Type:              ti,
			Loc:               b.loc(child),
			Storage:           storage,
			Parent:            sc.parent,
			EnclosingFunction: sc.function,
			IsStaticMember:    storage == ast.StorageStatic,
		})
	}
}

// typeAndStorage collects type specifiers, qualifiers, and the storage
// class from a declaration-like node's leading children.
func (b *builder) typeAndStorage(node *tree_sitter.Node) (ast.TypeInfo, ast.Storage) {
	var ti ast.TypeInfo
	storage := ast.StorageAutomatic
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "storage_class_specifier":
			switch b.text(child) {
			case "static":
				storage = ast.StorageStatic
			case "extern":
				storage = ast.StorageExtern
			}
		case "type_qualifier":
			switch b.text(child) {
			case "const", "constexpr":
				ti.Const = true
			case "volatile":
				ti.Volatile = true
			}
		case "primitive_type", "sized_type_specifier", "type_identifier",
			"qualified_identifier", "template_type", "auto",
			"placeholder_type_specifier", "struct_specifier",
			"class_specifier", "enum_specifier", "union_specifier":
			if ti.Name == "" {
				ti.Name, ti.Specialization = b.typeFromNode(child, "")
			}
		}
	}
	return ti, storage
}

// typeFromNode resolves a type specifier node to its printed name and, for
// template instantiations, the specialization reference. Qualified names
// are peeled scope by scope so std::tuple<…> resolves to the template's
// fully qualified name.
func (b *builder) typeFromNode(node *tree_sitter.Node, prefix string) (string, *ast.TemplateSpecialization) {
	switch node.Kind() {
	case "qualified_identifier":
		if scopeNode := node.ChildByFieldName("scope"); scopeNode != nil {
			prefix += b.text(scopeNode) + "::"
		}
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			return b.typeFromNode(nameNode, prefix)
		}
		return cleanTypeName(prefix + b.text(node)), nil
	case "template_type":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return cleanTypeName(prefix + b.text(node)), nil
		}
		templateName := prefix + b.text(nameNode)
		args := b.templateArgs(node.ChildByFieldName("arguments"))
		if b.variadic[templateName] {
			args = []ast.TemplateArgument{{Kind: ast.ArgPack, Pack: args}}
		}
		spec := &ast.TemplateSpecialization{
			Name: templateName,
			Args: args,
		}
		return cleanTypeName(prefix + b.text(node)), spec
	default:
		return cleanTypeName(prefix + b.text(node)), nil
	}
}

// templateArgs lowers a template_argument_list. Type arguments appear as
// type_descriptor children; anything else named is a non-type value.
func (b *builder) templateArgs(list *tree_sitter.Node) []ast.TemplateArgument {
	if list == nil {
		return nil
	}
	var args []ast.TemplateArgument
	for i := uint(0); i < list.ChildCount(); i++ {
		child := list.Child(i)
		switch child.Kind() {
		case "<", ">", ",", ">>":
			continue
		case "type_descriptor":
			args = append(args, ast.TemplateArgument{
				Kind: ast.ArgType,
				Type: cleanTypeName(b.text(child)),
			})
		default:
			if !child.IsNamed() {
				continue
			}
			args = append(args, ast.TemplateArgument{
				Kind:  ast.ArgValue,
				Value: b.text(child),
			})
		}
	}
	return args
}

// declaratorName digs the declared identifier out of a declarator,
// unwrapping init/pointer/reference/array declarators on the way.
func (b *builder) declaratorName(node *tree_sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
		return b.text(node)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
			return b.text(child)
		case "init_declarator", "pointer_declarator", "reference_declarator",
			"array_declarator", "function_declarator", "parenthesized_declarator":
			if name := b.declaratorName(child); name != "" {
				return name
			}
		case "parameter_list", "argument_list", "initializer_list":
			continue
		}
	}
	return ""
}

func (b *builder) linkageFor(sc scope, storage ast.Storage, local bool) ast.Linkage {
	switch {
	case local:
		return ast.LinkageNone
	case sc.linkage == ast.LinkageExternalC:
		return ast.LinkageExternalC
	case storage == ast.StorageStatic:
		return ast.LinkageInternal
	default:
		return ast.LinkageExternal
	}
}

func (b *builder) loc(node *tree_sitter.Node) ast.Location {
	pos := node.StartPosition()
	return ast.Location{
		Unit:   b.unit.ID,
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}
}

func (b *builder) text(node *tree_sitter.Node) string {
	return string(b.src[node.StartByte():node.EndByte()])
}

func isDeclaratorKind(kind string) bool {
	switch kind {
	case "init_declarator", "identifier", "pointer_declarator",
		"reference_declarator", "array_declarator", "structured_binding_declarator":
		return true
	}
	return false
}

// declaratorIsFunction reports whether a declarator declares a function
// rather than a variable (prototypes, pointer-returning prototypes).
func declaratorIsFunction(node *tree_sitter.Node) bool {
	switch node.Kind() {
	case "function_declarator":
		return true
	case "pointer_declarator", "reference_declarator", "init_declarator":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			switch child.Kind() {
			case "function_declarator":
				// A parenthesized inner declarator means a function
				// pointer variable, not a prototype.
				return findChildByKind(child, "parenthesized_declarator") == nil
			case "pointer_declarator", "reference_declarator":
				if declaratorIsFunction(child) {
					return true
				}
			}
		}
	}
	return false
}

// findFunctionDeclarator locates the function_declarator of a definition,
// unwrapping pointer/reference declarators for declarators like
// `int *f()`.
func findFunctionDeclarator(node *tree_sitter.Node) *tree_sitter.Node {
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Kind() {
		case "function_declarator":
			return decl
		case "pointer_declarator", "reference_declarator":
			decl = decl.ChildByFieldName("declarator")
		default:
			return nil
		}
	}
	return nil
}

func findChildByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == kind {
			return child
		}
	}
	return nil
}

// cleanTypeName strips elaborated type tags and collapses whitespace so
// printed names carry no redundant "struct"/"class" keywords.
func cleanTypeName(s string) string {
	fields := strings.Fields(s)
	out := fields[:0]
	for i, f := range fields {
		if (f == "struct" || f == "class" || f == "enum" || f == "typename") && i < len(fields)-1 {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

func quoted(s string) string {
	return `"` + s + `"`
}
