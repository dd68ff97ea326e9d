// Package ast defines the declaration-tree model shared by the scanner and
// the matcher. Trees are arenas of nodes addressed by stable integer IDs;
// parent and enclosing-function references are index fields, never pointers,
// so a fully built tree can be traversed concurrently without locking.
package ast

// NodeID is a stable index into a Tree's node arena.
type NodeID int32

const (
	// NoNode marks an absent reference (no parent, no enclosing function).
	NoNode NodeID = -1
	// RootID is the translation-unit node. Every Tree has one at index 0.
	RootID NodeID = 0
)

// Kind discriminates declaration node payloads. Checked exhaustively by
// consumers; there is no dynamic type inspection anywhere in the model.
type Kind uint8

const (
	KindTranslationUnit Kind = iota
	KindVariable
	KindFunction
	KindClass
	KindNamespace
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindTranslationUnit:
		return "translation_unit"
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindNamespace:
		return "namespace"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Linkage describes how a declaration's name is visible across units.
type Linkage uint8

const (
	LinkageNone Linkage = iota
	LinkageInternal
	LinkageExternal
	LinkageExternalC // extern "C" declarations
)

func (l Linkage) String() string {
	switch l {
	case LinkageNone:
		return "none"
	case LinkageInternal:
		return "internal"
	case LinkageExternal:
		return "external"
	case LinkageExternalC:
		return "external-c"
	default:
		return "unknown"
	}
}

// Storage is the declared storage class.
type Storage uint8

const (
	StorageAutomatic Storage = iota
	StorageStatic
	StorageExtern
)

// Location is a declaration's position: the owning unit plus 1-based
// line/column. Unit matters for the main-file check, since a declaration
// pulled in from a secondary file carries that file's unit id.
type Location struct {
	Unit   UnitID
	Line   int
	Column int
}

// TypeInfo is the declared type of a variable, including qualifiers and an
// optional generic specialization reference.
type TypeInfo struct {
	Name           string
	Const          bool
	Volatile       bool
	Specialization *TemplateSpecialization
}

// TemplateSpecialization records a generic container instantiation: the
// template's qualified name, whether it is a partial specialization, and
// the arguments in declaration order.
type TemplateSpecialization struct {
	Name    string
	Partial bool
	Args    []TemplateArgument
}

// ArgKind discriminates TemplateArgument payloads.
type ArgKind uint8

const (
	ArgType ArgKind = iota
	ArgValue
	ArgPack
)

// TemplateArgument is a tagged variant: a printed type name, a non-type
// value, or a pack of further type arguments in declaration order.
type TemplateArgument struct {
	Kind  ArgKind
	Type  string             // ArgType: printed type name, tags stripped
	Value string             // ArgValue: printed constant expression
	Pack  []TemplateArgument // ArgPack: element arguments
}

// Node is one declaration in a unit's tree. Parent is exactly the node's
// immediate syntactic container; it is RootID for true top-level
// declarations and points at the namespace/class/linkage-block node for
// everything nested.
type Node struct {
	Kind              Kind
	Name              string
	QualifiedName     string
	Type              TypeInfo
	Loc               Location
	Linkage           Linkage
	Storage           Storage
	Parent            NodeID
	EnclosingFunction NodeID
	IsParameter       bool
	IsStaticMember    bool
	IsLocal           bool
}

// Tree is an arena of declaration nodes. Index 0 is always the translation
// unit; all other nodes are appended by the provider while building. Once
// built, a Tree is read-only.
type Tree struct {
	nodes []Node
}

// NewTree creates a tree holding only the translation-unit root for unit.
func NewTree(unit UnitID) *Tree {
	return &Tree{nodes: []Node{{
		Kind:              KindTranslationUnit,
		Loc:               Location{Unit: unit},
		Parent:            NoNode,
		EnclosingFunction: NoNode,
	}}}
}

// AddNode appends n to the arena and returns its id.
func (t *Tree) AddNode(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Node returns the node at id, or nil for out-of-range ids (including
// NoNode), so callers can chain lookups without guarding.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// ParentOf returns the parent id of id, or NoNode.
func (t *Tree) ParentOf(id NodeID) NodeID {
	n := t.Node(id)
	if n == nil {
		return NoNode
	}
	return n.Parent
}

// Len reports the number of nodes in the arena, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits every node in the arena in insertion order, which for
// provider-built trees is preorder. Visiting stops early only when fn
// returns false. Both analyses use order-independent predicates, so the
// exact order carries no meaning.
func (t *Tree) Walk(fn func(id NodeID, n *Node) bool) {
	for i := range t.nodes {
		if !fn(NodeID(i), &t.nodes[i]) {
			return
		}
	}
}
