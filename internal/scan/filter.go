// Package scan implements the loose-global analysis: a pure filter over
// declaration nodes, a collecting tree visitor, per-unit report records,
// and the parallel scanner that fans units out over workers and merges
// their reports deterministically.
package scan

import (
	"strings"

	"github.com/standardbeagle/declscan/internal/ast"
)

// LooseGlobal reports whether the variable declaration at id qualifies as
// a loose top-level global of unit. The predicate is pure, deterministic,
// and total; every rule below is enforced independently even where rules
// overlap, so relaxing one never silently widens another.
func LooseGlobal(unit *ast.Unit, id ast.NodeID) bool {
	n := unit.Tree.Node(id)
	if n == nil || n.Kind != ast.KindVariable {
		return false
	}
	// Declared in the unit itself, not in an included file.
	if n.Loc.Unit != unit.ID {
		return false
	}
	// No enclosing function or method.
	if n.EnclosingFunction != ast.NoNode {
		return false
	}
	if n.Type.Const {
		return false
	}
	// The single syntactic parent must be the translation-unit root. This
	// excludes namespace, class, and linkage-block members, not merely
	// locals.
	if n.Parent != ast.RootID {
		return false
	}
	// Locals and parameters (overlaps with the rules above, kept separate).
	if n.IsLocal || n.IsParameter {
		return false
	}
	// Static at local scope, and static data members.
	if n.Storage == ast.StorageStatic && n.EnclosingFunction != ast.NoNode {
		return false
	}
	if n.IsStaticMember {
		return false
	}
	// extern "C" declarations.
	if n.Linkage == ast.LinkageExternalC {
		return false
	}
	// Scope-qualified references such as std::cout.
	if strings.Contains(n.QualifiedName, "::") {
		return false
	}
	return true
}
