package scan

import (
	"github.com/standardbeagle/declscan/internal/ast"
)

// Visitor walks a unit's declaration tree and collects the qualified names
// of loose globals. The filter is order-independent, so traversal order is
// irrelevant; traversal never short-circuits on a match.
type Visitor struct{}

// Scan returns the qualified names accepted by LooseGlobal, in traversal
// order, duplicates preserved. It cannot fail: the filter is total.
func (Visitor) Scan(unit *ast.Unit) []string {
	var names []string
	unit.Tree.Walk(func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind == ast.KindVariable && LooseGlobal(unit, id) {
			names = append(names, n.QualifiedName)
		}
		return true
	})
	return names
}
