// Package match finds variables whose type is a full specialization of a
// target variadic class template and extracts the element types of the
// template parameter pack. Candidates with the right template name but
// the wrong argument shape are reported as diagnostics instead of
// matches.
package match

import (
	"fmt"
	"io"
	"strings"

	"github.com/standardbeagle/declscan/internal/ast"
	"github.com/standardbeagle/declscan/internal/debug"
)

// Record is one matched variable.
type Record struct {
	Variable  string   // declared variable name
	Template  string   // fully qualified template name
	PackTypes []string // pack element type names, in declaration order
}

// Matcher scans declaration trees for variables of the target template
// type. Matches are written to Out, shape diagnostics to Diag.
type Matcher struct {
	Target string
	Out    io.Writer
	Diag   io.Writer
}

func NewMatcher(target string, out, diag io.Writer) *Matcher {
	return &Matcher{Target: target, Out: out, Diag: diag}
}

// Match walks the unit and returns a record per variable whose type is a
// non-partial specialization of the target template carrying exactly one
// pack argument. Parameters never match. Candidates failing the shape
// check produce a diagnostic and no record; an empty pack is a valid
// shape and yields a record with no pack types.
func (m *Matcher) Match(unit *ast.Unit) []Record {
	var records []Record
	unit.Tree.Walk(func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind != ast.KindVariable || n.IsParameter {
			return true
		}
		spec := n.Type.Specialization
		if spec == nil || spec.Name != m.Target || spec.Partial {
			return true
		}
		debug.LogMatch("candidate %s: %s with %d args\n", n.Name, spec.Name, len(spec.Args))
		if len(spec.Args) != 1 {
			fmt.Fprintf(m.Diag, "%s does not have one template parameter\n", m.shortName())
			return true
		}
		arg := spec.Args[0]
		if arg.Kind != ast.ArgPack {
			fmt.Fprintf(m.Diag, "%s template parameter is not a pack\n", m.shortName())
			return true
		}
		rec := Record{Variable: n.Name, Template: spec.Name}
		for _, elem := range arg.Pack {
			rec.PackTypes = append(rec.PackTypes, elem.Type)
		}
		records = append(records, rec)
		return true
	})
	return records
}

// shortName is the target without its namespace qualifiers, as used in
// diagnostics.
func (m *Matcher) shortName() string {
	if i := strings.LastIndex(m.Target, "::"); i >= 0 {
		return m.Target[i+2:]
	}
	return m.Target
}

// Report renders records in the fixed output format: one header line per
// variable followed by one indented line per pack element.
func (m *Matcher) Report(records []Record) {
	for _, rec := range records {
		fmt.Fprintf(m.Out, "variable %s of type %s with %d template arguments\n",
			rec.Variable, rec.Template, len(rec.PackTypes))
		for _, t := range rec.PackTypes {
			fmt.Fprintf(m.Out, "    %s\n", t)
		}
	}
}

// Run matches and reports in one step.
func (m *Matcher) Run(unit *ast.Unit) []Record {
	records := m.Match(unit)
	m.Report(records)
	return records
}
