package scan

import (
	"sort"
	"strings"

	"github.com/standardbeagle/declscan/internal/ast"
)

// Record is one unit's extraction result: the unit's display name and its
// collected names, case-insensitively sorted. Records are never mutated
// after creation; the merge step consumes their rendered lines and the
// records are discarded.
type Record struct {
	File  string
	Names []string
}

// NewRecord sorts a copy of names and binds them to the unit's display
// name. The caller's slice is left untouched.
func NewRecord(unit *ast.Unit, names []string) Record {
	sorted := make([]string, len(names))
	copy(sorted, names)
	SortNames(sorted)
	return Record{File: unit.DisplayName(), Names: sorted}
}

// SortNames orders names case-insensitively: bytes are compared after
// folding case, the first differing folded byte decides, and a name that
// is a strict prefix of another under folding sorts first. This is plain
// case-insensitive lexicographic order.
func SortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return lessFold(names[i], names[j])
	})
}

func lessFold(a, b string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		ca, cb := foldByte(a[i]), foldByte(b[i])
		if ca != cb {
			return ca < cb
		}
	}
	return len(a) < len(b)
}

func foldByte(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// Line renders the record as one report line: the display name followed by
// each name, space-separated, with no trailing space. A unit with no
// qualifying names renders as just its display name.
func (r Record) Line() string {
	var sb strings.Builder
	sb.WriteString(r.File)
	for _, name := range r.Names {
		sb.WriteByte(' ')
		sb.WriteString(name)
	}
	return sb.String()
}
