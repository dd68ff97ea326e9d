// Package parser is the compiler front end boundary: it turns source text
// into the declaration-tree model of internal/ast. The analyses only ever
// see that model, never the underlying syntax library, so a provider can be
// swapped out (tests use hand-built trees).
package parser

import (
	"context"

	"github.com/standardbeagle/declscan/internal/ast"
)

// Provider parses one source unit into a declaration tree. Implementations
// must be safe for concurrent use: the parallel scanner calls Parse from
// several workers at once.
type Provider interface {
	Parse(ctx context.Context, path string, content []byte) (*ast.Unit, error)
}
