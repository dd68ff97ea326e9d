package ast

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// UnitID identifies a source unit. It is a hash of the unit's path, stable
// across runs and distinct from any included/secondary file's id.
type UnitID uint64

// UnitIDFor derives the id for a source path.
func UnitIDFor(path string) UnitID {
	return UnitID(xxhash.Sum64String(path))
}

// Unit is one parsed input file and its declaration tree.
type Unit struct {
	ID   UnitID
	Path string
	Tree *Tree
}

// NewUnit creates a unit with an empty tree rooted at the translation unit.
func NewUnit(path string) *Unit {
	id := UnitIDFor(path)
	return &Unit{
		ID:   id,
		Path: path,
		Tree: NewTree(id),
	}
}

// DisplayName is the unit's file name with any directory prefix stripped:
// the substring after the last path separator, or the full path if none.
func (u *Unit) DisplayName() string {
	if i := strings.LastIndexAny(u.Path, `/\`); i >= 0 {
		return u.Path[i+1:]
	}
	return u.Path
}
