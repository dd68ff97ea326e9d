package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/declscan/internal/ast"
)

func parseSource(t *testing.T, src string) *ast.Unit {
	t.Helper()
	unit, err := NewCppProvider(nil).Parse(context.Background(), "main.cpp", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, unit)
	return unit
}

// variableByName finds the first variable node with the given declared name.
func variableByName(unit *ast.Unit, name string) *ast.Node {
	var found *ast.Node
	unit.Tree.Walk(func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind == ast.KindVariable && n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

func TestParse_TopLevelGlobals(t *testing.T) {
	unit := parseSource(t, `
int globalX;
const int globalY = 1;
double rate = 0.5;
`)

	x := variableByName(unit, "globalX")
	require.NotNil(t, x)
	assert.Equal(t, "globalX", x.QualifiedName)
	assert.Equal(t, "int", x.Type.Name)
	assert.False(t, x.Type.Const)
	assert.Equal(t, ast.RootID, x.Parent)
	assert.Equal(t, ast.NoNode, x.EnclosingFunction)
	assert.Equal(t, ast.LinkageExternal, x.Linkage)
	assert.Equal(t, unit.ID, x.Loc.Unit)
	assert.Equal(t, 2, x.Loc.Line)

	y := variableByName(unit, "globalY")
	require.NotNil(t, y)
	assert.True(t, y.Type.Const)

	r := variableByName(unit, "rate")
	require.NotNil(t, r)
	assert.Equal(t, "double", r.Type.Name)
}

func TestParse_LocalsAndParameters(t *testing.T) {
	unit := parseSource(t, `
int compute(int seed) {
    int local = seed;
    static int calls = 0;
    return local;
}
`)

	seed := variableByName(unit, "seed")
	require.NotNil(t, seed)
	assert.True(t, seed.IsParameter)
	assert.True(t, seed.IsLocal)
	assert.NotEqual(t, ast.NoNode, seed.EnclosingFunction)

	local := variableByName(unit, "local")
	require.NotNil(t, local)
	assert.True(t, local.IsLocal)
	assert.NotEqual(t, ast.RootID, local.Parent)
	assert.NotEqual(t, ast.NoNode, local.EnclosingFunction)
	assert.Equal(t, ast.LinkageNone, local.Linkage)

	calls := variableByName(unit, "calls")
	require.NotNil(t, calls)
	assert.True(t, calls.IsLocal)
	assert.Equal(t, ast.StorageStatic, calls.Storage)
	assert.NotEqual(t, ast.NoNode, calls.EnclosingFunction)
}

func TestParse_NamespaceMembers(t *testing.T) {
	unit := parseSource(t, `
namespace ns {
int val;
namespace inner {
int deep;
}
}
int out;
`)

	val := variableByName(unit, "val")
	require.NotNil(t, val)
	assert.Equal(t, "ns::val", val.QualifiedName)
	assert.NotEqual(t, ast.RootID, val.Parent)

	deep := variableByName(unit, "deep")
	require.NotNil(t, deep)
	assert.Equal(t, "ns::inner::deep", deep.QualifiedName)

	out := variableByName(unit, "out")
	require.NotNil(t, out)
	assert.Equal(t, "out", out.QualifiedName)
	assert.Equal(t, ast.RootID, out.Parent)
}

func TestParse_AnonymousNamespace(t *testing.T) {
	unit := parseSource(t, `
namespace {
int hidden;
}
`)

	hidden := variableByName(unit, "hidden")
	require.NotNil(t, hidden)
	assert.NotEqual(t, ast.RootID, hidden.Parent)
}

func TestParse_ExternCBlock(t *testing.T) {
	unit := parseSource(t, `
extern "C" {
int c_var;
}
extern "C++" {
int cpp_var;
}
`)

	cVar := variableByName(unit, "c_var")
	require.NotNil(t, cVar)
	assert.Equal(t, ast.LinkageExternalC, cVar.Linkage)
	assert.NotEqual(t, ast.RootID, cVar.Parent)

	cppVar := variableByName(unit, "cpp_var")
	require.NotNil(t, cppVar)
	assert.NotEqual(t, ast.LinkageExternalC, cppVar.Linkage)
}

func TestParse_FileStaticLinkage(t *testing.T) {
	unit := parseSource(t, `static int counter;`)

	counter := variableByName(unit, "counter")
	require.NotNil(t, counter)
	assert.Equal(t, ast.StorageStatic, counter.Storage)
	assert.Equal(t, ast.LinkageInternal, counter.Linkage)
	assert.Equal(t, ast.NoNode, counter.EnclosingFunction)
}

func TestParse_StaticDataMember(t *testing.T) {
	unit := parseSource(t, `
struct Widget {
    static int instances;
    int weight;
};
`)

	instances := variableByName(unit, "instances")
	require.NotNil(t, instances)
	assert.True(t, instances.IsStaticMember)
	assert.Equal(t, "Widget::instances", instances.QualifiedName)

	weight := variableByName(unit, "weight")
	require.NotNil(t, weight)
	assert.False(t, weight.IsStaticMember)
	assert.NotEqual(t, ast.RootID, weight.Parent)
}

func TestParse_QualifiedDeclarator(t *testing.T) {
	unit := parseSource(t, `
struct Widget { static int instances; };
int Widget::instances = 0;
`)

	var qualified *ast.Node
	unit.Tree.Walk(func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind == ast.KindVariable && n.Name == "Widget::instances" {
			qualified = n
			return false
		}
		return true
	})
	require.NotNil(t, qualified)
	assert.Equal(t, "Widget::instances", qualified.QualifiedName)
}

func TestParse_FunctionPrototypeIsNotVariable(t *testing.T) {
	unit := parseSource(t, `
int compute(int);
int value;
`)

	assert.Nil(t, variableByName(unit, "compute"))
	assert.NotNil(t, variableByName(unit, "value"))
}

func TestParse_TupleSpecializationFoldsPack(t *testing.T) {
	unit := parseSource(t, `std::tuple<int, double, my::S> triple;`)

	triple := variableByName(unit, "triple")
	require.NotNil(t, triple)
	spec := triple.Type.Specialization
	require.NotNil(t, spec)
	assert.Equal(t, "std::tuple", spec.Name)
	require.Len(t, spec.Args, 1)
	require.Equal(t, ast.ArgPack, spec.Args[0].Kind)

	pack := spec.Args[0].Pack
	require.Len(t, pack, 3)
	assert.Equal(t, "int", pack[0].Type)
	assert.Equal(t, "double", pack[1].Type)
	assert.Equal(t, "my::S", pack[2].Type)
}

func TestParse_EmptyTuplePack(t *testing.T) {
	unit := parseSource(t, `std::tuple<> empty;`)

	empty := variableByName(unit, "empty")
	require.NotNil(t, empty)
	spec := empty.Type.Specialization
	require.NotNil(t, spec)
	require.Len(t, spec.Args, 1)
	assert.Equal(t, ast.ArgPack, spec.Args[0].Kind)
	assert.Empty(t, spec.Args[0].Pack)
}

func TestParse_NonVariadicTemplateKeepsArgs(t *testing.T) {
	unit := parseSource(t, `std::vector<int> items;`)

	items := variableByName(unit, "items")
	require.NotNil(t, items)
	spec := items.Type.Specialization
	require.NotNil(t, spec)
	assert.Equal(t, "std::vector", spec.Name)
	require.Len(t, spec.Args, 1)
	assert.Equal(t, ast.ArgType, spec.Args[0].Kind)
	assert.Equal(t, "int", spec.Args[0].Type)
}

func TestParse_CustomVariadicSet(t *testing.T) {
	provider := NewCppProvider([]string{"std::variant"})
	unit, err := provider.Parse(context.Background(), "main.cpp", []byte(`
std::variant<int, bool> choice;
std::tuple<int> single;
`))
	require.NoError(t, err)

	choice := variableByName(unit, "choice")
	require.NotNil(t, choice)
	require.Len(t, choice.Type.Specialization.Args, 1)
	assert.Equal(t, ast.ArgPack, choice.Type.Specialization.Args[0].Kind)

	// std::tuple is not registered here, so its arguments stay unfolded.
	single := variableByName(unit, "single")
	require.NotNil(t, single)
	require.Len(t, single.Type.Specialization.Args, 1)
	assert.Equal(t, ast.ArgType, single.Type.Specialization.Args[0].Kind)
}

func TestParse_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCppProvider(nil).Parse(ctx, "main.cpp", []byte("int x;"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestParse_ContentOwnershipPreserved(t *testing.T) {
	src := []byte("int x;")
	orig := string(src)
	_, err := NewCppProvider(nil).Parse(context.Background(), "main.cpp", src)
	require.NoError(t, err)
	assert.Equal(t, orig, string(src))
}
