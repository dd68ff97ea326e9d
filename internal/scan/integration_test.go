package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/declscan/internal/parser"
)

// End-to-end runs over real C++ sources through the tree-sitter provider.

func TestScanner_EndToEndCpp(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
		return path
	}

	sources := []string{
		write("first.cpp", `
int globalX;
const int globalY = 1;

int main() {
    int local = 0;
    return local;
}
`),
		write("second.cpp", `
namespace ns {
int val;
}
int zed;
int Alpha;
static int fileLocal;
`),
		write("third.cpp", `
extern "C" {
int c_linked;
}
struct Box {
    static int count;
};

void touch(int arg) {
    static int calls;
}
`),
	}

	cfg := testConfig(t, 4)
	result, err := NewScanner(parser.NewCppProvider(nil), cfg).Run(context.Background(), sources)
	require.NoError(t, err)
	require.Empty(t, result.Failed)

	assert.Equal(t, []string{
		"first.cpp globalX",
		"second.cpp Alpha fileLocal zed",
		"third.cpp",
	}, result.Lines)
}
