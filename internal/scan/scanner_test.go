package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/declscan/internal/ast"
	"github.com/standardbeagle/declscan/internal/config"
)

// fakeProvider builds a unit with one loose global per comma-separated
// name in the file content. A content of "fail" produces a parse error.
type fakeProvider struct{}

func (fakeProvider) Parse(ctx context.Context, path string, content []byte) (*ast.Unit, error) {
	text := strings.TrimSpace(string(content))
	if text == "fail" {
		return nil, fmt.Errorf("parse %s: synthetic failure", path)
	}
	unit := ast.NewUnit(path)
	if text == "" {
		return unit, nil
	}
	for _, name := range strings.Split(text, ",") {
		unit.Tree.AddNode(ast.Node{
			Kind:              ast.KindVariable,
			Name:              name,
			QualifiedName:     name,
			Loc:               ast.Location{Unit: unit.ID, Line: 1, Column: 1},
			Linkage:           ast.LinkageExternal,
			Parent:            ast.RootID,
			EnclosingFunction: ast.NoNode,
		})
	}
	return unit, nil
}

func testConfig(t *testing.T, workers int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Scan.Workers = workers
	cfg.Scan.OutputFile = filepath.Join(dir, "output.txt")
	cfg.Scan.WorkerFilePrefix = filepath.Join(dir, "threaded_output_")
	return cfg
}

func writeSources(t *testing.T, contents map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	names := make([]string, 0, len(contents))
	for name := range contents {
		names = append(names, name)
	}
	sort.Strings(names)
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents[name]), 0644))
		paths = append(paths, path)
	}
	return paths
}

func TestPartition_ChunkSizes(t *testing.T) {
	sources := make([]string, 10)
	for i := range sources {
		sources[i] = fmt.Sprintf("file%d.cpp", i)
	}

	chunks := Partition(sources, 4)
	require.Len(t, chunks, 4)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 2)
	// Last chunk absorbs the remainder.
	assert.Len(t, chunks[3], 4)
}

func TestPartition_CoversEveryFileExactlyOnce(t *testing.T) {
	for _, n := range []int{0, 1, 3, 4, 5, 8, 17, 100} {
		for _, k := range []int{1, 2, 4, 7} {
			sources := make([]string, n)
			for i := range sources {
				sources[i] = fmt.Sprintf("file%d.cpp", i)
			}
			joined := make([]string, 0, n)
			for _, chunk := range Partition(sources, k) {
				joined = append(joined, chunk...)
			}
			assert.Equal(t, sources, joined, "n=%d k=%d", n, k)
		}
	}
}

func TestPartition_FewerFilesThanWorkers(t *testing.T) {
	chunks := Partition([]string{"a.cpp", "b.cpp"}, 4)
	require.Len(t, chunks, 4)
	assert.Empty(t, chunks[0])
	assert.Empty(t, chunks[1])
	assert.Empty(t, chunks[2])
	assert.Equal(t, []string{"a.cpp", "b.cpp"}, chunks[3])
}

func TestScanner_Run(t *testing.T) {
	sources := writeSources(t, map[string]string{
		"delta.cpp":   "counter,Flag",
		"alpha.cpp":   "x",
		"bravo.cpp":   "",
		"charlie.cpp": "zz,aa",
		"echo.cpp":    "one",
	})
	cfg := testConfig(t, 4)

	result, err := NewScanner(fakeProvider{}, cfg).Run(context.Background(), sources)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)

	want := []string{
		"alpha.cpp x",
		"bravo.cpp",
		"charlie.cpp aa zz",
		"delta.cpp counter Flag",
		"echo.cpp one",
	}
	assert.Equal(t, want, result.Lines)

	data, err := os.ReadFile(cfg.Scan.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(want, "\n")+"\n", string(data))

	// Worker files are removed after the merge.
	for i := 0; i < 4; i++ {
		path := fmt.Sprintf("%s%d%s", cfg.Scan.WorkerFilePrefix, i, cfg.Scan.WorkerFileExt)
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "worker file %s should be removed", path)
	}
	assert.Empty(t, result.WorkerFiles)
}

func TestScanner_KeepWorkerFiles(t *testing.T) {
	sources := writeSources(t, map[string]string{
		"a.cpp": "one",
		"b.cpp": "two",
		"c.cpp": "three",
	})
	cfg := testConfig(t, 2)
	cfg.Scan.KeepWorkerFiles = true

	result, err := NewScanner(fakeProvider{}, cfg).Run(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, result.WorkerFiles, 2)

	// The union of worker file lines equals the merged report.
	var workerLines []string
	for _, path := range result.WorkerFiles {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
			if line != "" {
				workerLines = append(workerLines, line)
			}
		}
	}
	assert.ElementsMatch(t, result.Lines, workerLines)
}

func TestScanner_MergeDeterministic(t *testing.T) {
	contents := make(map[string]string)
	for i := 0; i < 23; i++ {
		contents[fmt.Sprintf("unit%02d.cpp", i)] = fmt.Sprintf("name%d", i)
	}
	sources := writeSources(t, contents)

	first, err := NewScanner(fakeProvider{}, testConfig(t, 4)).Run(context.Background(), sources)
	require.NoError(t, err)
	second, err := NewScanner(fakeProvider{}, testConfig(t, 4)).Run(context.Background(), sources)
	require.NoError(t, err)

	assert.Equal(t, first.Lines, second.Lines)
}

func TestScanner_BasenameCollision(t *testing.T) {
	// Two inputs with the same final path segment produce identically
	// prefixed lines; the merge keeps both, adjacent after sorting.
	dirA := t.TempDir()
	dirB := t.TempDir()
	pathA := filepath.Join(dirA, "main.cpp")
	pathB := filepath.Join(dirB, "main.cpp")
	require.NoError(t, os.WriteFile(pathA, []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(pathB, []byte("beta"), 0644))
	cfg := testConfig(t, 2)

	result, err := NewScanner(fakeProvider{}, cfg).Run(context.Background(), []string{pathA, pathB})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.cpp alpha", "main.cpp beta"}, result.Lines)
}

func TestScanner_SkipsFailedFiles(t *testing.T) {
	sources := writeSources(t, map[string]string{
		"good.cpp":   "ok",
		"broken.cpp": "fail",
		"last.cpp":   "fine",
	})
	cfg := testConfig(t, 2)

	result, err := NewScanner(fakeProvider{}, cfg).Run(context.Background(), sources)
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "broken.cpp", filepath.Base(result.Failed[0]))
	assert.Equal(t, []string{"good.cpp ok", "last.cpp fine"}, result.Lines)
}

func TestScanner_UnreadableFileSkipped(t *testing.T) {
	sources := writeSources(t, map[string]string{"real.cpp": "ok"})
	sources = append(sources, filepath.Join(t.TempDir(), "missing.cpp"))
	cfg := testConfig(t, 1)

	result, err := NewScanner(fakeProvider{}, cfg).Run(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, []string{"real.cpp ok"}, result.Lines)
}

func TestScanner_CancelledContext(t *testing.T) {
	sources := writeSources(t, map[string]string{"a.cpp": "x"})
	cfg := testConfig(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScanner(fakeProvider{}, cfg).Run(ctx, sources)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMergeLines_ByteWise(t *testing.T) {
	lines := []string{"b.cpp x", "B.cpp y", "a.cpp z"}
	merged := MergeLines(lines)

	// Uppercase bytes sort before lowercase, unlike within-line name order.
	assert.Equal(t, []string{"B.cpp y", "a.cpp z", "b.cpp x"}, merged)
	// Input untouched.
	assert.Equal(t, []string{"b.cpp x", "B.cpp y", "a.cpp z"}, lines)
}
