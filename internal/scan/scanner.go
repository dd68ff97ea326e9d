package scan

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/declscan/internal/config"
	"github.com/standardbeagle/declscan/internal/debug"
	"github.com/standardbeagle/declscan/internal/parser"
)

// Scanner runs the loose-global analysis over a file list with a fixed
// pool of workers. Each worker is an independent sequential pipeline over
// its chunk and exclusively owns its private sink file; completed lines
// flow back to the coordinator as owned values, so no state is shared
// between workers during the scan phase. A hard barrier separates the scan
// phase from the single-threaded merge.
type Scanner struct {
	provider parser.Provider
	cfg      *config.Config
}

func NewScanner(provider parser.Provider, cfg *config.Config) *Scanner {
	return &Scanner{provider: provider, cfg: cfg}
}

// Result is the outcome of one scanner run.
type Result struct {
	Report      string   // path of the merged final report
	Lines       []string // merged report lines, byte-wise sorted
	Failed      []string // source paths whose parse failed and were skipped
	WorkerFiles []string // per-worker sink files (removed unless configured kept)
}

type workerOutput struct {
	lines  []string
	failed []string
}

// Run scans sources and writes the merged report. The final report is
// deterministic: worker scheduling only affects the transient per-worker
// files, and the merge re-sorts every line. Files that fail to parse are
// skipped with the rest of their chunk still processed; they are reported
// in Result.Failed rather than aborting the run.
func (s *Scanner) Run(ctx context.Context, sources []string) (*Result, error) {
	k := s.cfg.Scan.Workers
	if k < 1 {
		k = 1
	}
	chunks := Partition(sources, k)
	outputs := make([]workerOutput, k)
	workerFiles := make([]string, k)

	g, ctx := errgroup.WithContext(ctx)
	for i := range chunks {
		workerFiles[i] = fmt.Sprintf("%s%d%s",
			s.cfg.Scan.WorkerFilePrefix, i, s.cfg.Scan.WorkerFileExt)
		g.Go(func() error {
			out, err := s.runWorker(ctx, workerFiles[i], chunks[i])
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	// Hard barrier: no partial results are consumed before every worker
	// has completed.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Report:      s.cfg.Scan.OutputFile,
		WorkerFiles: workerFiles,
	}
	var lines []string
	for _, out := range outputs {
		lines = append(lines, out.lines...)
		result.Failed = append(result.Failed, out.failed...)
	}
	result.Lines = MergeLines(lines)

	if err := writeLines(s.cfg.Scan.OutputFile, result.Lines); err != nil {
		return nil, fmt.Errorf("write final report: %w", err)
	}
	if !s.cfg.Scan.KeepWorkerFiles {
		for _, path := range workerFiles {
			if err := os.Remove(path); err != nil {
				debug.LogScan("remove worker file %s: %v\n", path, err)
			}
		}
		result.WorkerFiles = nil
	}
	debug.LogScan("merged %d lines from %d workers into %s (%d failed)\n",
		len(result.Lines), k, result.Report, len(result.Failed))
	return result, nil
}

// runWorker processes one chunk: parse, collect, report, append to the
// worker's own sink. The sink is owned by this worker for its whole
// lifetime and flushed before the worker finishes.
func (s *Scanner) runWorker(ctx context.Context, sinkPath string, files []string) (workerOutput, error) {
	var out workerOutput
	sink, err := os.Create(sinkPath)
	if err != nil {
		return out, fmt.Errorf("create worker sink %s: %w", sinkPath, err)
	}
	w := bufio.NewWriter(sink)
	var visitor Visitor

	for _, path := range files {
		select {
		case <-ctx.Done():
			sink.Close()
			return out, ctx.Err()
		default:
		}
		content, err := os.ReadFile(path)
		if err != nil {
			debug.LogScan("read %s: %v\n", path, err)
			out.failed = append(out.failed, path)
			continue
		}
		unit, err := s.provider.Parse(ctx, path, content)
		if err != nil {
			debug.LogScan("parse %s: %v\n", path, err)
			out.failed = append(out.failed, path)
			continue
		}
		line := NewRecord(unit, visitor.Scan(unit)).Line()
		w.WriteString(line)
		w.WriteByte('\n')
		out.lines = append(out.lines, line)
	}

	if err := w.Flush(); err != nil {
		sink.Close()
		return out, fmt.Errorf("flush worker sink %s: %w", sinkPath, err)
	}
	if err := sink.Close(); err != nil {
		return out, fmt.Errorf("close worker sink %s: %w", sinkPath, err)
	}
	return out, nil
}

// Partition splits sources into k chunks: each of the first k-1 chunks
// holds len/k files, and the last chunk absorbs the remainder. The union
// of the chunks is exactly the input, in order, with no duplicates. With
// fewer files than workers the leading chunks are empty and the last
// worker takes everything.
func Partition(sources []string, k int) [][]string {
	chunks := make([][]string, k)
	size := len(sources) / k
	for i := 0; i < k; i++ {
		lo := i * size
		hi := lo + size
		if i == k-1 {
			hi = len(sources)
		}
		chunks[i] = sources[lo:hi]
	}
	return chunks
}

// MergeLines reorders report lines by a plain byte-wise lexicographic
// stable sort. Cross-line ordering is case-sensitive, unlike the
// case-insensitive ordering of names within a line.
func MergeLines(lines []string) []string {
	merged := make([]string, len(lines))
	copy(merged, lines)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i] < merged[j]
	})
	return merged
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
