// Package config holds the tool configuration: an explicit value built
// once at startup from defaults, an optional .declscan.kdl file, and CLI
// flag overrides, then passed into the scanner and matcher. There is no
// process-wide mutable configuration state.
package config

import (
	"fmt"
	"os"
)

// DefaultWorkers is the scanner's worker count when none is configured.
const DefaultWorkers = 4

type Config struct {
	Scan    Scan
	Match   Match
	Include []string // doublestar globs; empty means include everything
	Exclude []string

	// CompileCommandsDir is the directory holding compile_commands.json,
	// set from the -p flag. Empty means no compilation database.
	CompileCommandsDir string
}

type Scan struct {
	Workers int
	// OutputFile is the merged final report. Worker files are named
	// WorkerFilePrefix + index + WorkerFileExt and removed after the
	// merge unless KeepWorkerFiles is set.
	OutputFile       string
	WorkerFilePrefix string
	WorkerFileExt    string
	KeepWorkerFiles  bool
	// WatchDebounceMs debounces file events in watch mode.
	WatchDebounceMs int
}

type Match struct {
	// Target is the container template whose variables are matched.
	Target string
	// Variadic lists templates whose argument list is a parameter pack.
	Variadic []string
}

// Default returns the built-in configuration: four workers,
// threaded_output_<i>.txt worker files, and a final report named
// output.txt.
func Default() *Config {
	return &Config{
		Scan: Scan{
			Workers:          DefaultWorkers,
			OutputFile:       "output.txt",
			WorkerFilePrefix: "threaded_output_",
			WorkerFileExt:    ".txt",
			KeepWorkerFiles:  false,
			WatchDebounceMs:  300,
		},
		Match: Match{
			Target:   "std::tuple",
			Variadic: []string{"std::tuple", "std::variant"},
		},
	}
}

// Load returns the defaults overlaid with .declscan.kdl from dir, if one
// exists. A missing file is not an error; a malformed one is.
func Load(dir string) (*Config, error) {
	cfg := Default()
	if err := loadKDL(cfg, dir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configuration errors before any analysis starts.
func (c *Config) Validate() error {
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan workers must be >= 1, got %d", c.Scan.Workers)
	}
	if c.Scan.OutputFile == "" {
		return fmt.Errorf("scan output file must not be empty")
	}
	if c.Match.Target == "" {
		return fmt.Errorf("match target must not be empty")
	}
	if c.CompileCommandsDir != "" {
		if _, err := os.Stat(c.CompileCommandsDir); err != nil {
			return fmt.Errorf("compilation database directory %s: %w", c.CompileCommandsDir, err)
		}
	}
	return nil
}
