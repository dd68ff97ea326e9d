package main

import (
	"fmt"
	"os"

	"github.com/standardbeagle/declscan/internal/compiledb"
	"github.com/standardbeagle/declscan/internal/config"
	"github.com/standardbeagle/declscan/internal/debug"
	"github.com/standardbeagle/declscan/internal/version"

	"github.com/urfave/cli/v2"
)

var Version = version.Version // Use centralized version management

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configDir := c.String("config")

	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configDir, err)
	}

	// Apply CLI flag overrides
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if workers := c.Int("workers"); workers > 0 {
		cfg.Scan.Workers = workers
	}
	if buildDir := c.String("build-path"); buildDir != "" {
		cfg.CompileCommandsDir = buildDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveSources determines the translation units to analyze: positional
// arguments win, then the compilation database if one is configured.
func resolveSources(c *cli.Context, cfg *config.Config) ([]string, error) {
	var sources []string
	if c.NArg() > 0 {
		sources = c.Args().Slice()
	} else if cfg.CompileCommandsDir != "" {
		db, err := compiledb.Load(cfg.CompileCommandsDir)
		if err != nil {
			return nil, err
		}
		sources = db.SourceFiles()
	} else {
		return nil, fmt.Errorf("no input files: pass source paths or -p <build dir>")
	}

	sources = cfg.FilterSources(sources)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no input files remain after include/exclude filtering")
	}
	return sources, nil
}

func main() {
	app := &cli.App{
		Name:                   "declscan",
		Usage:                  "Declaration analysis for C++ translation units",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Directory containing " + config.ConfigFileName,
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "build-path",
				Aliases: []string{"p"},
				Usage:   "Directory containing compile_commands.json",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.cpp')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/third_party/**')",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of scan workers (overrides config)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show debug information",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				debug.SetVerbose(true)
			}
			return nil
		},
		Commands: []*cli.Command{
			globalsCommand(),
			tuplesCommand(),
			watchCommand(),
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
