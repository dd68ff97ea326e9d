package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/standardbeagle/declscan/internal/parser"
	"github.com/standardbeagle/declscan/internal/scan"

	"github.com/urfave/cli/v2"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Rescan loose globals whenever a source file changes",
		ArgsUsage: "[source files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Final report path (overrides config)",
			},
			&cli.IntFlag{
				Name:  "debounce-ms",
				Usage: "Quiet period before a rescan (overrides config)",
			},
		},
		Action: watchAction,
	}
}

func watchAction(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	if output := c.String("output"); output != "" {
		cfg.Scan.OutputFile = output
	}
	if ms := c.Int("debounce-ms"); ms > 0 {
		cfg.Scan.WatchDebounceMs = ms
	}

	sources, err := resolveSources(c, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	provider := parser.NewCppProvider(cfg.Match.Variadic)
	scanner := scan.NewScanner(provider, cfg)
	watcher, err := scan.NewWatcher(scanner, sources,
		time.Duration(cfg.Scan.WatchDebounceMs)*time.Millisecond)
	if err != nil {
		return err
	}
	watcher.OnRun = func(result *scan.Result, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "rescan failed: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "wrote %s (%d units, %d skipped)\n",
			result.Report, len(result.Lines), len(result.Failed))
	}

	fmt.Fprintf(os.Stderr, "watching %d files, Ctrl-C to stop\n", len(sources))
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
