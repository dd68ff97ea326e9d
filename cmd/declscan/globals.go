package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/standardbeagle/declscan/internal/debug"
	"github.com/standardbeagle/declscan/internal/parser"
	"github.com/standardbeagle/declscan/internal/scan"

	"github.com/urfave/cli/v2"
)

func globalsCommand() *cli.Command {
	return &cli.Command{
		Name:      "globals",
		Aliases:   []string{"g"},
		Usage:     "Report loose global variables per translation unit",
		ArgsUsage: "[source files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Final report path (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "keep-worker-files",
				Usage: "Keep the per-worker intermediate files after the merge",
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Also print the merged report to stdout",
			},
		},
		Action: globalsAction,
	}
}

func globalsAction(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	if output := c.String("output"); output != "" {
		cfg.Scan.OutputFile = output
	}
	if c.Bool("keep-worker-files") {
		cfg.Scan.KeepWorkerFiles = true
	}

	sources, err := resolveSources(c, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	provider := parser.NewCppProvider(cfg.Match.Variadic)
	scanner := scan.NewScanner(provider, cfg)
	result, err := scanner.Run(ctx, sources)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	debug.LogScan("scanned %d files in %v\n", len(sources), time.Since(start))

	if c.Bool("print") {
		for _, line := range result.Lines {
			fmt.Println(line)
		}
	}
	for _, path := range result.Failed {
		fmt.Fprintf(os.Stderr, "warning: skipped %s\n", path)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d units, %d skipped)\n",
		result.Report, len(result.Lines), len(result.Failed))
	if len(result.Failed) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
