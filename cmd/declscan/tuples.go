package main

import (
	"fmt"
	"os"

	"github.com/standardbeagle/declscan/internal/match"
	"github.com/standardbeagle/declscan/internal/parser"

	"github.com/urfave/cli/v2"
)

func tuplesCommand() *cli.Command {
	return &cli.Command{
		Name:      "tuples",
		Aliases:   []string{"t"},
		Usage:     "Extract template parameter packs from variables of the target template type",
		ArgsUsage: "[source files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "target",
				Usage: "Fully qualified template name to match (overrides config)",
			},
		},
		Action: tuplesAction,
	}
}

func tuplesAction(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	if target := c.String("target"); target != "" {
		cfg.Match.Target = target
	}

	sources, err := resolveSources(c, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	provider := parser.NewCppProvider(cfg.Match.Variadic)
	matcher := match.NewMatcher(cfg.Match.Target, os.Stdout, os.Stderr)

	var failed int
	for _, path := range sources {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipped %s: %v\n", path, err)
			failed++
			continue
		}
		unit, err := provider.Parse(ctx, path, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipped %s: %v\n", path, err)
			failed++
			continue
		}
		matcher.Run(unit)
	}
	if failed > 0 {
		if failed == len(sources) {
			return fmt.Errorf("no input files could be analyzed")
		}
		return cli.Exit("", 1)
	}
	return nil
}
