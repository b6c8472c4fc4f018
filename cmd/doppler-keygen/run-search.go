package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/urfave/cli"

	"github.com/dopplerlabs/doppler-keygen/internal/ui"
	"github.com/dopplerlabs/doppler-keygen/pkg/grinder"
	"github.com/dopplerlabs/doppler-keygen/pkg/pattern"
)

// runGrind searches for keys with at least one sign-extension compatible
// segment. A single target collects the requested number of keys so each
// find is a distinct keypair.
func runGrind(c *cli.Context) error {
	count := uint64(1)
	if arg := c.Args().First(); arg != "" {
		n, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("grind: count must be a positive integer, got %q", arg)
		}
		count = n
	}
	target := grinder.NewTarget(pattern.NewImmediate(), count)
	return runSearch(c, target)
}

// runVanity searches for a single vanity pattern.
func runVanity(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("vanity: exactly one pattern argument is required")
	}
	p, count, err := pattern.ParseTarget(c.Args().First())
	if err != nil {
		return err
	}
	return runSearch(c, grinder.NewTarget(p, count))
}

// runBatch searches for several patterns at once; every candidate key is
// tested against all still-unsatisfied patterns, so the generation cost is
// shared across targets.
func runBatch(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("batch: at least one pattern:count argument is required")
	}
	targets := make([]*grinder.Target, 0, c.NArg())
	for _, arg := range c.Args() {
		p, count, err := pattern.ParseTarget(arg)
		if err != nil {
			return err
		}
		targets = append(targets, grinder.NewTarget(p, count))
	}
	return runSearch(c, targets...)
}

func runSearch(c *cli.Context, targets ...*grinder.Target) error {
	cfg, logger, err := loadSettings(c)
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%sDoppler Keygen%s - searching with %d workers\n", ui.ColorBold, ui.ColorReset, workers)
	for _, t := range targets {
		fmt.Fprintf(w, "  %s%s%s: %d key(s)\n", ui.ColorCyan, t.Pattern, ui.ColorReset, t.Requested())
	}
	fmt.Fprintln(w)

	// A zero report interval turns the progress line off entirely.
	var progress io.Writer
	if cfg.ReportInterval > 0 {
		progress = w
	}

	g := grinder.New(grinder.Config{
		Workers:        workers,
		ReportInterval: cfg.ReportInterval.Std(),
		Progress:       progress,
		Logger:         logger,
	}, grinder.NewRegistry(targets...))
	sink := grinder.NewFileSink(cfg.OutputDir, w, logger)

	// SIGINT stops the search cooperatively; keys already accepted have
	// already been persisted.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := g.Run(ctx, sink)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n------- Summary -------\n")
	fmt.Fprintf(w, "Keys found:     %d/%d\n", summary.Found, summary.Requested)
	fmt.Fprintf(w, "Total attempts: %s\n", ui.FormatNumber(summary.Attempts))
	fmt.Fprintf(w, "Time elapsed:   %s\n", ui.FormatDuration(summary.Elapsed))
	fmt.Fprintf(w, "Average rate:   %s\n", ui.FormatRate(summary.Rate()))

	if summary.Found > 0 && sink.Written() == 0 {
		return fmt.Errorf("found %d keypair(s) but none could be written to %s", summary.Found, cfg.OutputDir)
	}
	return nil
}
