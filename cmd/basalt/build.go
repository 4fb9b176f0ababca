package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/basalt-build/basalt"
	"github.com/basalt-build/basalt/internal/cache"
	"github.com/basalt-build/basalt/internal/engine"
	"github.com/basalt-build/basalt/internal/env"
	"github.com/basalt-build/basalt/internal/graphfile"
	"github.com/basalt-build/basalt/internal/pool"
	"github.com/basalt-build/basalt/internal/reporter"
	"github.com/basalt-build/basalt/internal/runner"
	"golang.org/x/xerrors"
)

func cmdbuild(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		graphPath   = fset.String("graph", filepath.Join(env.BasaltRoot, "graph.json"), "path to the graph description (see internal/graphfile)")
		cachePath   = fset.String("cache", filepath.Join(env.BasaltRoot, "cache.json"), "path to the fingerprint cache")
		target      = fset.String("target", "", "node to build; defaults to the graph's first node")
		threads     = fset.Int("threads", runtime.NumCPU(), "number of concurrent workers")
		forced      = fset.Bool("forced", false, "mark every reachable node that has dependencies dirty, ignoring timestamps")
		exitOnError = fset.Bool("exitonerror", false, "stop scheduling new jobs as soon as one fails")
		simple      = fset.Bool("simpleoutput", false, "print one line per job instead of a progress bar (for CI logs)")
		noColor     = fset.Bool("nocolor", false, "disable ANSI color in the progress bar and -v command lines (step and error lines stay colored on a terminal)")
		verbose     = fset.Bool("v", false, "print each job's command line before running it")
		globalStamp = fset.String("globalstamp", "", "RFC3339 timestamp; real nodes older than this with no cache entry are considered dirty")
	)
	if err := fset.Parse(args); err != nil {
		return err
	}

	g, targetNode, err := graphfile.LoadFile(*graphPath, *target)
	if err != nil {
		return xerrors.Errorf("loading graph: %w", err)
	}

	c, err := cache.Load(*cachePath)
	if err != nil {
		return xerrors.Errorf("loading cache: %w", err)
	}
	basalt.RegisterAtExit(c.Flush)

	rep := newReporter(*simple, *noColor)
	logger := log.New(os.Stderr, "", 0)

	engCtx := engine.New(g, c, targetNode, logger, rep)
	engCtx.Forced = *forced
	engCtx.ExitOnError = *exitOnError
	engCtx.ReportOpts = reporter.Options{
		ReportBar:   !*simple && reporter.IsTerminal,
		ReportSteps: true,
		ReportColor: !*noColor && reporter.IsTerminal,
		Simple:      *simple,
		Verbose:     *verbose,
		Name:        "basalt",
	}
	if *globalStamp != "" {
		ts, err := time.Parse(time.RFC3339, *globalStamp)
		if err != nil {
			return xerrors.Errorf("parsing -globalstamp: %w", err)
		}
		engCtx.GlobalTimestamp = ts
	}

	if err := engine.Prepare(engCtx); err != nil {
		return xerrors.Errorf("prepare: %w", err)
	}

	// Commands are not tied to the interruptible context: a canceled build
	// stops dispatching new jobs but lets commands already running finish.
	run := func(_ context.Context, cmdline, filter string) (int, error) {
		return runner.Run(context.Background(), cmdline, runner.Filter(filter))
	}

	code, err := pool.Run(ctx, engCtx, *threads, run)
	if err != nil {
		return xerrors.Errorf("build: %w", err)
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
