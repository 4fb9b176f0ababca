package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/basalt-build/basalt/internal/cache"
	"github.com/basalt-build/basalt/internal/engine"
	"github.com/basalt-build/basalt/internal/env"
	"github.com/basalt-build/basalt/internal/graphfile"
	"github.com/basalt-build/basalt/internal/reporter"
	"golang.org/x/xerrors"
)

func cmdclean(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("clean", flag.ExitOnError)
	var (
		graphPath = fset.String("graph", filepath.Join(env.BasaltRoot, "graph.json"), "path to the graph description")
		cachePath = fset.String("cache", filepath.Join(env.BasaltRoot, "cache.json"), "path to the fingerprint cache")
		target    = fset.String("target", "", "node to clean; defaults to the graph's first node")
		simple    = fset.Bool("simpleoutput", false, "print one line per removed output")
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

	rep := newReporter(*simple, false)
	logger := log.New(os.Stderr, "", 0)

	engCtx := engine.New(g, c, targetNode, logger, rep)
	engCtx.ReportOpts = reporter.Options{ReportSteps: true, Simple: *simple, Name: "basalt"}

	if err := engine.Clean(engCtx); err != nil {
		return xerrors.Errorf("clean: %w", err)
	}
	return nil
}
