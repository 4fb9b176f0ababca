package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/basalt-build/basalt/internal/env"
	"github.com/basalt-build/basalt/internal/graphfile"
	"golang.org/x/xerrors"
)

// cmdgraph is a debug-dump verb: it loads a graph description and prints
// the target, then one line per node in the whole graph ("job" for real
// jobs, "source" otherwise) followed by that node's declared dependencies,
// without running anything. Useful for sanity-checking a graph file before
// a real build.
func cmdgraph(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("graph", flag.ExitOnError)
	var (
		graphPath = fset.String("graph", filepath.Join(env.BasaltRoot, "graph.json"), "path to the graph description")
		target    = fset.String("target", "", "node reported as the target (the dump always lists the whole graph); defaults to the graph's first node")
	)
	if err := fset.Parse(args); err != nil {
		return err
	}

	g, targetNode, err := graphfile.LoadFile(*graphPath, *target)
	if err != nil {
		return xerrors.Errorf("loading graph: %w", err)
	}

	fmt.Printf("target: %s\n", targetNode.Filename)
	for _, n := range g.Nodes() {
		job := n.Job
		kind := "source"
		if job.Real {
			kind = "job"
		}
		fmt.Printf("%s\t%s\t%s\n", kind, n.Filename, job.Label)
		for _, dep := range n.FirstDep {
			fmt.Printf("\t\tdep %s\n", dep.Filename)
		}
	}
	return nil
}
