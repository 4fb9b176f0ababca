// Command basalt drives the three-phase build engine (internal/engine)
// over a graph description (internal/graphfile), the way distri's own
// cmd/distri/distri.go drives its package builds: a flag-based verb map,
// an interruptible context, and RunAtExit for deferred cleanup.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/trace"

	"github.com/basalt-build/basalt"
	internaltrace "github.com/basalt-build/basalt/internal/trace"
)

var (
	debug      = flag.Bool("debug", false, "enable debug mode: format error messages with additional detail")
	tracefile  = flag.String("tracefile", "", "path to store a runtime/trace execution trace at")
	ctracefile = flag.String("ctracefile", "", "path to store a chrome trace event file at (load in chrome://tracing)")
)

type cmd struct {
	fn   func(ctx context.Context, args []string) error
	help string
}

func funcmain() error {
	flag.Parse()

	if *tracefile != "" {
		f, err := os.Create(*tracefile)
		if err != nil {
			return err
		}
		trace.Start(f)
		defer trace.Stop()
	}

	if *ctracefile != "" {
		f, err := os.Create(*ctracefile)
		if err != nil {
			return err
		}
		internaltrace.Sink(f)
	}

	verbs := map[string]cmd{
		"build": {cmdbuild, "run the engine over a graph, bringing -target up to date"},
		"clean": {cmdclean, "remove every output reachable from -target"},
		"graph": {cmdgraph, "print the loaded graph, one node per line, for debugging"},
		"env":   {cmdenv, "print the resolved BASALTROOT"},
	}

	args := flag.Args()
	verb := "build"
	if len(args) > 0 {
		verb, args = args[0], args[1:]
	}

	if verb == "help" {
		fmt.Fprintf(os.Stderr, "basalt [-flags] <command> [-flags] <args>\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		for name, c := range verbs {
			fmt.Fprintf(os.Stderr, "\t%s\t- %s\n", name, c.help)
		}
		os.Exit(2)
	}

	ctx, canc := basalt.InterruptibleContext()
	defer canc()

	v, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", verb)
		fmt.Fprintf(os.Stderr, "syntax: basalt <command> [options]\n")
		os.Exit(2)
	}

	if err := v.fn(ctx, args); err != nil {
		if *debug {
			return fmt.Errorf("%s: %+v", verb, err)
		}
		return fmt.Errorf("%s: %v", verb, err)
	}

	return basalt.RunAtExit()
}

func main() {
	log.SetFlags(0)
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
