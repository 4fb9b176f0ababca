package engine

import (
	"fmt"

	"github.com/basalt-build/basalt/internal/graph"
	"github.com/basalt-build/basalt/internal/walker"
	"golang.org/x/xerrors"
)

// CircularDependencyError is returned by Prepare when a real-job cycle is
// found; it carries the full cyclic component (via
// graph.Graph.CyclicComponent) for diagnostics, matching the cycle dump in
// _examples/original_source/src/context.c's build_prepare_callback.
type CircularDependencyError struct {
	Cycle []*graph.Node
}

func (e *CircularDependencyError) Error() string {
	msg := "circular dependency found:\n"
	for _, n := range e.Cycle {
		msg += "\t" + n.Filename + "\n"
	}
	return msg
}

// MissingSourceError is returned by Prepare when a non-real node has no
// on-disk file and no producing job (spec §4.2 step 4).
type MissingSourceError struct {
	Node *graph.Node
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("%s: does not exist and no way to generate it", e.Node.Filename)
}

// Prepare runs the single bottom-up, Force|Revisit walk of spec §4.2: it
// computes depth, dirty state, transitive job dependencies, targeting, and
// num_commands for every node reachable from ctx.Target.
//
// It returns a *CircularDependencyError or *MissingSourceError on the
// corresponding fatal condition (spec §7), or nil on success (future
// timestamps only ever produce a warning via ctx.Reporter, never an
// error).
func Prepare(ctx *Context) error {
	ctx.NumCommands = 0
	var stopErr error

	code := walker.Walk(ctx.Target, walker.BottomUp|walker.Force|walker.Revisit,
		func(w *walker.Walker, info *walker.Info) int {
			err := prepareOne(ctx, w, info)
			if err == nil {
				return 0
			}
			stopErr = err
			if _, ok := err.(*CircularDependencyError); ok {
				return -1
			}
			return 1
		})

	if stopErr != nil {
		return stopErr
	}
	if code != 0 {
		return xerrors.Errorf("prepare: walk stopped with code %d", code)
	}
	return nil
}

func prepareOne(ctx *Context, w *walker.Walker, info *walker.Info) error {
	n := info.Node
	job := n.Job

	oldDirty := n.Dirty
	oldTimestamp := n.Timestamp
	oldJobDepCount := len(job.FirstJobDep)

	if info.Depth > n.Depth {
		n.Depth = info.Depth
	}

	if !n.Timestamp.IsZero() && n.Timestamp.After(ctx.BuildTime) {
		ctx.Reporter.ErrorLine("%s: WARNING: '%s' comes from the future", ctx.ReportOpts.Name, n.Filename)
	}

	if job.Real {
		if cmdhash, ok := ctx.Cache.Find(n.HashID); ok {
			job.CacheHash = cmdhash
			if job.CacheHash != job.CmdHash {
				n.Dirty = graph.CmdHash
			}
		} else if n.Timestamp.Before(ctx.GlobalTimestamp) {
			n.Dirty = graph.GlobalStamp
		}
	} else if n.TimestampRaw.IsZero() {
		return &MissingSourceError{Node: n}
	}

	for _, dep := range n.FirstDep {
		if dep.Job.Real {
			if info.Parent.Contains(dep) {
				cyc := ctx.Graph.CyclicComponent(dep)
				if cyc == nil {
					cyc = append(info.Parent.Nodes(), dep)
				}
				return &CircularDependencyError{Cycle: cyc}
			}
			job.AddJobDep(dep)
		} else {
			for _, jobdep := range dep.Job.FirstJobDep {
				job.AddJobDep(jobdep)
			}
		}

		if n.Dirty == graph.Clean {
			switch {
			case ctx.Forced:
				n.Dirty = graph.Forced
			case dep.Dirty != graph.Clean:
				n.Dirty = graph.DepDirty
			case n.Timestamp.Before(dep.Timestamp):
				if job.Real {
					n.Dirty = graph.DepNewer
				} else {
					n.Timestamp = dep.Timestamp
				}
			}
		}
	}

	if !info.Revisiting {
		n.Targeted = true
	}

	if n.Dirty != graph.Clean && job.Real {
		job.CacheHash = ""
	}

	if job.Real && n.Dirty != graph.Clean && !job.Counted && n.Targeted {
		job.Counted = true
		ctx.NumCommands++
	}

	if oldDirty != n.Dirty || !oldTimestamp.Equal(n.Timestamp) || len(job.FirstJobDep) != oldJobDepCount {
		for _, parent := range n.FirstParent {
			w.Revisit(parent)
		}
	}

	return nil
}
