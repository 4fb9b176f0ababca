package engine

import (
	"github.com/basalt-build/basalt/internal/fsutil"
	"github.com/basalt-build/basalt/internal/graph"
	"github.com/basalt-build/basalt/internal/walker"
)

// cleanFlags intentionally drops Quick even though context_build_clean in
// _examples/original_source/src/context.c walks with
// NODEWALK_BOTTOMUP|FORCE|QUICK: the original always runs clean against a
// graph whose dirty state was just computed by a prepare pass, where Quick
// is a safe no-op over already-dirty nodes. basalt's clean runs standalone
// (cmd/basalt/clean.go never calls Prepare first), and Node.Dirty zero-values
// to Clean, so Quick would prune the walk at the very first node and never
// reach anything underneath it. Spec §4.3 is explicit that clean must be
// independent of dirty state, so Quick is left out here.
const cleanFlags = walker.BottomUp | walker.Force

// Clean implements spec §4.3: for every node whose job is real and whose
// output currently exists, remove it and report success. A missing
// output is not an error, matching the original's "if(node->timestamp)"
// existence guard before calling remove().
func Clean(ctx *Context) error {
	ctx.Lock()
	defer ctx.Unlock()

	var firstErr error
	walker.Walk(ctx.Target, cleanFlags, func(w *walker.Walker, info *walker.Info) int {
		n := info.Node
		job := n.Job
		if !job.Real {
			return 0
		}
		for _, out := range job.FirstOutput {
			if fsutil.Timestamp(out.Filename).IsZero() {
				continue // nothing on disk to remove
			}
			if err := fsutil.Remove(out.Filename); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				ctx.Reporter.ErrorLine("%s: could not remove '%s': %v", ctx.ReportOpts.Name, out.Filename, err)
				continue
			}
			if ctx.ReportOpts.ReportSteps {
				ctx.Reporter.StepLine(0, 0, 0, "removed "+out.Filename, ctx.ReportOpts.Simple)
			}
		}
		job.Status = graph.Undone
		job.CacheHash = ""
		n.Dirty = graph.Forced
		return 0
	})
	return firstErr
}
