package engine

import (
	"context"
	"runtime"

	"github.com/basalt-build/basalt/internal/constraint"
	"github.com/basalt-build/basalt/internal/fsutil"
	"github.com/basalt-build/basalt/internal/graph"
	"github.com/basalt-build/basalt/internal/trace"
	"github.com/basalt-build/basalt/internal/walker"
)

// CommandRunner runs a job's command line and reports its exit code,
// matching run_command's "0 = success; blocking" contract (spec §6).
type CommandRunner func(ctx context.Context, cmdline string, filter string) (int, error)

const executeFlags = walker.BottomUp | walker.Undone | walker.Quick | walker.Jobs

// RunWorker implements one worker's loop from spec §4.5: repeatedly walk
// the target with BOTTOMUP|UNDONE|QUICK|JOBS, yielding between empty
// sweeps, until the target's job is no longer Undone, exit_on_error
// latches a failure, or runCtx is canceled (the abort path — §5's
// "Cancellation" via context, replacing the original's signal-driven
// session.abort).
//
// Every step except the command itself runs with ctx's lock held; the
// lock is released for the duration of the subprocess exactly as spec §4.5
// step 9 requires.
func RunWorker(runCtx context.Context, ctx *Context, workerID int, run CommandRunner) {
	ctx.Lock()
	defer ctx.Unlock()

	for ctx.Target.Job.Status == graph.Undone {
		walker.Walk(ctx.Target, executeFlags, func(w *walker.Walker, info *walker.Info) int {
			return executeOne(runCtx, ctx, workerID, info.Node, run)
		})

		if runCtx.Err() != nil {
			return
		}
		if ctx.Target.Job.Status != graph.Undone {
			return
		}
		if ctx.ExitOnError && ctx.ErrorCode() != 0 {
			return
		}

		ctx.Unlock()
		runtime.Gosched()
		ctx.Lock()
	}
}

// executeOne is the walk callback for a single node (spec §4.5 steps 1-11).
// Its return value only ever tells the walk whether to keep visiting
// siblings (0) or abort the entire sweep immediately (-1): a single job
// failing or being blocked never stops the walk from making progress on
// independent branches, it only marks that job Broken or leaves it Undone
// for a later sweep. Aborts are reserved for runCtx cancellation and the
// exit_on_error fail-fast latch.
func executeOne(runCtx context.Context, ctx *Context, workerID int, n *graph.Node, run CommandRunner) int {
	job := n.Job

	if runCtx.Err() != nil {
		return -1
	}
	if ctx.ExitOnError && ctx.ErrorCode() != 0 {
		return -1
	}

	// A concurrent worker's sweep can reach the same job (aliased through
	// another output node, or simply re-entering the walk on the next
	// for-loop iteration in RunWorker) while it's already Working: the
	// Undone filter only excludes Done/Broken. Bail out here rather than
	// starting the command a second time.
	if job.Status == graph.Working {
		return 0
	}

	broken := false
	for _, dep := range job.FirstJobDep {
		if dep.Job.Status == graph.Broken {
			broken = true
		} else if dep.Dirty != graph.Clean && dep.Job.Status != graph.Done {
			return 0 // not ready yet; revisit on a later sweep
		}
	}

	if broken {
		job.Status = graph.Broken
		return 0
	}

	// Prepare left this node up to date: there is nothing to run, and
	// marking it Done lets dependents and RunWorker's loop move past it.
	if n.Dirty == graph.Clean {
		job.Status = graph.Done
		return 0
	}

	if !job.Real {
		job.Status = graph.Done
		return 0
	}

	if constraint.Check(job) {
		return 0 // constrained; try again on a later sweep
	}

	job.Status = graph.Working
	cmdNum := ctx.BumpCmdNum()

	if ctx.ReportOpts.ReportBar {
		ctx.Reporter.ClearProgress()
	}
	if ctx.ReportOpts.ReportSteps {
		ctx.Reporter.StepLine(cmdNum, ctx.NumCommands, workerID, job.Label, ctx.ReportOpts.Simple)
	}
	if ctx.ReportOpts.ReportBar {
		ctx.Reporter.DrawProgress(cmdNum, ctx.NumCommands, ctx.ReportOpts.ReportColor)
	}
	if ctx.ReportOpts.Verbose {
		ctx.Reporter.VerboseCmdline(job.Cmdline, ctx.ReportOpts.ReportColor)
	}

	for _, out := range job.FirstOutput {
		if err := fsutil.CreatePath(out.Filename); err != nil {
			ctx.Reporter.ErrorLine("%s: could not create output directory for '%s'", ctx.ReportOpts.Name, out.Filename)
			job.Status = graph.Broken
			ctx.SetErrorCode(1)
			return 0
		}
	}

	constraint.Update(job, 1)
	ev := trace.Event("job "+job.Label, workerID)

	ctx.Unlock()
	ret, runErr := run(runCtx, job.Cmdline, job.Filter)
	if runErr == nil && ret == 0 {
		for _, out := range job.FirstOutput {
			fsutil.Touch(out.Filename)
		}
	}
	ctx.Lock()

	ev.Done()
	constraint.Update(job, -1)

	if runErr != nil && ret == 0 {
		ret = 1
	}

	if ret != 0 {
		job.Status = graph.Broken
		ctx.SetErrorCode(ret)
		ctx.Reporter.ErrorLine("%s: '%s' error %d", ctx.ReportOpts.Name, job.Label, ret)
		for _, out := range job.FirstOutput {
			if !fsutil.Timestamp(out.Filename).Equal(out.TimestampRaw) {
				fsutil.Remove(out.Filename)
				ctx.Reporter.ErrorLine("%s: '%s' removed because job updated it even though it failed", ctx.ReportOpts.Name, out.Filename)
			}
		}
		return 0
	}

	job.Status = graph.Done
	job.CacheHash = job.CmdHash
	ctx.Cache.Record(n.HashID, job.CmdHash)
	return 0
}
