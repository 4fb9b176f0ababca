// Package pool runs the execute phase across a bounded set of workers
// (spec §4.5, §5), grounded on the errgroup.WithContext fan-out in
// distr1-distri/internal/batch/batch.go's scheduler.run.
package pool

import (
	"context"

	"github.com/basalt-build/basalt/internal/engine"
	"golang.org/x/sync/errgroup"
)

// maxThreads bounds the requested worker count the way bam's
// BAM_MAX_THREADS guards against an accidental fork bomb from a
// misconfigured -j flag.
const maxThreads = 1024

// Run drives ctx.Target to completion using threads concurrent workers,
// each running engine.RunWorker under the shared engine.Context lock.
// threads <= 1 runs the single worker inline on the calling goroutine,
// matching the original's non-threaded build path. It returns ctx's
// first latched error code once every worker has exited, or runCtx's
// error if the build was canceled (spec §5's "Cancellation").
func Run(runCtx context.Context, ctx *engine.Context, threads int, run engine.CommandRunner) (int, error) {
	if threads < 1 {
		threads = 1
	}
	if threads > maxThreads {
		threads = maxThreads
	}

	if threads == 1 {
		engine.RunWorker(runCtx, ctx, 1, run)
		if err := runCtx.Err(); err != nil {
			return ctx.ErrorCode(), err
		}
		return ctx.ErrorCode(), nil
	}

	eg, egCtx := errgroup.WithContext(runCtx)
	for i := 1; i <= threads; i++ {
		workerID := i
		eg.Go(func() error {
			engine.RunWorker(egCtx, ctx, workerID, run)
			return egCtx.Err()
		})
	}

	if err := eg.Wait(); err != nil {
		return ctx.ErrorCode(), err
	}
	return ctx.ErrorCode(), nil
}
