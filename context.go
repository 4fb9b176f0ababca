// Package basalt holds the process-lifecycle glue that cmd/basalt needs
// around the engine: turning SIGINT/SIGTERM into context cancellation so an
// in-flight worker pool (internal/pool) gets a chance to stop scheduling new
// jobs and let engine.Context settle, and a deferred-cleanup registry so the
// fingerprint cache (internal/cache) gets flushed exactly once after a verb
// returns successfully (a failed or interrupted verb skips the flush).
package basalt

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// InterruptibleContext returns a context canceled on SIGINT or SIGTERM. The
// build loop (internal/pool.Run, internal/engine.RunWorker) checks ctx.Err()
// before dispatching each job and between walk sweeps, never while a command
// runs, and cmd/basalt/build.go does not hand this context to the command
// runner, so an in-flight subprocess always finishes before cancellation
// takes effect — basalt never kills a job mid-command on Ctrl-C, it just
// stops starting new ones. The canceled build then returns an error, so
// RunAtExit (and with it the cache flush) does not run.
func InterruptibleContext() (context.Context, context.CancelFunc) {
	ctx, canc := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		// A second signal means the user wants out now, even if cleanup
		// (cache flush, worker shutdown) is hanging:
		signal.Stop(sig)
		canc()
	}()
	return ctx, canc
}
