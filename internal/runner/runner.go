// Package runner implements run_command (spec §6): it spawns the job's
// command line and reports a 0/non-zero exit code, the way
// distr1-distri/cmd/zi/zi.go runs build steps (exec.Command with
// Stdout/Stderr wired to the caller, blocking until the process exits).
package runner

import (
	"context"
	"os"
	"os/exec"

	"golang.org/x/xerrors"
)

// Filter is the opaque output-filter token threaded through from the Job
// (spec §9 DESIGN NOTES: "treat as a pass-through value"). This module does
// not interpret it; a real filter implementation would live outside the
// core, the same way output coloring policy does.
type Filter string

// Run executes cmdline via the shell, blocking until it completes. It
// returns the process's exit code (0 on success) and an error only when
// the command could not be started at all (e.g. missing shell), mirroring
// run_command's "0 = success; blocking" contract from spec §6.
func Run(ctx context.Context, cmdline string, filter Filter) (int, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", cmdline)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode(), nil
	}
	return 1, xerrors.Errorf("running %q: %w", cmdline, err)
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}
