package main

import "github.com/basalt-build/basalt/internal/reporter"

// newReporter picks the Reporter implementation the way bam's
// session.simpleoutput flag does in
// _examples/original_source/src/context.c: a plain line-per-job reporter
// for non-interactive use (CI logs, -simpleoutput), otherwise the ANSI
// terminal reporter when stdout looks like a real terminal.
func newReporter(simple, noColor bool) reporter.Reporter {
	if simple || !reporter.IsTerminal {
		return reporter.NewPlain()
	}
	_ = noColor // color is gated per-call via Context.ReportOpts.ReportColor, not here
	return reporter.NewTerminal()
}
