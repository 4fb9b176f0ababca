package reporter

import "fmt"

// Plain is a non-interactive Reporter: one line per event, no cursor
// movement or color, suitable for CI logs and the -simpleoutput flag
// (spec §4.6).
type Plain struct{}

func NewPlain() Plain { return Plain{} }

func (Plain) ClearProgress() {}

func (Plain) DrawProgress(current, total int, colored bool) {}

func (Plain) StepLine(current, total, workerID int, label string, simple bool) {
	fmt.Printf("[%d/%d] #%d %s\n", current, total, workerID, label)
}

func (Plain) VerboseCmdline(cmdline string, colored bool) {
	fmt.Println(cmdline)
}

func (Plain) ErrorLine(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
