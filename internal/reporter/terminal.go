package reporter

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// IsTerminal reports whether stdout looks like an interactive terminal. It
// checks two independent signals — an ioctl the way
// distr1-distri/internal/batch/batch.go's isTerminal var does, and
// mattn/go-isatty as a second, simpler check — and is true only if both
// agree, so a redirected or piped stdout reliably disables color/ANSI
// cursor movement.
var IsTerminal = func() bool {
	_, err := unix.IoctlGetTermios(int(os.Stdout.Fd()), unix.TCGETS)
	return err == nil && isatty.IsTerminal(os.Stdout.Fd())
}()

// Terminal is an ANSI-aware Reporter for interactive use: a single-line
// progress bar plus colored step lines, ported from the progressbar_clear/
// progressbar_draw/run_job printing in
// _examples/original_source/src/context.c. Every call prints immediately;
// there is no debouncing and no multi-line cursor movement.
type Terminal struct {
	mu sync.Mutex
}

func NewTerminal() *Terminal { return &Terminal{} }

func (t *Terminal) ClearProgress() {
	fmt.Print("                                                 \r")
}

func (t *Terminal) DrawProgress(current, total int, colored bool) {
	if total <= 0 {
		return
	}
	const max = 40
	count := (current * max) / total
	percent := (current * 100) / total

	var b strings.Builder
	if colored {
		fmt.Fprintf(&b, " %3d%% \033[01;32m[\033[01;33m", percent)
	} else {
		fmt.Fprintf(&b, " %3d%% [", percent)
	}
	for i := 0; i < count-1; i++ {
		b.WriteByte('=')
	}
	b.WriteByte('>')
	for i := count; i < max; i++ {
		b.WriteByte(' ')
	}
	if colored {
		b.WriteString("\033[01;32m]\033[00m\r")
	} else {
		b.WriteString("]\r")
	}
	fmt.Print(b.String())
}

func (t *Terminal) StepLine(current, total, workerID int, label string, simple bool) {
	if simple {
		fmt.Print(label)
		return
	}
	digits := 1
	for n := total; n >= 10; n /= 10 {
		digits++
	}
	fmt.Printf("\033[01;32m[%*d/%*d] \033[01;36m#%d\033[00m %s\n", digits, current, digits, total, workerID, label)
}

func (t *Terminal) VerboseCmdline(cmdline string, colored bool) {
	if colored {
		fmt.Printf("\033[01;33m%s\033[00m\n", cmdline)
	} else {
		fmt.Println(cmdline)
	}
}

func (t *Terminal) ErrorLine(format string, args ...interface{}) {
	fmt.Printf("\033[01;31m"+format+"\033[00m\n", args...)
}
