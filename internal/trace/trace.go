// Package trace records each dispatched job as a Chrome trace event
// (https://docs.google.com/document/d/1CvAClvFfyA5R-PhYUmn5OOQtYMH4h6I0nSsKchNAySU/edit),
// so a -ctracefile run can be loaded into chrome://tracing to see which
// worker ran which command and for how long, and where the scheduler left
// gaps between dependent jobs.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var start = time.Now()

var (
	sinkMu sync.Mutex
	sink   io.Writer = ioutil.Discard
)

// Sink writes every PendingEvent.Done() from here on as a Chrome trace event
// into w, opening the top-level JSON array. The closing ']' is optional in
// this format, so nothing ever writes one — a trace file is valid to load
// even if the build is interrupted mid-sweep.
func Sink(w io.Writer) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sink = w
	w.Write([]byte{'['})
}

// Enable opens $TMPDIR/basalt.traces/prefix.$PID and routes Event() output
// there; cmd/basalt/main.go's -ctracefile flag uses an explicit path instead,
// this is for callers that just want "somewhere under TMPDIR" without naming
// a file. The filename assumes the OS does not aggressively reuse PIDs
// within the lifetime of the directory.
func Enable(prefix string) error {
	fn := filepath.Join(os.TempDir(), "basalt.traces", fmt.Sprintf("%s.%d", prefix, os.Getpid()))
	if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return err
	}
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	Sink(f)
	return nil
}

// PendingEvent is one in-flight job dispatch, started by Event and closed by
// Done once the worker's CommandRunner returns.
type PendingEvent struct {
	Name           string      `json:"name"` // job label, as displayed in Trace Viewer
	Categories     string      `json:"cat"`  // event categories (comma-separated)
	Type           string      `json:"ph"`   // event type (single character)
	ClockTimestamp uint64      `json:"ts"`   // tracing clock timestamp (microsecond granularity)
	Duration       uint64      `json:"dur"`
	Pid            uint64      `json:"pid"` // process ID for the process that output this event
	Tid            uint64      `json:"tid"` // worker ID that ran the job, shown as Trace Viewer's thread
	Args           interface{} `json:"args"`

	start time.Time
}

// Done records the event's duration and appends it to the active sink.
func (pe *PendingEvent) Done() {
	pe.Duration = uint64(time.Since(pe.start) / time.Microsecond)
	b, err := json.Marshal(pe)
	if err != nil {
		panic(err)
	}
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if _, err := sink.Write(append(b, ',')); err != nil {
		log.Printf("[trace] %v", err)
	}
}

// Event starts timing a job dispatch on the given worker ID (used as the
// trace's thread ID so Trace Viewer lays out one swim lane per worker).
func Event(name string, workerID int) *PendingEvent {
	return &PendingEvent{
		Name:           name,
		Type:           "X",
		ClockTimestamp: uint64(time.Since(start) / time.Microsecond),
		Tid:            uint64(workerID),
		start:          time.Now(),
	}
}
