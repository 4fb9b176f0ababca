package engine

import (
	"os"
	"testing"

	"github.com/basalt-build/basalt/internal/graph"
)

func TestCleanRemovesRealJobOutputsBottomUp(t *testing.T) {
	g, src, obj, app := chain(t)
	if err := os.WriteFile(obj.Filename, nil, 0o644); err != nil {
		t.Fatalf("seeding %s: %v", obj.Filename, err)
	}
	if err := os.WriteFile(app.Filename, nil, 0o644); err != nil {
		t.Fatalf("seeding %s: %v", app.Filename, err)
	}
	ctx := testContext(t, g, app)

	if err := Clean(ctx); err != nil {
		t.Fatalf("Clean: %v", err)
	}

	if _, err := os.Stat(obj.Filename); !os.IsNotExist(err) {
		t.Fatalf("obj.o still exists after Clean")
	}
	if _, err := os.Stat(app.Filename); !os.IsNotExist(err) {
		t.Fatalf("app still exists after Clean")
	}
	if _, err := os.Stat(src.Filename); err != nil {
		t.Fatalf("src.c (not a real job's output) was removed by Clean: %v", err)
	}
	if obj.Job.Status != graph.Undone || app.Job.Status != graph.Undone {
		t.Fatalf("obj.Status=%v app.Status=%v, want both Undone after Clean", obj.Job.Status, app.Job.Status)
	}
}

func TestCleanSecondRunIsNoop(t *testing.T) {
	g, _, obj, app := chain(t)
	if err := os.WriteFile(obj.Filename, nil, 0o644); err != nil {
		t.Fatalf("seeding %s: %v", obj.Filename, err)
	}
	if err := os.WriteFile(app.Filename, nil, 0o644); err != nil {
		t.Fatalf("seeding %s: %v", app.Filename, err)
	}
	ctx := testContext(t, g, app)

	if err := Clean(ctx); err != nil {
		t.Fatalf("first Clean: %v", err)
	}

	var stepped []string
	ctx.Reporter = recordingStepReporter{lines: &stepped}
	ctx.ReportOpts.ReportSteps = true

	if err := Clean(ctx); err != nil {
		t.Fatalf("second Clean: %v", err)
	}
	if len(stepped) != 0 {
		t.Fatalf("second Clean reported %v, want no \"removed\" lines (property P6)", stepped)
	}
}

// recordingStepReporter is a minimal reporter.Reporter that only records
// StepLine calls, used to assert P6 (clean is idempotent and silent the
// second time).
type recordingStepReporter struct {
	lines *[]string
}

func (recordingStepReporter) ClearProgress()                                  {}
func (recordingStepReporter) DrawProgress(current, total int, colored bool)    {}
func (r recordingStepReporter) StepLine(current, total, workerID int, label string, simple bool) {
	*r.lines = append(*r.lines, label)
}
func (recordingStepReporter) VerboseCmdline(cmdline string, colored bool)      {}
func (recordingStepReporter) ErrorLine(format string, args ...interface{})     {}
