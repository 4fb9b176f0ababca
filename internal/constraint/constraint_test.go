package constraint

import (
	"testing"

	"github.com/basalt-build/basalt/internal/graph"
)

func node(t *testing.T) *graph.Node {
	t.Helper()
	return graph.New().NewNode("n", "n")
}

// TestExclusiveBlocksExclusive covers P4: two jobs both exclusive on the
// same node must never both be allowed to run.
func TestExclusiveBlocksExclusive(t *testing.T) {
	x := node(t)
	a := &graph.Job{ConstraintExclusive: []*graph.Node{x}}
	b := &graph.Job{ConstraintExclusive: []*graph.Node{x}}

	if Check(a) {
		t.Fatalf("a blocked before anything started")
	}
	Update(a, 1)

	if !Check(b) {
		t.Fatalf("b not blocked while a holds an exclusive constraint on x")
	}

	Update(a, -1)
	if Check(b) {
		t.Fatalf("b still blocked after a released its constraint")
	}
}

func TestSharedAllowsSharedBlocksExclusive(t *testing.T) {
	x := node(t)
	c1 := &graph.Job{ConstraintShared: []*graph.Node{x}}
	c2 := &graph.Job{ConstraintShared: []*graph.Node{x}}
	excl := &graph.Job{ConstraintExclusive: []*graph.Node{x}}

	Update(c1, 1)
	if Check(c2) {
		t.Fatalf("a second shared holder should not be blocked by the first")
	}
	if !Check(excl) {
		t.Fatalf("an exclusive job must be blocked while any shared holder is active")
	}

	Update(c1, -1)
	Update(c2, 1)
	Update(excl, 1) // excl now itself holds the lock
	c3 := &graph.Job{ConstraintShared: []*graph.Node{x}}
	if !Check(c3) {
		t.Fatalf("a shared job must be blocked while an exclusive holder is active")
	}
}
