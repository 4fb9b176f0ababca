// Package constraint implements the mutual-exclusion accounting described
// in spec §4.4, ported from the constraints_update/constraints_check pair
// in _examples/original_source/src/context.c.
package constraint

import "github.com/basalt-build/basalt/internal/graph"

// Check reports whether job is currently blocked by a conflicting
// constraint: a shared constraint whose counterpart holds an exclusive
// lock, or an exclusive constraint whose counterpart holds either kind.
func Check(job *graph.Job) bool {
	for _, n := range job.ConstraintShared {
		if n.Job.ConstraintExclusiveCount > 0 {
			return true
		}
	}
	for _, n := range job.ConstraintExclusive {
		if n.Job.ConstraintExclusiveCount > 0 || n.Job.ConstraintSharedCount > 0 {
			return true
		}
	}
	return false
}

// Update applies direction (+1 when job starts running, -1 when it
// finishes) to every node job declares a constraint against. The counters
// live on the counterparts, not on job itself: they record how many other
// running jobs currently hold this constraint against each neighbor.
func Update(job *graph.Job, direction int) {
	for _, n := range job.ConstraintShared {
		n.Job.ConstraintSharedCount += direction
	}
	for _, n := range job.ConstraintExclusive {
		n.Job.ConstraintExclusiveCount += direction
	}
}
