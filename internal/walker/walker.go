// Package walker implements the generic graph traversal primitive the
// prepare, execute, and clean passes are all built on top of (spec §4.1).
//
// Descent is a recursive depth-first traversal with a per-walk visited set.
// On top of it, callbacks may ask to revisit an already-visited ancestor
// later in the same walk (Walker.Revisit): those requests go to a FIFO queue
// that Walk drains once the descent finishes, which lets a single pass both
// compute dirty state bottom-up and propagate it back out through nodes it
// already finished with. A revisit invokes the callback on the node again
// without descending into its dependencies; the visited set is never
// cleared.
package walker

import "github.com/basalt-build/basalt/internal/graph"

// Flags is an orthogonal set of traversal options, see spec §4.1.
type Flags int

const (
	// BottomUp invokes the callback post-order: all of a node's
	// dependencies are visited before the node itself.
	BottomUp Flags = 1 << iota
	// Undone skips a node whose job is already Done or Broken.
	Undone
	// Quick skips descending into a subtree whose root is Clean and whose
	// immediate dependencies are all Clean too.
	Quick
	// Force visits every reachable node, ignoring any earlier walk's
	// notion of "already visited" (each Walk call always dedups within
	// itself regardless of Force; see DESIGN.md for this simplification).
	Force
	// Revisit allows the callback to re-enqueue an ancestor for another
	// visit later in the same walk, via Walker.Revisit.
	Revisit
	// Jobs deduplicates by Job rather than by Node, so a job with several
	// output nodes is only offered to the callback once per pass.
	Jobs
)

// Path is a cons-list of ancestors, nearest first, threaded through the
// walk so callbacks can do cycle detection by scanning upward.
type Path struct {
	Node   *graph.Node
	Parent *Path
}

// Contains reports whether n appears anywhere in the ancestor chain.
func (p *Path) Contains(n *graph.Node) bool {
	for cur := p; cur != nil; cur = cur.Parent {
		if cur.Node == n {
			return true
		}
	}
	return false
}

// Nodes returns the ancestor chain as a slice, nearest ancestor first.
func (p *Path) Nodes() []*graph.Node {
	var out []*graph.Node
	for cur := p; cur != nil; cur = cur.Parent {
		out = append(out, cur.Node)
	}
	return out
}

// Info is passed to the callback for every visited node.
type Info struct {
	Node *graph.Node
	// Depth is the length of the path from the walk root to this node.
	Depth int
	// Parent is the ancestor chain; nil at the root or for a revisit
	// (revisits re-invoke the callback directly, without a path).
	Parent *Path
	// Revisiting is true when this invocation was triggered by
	// Walker.Revisit rather than by ordinary descent.
	Revisiting bool
}

// Callback is invoked once per visited node (subject to Undone/Quick/Jobs
// filtering). Return 0 to continue, a positive value to stop the walk and
// propagate that value as an error code, or a negative value to abort the
// walk immediately.
type Callback func(w *Walker, info *Info) int

// Walker carries the mutable state of a single Walk call: the node/job
// dedup set and the pending revisit queue.
type Walker struct {
	flags Flags

	visitedNode map[*graph.Node]bool
	visitedJob  map[*graph.Job]bool

	pending []*graph.Node
}

// Revisit enqueues n to be visited again (with Info.Revisiting set) after
// the current descent completes. Used by prepare to propagate a changed
// dirty bit or timestamp back out to a node's parents.
func (w *Walker) Revisit(n *graph.Node) {
	if w.flags&Revisit == 0 {
		return
	}
	w.pending = append(w.pending, n)
}

// Walk traverses the graph reachable from root per flags, invoking cb for
// each node that survives the Undone/Quick/Jobs filters. It returns the
// first non-zero code cb produces, or 0 if the whole walk (including all
// queued revisits) completed without one.
func Walk(root *graph.Node, flags Flags, cb Callback) int {
	w := &Walker{
		flags:       flags,
		visitedNode: make(map[*graph.Node]bool),
		visitedJob:  make(map[*graph.Job]bool),
	}

	if code := w.visit(root, 0, nil, cb); code != 0 {
		return code
	}

	for len(w.pending) > 0 {
		n := w.pending[0]
		w.pending = w.pending[1:]
		info := &Info{Node: n, Depth: n.Depth, Revisiting: true}
		code := cb(w, info)
		if code != 0 {
			return code
		}
	}
	return 0
}

func (w *Walker) seen(n *graph.Node) bool {
	if w.flags&Jobs != 0 {
		if w.visitedJob[n.Job] {
			return true
		}
		w.visitedJob[n.Job] = true
		return false
	}
	if w.visitedNode[n] {
		return true
	}
	w.visitedNode[n] = true
	return false
}

// allDepsClean reports whether every immediate dependency of n is Clean,
// used by the Quick prune.
func allDepsClean(n *graph.Node) bool {
	for _, dep := range n.FirstDep {
		if dep.Dirty != graph.Clean {
			return false
		}
	}
	return true
}

func (w *Walker) visit(n *graph.Node, depth int, parent *Path, cb Callback) int {
	if w.seen(n) {
		return 0
	}

	if w.flags&Undone != 0 && (n.Job.Status == graph.Done || n.Job.Status == graph.Broken) {
		return 0
	}

	path := &Path{Node: n, Parent: parent}

	quickPrune := w.flags&Quick != 0 && n.Dirty == graph.Clean && allDepsClean(n)

	if w.flags&BottomUp != 0 && !quickPrune {
		for _, dep := range n.FirstDep {
			if code := w.visit(dep, depth+1, path, cb); code != 0 {
				return code
			}
		}
	}

	info := &Info{Node: n, Depth: depth, Parent: parent}
	code := cb(w, info)
	if code != 0 {
		return code
	}

	if w.flags&BottomUp == 0 && !quickPrune {
		for _, dep := range n.FirstDep {
			if code := w.visit(dep, depth+1, path, cb); code != 0 {
				return code
			}
		}
	}

	return 0
}
