package graph

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph owns all Nodes for a build. It is arena-like: nodes are created via
// NewNode and never individually freed, matching the lifecycle described in
// spec §3 ("destroyed en masse at teardown").
type Graph struct {
	byFilename map[string]*Node
	all        []*Node
	nextID     int64
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{byFilename: make(map[string]*Node)}
}

// NewNode allocates a Node with a fresh job, registers it by filename, and
// returns it. Every node gets a job (spec §3 invariant 1); callers fill in
// job.Real/Cmdline/etc. afterward.
func (g *Graph) NewNode(filename, hashid string) *Node {
	n := &Node{
		id:       g.nextID,
		Filename: filename,
		HashID:   hashid,
		Job:      &Job{},
	}
	n.Job.FirstOutput = []*Node{n}
	g.nextID++
	g.byFilename[filename] = n
	g.all = append(g.all, n)
	return n
}

// Lookup returns the node with the given filename, if any.
func (g *Graph) Lookup(filename string) (*Node, bool) {
	n, ok := g.byFilename[filename]
	return n, ok
}

// Nodes returns every node in the graph, in creation order.
func (g *Graph) Nodes() []*Node { return g.all }

// AddEdge records that from depends on to: to must complete before from's
// job can run. Both directions of the edge are recorded, per the DESIGN
// NOTES observation that the engine needs parent back-links as well as
// forward dependency lists.
func AddEdge(from, to *Node) {
	from.FirstDep = append(from.FirstDep, to)
	to.FirstParent = append(to.FirstParent, from)
}

// gonumView builds a read-only gonum/graph/simple.DirectedGraph mirroring
// the current FirstDep edges. It exists purely to drive topo.TarjanSCC for
// the circular-dependency diagnostic (see internal/engine/prepare.go) — the
// walker itself does not traverse this view, per spec §4.1/§4.2.
func (g *Graph) gonumView() *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for _, n := range g.all {
		dg.AddNode(n)
	}
	for _, n := range g.all {
		for _, dep := range n.FirstDep {
			if !dep.Job.Real {
				continue
			}
			dg.SetEdge(dg.NewEdge(n, dep))
		}
	}
	return dg
}

// CyclicComponent returns the set of nodes that form a real-job dependency
// cycle containing start, using gonum's Tarjan SCC finder the same way
// distri's batch scheduler uses topo.Sort/topo.Unorderable to find the
// components it needs to break. Returns nil if start is not part of any
// cycle of size > 1.
func (g *Graph) CyclicComponent(start *Node) []*Node {
	dg := g.gonumView()
	for _, component := range topo.TarjanSCC(dg) {
		if len(component) < 2 {
			continue
		}
		for _, n := range component {
			if n.(*Node) == start {
				out := make([]*Node, len(component))
				for i, c := range component {
					out[i] = c.(*Node)
				}
				return out
			}
		}
	}
	return nil
}

var _ graph.Directed = (*simple.DirectedGraph)(nil)
