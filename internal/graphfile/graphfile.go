// Package graphfile is the minimal graph-builder collaborator spec §6
// describes: a JSON document decoded with encoding/json, the same
// serialization distr1-distri/cmd/zi/zi.go uses for its own ad hoc
// structured build state. Parsing of a full build-script language is an
// explicit spec.md Non-goal, so this format is deliberately small: nodes
// plus the jobs that produce them, nothing else.
package graphfile

import (
	"encoding/json"
	"io"
	"os"

	"github.com/basalt-build/basalt/internal/fsutil"
	"github.com/basalt-build/basalt/internal/graph"
	"github.com/basalt-build/basalt/internal/hashutil"
	"golang.org/x/xerrors"
)

// Doc is the on-disk shape: one entry per node the graph should contain,
// and (for nodes with a job) the command that produces it plus the
// filenames it depends on.
type Doc struct {
	Nodes []NodeDoc `json:"nodes"`
}

// NodeDoc describes a single node and, if Real, its job.
type NodeDoc struct {
	Filename string `json:"filename"`
	HashID   string `json:"hashid,omitempty"` // defaults to Filename

	// Real nodes have a command; non-real nodes are source files or
	// grouping pseudo-targets and never run a command.
	Real bool `json:"real,omitempty"`

	Cmdline string   `json:"cmdline,omitempty"`
	Label   string   `json:"label,omitempty"`
	Filter  string   `json:"filter,omitempty"`
	Deps    []string `json:"deps,omitempty"`

	// Outputs lists additional nodes this job writes besides Filename
	// itself. Every entry must also appear as its own NodeDoc.
	Outputs []string `json:"outputs,omitempty"`

	// ConstraintShared/ConstraintExclusive name other nodes this job's
	// constraint set covers (spec §4.4); entries must be declared
	// elsewhere in the document.
	ConstraintShared    []string `json:"constraint_shared,omitempty"`
	ConstraintExclusive []string `json:"constraint_exclusive,omitempty"`
}

// Load decodes a graph description from r and builds a graph.Graph from
// it, returning the named target node.
func Load(r io.Reader, target string) (*graph.Graph, *graph.Node, error) {
	var doc Doc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, xerrors.Errorf("decoding graph: %w", err)
	}
	return build(&doc, target)
}

// LoadFile is a convenience wrapper around Load for a path on disk.
func LoadFile(path, target string) (*graph.Graph, *graph.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, xerrors.Errorf("opening graph file: %w", err)
	}
	defer f.Close()
	return Load(f, target)
}

func build(doc *Doc, target string) (*graph.Graph, *graph.Node, error) {
	g := graph.New()

	for _, nd := range doc.Nodes {
		hashid := nd.HashID
		if hashid == "" {
			hashid = nd.Filename
		}
		n := g.NewNode(nd.Filename, hashid)
		n.TimestampRaw = fsutil.Timestamp(nd.Filename)
		n.Timestamp = n.TimestampRaw
	}

	byFilename := make(map[string]*graph.Node, len(doc.Nodes))
	for _, n := range g.Nodes() {
		byFilename[n.Filename] = n
	}

	lookup := func(filename string) (*graph.Node, error) {
		n, ok := byFilename[filename]
		if !ok {
			return nil, xerrors.Errorf("graph file references undeclared node %q", filename)
		}
		return n, nil
	}

	// Pass 1: fill in each node's own job fields before any aliasing, so
	// an output-only node's (empty) entry can never clobber the fields
	// its producer set first, regardless of document order.
	for _, nd := range doc.Nodes {
		n, err := lookup(nd.Filename)
		if err != nil {
			return nil, nil, err
		}
		job := n.Job
		job.Real = nd.Real
		job.Cmdline = nd.Cmdline
		job.Label = nd.Label
		if job.Label == "" {
			job.Label = nd.Filename
		}
		job.Filter = nd.Filter
	}

	// Pass 2: alias additional outputs onto their producer's job.
	for _, nd := range doc.Nodes {
		n, err := lookup(nd.Filename)
		if err != nil {
			return nil, nil, err
		}
		job := n.Job
		for _, out := range nd.Outputs {
			outNode, err := lookup(out)
			if err != nil {
				return nil, nil, err
			}
			outNode.Job = job
			job.FirstOutput = append(job.FirstOutput, outNode)
		}
	}

	// Pass 3: edges and constraints, once every job alias is settled.
	for _, nd := range doc.Nodes {
		n, err := lookup(nd.Filename)
		if err != nil {
			return nil, nil, err
		}
		job := n.Job

		for _, dep := range nd.Deps {
			depNode, err := lookup(dep)
			if err != nil {
				return nil, nil, err
			}
			graph.AddEdge(n, depNode)
		}

		for _, cn := range nd.ConstraintShared {
			depNode, err := lookup(cn)
			if err != nil {
				return nil, nil, err
			}
			job.ConstraintShared = append(job.ConstraintShared, depNode)
		}
		for _, cn := range nd.ConstraintExclusive {
			depNode, err := lookup(cn)
			if err != nil {
				return nil, nil, err
			}
			job.ConstraintExclusive = append(job.ConstraintExclusive, depNode)
		}
	}

	for _, n := range g.Nodes() {
		// Hash each job once, from its owning node: an aliased output node
		// shares the job and must not overwrite its cmdhash.
		if n.Job.Real && n.Job.FirstOutput[0] == n {
			inputIDs := make([]string, 0, len(n.FirstDep))
			for _, dep := range n.FirstDep {
				inputIDs = append(inputIDs, dep.HashID)
			}
			n.Job.CmdHash = hashutil.CmdHash(n.Job.Cmdline, inputIDs)
		}
	}

	if target == "" {
		if len(doc.Nodes) == 0 {
			return nil, nil, xerrors.Errorf("graph file declares no nodes")
		}
		target = doc.Nodes[0].Filename
	}

	targetNode, ok := g.Lookup(target)
	if !ok {
		return nil, nil, xerrors.Errorf("target %q not found in graph", target)
	}
	return g, targetNode, nil
}
