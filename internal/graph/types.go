// Package graph holds the in-memory node/job graph that the build engine
// operates on. Nodes and jobs are created once by a graph builder (see
// internal/graphfile for the minimal one this module ships) and live for
// the entire build; nothing in this package frees individual nodes.
package graph

import "time"

// Dirty describes why a node needs its job to run (real jobs) or needs its
// dirty/timestamp state propagated further up the graph (pseudo jobs).
type Dirty int

const (
	Clean Dirty = iota
	CmdHash
	GlobalStamp
	Forced
	DepDirty
	DepNewer
)

func (d Dirty) String() string {
	switch d {
	case Clean:
		return "clean"
	case CmdHash:
		return "cmdhash"
	case GlobalStamp:
		return "globalstamp"
	case Forced:
		return "forced"
	case DepDirty:
		return "depdirty"
	case DepNewer:
		return "depnewer"
	default:
		return "unknown"
	}
}

// Status is a job's lifecycle state. It only ever advances forward within
// a single build: Undone -> Working -> (Done | Broken).
type Status int

const (
	Undone Status = iota
	Working
	Done
	Broken
)

func (s Status) String() string {
	switch s {
	case Undone:
		return "undone"
	case Working:
		return "working"
	case Done:
		return "done"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// Node is a vertex in the build graph: a file or pseudo-target.
type Node struct {
	id int64

	Filename string
	HashID   string

	// Timestamp is the logical timestamp: it may be propagated from a
	// dependency rather than read off disk. TimestampRaw is the raw
	// filesystem mtime; the zero Time means "absent".
	Timestamp    time.Time
	TimestampRaw time.Time

	Dirty    Dirty
	Depth    int
	Targeted bool

	FirstDep    []*Node
	FirstParent []*Node

	// Job is the node's single associated job. Synthetic (non-real) jobs
	// exist for source files and pseudo-targets, so Job is never nil.
	Job *Job
}

// ID implements gonum/graph.Node, so a Graph can hand its nodes straight to
// gonum/graph/simple and gonum/graph/topo for cycle diagnostics.
func (n *Node) ID() int64 { return n.id }

// Job is the command (if any) associated with exactly one Node. Jobs are
// never shared between nodes.
type Job struct {
	Cmdline string
	Label   string
	Filter  string // opaque token passed through to the command runner
	Real    bool   // false for source files and grouping pseudo-targets

	CmdHash   string
	CacheHash string

	Status Status

	// FirstOutput is the set of nodes this job writes. It always includes
	// at least the node that owns this job.
	FirstOutput []*Node

	// FirstJobDep is the materialized, transitive set of real-job
	// dependencies, computed during prepare (see internal/engine).
	FirstJobDep []*Node
	jobDepSet   map[*Node]bool

	Counted bool

	ConstraintShared         []*Node
	ConstraintExclusive      []*Node
	ConstraintSharedCount    int
	ConstraintExclusiveCount int
}

// AddJobDep adds dep to the job's transitive real-job-dependency set,
// returning true if it was not already present.
func (j *Job) AddJobDep(dep *Node) bool {
	if j.jobDepSet == nil {
		j.jobDepSet = make(map[*Node]bool)
	}
	if j.jobDepSet[dep] {
		return false
	}
	j.jobDepSet[dep] = true
	j.FirstJobDep = append(j.FirstJobDep, dep)
	return true
}
