// Package engine implements the three-phase build core: prepare (dirty
// analysis), execute (scheduling across a worker pool), and clean
// (artifact removal), exactly as specified in spec §3/§4.
package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/basalt-build/basalt/internal/cache"
	"github.com/basalt-build/basalt/internal/graph"
	"github.com/basalt-build/basalt/internal/reporter"
)

// Context is the build session state of spec §3: it owns the graph and
// cache, the user's chosen target, and the handful of counters every
// worker needs to see. The original C implementation kept this state (and
// the single critical section protecting it) as process-wide globals; per
// DESIGN NOTES §9 this is re-architected as an explicit handle with its
// own sync.Mutex, passed to every operation instead.
type Context struct {
	Graph *graph.Graph
	Cache *cache.Cache

	Target        *graph.Node
	DefaultTarget *graph.Node

	GlobalTimestamp time.Time
	BuildTime       time.Time

	// Forced, when true, makes prepare mark a node FORCED when it is still
	// clean after the cache/global-stamp checks and has at least one
	// dependency (spec §4.2 step 5). A node without dependencies is not
	// affected, and a node already dirty keeps its earlier reason.
	Forced bool

	ExitOnError bool

	Logger     *log.Logger
	Reporter   reporter.Reporter
	ReportOpts reporter.Options

	NumCommands int

	errorCode     int32
	currentCmdNum int32

	// mu is the single critical section of spec §5: every read or write
	// of Node/Job fields, constraint counters, NumCommands, and the
	// counters above happens with mu held, except while a command is
	// actually running.
	mu sync.Mutex
}

// New returns a Context ready for Prepare.
func New(g *graph.Graph, c *cache.Cache, target *graph.Node, logger *log.Logger, rep reporter.Reporter) *Context {
	return &Context{
		Graph:     g,
		Cache:     c,
		Target:    target,
		BuildTime: time.Now(),
		Logger:    logger,
		Reporter:  rep,
	}
}

// Lock/Unlock expose the critical section to internal/pool, which owns the
// per-worker loop described in spec §4.5.
func (c *Context) Lock()   { c.mu.Lock() }
func (c *Context) Unlock() { c.mu.Unlock() }

// ErrorCode returns the first latched error code, 0 if none yet. Safe to
// call without holding the lock.
func (c *Context) ErrorCode() int { return int(atomic.LoadInt32(&c.errorCode)) }

// SetErrorCode latches code as the build's error code if none has been set
// yet (spec §7: "the first non-zero errorcode wins"). Must be called with
// the lock held, matching every other Job/Node mutation.
func (c *Context) SetErrorCode(code int) {
	if code == 0 {
		return
	}
	if atomic.CompareAndSwapInt32(&c.errorCode, 0, int32(code)) {
		return
	}
}

// CurrentCmdNum returns the number of commands started so far.
func (c *Context) CurrentCmdNum() int { return int(atomic.LoadInt32(&c.currentCmdNum)) }

// BumpCmdNum increments and returns the new current command number. Called
// with the lock held, from execute_cb step 7.
func (c *Context) BumpCmdNum() int {
	return int(atomic.AddInt32(&c.currentCmdNum, 1))
}
