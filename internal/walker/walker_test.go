package walker

import (
	"testing"

	"github.com/basalt-build/basalt/internal/graph"
)

func chain(t *testing.T) (g *graph.Graph, src, obj, app *graph.Node) {
	t.Helper()
	g = graph.New()
	src = g.NewNode("src.c", "src.c")
	obj = g.NewNode("obj.o", "obj.o")
	app = g.NewNode("app", "app")
	obj.Job.Real = true
	app.Job.Real = true
	graph.AddEdge(obj, src)
	graph.AddEdge(app, obj)
	return g, src, obj, app
}

func TestBottomUpOrder(t *testing.T) {
	_, src, obj, app := chain(t)

	var order []*graph.Node
	Walk(app, BottomUp, func(w *Walker, info *Info) int {
		order = append(order, info.Node)
		return 0
	})

	if len(order) != 3 || order[0] != src || order[1] != obj || order[2] != app {
		t.Fatalf("visit order = %v, want [src obj app]", order)
	}
}

func TestUndoneSkipsFinishedJobs(t *testing.T) {
	_, _, obj, app := chain(t)
	obj.Job.Status = graph.Done

	var visited []*graph.Node
	Walk(app, BottomUp|Undone, func(w *Walker, info *Info) int {
		visited = append(visited, info.Node)
		return 0
	})

	for _, n := range visited {
		if n == obj {
			t.Fatalf("visited Done node %v under Undone flag", obj.Filename)
		}
	}
}

func TestQuickPrunesCleanSubtree(t *testing.T) {
	_, src, obj, _ := chain(t)
	// obj is Clean and its only dependency (src) is Clean too, so a walk
	// rooted at obj should prune before ever descending into src.

	var visited []*graph.Node
	Walk(obj, BottomUp|Quick, func(w *Walker, info *Info) int {
		visited = append(visited, info.Node)
		return 0
	})

	for _, n := range visited {
		if n == src {
			t.Fatalf("Quick descended into clean subtree, visited %v", n.Filename)
		}
	}
	if len(visited) != 1 || visited[0] != obj {
		t.Fatalf("visited = %v, want [obj]", visited)
	}
}

func TestJobsDedupesByJob(t *testing.T) {
	g := graph.New()
	producer := g.NewNode("lib.a", "lib.a")
	extra := g.NewNode("lib.a.debug", "lib.a.debug")
	producer.Job.Real = true
	extra.Job = producer.Job
	producer.Job.FirstOutput = append(producer.Job.FirstOutput, extra)

	root := g.NewNode("app", "app")
	root.Job.Real = true
	graph.AddEdge(root, producer)
	graph.AddEdge(root, extra)

	calls := 0
	Walk(root, BottomUp|Jobs, func(w *Walker, info *Info) int {
		if info.Node.Job == producer.Job {
			calls++
		}
		return 0
	})
	if calls != 1 {
		t.Fatalf("callback invoked %d times for shared job, want 1", calls)
	}
}

func TestRevisitRunsAfterDescent(t *testing.T) {
	_, _, obj, app := chain(t)

	var revisited bool
	Walk(app, BottomUp|Revisit, func(w *Walker, info *Info) int {
		if info.Node == obj && !info.Revisiting {
			w.Revisit(app)
		}
		if info.Node == app && info.Revisiting {
			revisited = true
		}
		return 0
	})

	if !revisited {
		t.Fatalf("app was never revisited after obj requested it")
	}
}

func TestCycleDoesNotInfiniteLoop(t *testing.T) {
	g := graph.New()
	a := g.NewNode("a", "a")
	b := g.NewNode("b", "b")
	a.Job.Real = true
	b.Job.Real = true
	graph.AddEdge(a, b)
	graph.AddEdge(b, a)

	visits := 0
	code := Walk(a, BottomUp, func(w *Walker, info *Info) int {
		visits++
		if visits > 10 {
			return -1 // safety valve in case the walker ever regresses
		}
		return 0
	})
	if code != 0 {
		t.Fatalf("Walk returned %d, want 0 (walker itself does not detect cycles)", code)
	}
	if visits != 2 {
		t.Fatalf("visits = %d, want 2 (a and b each visited exactly once)", visits)
	}
}
