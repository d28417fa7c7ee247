package taskgraph

import (
	"container/heap"
	"slices"
	"sort"
	"strings"
)

// Graph is the static part of a pipeline: tasks and spawn points. Spawned
// instances are added by the executor and never stored here, so a Graph can
// be executed any number of times.
type Graph struct {
	tasks  map[string]Task
	spawns map[string]Spawn
	order  []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{tasks: map[string]Task{}, spawns: map[string]Spawn{}}
}

// AddTask registers a static task.
func (g *Graph) AddTask(t Task) error {
	if err := g.checkID(t.ID); err != nil {
		return err
	}
	if t.Run == nil {
		return invalidf("task %s has no compute function", t.ID)
	}
	t.Inputs = slices.Clone(t.Inputs)
	t.Outputs = slices.Clone(t.Outputs)
	t.Deps = slices.Clone(t.Deps)
	g.tasks[t.ID] = t
	g.order = append(g.order, t.ID)
	return nil
}

// AddSpawn registers a spawn point.
func (g *Graph) AddSpawn(s Spawn) error {
	if err := g.checkID(s.ID); err != nil {
		return err
	}
	if s.Expand == nil {
		return invalidf("spawn %s has no expand function", s.ID)
	}
	s.Deps = slices.Clone(s.Deps)
	g.spawns[s.ID] = s
	g.order = append(g.order, s.ID)
	return nil
}

// IDs returns task and spawn identifiers in registration order.
func (g *Graph) IDs() []string {
	return slices.Clone(g.order)
}

// Task returns the static task registered under id.
func (g *Graph) Task(id string) (Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// IsSpawn reports whether id names a spawn point.
func (g *Graph) IsSpawn(id string) bool {
	_, ok := g.spawns[id]
	return ok
}

func (g *Graph) checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidf("empty task id")
	}
	if _, ok := g.tasks[id]; ok {
		return invalidf("duplicate task id %s", id)
	}
	if _, ok := g.spawns[id]; ok {
		return invalidf("duplicate task id %s", id)
	}
	return nil
}

func (g *Graph) deps(id string) []string {
	if t, ok := g.tasks[id]; ok {
		return t.Deps
	}
	return g.spawns[id].Deps
}

// Validate checks that every dependency is known, that no two tasks declare
// the same output, and that the graph is acyclic.
func (g *Graph) Validate() error {
	owners := make(map[string]string)
	for _, id := range g.order {
		for _, dep := range g.deps(id) {
			if dep == id {
				return invalidf("task %s depends on itself", id)
			}
			if _, ok := g.tasks[dep]; ok {
				continue
			}
			if _, ok := g.spawns[dep]; ok {
				continue
			}
			return invalidf("task %s depends on unknown task %s", id, dep)
		}
		t, ok := g.tasks[id]
		if !ok {
			continue
		}
		for _, key := range t.Outputs {
			if owner, dup := owners[key]; dup {
				return invalidf("output %s declared by both %s and %s", key, owner, id)
			}
			owners[key] = id
		}
	}
	return g.validateAcyclic()
}

// Outputs returns the owner of every static output key.
func (g *Graph) Outputs() map[string]string {
	owners := make(map[string]string)
	for id, t := range g.tasks {
		for _, key := range t.Outputs {
			owners[key] = id
		}
	}
	return owners
}

// Downstream returns every node that transitively depends on id.
func (g *Graph) Downstream(id string) map[string]struct{} {
	dependents := g.dependents()
	seen := map[string]struct{}{}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range dependents[cur] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return seen
}

func (g *Graph) dependents() map[string][]string {
	out := make(map[string][]string, len(g.order))
	for _, id := range g.order {
		for _, dep := range g.deps(id) {
			out[dep] = append(out[dep], id)
		}
	}
	for id := range out {
		sort.Strings(out[id])
	}
	return out
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// validateAcyclic runs Kahn's algorithm over registration indices and, when
// some node is never released, extracts one cycle for the error message.
func (g *Graph) validateAcyclic() error {
	index := make(map[string]int, len(g.order))
	for i, id := range g.order {
		index[id] = i
	}
	outgoing := make([][]int, len(g.order))
	indeg := make([]int, len(g.order))
	for i, id := range g.order {
		for _, dep := range g.deps(id) {
			d := index[dep]
			outgoing[d] = append(outgoing[d], i)
			indeg[i]++
		}
	}
	for i := range outgoing {
		sort.Ints(outgoing[i])
	}

	ready := &intMinHeap{}
	for i, d := range indeg {
		if d == 0 {
			heap.Push(ready, i)
		}
	}
	visited := 0
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		visited++
		for _, m := range outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	if visited == len(g.order) {
		return nil
	}
	return cycleError(g.findCycle(outgoing))
}

func (g *Graph) findCycle(outgoing [][]int) []string {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.order))
	parent := make([]int, len(g.order))
	for i := range parent {
		parent[i] = -1
	}
	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range outgoing[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}
	for i := range g.order {
		if color[i] == white && dfs(i) {
			break
		}
	}
	path := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		path = append(path, g.order[cycle[i]])
	}
	return path
}
