package graph

import (
	"sort"
	"strings"
)

// CycleResult reports what depth assignment discovered.
type CycleResult struct {
	// Cycles holds every distinct cycle as an ordered symbol sequence
	// that starts and ends at the same caption.
	Cycles [][]string
	// MaxDepth is the deepest depth among non-circular calculations.
	MaxDepth int
}

type nodeState uint8

const (
	unvisited nodeState = iota
	inProgress
	finalized
)

// traversal carries the full depth-first state for one AssignDepths call,
// so the detector is re-entrant and never leaks state between analyses.
type traversal struct {
	g      *Graph
	state  map[string]nodeState
	depth  map[string]int
	path   []string
	cycles [][]string
	seen   map[string]struct{}
}

// AssignDepths runs a depth-first traversal from every calculation not yet
// finalized, assigning a longest-dependency-chain depth to each acyclic
// node and flagging every node on a discovered cycle. Depth is memoized on
// finalization, so each edge is visited at most once per branch and the
// active-path set bounds recursion to the number of calculations: the
// traversal terminates on any input, however cyclic.
func (g *Graph) AssignDepths() *CycleResult {
	t := &traversal{
		g:     g,
		state: make(map[string]nodeState, len(g.Calcs)),
		depth: make(map[string]int, len(g.Calcs)),
		seen:  make(map[string]struct{}),
	}

	for _, caption := range g.Order {
		if t.state[caption] != finalized {
			t.visit(caption)
		}
	}

	result := &CycleResult{Cycles: t.cycles}
	for _, caption := range g.Order {
		c := g.Calcs[caption]
		if !c.IsCircular && c.Depth > result.MaxDepth {
			result.MaxDepth = c.Depth
		}
	}
	return result
}

func (t *traversal) visit(caption string) int {
	switch t.state[caption] {
	case finalized:
		return t.depth[caption]
	case inProgress:
		// Back edge: the cycle is the active path from this node's
		// first occurrence through the current node. Return the
		// sentinel depth instead of recursing further.
		t.recordCycle(caption)
		return 0
	}

	t.state[caption] = inProgress
	t.path = append(t.path, caption)

	c := t.g.Calcs[caption]
	depth := 0
	for _, dep := range c.DependsOnCalcs {
		if t.g.Calcs[dep] == nil {
			continue
		}
		if d := t.visit(dep) + 1; d > depth {
			depth = d
		}
	}

	t.path = t.path[:len(t.path)-1]
	t.state[caption] = finalized

	// Cycle membership is mutually exclusive with a true depth; circular
	// nodes report 0 as a sentinel.
	if c.IsCircular {
		depth = 0
	}
	c.Depth = depth
	t.depth[caption] = depth
	return depth
}

func (t *traversal) recordCycle(caption string) {
	start := 0
	for i, v := range t.path {
		if v == caption {
			start = i
			break
		}
	}

	members := t.path[start:]
	cycle := make([]string, 0, len(members)+1)
	cycle = append(cycle, members...)
	cycle = append(cycle, caption)

	for _, m := range members {
		t.g.Calcs[m].IsCircular = true
	}

	// Two DFS entries can rediscover the same cycle from different
	// nodes; membership identifies it regardless of rotation.
	sig := cycleSignature(members)
	if _, ok := t.seen[sig]; ok {
		return
	}
	t.seen[sig] = struct{}{}
	t.cycles = append(t.cycles, cycle)
}

func cycleSignature(members []string) string {
	sorted := make([]string, len(members))
	copy(sorted, members)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
