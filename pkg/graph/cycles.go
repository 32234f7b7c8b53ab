package graph

import (
	"slices"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// breakCycles removes edges until the graph is acyclic. Each detected cycle
// loses its lowest-confidence edge; confidence ties are broken by the
// lexicographic order of (causeID, effectID) so construction is
// reproducible across runs.
func (g *Graph) breakCycles() {
	for {
		cycle := g.findCycle()
		if cycle == nil {
			return
		}
		g.removeEdge(weakestEdge(cycle))
		g.cyclesBroken++
	}
}

// findCycle returns the edges of one cycle via depth-first search, or nil
// when the graph is acyclic. Nodes are visited in ascending id order so the
// same cycle is found first on every run.
func (g *Graph) findCycle() []diag.DependencyEdge {
	adjacency := make(map[int64][]diag.DependencyEdge, len(g.diags))
	for _, e := range g.edges {
		adjacency[e.CauseID] = append(adjacency[e.CauseID], e)
	}
	for id := range adjacency {
		slices.SortFunc(adjacency[id], compareEdges)
	}

	ids := make([]int64, 0, len(g.diags))
	for id := range g.diags {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[int64]int, len(ids))
	var stack []diag.DependencyEdge
	var cycle []diag.DependencyEdge

	var visit func(id int64) bool
	visit = func(id int64) bool {
		state[id] = inStack
		for _, e := range adjacency[id] {
			switch state[e.EffectID] {
			case inStack:
				// Slice the stack from the first edge leaving the cycle head.
				start := 0
				for i, se := range stack {
					if se.CauseID == e.EffectID {
						start = i
						break
					}
				}
				cycle = append(slices.Clone(stack[start:]), e)
				return true
			case unvisited:
				stack = append(stack, e)
				if visit(e.EffectID) {
					return true
				}
				stack = stack[:len(stack)-1]
			}
		}
		state[id] = done
		return false
	}

	for _, id := range ids {
		if state[id] == unvisited {
			stack = stack[:0]
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}

// weakestEdge picks the lowest-confidence edge of a cycle, ties broken by
// (causeID, effectID).
func weakestEdge(cycle []diag.DependencyEdge) diag.DependencyEdge {
	weakest := cycle[0]
	for _, e := range cycle[1:] {
		if e.Confidence < weakest.Confidence ||
			(e.Confidence == weakest.Confidence && compareEdges(e, weakest) < 0) {
			weakest = e
		}
	}
	return weakest
}

func (g *Graph) removeEdge(target diag.DependencyEdge) {
	g.edges = slices.DeleteFunc(g.edges, func(e diag.DependencyEdge) bool {
		return e.CauseID == target.CauseID && e.EffectID == target.EffectID
	})
}
