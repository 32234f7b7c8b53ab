// Package graph infers likely-causes edges between diagnostics and orders
// them so root causes are fixed before their downstream effects.
package graph

import (
	"slices"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// Graph is the cycle-free dependency graph over one set of diagnostics.
type Graph struct {
	diags        map[int64]*diag.Diagnostic
	edges        []diag.DependencyEdge
	out          map[int64][]int64
	indegree     map[int64]int
	cyclesBroken int
}

// NodeCount returns the number of diagnostics in the graph.
func (g *Graph) NodeCount() int {
	return len(g.diags)
}

// EdgeCount returns the number of edges after cycle breaking.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Edges returns the cycle-free edge set ordered by (cause, effect).
func (g *Graph) Edges() []diag.DependencyEdge {
	out := slices.Clone(g.edges)
	slices.SortFunc(out, compareEdges)
	return out
}

// CyclesBroken reports how many edges were dropped to make the graph acyclic.
func (g *Graph) CyclesBroken() int {
	return g.cyclesBroken
}

// Roots returns the ids of diagnostics with no inbound edge, ascending.
func (g *Graph) Roots() []int64 {
	var roots []int64
	for id := range g.diags {
		if g.indegree[id] == 0 {
			roots = append(roots, id)
		}
	}
	slices.Sort(roots)
	return roots
}

// Diagnostic returns the node with the given id, nil if absent.
func (g *Graph) Diagnostic(id int64) *diag.Diagnostic {
	return g.diags[id]
}

// HasEdge reports whether the cycle-free graph contains cause -> effect.
func (g *Graph) HasEdge(causeID, effectID int64) bool {
	return slices.Contains(g.out[causeID], effectID)
}

func compareEdges(a, b diag.DependencyEdge) int {
	if a.CauseID != b.CauseID {
		if a.CauseID < b.CauseID {
			return -1
		}
		return 1
	}
	if a.EffectID != b.EffectID {
		if a.EffectID < b.EffectID {
			return -1
		}
		return 1
	}
	return 0
}

// rebuildAdjacency recomputes the adjacency and indegree maps from g.edges.
func (g *Graph) rebuildAdjacency() {
	g.out = make(map[int64][]int64, len(g.diags))
	g.indegree = make(map[int64]int, len(g.diags))
	for _, e := range g.edges {
		g.out[e.CauseID] = append(g.out[e.CauseID], e.EffectID)
		g.indegree[e.EffectID]++
	}
}
