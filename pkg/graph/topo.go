package graph

import (
	"slices"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// TopologicalOrder returns every diagnostic id in an order that puts each
// cause before all of its effects. Among simultaneously ready diagnostics,
// the most severe comes first; remaining ties fall back to ascending id so
// the order is deterministic.
func (g *Graph) TopologicalOrder() []int64 {
	indegree := make(map[int64]int, len(g.diags))
	for id := range g.diags {
		indegree[id] = g.indegree[id]
	}

	var ready []int64
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]int64, 0, len(g.diags))
	for len(ready) > 0 {
		slices.SortFunc(ready, g.compareReady)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, effect := range g.out[next] {
			indegree[effect]--
			if indegree[effect] == 0 {
				ready = append(ready, effect)
			}
		}
	}

	return order
}

func (g *Graph) compareReady(a, b int64) int {
	ra, rb := severityRank(g.diags[a]), severityRank(g.diags[b])
	if ra != rb {
		return ra - rb
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func severityRank(d *diag.Diagnostic) int {
	if d == nil {
		return diag.Severity("").Rank()
	}
	return d.Severity.Rank()
}
