// Package cluster partitions diagnostics into groups sharing a probable
// root cause, so one remediation can be suggested per group instead of per
// diagnostic.
package cluster

import (
	"slices"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
	"github.com/fixpoint-dev/fixpoint/pkg/graph"
)

// Partition groups the given diagnostics into clusters.
//
// Diagnostics are first grouped by (code, message skeleton), then each
// group is split by connected components of the dependency graph restricted
// to the group, so two diagnostics of the same shape with unrelated causes
// land in different clusters. The result is a true partition: every input
// diagnostic appears in exactly one cluster, and diagnostics that match
// nothing form singletons.
//
// The representative of each cluster is its lowest-id member. Clusters are
// returned ordered by representative id.
func Partition(diagnostics []*diag.Diagnostic, g *graph.Graph) []diag.Cluster {
	groups := make(map[groupKey][]*diag.Diagnostic)
	var keys []groupKey
	for _, d := range diagnostics {
		key := groupKey{code: d.Code, skeleton: diag.Skeleton(d.Message)}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], d)
	}

	var clusters []diag.Cluster
	for _, key := range keys {
		for _, component := range splitByComponents(groups[key], g) {
			clusters = append(clusters, makeCluster(component, key.skeleton))
		}
	}

	slices.SortFunc(clusters, func(a, b diag.Cluster) int {
		if a.RepresentativeID < b.RepresentativeID {
			return -1
		}
		if a.RepresentativeID > b.RepresentativeID {
			return 1
		}
		return 0
	})
	return clusters
}

type groupKey struct {
	code     string
	skeleton string
}

// splitByComponents partitions one code+skeleton group by connected
// components of the dependency graph restricted to the group. Edge
// direction is ignored here; any causal link keeps two diagnostics
// together.
func splitByComponents(group []*diag.Diagnostic, g *graph.Graph) [][]*diag.Diagnostic {
	if len(group) <= 1 {
		return [][]*diag.Diagnostic{group}
	}

	inGroup := make(map[int64]*diag.Diagnostic, len(group))
	for _, d := range group {
		inGroup[d.ID] = d
	}

	neighbors := make(map[int64][]int64, len(group))
	if g != nil {
		for _, e := range g.Edges() {
			if inGroup[e.CauseID] == nil || inGroup[e.EffectID] == nil {
				continue
			}
			neighbors[e.CauseID] = append(neighbors[e.CauseID], e.EffectID)
			neighbors[e.EffectID] = append(neighbors[e.EffectID], e.CauseID)
		}
	}

	ids := make([]int64, 0, len(group))
	for _, d := range group {
		ids = append(ids, d.ID)
	}
	slices.Sort(ids)

	visited := make(map[int64]bool, len(ids))
	var components [][]*diag.Diagnostic
	for _, start := range ids {
		if visited[start] {
			continue
		}
		var component []*diag.Diagnostic
		queue := []int64{start}
		visited[start] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			component = append(component, inGroup[id])
			for _, n := range neighbors[id] {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

func makeCluster(members []*diag.Diagnostic, skeleton string) diag.Cluster {
	ids := make([]int64, 0, len(members))
	for _, d := range members {
		ids = append(ids, d.ID)
	}
	slices.Sort(ids)

	c := diag.Cluster{
		DiagnosticIDs:    ids,
		RepresentativeID: ids[0],
		Description:      skeleton,
	}
	return c
}
