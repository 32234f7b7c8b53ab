package graph

import (
	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// Edge inference tuning. Identifier matches dominate because a shared
// symbol name is much stronger evidence of causation than mere file order.
const (
	identBaseConfidence      = 0.5
	identStrengthWeight      = 0.4
	proximityBonus           = 0.1
	precedenceBaseConfidence = 0.25
	precedenceProximityReach = 0.25
)

// Build infers a likely-causes edge set over the given diagnostics and
// returns a cycle-free graph.
//
// An edge A -> B is added when:
//   - B's message references an identifier that A's diagnostic is about,
//     where A has a root-cause category (missing declaration, import error), or
//   - A and B are in the same file, A's line strictly precedes B's, A has a
//     root-cause category, and B looks like a downstream symptom
//     (type mismatch or undefined reference).
//
// When both rules fire for a pair, the higher confidence wins.
func Build(diagnostics []*diag.Diagnostic) *Graph {
	g := &Graph{diags: make(map[int64]*diag.Diagnostic, len(diagnostics))}
	for _, d := range diagnostics {
		g.diags[d.ID] = d
	}

	idents := make(map[int64][]string, len(diagnostics))
	for _, d := range diagnostics {
		idents[d.ID] = diag.Identifiers(d.Message)
	}

	best := make(map[[2]int64]float64)
	record := func(cause, effect int64, confidence float64) {
		key := [2]int64{cause, effect}
		if confidence > best[key] {
			best[key] = confidence
		}
	}

	for _, a := range diagnostics {
		if !a.Category.IsRootCause() {
			continue
		}
		for _, b := range diagnostics {
			if a.ID == b.ID {
				continue
			}
			if conf, ok := identifierConfidence(a, b, idents); ok {
				record(a.ID, b.ID, conf)
			}
			if conf, ok := precedenceConfidence(a, b); ok {
				record(a.ID, b.ID, conf)
			}
		}
	}

	g.edges = make([]diag.DependencyEdge, 0, len(best))
	for key, conf := range best {
		g.edges = append(g.edges, diag.DependencyEdge{CauseID: key[0], EffectID: key[1], Confidence: conf})
	}

	g.breakCycles()
	g.rebuildAdjacency()
	return g
}

// identifierConfidence scores rule (i): B mentions a symbol A is about.
func identifierConfidence(a, b *diag.Diagnostic, idents map[int64][]string) (float64, bool) {
	identsA := idents[a.ID]
	identsB := idents[b.ID]
	if len(identsA) == 0 || len(identsB) == 0 {
		return 0, false
	}

	setA := make(map[string]bool, len(identsA))
	for _, id := range identsA {
		setA[id] = true
	}
	shared := 0
	for _, id := range identsB {
		if setA[id] {
			shared++
		}
	}
	if shared == 0 {
		return 0, false
	}

	strength := float64(shared) / float64(len(identsB))
	conf := identBaseConfidence + identStrengthWeight*strength
	if a.File == b.File && a.Line < b.Line {
		conf += proximityBonus * lineProximity(b.Line-a.Line)
	}
	if conf > 1 {
		conf = 1
	}
	return conf, true
}

// precedenceConfidence scores rule (ii): same file, upstream root-cause
// category before a downstream symptom category.
func precedenceConfidence(a, b *diag.Diagnostic) (float64, bool) {
	if a.File != b.File || a.Line >= b.Line {
		return 0, false
	}
	if b.Category != diag.CategoryTypeMismatch && b.Category != diag.CategoryUndefinedReference {
		return 0, false
	}
	return precedenceBaseConfidence + precedenceProximityReach*lineProximity(b.Line-a.Line), true
}

// lineProximity maps a line distance to (0, 1], nearer is higher.
func lineProximity(dist int) float64 {
	return 1.0 / (1.0 + float64(dist)/10.0)
}
