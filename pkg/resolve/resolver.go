// Package resolve ranks candidate fixes for a diagnostic. The resolver is
// read-only with respect to the store and has no side effects; applying the
// chosen fix is the applicator's job.
package resolve

import (
	"github.com/fixpoint-dev/fixpoint/pkg/diag"
	"github.com/fixpoint-dev/fixpoint/pkg/oracle"
)

// PatternSource provides historical fixes for a pattern. *store.Store
// satisfies it.
type PatternSource interface {
	FixesForPattern(patternID int64) ([]*diag.Fix, error)
}

// Resolver finds the best candidate fix for one diagnostic.
//
// Resolution tiers, first hit wins:
//  1. the diagnostic's pattern's linked fix with the highest success rate,
//     ties broken by priority;
//  2. an advisory-oracle suggestion wrapped as an ephemeral fix, success
//     rate defaulted from the oracle's confidence;
//  3. a generic rule keyed by the diagnostic's code and category.
type Resolver struct {
	patterns    PatternSource
	suggestions map[int64]oracle.Suggestion
}

// New creates a resolver. suggestions may be nil when the oracle is
// disabled or produced nothing this run.
func New(patterns PatternSource, suggestions []oracle.Suggestion) *Resolver {
	byID := make(map[int64]oracle.Suggestion, len(suggestions))
	for _, s := range suggestions {
		byID[s.DiagnosticID] = s
	}
	return &Resolver{patterns: patterns, suggestions: byID}
}

// FindBestFix returns the best candidate fix for the diagnostic and the
// method that produced it. ok is false when no tier yields a candidate.
func (r *Resolver) FindBestFix(d *diag.Diagnostic) (fix *diag.Fix, method diag.Method, ok bool) {
	if fix := r.patternFix(d); fix != nil {
		return fix, diag.MethodPattern, true
	}
	if fix := r.advisoryFix(d); fix != nil {
		return fix, diag.MethodAdvisory, true
	}
	if fix := genericFix(d); fix != nil {
		return fix, diag.MethodAutomatic, true
	}
	return nil, "", false
}

func (r *Resolver) patternFix(d *diag.Diagnostic) *diag.Fix {
	if d.PatternID == 0 || r.patterns == nil {
		return nil
	}
	// FixesForPattern already orders by success rate, then priority.
	fixes, err := r.patterns.FixesForPattern(d.PatternID)
	if err != nil || len(fixes) == 0 {
		return nil
	}
	return fixes[0]
}

func (r *Resolver) advisoryFix(d *diag.Diagnostic) *diag.Fix {
	s, found := r.suggestions[d.ID]
	if !found || s.SuggestedFix == "" {
		return nil
	}
	return &diag.Fix{
		ID:          diag.EphemeralFixID(),
		Title:       "advisory suggestion",
		Description: s.Explanation,
		Kind:        diag.FixKindBlockReplacement,
		Content:     s.SuggestedFix,
		SuccessRate: s.Confidence,
	}
}
