// Package oracle defines the advisory oracle interface and its HTTP client.
//
// The oracle is an optional external collaborator: it explains diagnostics
// and proposes fixes, but the pipeline never depends on it for correctness.
// Every failure mode degrades to an empty suggestion set.
package oracle

import (
	"context"
)

// Suggestion is one advisory result for a diagnostic.
type Suggestion struct {
	DiagnosticID int64 `json:"diagnosticId"`

	// Explanation is the oracle's prose description of the root cause.
	Explanation string `json:"explanation"`

	// SuggestedFix is the proposed replacement code. When the oracle
	// answers in markdown, the first fenced code block is extracted.
	SuggestedFix string `json:"suggestedFix"`

	// Confidence is the oracle's self-reported confidence in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Options controls one advisory batch.
type Options struct {
	// IncludeContext asks the oracle to consider surrounding source lines.
	IncludeContext bool
}

// Advisor is the advisory oracle contract.
type Advisor interface {
	// BatchAnalyze requests suggestions for the given diagnostic ids.
	// Implementations return partial results where possible; a nil slice
	// with a nil error simply means no advice.
	BatchAnalyze(ctx context.Context, diagnosticIDs []int64, opts Options) ([]Suggestion, error)
}

// Disabled is an Advisor that never has advice. It stands in when the
// oracle is not configured.
type Disabled struct{}

// BatchAnalyze implements Advisor.
func (Disabled) BatchAnalyze(context.Context, []int64, Options) ([]Suggestion, error) {
	return nil, nil
}
