package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
	"github.com/fixpoint-dev/fixpoint/pkg/oracle"
	"github.com/fixpoint-dev/fixpoint/pkg/resolve"
)

// fakePatterns returns canned fixes, already ordered best-first like the
// store does.
type fakePatterns struct {
	fixes map[int64][]*diag.Fix
}

func (f *fakePatterns) FixesForPattern(patternID int64) ([]*diag.Fix, error) {
	return f.fixes[patternID], nil
}

func diagnosticWith(patternID int64, category diag.Category, message string) *diag.Diagnostic {
	return &diag.Diagnostic{
		ID:        1,
		File:      "a.rs",
		Line:      10,
		Code:      "E0001",
		Message:   message,
		Category:  category,
		Severity:  diag.SeverityMedium,
		Status:    diag.StatusDetected,
		PatternID: patternID,
	}
}

func TestFindBestFixPrefersPattern(t *testing.T) {
	t.Parallel()

	best := &diag.Fix{ID: diag.PersistedFixID(7), Title: "best", Kind: diag.FixKindLineReplacement, SuccessRate: 0.9}
	patterns := &fakePatterns{fixes: map[int64][]*diag.Fix{
		5: {best, {ID: diag.PersistedFixID(8), Title: "worse", SuccessRate: 0.1}},
	}}

	// An advisory suggestion exists too, but pattern history wins.
	r := resolve.New(patterns, []oracle.Suggestion{
		{DiagnosticID: 1, SuggestedFix: "let x = 0;", Confidence: 0.99},
	})

	fix, method, ok := r.FindBestFix(diagnosticWith(5, diag.CategoryOther, "whatever"))
	require.True(t, ok)
	assert.Equal(t, diag.MethodPattern, method)
	assert.Equal(t, best, fix)
}

func TestFindBestFixAdvisoryTier(t *testing.T) {
	t.Parallel()

	r := resolve.New(&fakePatterns{}, []oracle.Suggestion{
		{DiagnosticID: 1, Explanation: "declare first", SuggestedFix: "let x = 0;", Confidence: 0.7},
	})

	fix, method, ok := r.FindBestFix(diagnosticWith(0, diag.CategoryOther, "whatever"))
	require.True(t, ok)
	assert.Equal(t, diag.MethodAdvisory, method)
	assert.Equal(t, "let x = 0;", fix.Content)
	assert.InDelta(t, 0.7, fix.SuccessRate, 1e-9)

	_, persisted := fix.ID.Persisted()
	assert.False(t, persisted, "advisory fixes start ephemeral")
}

func TestFindBestFixGenericRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		category  diag.Category
		message   string
		wantTitle string
		wantKind  diag.FixKind
	}{
		{
			name:      "duplicate import",
			category:  diag.CategoryImportError,
			message:   "`std::fmt` imported more than once",
			wantTitle: "remove duplicate import",
			wantKind:  diag.FixKindDeletion,
		},
		{
			name:      "unused import",
			category:  diag.CategoryImportError,
			message:   "unused import: `std::io`",
			wantTitle: "remove unused import",
			wantKind:  diag.FixKindDeletion,
		},
		{
			name:      "missing terminator",
			category:  diag.CategorySyntax,
			message:   "expected `;`, found `}`",
			wantTitle: "insert missing terminator",
			wantKind:  diag.FixKindInsertion,
		},
		{
			name:      "type annotation",
			category:  diag.CategoryTypeMismatch,
			message:   "type annotations needed for `Vec<_>`",
			wantTitle: "add explicit type annotation",
			wantKind:  diag.FixKindInsertion,
		},
	}

	r := resolve.New(&fakePatterns{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fix, method, ok := r.FindBestFix(diagnosticWith(0, tt.category, tt.message))
			require.True(t, ok)
			assert.Equal(t, diag.MethodAutomatic, method)
			assert.Equal(t, tt.wantTitle, fix.Title)
			assert.Equal(t, tt.wantKind, fix.Kind)
		})
	}
}

func TestFindBestFixNone(t *testing.T) {
	t.Parallel()

	r := resolve.New(&fakePatterns{}, nil)
	fix, _, ok := r.FindBestFix(diagnosticWith(0, diag.CategoryOther, "nothing matches this"))
	assert.False(t, ok)
	assert.Nil(t, fix)
}

func TestFindBestFixIgnoresEmptyAdvisory(t *testing.T) {
	t.Parallel()

	// A suggestion without code cannot be applied and must fall through.
	r := resolve.New(&fakePatterns{}, []oracle.Suggestion{
		{DiagnosticID: 1, Explanation: "only prose", SuggestedFix: ""},
	})
	_, _, ok := r.FindBestFix(diagnosticWith(0, diag.CategoryOther, "nothing matches"))
	assert.False(t, ok)
}
