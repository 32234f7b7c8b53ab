package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// memRecorder reconciles by hash in memory.
type memRecorder struct {
	byHash map[string]*diag.Diagnostic
	nextID int64
}

func newMemRecorder() *memRecorder {
	return &memRecorder{byHash: map[string]*diag.Diagnostic{}}
}

func (m *memRecorder) UpsertDiagnostic(d *diag.Diagnostic) (*diag.Diagnostic, bool, error) {
	if existing, ok := m.byHash[d.Hash]; ok {
		existing.Occurrences++
		return existing, false, nil
	}
	m.nextID++
	saved := *d
	saved.ID = m.nextID
	saved.Occurrences = 1
	m.byHash[d.Hash] = &saved
	return &saved, true, nil
}

// fakeAnalyzer writes an executable script that emits the given lines on
// stdout and exits with the given code.
func fakeAnalyzer(t *testing.T, exitCode int, lines ...string) string {
	t.Helper()
	script := "#!/bin/sh\n"
	for _, line := range lines {
		script += "printf '%s\\n' " + shellQuote(line) + "\n"
	}
	script += fmt.Sprintf("exit %d\n", exitCode)
	path := filepath.Join(t.TempDir(), "analyzer.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func shellQuote(s string) string {
	return "'" + s + "'"
}

func TestScanRecordsDiagnostics(t *testing.T) {
	t.Parallel()

	analyzer := fakeAnalyzer(t, 1,
		`{"file":"src/main.rs","line":10,"column":5,"code":"E0425","message":"cannot find value `+"`counter`"+` in this scope","severity":"error"}`,
		`{"file":"src/lib.rs","line":3,"column":1,"code":"E0432","message":"unresolved import `+"`crate::util`"+`","severity":"error"}`,
	)
	rec := newMemRecorder()
	s := New(rec)

	result, err := s.Scan(context.Background(), t.TempDir(), Options{Analyzer: analyzer})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.New)
	assert.Equal(t, 0, result.Existing)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 2, result.BySeverity[string(diag.SeverityHigh)])
	assert.Equal(t, 1, result.ByCategory[string(diag.CategoryUndefinedReference)])
	assert.Equal(t, 1, result.ByCategory[string(diag.CategoryImportError)])
	assert.Equal(t, 1, result.ByFile["src/main.rs"])
	assert.Equal(t, 2, result.ByLanguage["rust"])
	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, diag.StatusDetected, result.Diagnostics[0].Status)
}

func TestScanIsIdempotent(t *testing.T) {
	t.Parallel()

	line := `{"file":"app.ts","line":7,"column":2,"code":"TS2304","message":"cannot find name ` + "`config`" + `","severity":"error"}`
	analyzer := fakeAnalyzer(t, 0, line)
	rec := newMemRecorder()
	s := New(rec)
	root := t.TempDir()

	first, err := s.Scan(context.Background(), root, Options{Analyzer: analyzer})
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), root, Options{Analyzer: analyzer})
	require.NoError(t, err)

	assert.Equal(t, 1, first.New)
	assert.Equal(t, 0, second.New, "re-scan must not create duplicates")
	assert.Equal(t, 1, second.Existing)
	require.Len(t, rec.byHash, 1)
	for _, d := range rec.byHash {
		assert.Equal(t, 2, d.Occurrences)
	}
}

func TestScanSkipsMalformedLines(t *testing.T) {
	t.Parallel()

	analyzer := fakeAnalyzer(t, 0,
		`not json at all`,
		`{"file":"","line":0,"message":""}`,
		`{"file":"ok.py","line":1,"column":1,"code":"F821","message":"undefined name `+"`x`"+`","severity":"warning"}`,
	)
	rec := newMemRecorder()
	s := New(rec)

	result, err := s.Scan(context.Background(), t.TempDir(), Options{Analyzer: analyzer})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 1, result.Total)
}

func TestScanMissingAnalyzerFails(t *testing.T) {
	t.Parallel()

	s := New(newMemRecorder())
	_, err := s.Scan(context.Background(), t.TempDir(), Options{
		Analyzer: filepath.Join(t.TempDir(), "no-such-analyzer"),
	})
	require.ErrorIs(t, err, ErrAnalyzer)
}

func TestScanMissingProjectRootFails(t *testing.T) {
	t.Parallel()

	s := New(newMemRecorder())
	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "gone"), Options{Analyzer: "true"})
	require.ErrorIs(t, err, ErrProjectRoot)
}

func TestNormalizeSeverityAndCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      rawDiagnostic
		severity diag.Severity
		category diag.Category
	}{
		{
			name:     "rustc undefined value",
			raw:      rawDiagnostic{Code: "E0425", Message: "cannot find value `x`", Severity: "error"},
			severity: diag.SeverityHigh,
			category: diag.CategoryUndefinedReference,
		},
		{
			name:     "unresolved import by message",
			raw:      rawDiagnostic{Code: "X999", Message: "unresolved import `foo`", Severity: "fatal"},
			severity: diag.SeverityCritical,
			category: diag.CategoryImportError,
		},
		{
			name:     "type mismatch",
			raw:      rawDiagnostic{Code: "E0308", Message: "mismatched types", Severity: "warning"},
			severity: diag.SeverityMedium,
			category: diag.CategoryTypeMismatch,
		},
		{
			name:     "syntax error",
			raw:      rawDiagnostic{Code: "P001", Message: "syntax error: unexpected token", Severity: "hint"},
			severity: diag.SeverityLow,
			category: diag.CategorySyntax,
		},
		{
			name:     "unknown defaults",
			raw:      rawDiagnostic{Code: "Z1", Message: "something odd", Severity: "bizarre"},
			severity: diag.SeverityMedium,
			category: diag.CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.raw.File = "f.rs"
			tt.raw.Line = 1
			d := normalize(&tt.raw)
			assert.Equal(t, tt.severity, d.Severity)
			assert.Equal(t, tt.category, d.Category)
			assert.NotEmpty(t, d.Hash)
		})
	}
}
