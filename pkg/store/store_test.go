package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
	"github.com/fixpoint-dev/fixpoint/pkg/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestDiagnostic(file, code, message string, line int) *diag.Diagnostic {
	return &diag.Diagnostic{
		File:     file,
		Line:     line,
		Column:   1,
		Code:     code,
		Message:  message,
		Category: diag.CategoryMissingDeclaration,
		Severity: diag.SeverityHigh,
		Hash:     diag.ContentHash(file, code, message),
	}
}

func TestUpsertDiagnosticInsertsNew(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	d, created, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `x`", 10))
	require.NoError(t, err)

	assert.True(t, created)
	assert.Positive(t, d.ID)
	assert.Equal(t, diag.StatusDetected, d.Status)
	assert.Equal(t, 1, d.Occurrences)
	assert.False(t, d.FirstSeen.IsZero())
}

func TestUpsertDiagnosticIncrementsOccurrences(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	first, created, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `x`", 10))
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `x`", 10))
	require.NoError(t, err)

	assert.False(t, created, "same hash must not create a duplicate")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Occurrences)
	assert.False(t, second.LastSeen.Before(first.LastSeen))
}

func TestUpsertDiagnosticTracksShiftedLine(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	first, created, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `x`", 10))
	require.NoError(t, err)
	require.True(t, created)

	// An earlier fix in the file shifted the diagnostic down one line. The
	// hash excludes positions, so the re-scan must update the existing
	// record in place rather than insert a duplicate.
	second, created, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `x`", 11))
	require.NoError(t, err)

	assert.False(t, created, "a shifted line must not create a duplicate")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 11, second.Line)
	assert.Equal(t, 2, second.Occurrences)
}

func TestUpsertDiagnosticIgnoresTerminal(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	d, _, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `x`", 10))
	require.NoError(t, err)
	require.NoError(t, s.UpdateDiagnosticStatus(d.ID, diag.StatusFixed))

	// A reappearing hash after a fix is a fresh detection, not a revival.
	revived, created, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `x`", 10))
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEqual(t, d.ID, revived.ID)
}

func TestUpdateDiagnosticStatusUnknownID(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	err := s.UpdateDiagnosticStatus(9999, diag.StatusFixed)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListDiagnosticsFilters(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	d1, _, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `x`", 10))
	require.NoError(t, err)
	_, _, err = s.UpsertDiagnostic(newTestDiagnostic("b.rs", "E0308", "mismatched types", 5))
	require.NoError(t, err)

	byFile, err := s.ListDiagnostics(store.DiagnosticFilter{File: "a.rs"})
	require.NoError(t, err)
	require.Len(t, byFile, 1)
	assert.Equal(t, d1.ID, byFile[0].ID)

	byCode, err := s.ListDiagnostics(store.DiagnosticFilter{Code: "E0308"})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "b.rs", byCode[0].File)

	require.NoError(t, s.UpdateDiagnosticStatus(d1.ID, diag.StatusIgnored))
	active, err := s.ListDiagnostics(store.DiagnosticFilter{Active: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b.rs", active[0].File)
}

func TestListDiagnosticsPagination(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	for i := range 5 {
		_, _, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "m", 10+i))
		require.NoError(t, err)
	}

	page, err := s.ListDiagnostics(store.DiagnosticFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 12, page[0].Line)
	assert.Equal(t, 13, page[1].Line)
}

func TestSaveFixPromotesEphemeral(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	saved, err := s.SaveFix(&diag.Fix{
		ID:      diag.EphemeralFixID(),
		Title:   "add type annotation",
		Kind:    diag.FixKindLineReplacement,
		Content: "let x: i32 = 0;",
	})
	require.NoError(t, err)

	id, ok := saved.ID.Persisted()
	require.True(t, ok, "saved fix must carry a persisted identity")

	loaded, err := s.GetFix(id)
	require.NoError(t, err)
	assert.Equal(t, "add type annotation", loaded.Title)
}

func TestRecomputeSuccessRate(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	saved, err := s.SaveFix(&diag.Fix{ID: diag.EphemeralFixID(), Title: "t", Kind: diag.FixKindDeletion})
	require.NoError(t, err)
	fixID, _ := saved.ID.Persisted()

	for _, success := range []bool{true, true, false, true} {
		require.NoError(t, s.AppendHistory(&diag.FixHistory{
			DiagnosticID: 1,
			FixID:        fixID,
			Method:       diag.MethodPattern,
			Timestamp:    time.Now().UTC(),
			Success:      success,
		}))
	}

	rate, err := s.RecomputeSuccessRate(fixID)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, rate, 1e-9)

	loaded, err := s.GetFix(fixID)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, loaded.SuccessRate, 1e-9)
}

func TestRecomputeSuccessRateExcludesDryRuns(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	saved, err := s.SaveFix(&diag.Fix{ID: diag.EphemeralFixID(), Title: "t", Kind: diag.FixKindDeletion})
	require.NoError(t, err)
	fixID, _ := saved.ID.Persisted()

	require.NoError(t, s.AppendHistory(&diag.FixHistory{
		DiagnosticID: 1,
		FixID:        fixID,
		Method:       diag.MethodPattern,
		Timestamp:    time.Now().UTC(),
		Success:      true,
	}))

	// A dry-run preview of the same fix is recorded as an unsuccessful
	// entry; it must not drag the rate down.
	require.NoError(t, s.AppendHistory(&diag.FixHistory{
		DiagnosticID: 2,
		FixID:        fixID,
		Method:       diag.MethodPattern,
		Timestamp:    time.Now().UTC(),
		Success:      false,
		DryRun:       true,
		Reason:       "dry-run",
	}))

	rate, err := s.RecomputeSuccessRate(fixID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rate, 1e-9)
}

func TestFixesForPatternOrdering(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	p, err := s.SavePattern(&diag.Pattern{Code: "E0425", Template: "cannot find value <ident>"})
	require.NoError(t, err)

	mk := func(title string, rate float64, priority int) {
		_, err := s.SaveFix(&diag.Fix{
			ID: diag.EphemeralFixID(), Title: title, Kind: diag.FixKindLineReplacement,
			SuccessRate: rate, Priority: priority, PatternID: p.ID,
		})
		require.NoError(t, err)
	}
	mk("low", 0.2, 9)
	mk("high", 0.9, 0)
	mk("tied-low-priority", 0.9, -1)

	fixes, err := s.FixesForPattern(p.ID)
	require.NoError(t, err)
	require.Len(t, fixes, 3)
	assert.Equal(t, "high", fixes[0].Title)
	assert.Equal(t, "tied-low-priority", fixes[1].Title)
	assert.Equal(t, "low", fixes[2].Title)
}

func TestSavePatternIdempotent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	p1, err := s.SavePattern(&diag.Pattern{Code: "E0425", Template: "cannot find value <ident>"})
	require.NoError(t, err)
	p2, err := s.SavePattern(&diag.Pattern{Code: "E0425", Template: "cannot find value <ident>"})
	require.NoError(t, err)

	assert.Equal(t, p1.ID, p2.ID)
}

func TestReplaceEdgesAndList(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	edges := []diag.DependencyEdge{
		{CauseID: 1, EffectID: 2, Confidence: 0.9},
		{CauseID: 1, EffectID: 3, Confidence: 0.4},
	}
	require.NoError(t, s.ReplaceEdges(edges))

	got, err := s.ListEdges()
	require.NoError(t, err)
	assert.Equal(t, edges, got)

	// A later run replaces, never appends.
	require.NoError(t, s.ReplaceEdges(edges[:1]))
	got, err = s.ListEdges()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReplaceClustersLinksDiagnostics(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	d1, _, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `x`", 10))
	require.NoError(t, err)
	d2, _, err := s.UpsertDiagnostic(newTestDiagnostic("a.rs", "E0425", "cannot find value `y`", 20))
	require.NoError(t, err)

	saved, err := s.ReplaceClusters([]diag.Cluster{{
		DiagnosticIDs:    []int64{d1.ID, d2.ID},
		RepresentativeID: d1.ID,
		Description:      "cannot find value <ident>",
	}})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Positive(t, saved[0].ID)

	reloaded, err := s.GetDiagnostic(d2.ID)
	require.NoError(t, err)
	assert.Equal(t, saved[0].ID, reloaded.ClusterID)

	listed, err := s.ListClusters()
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, []int64{d1.ID, d2.ID}, listed[0].DiagnosticIDs)
}
