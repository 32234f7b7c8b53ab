package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// SavePattern inserts a pattern, or returns the existing one with the same
// code and template.
func (s *Store) SavePattern(p *diag.Pattern) (*diag.Pattern, error) {
	res, err := s.db.Exec(`
		INSERT INTO patterns (code, template) VALUES (?, ?)
		ON CONFLICT(code, template) DO NOTHING`,
		p.Code, p.Template)
	if err != nil {
		return nil, fmt.Errorf("save pattern: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("save pattern id: %w", err)
		}
		return &diag.Pattern{ID: id, Code: p.Code, Template: p.Template}, nil
	}

	return s.findPattern(p.Code, p.Template)
}

func (s *Store) findPattern(code, template string) (*diag.Pattern, error) {
	var p diag.Pattern
	err := s.db.QueryRow(`SELECT id, code, template FROM patterns WHERE code = ? AND template = ?`,
		code, template).Scan(&p.ID, &p.Code, &p.Template)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find pattern: %w", err)
	}
	return &p, nil
}

// GetPattern returns the pattern with the given id, including linked fix ids.
func (s *Store) GetPattern(id int64) (*diag.Pattern, error) {
	var p diag.Pattern
	err := s.db.QueryRow(`SELECT id, code, template FROM patterns WHERE id = ?`, id).
		Scan(&p.ID, &p.Code, &p.Template)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pattern %d: %w", id, err)
	}

	rows, err := s.db.Query(`SELECT id FROM fixes WHERE pattern_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get pattern %d fixes: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var fixID int64
		if err := rows.Scan(&fixID); err != nil {
			return nil, fmt.Errorf("get pattern %d fixes: %w", id, err)
		}
		p.FixIDs = append(p.FixIDs, fixID)
	}
	return &p, rows.Err()
}

// SaveFix persists a fix. An ephemeral fix is inserted and returned with a
// persisted identity; a persisted fix is updated in place.
func (s *Store) SaveFix(f *diag.Fix) (*diag.Fix, error) {
	if id, ok := f.ID.Persisted(); ok {
		_, err := s.db.Exec(`
			UPDATE fixes SET title = ?, description = ?, kind = ?, content = ?,
				priority = ?, success_rate = ?, pattern_id = ?
			WHERE id = ?`,
			f.Title, f.Description, f.Kind, f.Content,
			f.Priority, f.SuccessRate, f.PatternID, id)
		if err != nil {
			return nil, fmt.Errorf("update fix %d: %w", id, err)
		}
		return f, nil
	}

	res, err := s.db.Exec(`
		INSERT INTO fixes (title, description, kind, content, priority, success_rate, pattern_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Title, f.Description, f.Kind, f.Content, f.Priority, f.SuccessRate, f.PatternID)
	if err != nil {
		return nil, fmt.Errorf("insert fix: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert fix id: %w", err)
	}

	saved := *f
	saved.ID = diag.PersistedFixID(id)
	return &saved, nil
}

// GetFix returns the fix with the given id.
func (s *Store) GetFix(id int64) (*diag.Fix, error) {
	var f diag.Fix
	var rawID int64
	err := s.db.QueryRow(`
		SELECT id, title, description, kind, content, priority, success_rate, pattern_id
		FROM fixes WHERE id = ?`, id).
		Scan(&rawID, &f.Title, &f.Description, &f.Kind, &f.Content,
			&f.Priority, &f.SuccessRate, &f.PatternID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fix %d: %w", id, err)
	}
	f.ID = diag.PersistedFixID(rawID)
	return &f, nil
}

// FixesForPattern returns the fixes linked to a pattern, best first:
// highest success rate, ties broken by priority, then id for determinism.
func (s *Store) FixesForPattern(patternID int64) ([]*diag.Fix, error) {
	rows, err := s.db.Query(`
		SELECT id, title, description, kind, content, priority, success_rate, pattern_id
		FROM fixes WHERE pattern_id = ?
		ORDER BY success_rate DESC, priority DESC, id`, patternID)
	if err != nil {
		return nil, fmt.Errorf("fixes for pattern %d: %w", patternID, err)
	}
	defer rows.Close()

	var out []*diag.Fix
	for rows.Next() {
		var f diag.Fix
		var rawID int64
		if err := rows.Scan(&rawID, &f.Title, &f.Description, &f.Kind, &f.Content,
			&f.Priority, &f.SuccessRate, &f.PatternID); err != nil {
			return nil, fmt.Errorf("fixes for pattern %d: %w", patternID, err)
		}
		f.ID = diag.PersistedFixID(rawID)
		out = append(out, &f)
	}
	return out, rows.Err()
}

// AppendHistory records one fix application attempt.
func (s *Store) AppendHistory(h *diag.FixHistory) error {
	_, err := s.db.Exec(`
		INSERT INTO fix_history (diagnostic_id, fix_id, method, timestamp, success,
			dry_run, before_text, after_text, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.DiagnosticID, h.FixID, h.Method, h.Timestamp, h.Success,
		h.DryRun, h.Before, h.After, h.Reason)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// HistoryForDiagnostic returns all attempts for a diagnostic, oldest first.
func (s *Store) HistoryForDiagnostic(diagnosticID int64) ([]*diag.FixHistory, error) {
	rows, err := s.db.Query(`
		SELECT id, diagnostic_id, fix_id, method, timestamp, success,
			dry_run, before_text, after_text, reason
		FROM fix_history WHERE diagnostic_id = ? ORDER BY id`, diagnosticID)
	if err != nil {
		return nil, fmt.Errorf("history for diagnostic %d: %w", diagnosticID, err)
	}
	defer rows.Close()

	var out []*diag.FixHistory
	for rows.Next() {
		var h diag.FixHistory
		if err := rows.Scan(&h.ID, &h.DiagnosticID, &h.FixID, &h.Method, &h.Timestamp,
			&h.Success, &h.DryRun, &h.Before, &h.After, &h.Reason); err != nil {
			return nil, fmt.Errorf("history for diagnostic %d: %w", diagnosticID, err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

// RecomputeSuccessRate recalculates a fix's rolling success rate from its
// history and stores the result. Dry-run previews are excluded: they never
// wrote anything, so they say nothing about whether the fix works.
func (s *Store) RecomputeSuccessRate(fixID int64) (float64, error) {
	var attempts, successes int
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(success), 0)
		FROM fix_history WHERE fix_id = ? AND dry_run = 0`, fixID).Scan(&attempts, &successes)
	if err != nil {
		return 0, fmt.Errorf("recompute success rate of fix %d: %w", fixID, err)
	}

	rate := 0.0
	if attempts > 0 {
		rate = float64(successes) / float64(attempts)
	}

	if _, err := s.db.Exec(`UPDATE fixes SET success_rate = ? WHERE id = ?`, rate, fixID); err != nil {
		return 0, fmt.Errorf("recompute success rate of fix %d: %w", fixID, err)
	}
	return rate, nil
}
