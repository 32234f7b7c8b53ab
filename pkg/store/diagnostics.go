package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

const diagnosticColumns = `id, file, line, col, code, message, category,
	severity, status, hash, first_seen, last_seen, occurrences, pattern_id, cluster_id`

// UpsertDiagnostic reconciles a scanned diagnostic against the store.
//
// A new hash is inserted with status detected and occurrence count 1. A hash
// already present on a non-terminal diagnostic has its occurrence count
// incremented and last_seen refreshed; position and message are updated in
// place since earlier fixes may have shifted line numbers. Terminal
// diagnostics never absorb new occurrences: a reappearing hash after a fix
// is a fresh detection.
//
// Returns the stored diagnostic and whether it was newly inserted.
func (s *Store) UpsertDiagnostic(d *diag.Diagnostic) (*diag.Diagnostic, bool, error) {
	existing, err := s.findActiveByHash(d.Hash)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()

	if existing != nil {
		_, err = s.db.Exec(`
			UPDATE diagnostics
			SET line = ?, col = ?, message = ?, last_seen = ?, occurrences = occurrences + 1
			WHERE id = ?`,
			d.Line, d.Column, d.Message, now, existing.ID)
		if err != nil {
			return nil, false, fmt.Errorf("update diagnostic %d: %w", existing.ID, err)
		}
		updated, err := s.GetDiagnostic(existing.ID)
		return updated, false, err
	}

	res, err := s.db.Exec(`
		INSERT INTO diagnostics (file, line, col, code, message, category,
			severity, status, hash, first_seen, last_seen, occurrences)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		d.File, d.Line, d.Column, d.Code, d.Message, d.Category,
		d.Severity, diag.StatusDetected, d.Hash, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("insert diagnostic: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("insert diagnostic id: %w", err)
	}

	stored, err := s.GetDiagnostic(id)
	return stored, true, err
}

func (s *Store) findActiveByHash(hash string) (*diag.Diagnostic, error) {
	row := s.db.QueryRow(`
		SELECT `+diagnosticColumns+` FROM diagnostics
		WHERE hash = ? AND status NOT IN (?, ?)`,
		hash, diag.StatusFixed, diag.StatusIgnored)
	return scanDiagnostic(row)
}

// GetDiagnostic returns the diagnostic with the given id.
func (s *Store) GetDiagnostic(id int64) (*diag.Diagnostic, error) {
	row := s.db.QueryRow(`SELECT `+diagnosticColumns+` FROM diagnostics WHERE id = ?`, id)
	return scanDiagnostic(row)
}

// UpdateDiagnosticStatus transitions a diagnostic to the given status.
func (s *Store) UpdateDiagnosticStatus(id int64, status diag.Status) error {
	res, err := s.db.Exec(`UPDATE diagnostics SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update status of diagnostic %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status of diagnostic %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("diagnostic %d: %w", id, ErrNotFound)
	}
	return nil
}

// LinkDiagnosticPattern associates a diagnostic with a pattern.
func (s *Store) LinkDiagnosticPattern(diagnosticID, patternID int64) error {
	_, err := s.db.Exec(`UPDATE diagnostics SET pattern_id = ? WHERE id = ?`, patternID, diagnosticID)
	if err != nil {
		return fmt.Errorf("link diagnostic %d to pattern %d: %w", diagnosticID, patternID, err)
	}
	return nil
}

// DiagnosticFilter narrows ListDiagnostics results. Zero values match all.
type DiagnosticFilter struct {
	Status   diag.Status
	Code     string
	Severity diag.Severity
	File     string

	// Active selects only non-terminal diagnostics when true.
	Active bool

	// Limit and Offset paginate; Limit <= 0 returns everything.
	Limit  int
	Offset int
}

// ListDiagnostics returns diagnostics matching the filter, ordered by id.
func (s *Store) ListDiagnostics(f DiagnosticFilter) ([]*diag.Diagnostic, error) {
	var conds []string
	var args []any

	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Active {
		conds = append(conds, "status NOT IN (?, ?)")
		args = append(args, diag.StatusFixed, diag.StatusIgnored)
	}
	if f.Code != "" {
		conds = append(conds, "code = ?")
		args = append(args, f.Code)
	}
	if f.Severity != "" {
		conds = append(conds, "severity = ?")
		args = append(args, f.Severity)
	}
	if f.File != "" {
		conds = append(conds, "file = ?")
		args = append(args, f.File)
	}

	query := `SELECT ` + diagnosticColumns + ` FROM diagnostics`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()

	var out []*diag.Diagnostic
	for rows.Next() {
		d, err := scanDiagnosticRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiagnostic(row *sql.Row) (*diag.Diagnostic, error) {
	d, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func scanDiagnosticRows(rows *sql.Rows) (*diag.Diagnostic, error) {
	return scanInto(rows)
}

func scanInto(r rowScanner) (*diag.Diagnostic, error) {
	var d diag.Diagnostic
	err := r.Scan(&d.ID, &d.File, &d.Line, &d.Column, &d.Code, &d.Message,
		&d.Category, &d.Severity, &d.Status, &d.Hash,
		&d.FirstSeen, &d.LastSeen, &d.Occurrences, &d.PatternID, &d.ClusterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan diagnostic: %w", err)
	}
	return &d, nil
}
