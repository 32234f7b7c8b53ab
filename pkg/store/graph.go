package store

import (
	"fmt"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// ReplaceEdges replaces the persisted dependency graph with the edges from
// the current analysis run. The swap happens in one transaction so readers
// never observe a half-written graph.
func (s *Store) ReplaceEdges(edges []diag.DependencyEdge) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace edges: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM dependency_edges`); err != nil {
		return fmt.Errorf("replace edges: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO dependency_edges (cause_id, effect_id, confidence) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("replace edges: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.Exec(e.CauseID, e.EffectID, e.Confidence); err != nil {
			return fmt.Errorf("replace edges: insert %d->%d: %w", e.CauseID, e.EffectID, err)
		}
	}

	return tx.Commit()
}

// ListEdges returns all persisted dependency edges ordered by (cause, effect).
func (s *Store) ListEdges() ([]diag.DependencyEdge, error) {
	rows, err := s.db.Query(`
		SELECT cause_id, effect_id, confidence FROM dependency_edges
		ORDER BY cause_id, effect_id`)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var out []diag.DependencyEdge
	for rows.Next() {
		var e diag.DependencyEdge
		if err := rows.Scan(&e.CauseID, &e.EffectID, &e.Confidence); err != nil {
			return nil, fmt.Errorf("list edges: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReplaceClusters replaces all persisted clusters with the given set and
// updates each member diagnostic's cluster link.
func (s *Store) ReplaceClusters(clusters []diag.Cluster) ([]diag.Cluster, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("replace clusters: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM cluster_members`,
		`DELETE FROM clusters`,
		`UPDATE diagnostics SET cluster_id = 0`,
	} {
		if _, err := tx.Exec(q); err != nil {
			return nil, fmt.Errorf("replace clusters: %w", err)
		}
	}

	saved := make([]diag.Cluster, 0, len(clusters))
	for _, c := range clusters {
		res, err := tx.Exec(`INSERT INTO clusters (representative_id, description) VALUES (?, ?)`,
			c.RepresentativeID, c.Description)
		if err != nil {
			return nil, fmt.Errorf("replace clusters: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("replace clusters: %w", err)
		}

		for _, diagID := range c.DiagnosticIDs {
			if _, err := tx.Exec(`INSERT INTO cluster_members (cluster_id, diagnostic_id) VALUES (?, ?)`,
				id, diagID); err != nil {
				return nil, fmt.Errorf("replace clusters: member %d: %w", diagID, err)
			}
			if _, err := tx.Exec(`UPDATE diagnostics SET cluster_id = ? WHERE id = ?`, id, diagID); err != nil {
				return nil, fmt.Errorf("replace clusters: link %d: %w", diagID, err)
			}
		}

		c.ID = id
		saved = append(saved, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("replace clusters: %w", err)
	}
	return saved, nil
}

// ListClusters returns all persisted clusters with their member ids.
func (s *Store) ListClusters() ([]diag.Cluster, error) {
	rows, err := s.db.Query(`SELECT id, representative_id, description FROM clusters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	var out []diag.Cluster
	for rows.Next() {
		var c diag.Cluster
		if err := rows.Scan(&c.ID, &c.RepresentativeID, &c.Description); err != nil {
			return nil, fmt.Errorf("list clusters: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}

	for i := range out {
		memberRows, err := s.db.Query(`
			SELECT diagnostic_id FROM cluster_members
			WHERE cluster_id = ? ORDER BY diagnostic_id`, out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list clusters: members of %d: %w", out[i].ID, err)
		}
		for memberRows.Next() {
			var id int64
			if err := memberRows.Scan(&id); err != nil {
				memberRows.Close()
				return nil, fmt.Errorf("list clusters: members of %d: %w", out[i].ID, err)
			}
			out[i].DiagnosticIDs = append(out[i].DiagnosticIDs, id)
		}
		if err := memberRows.Err(); err != nil {
			memberRows.Close()
			return nil, fmt.Errorf("list clusters: members of %d: %w", out[i].ID, err)
		}
		memberRows.Close()
	}

	return out, nil
}
