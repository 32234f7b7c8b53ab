// Package report renders pipeline run summaries as JSON documents for
// machine consumption.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
	"github.com/fixpoint-dev/fixpoint/pkg/fsutil"
	"github.com/fixpoint-dev/fixpoint/pkg/pipeline"
)

// Report is the serialized shape of one pipeline run.
type Report struct {
	RunID    string    `json:"run_id"`
	Status   string    `json:"status"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	Scan     *ScanSection     `json:"scan,omitempty"`
	Graph    *GraphSection    `json:"graph,omitempty"`
	Clusters []ClusterSummary `json:"clusters,omitempty"`
	Fix      *FixSection      `json:"fix,omitempty"`
}

// ScanSection carries the scan-phase counts.
type ScanSection struct {
	Total      int            `json:"total"`
	New        int            `json:"new"`
	Existing   int            `json:"existing"`
	Skipped    int            `json:"skipped"`
	BySeverity map[string]int `json:"by_severity,omitempty"`
	ByCategory map[string]int `json:"by_category,omitempty"`
	ByFile     map[string]int `json:"by_file,omitempty"`
	ByLanguage map[string]int `json:"by_language,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// GraphSection carries the analysis-phase graph statistics.
type GraphSection struct {
	Diagnostics  int `json:"diagnostics"`
	Edges        int `json:"edges"`
	Roots        int `json:"roots"`
	CyclesBroken int `json:"cycles_broken"`
}

// ClusterSummary is one cluster in compact form.
type ClusterSummary struct {
	ID             int64  `json:"id"`
	Size           int    `json:"size"`
	Representative int64  `json:"representative"`
	Description    string `json:"description"`
	HasFix         bool   `json:"has_fix"`
}

// FixSection carries the fix-phase counts and per-attempt entries.
type FixSection struct {
	Status   string         `json:"status"`
	Attempts int            `json:"attempts"`
	Applied  int            `json:"applied"`
	Failed   int            `json:"failed"`
	Skipped  int            `json:"skipped"`
	Entries  []AttemptEntry `json:"entries,omitempty"`
}

// AttemptEntry is one fix attempt.
type AttemptEntry struct {
	DiagnosticID int64  `json:"diagnostic_id"`
	Method       string `json:"method"`
	Success      bool   `json:"success"`
	DryRun       bool   `json:"dry_run,omitempty"`
	BackupPath   string `json:"backup_path,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// FromSummary flattens a pipeline summary into its report shape.
func FromSummary(s *pipeline.Summary) *Report {
	r := &Report{
		RunID:    s.RunID,
		Status:   string(s.Status()),
		Started:  s.Started,
		Finished: s.Finished,
	}

	if s.Scan != nil {
		r.Scan = &ScanSection{
			Total:      s.Scan.Total,
			New:        s.Scan.New,
			Existing:   s.Scan.Existing,
			Skipped:    s.Scan.Skipped,
			BySeverity: s.Scan.BySeverity,
			ByCategory: s.Scan.ByCategory,
			ByFile:     s.Scan.ByFile,
			ByLanguage: s.Scan.ByLanguage,
			DurationMS: s.Scan.Duration.Milliseconds(),
		}
	}

	if s.Analyze != nil {
		r.Graph = &GraphSection{
			Diagnostics:  s.Analyze.Diagnostics,
			Edges:        s.Analyze.Edges,
			Roots:        s.Analyze.Roots,
			CyclesBroken: s.Analyze.CyclesBroken,
		}
		r.Clusters = clusterSummaries(s.Analyze.Clusters)
	}

	if s.Fix != nil {
		fix := &FixSection{
			Status:   string(s.Fix.Status),
			Attempts: s.Fix.Attempts,
			Applied:  s.Fix.Applied,
			Failed:   s.Fix.Failed,
			Skipped:  s.Fix.Skipped,
		}
		for _, o := range s.Fix.Outcomes {
			fix.Entries = append(fix.Entries, AttemptEntry{
				DiagnosticID: o.DiagnosticID,
				Method:       string(o.Method),
				Success:      o.Success,
				DryRun:       o.DryRun,
				BackupPath:   o.BackupPath,
				Reason:       o.FailureReason,
			})
		}
		r.Fix = fix
	}

	return r
}

func clusterSummaries(clusters []diag.Cluster) []ClusterSummary {
	out := make([]ClusterSummary, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, ClusterSummary{
			ID:             c.ID,
			Size:           len(c.DiagnosticIDs),
			Representative: c.RepresentativeID,
			Description:    c.Description,
			HasFix:         c.SuggestedFix != nil,
		})
	}
	return out
}

// Write serializes the report as indented JSON and writes it atomically.
func Write(ctx context.Context, path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteAtomic(ctx, path, data, fsutil.DefaultFileMode); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
