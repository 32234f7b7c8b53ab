// Package pipeline orchestrates the scan, analyze, and fix phases over the
// persistent diagnostic store.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fixpoint-dev/fixpoint/internal/logging"
	"github.com/fixpoint-dev/fixpoint/pkg/cluster"
	"github.com/fixpoint-dev/fixpoint/pkg/diag"
	"github.com/fixpoint-dev/fixpoint/pkg/fsutil"
	"github.com/fixpoint-dev/fixpoint/pkg/graph"
	"github.com/fixpoint-dev/fixpoint/pkg/oracle"
	"github.com/fixpoint-dev/fixpoint/pkg/resolve"
	"github.com/fixpoint-dev/fixpoint/pkg/scan"
	"github.com/fixpoint-dev/fixpoint/pkg/store"
)

// RunStatus is the terminal state of a phase run.
type RunStatus string

const (
	// RunCompleted means the phase ran to the end of its work list.
	RunCompleted RunStatus = "completed"

	// RunCircuitBroken means the fix phase halted itself after a window of
	// consecutive failures. Not an error: the run's partial results stand.
	RunCircuitBroken RunStatus = "circuit-broken"

	// RunAborted means the run stopped on a fatal error or cancellation.
	RunAborted RunStatus = "aborted"
)

// DefaultWorkers bounds fix-phase parallelism across files.
const DefaultWorkers = 4

// Config carries everything one pipeline run needs.
type Config struct {
	ProjectRoot  string
	Analyzer     string
	AnalyzerArgs []string

	// MaxFixes caps attempts per fix phase, <= 0 means unlimited.
	MaxFixes int

	DryRun bool

	// Backup configures pre-mutation file copies.
	Backup fsutil.BackupConfig

	// FailureWindow sizes the circuit breaker, <= 0 uses the default.
	FailureWindow int

	// Workers bounds fix-phase parallelism, <= 0 uses DefaultWorkers.
	Workers int

	// Advisor consults the advisory oracle, nil disables it.
	Advisor oracle.Advisor
}

// Pipeline wires the phase engines to one store.
type Pipeline struct {
	store *store.Store
	cfg   Config
	runID string
}

// New creates a pipeline. The run id is minted here so all phases of one
// Run share it in logs and reports.
func New(st *store.Store, cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Pipeline{
		store: st,
		cfg:   cfg,
		runID: uuid.NewString(),
	}
}

// RunID returns the identifier shared by all phases of this pipeline.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Summary aggregates the phase results of a full run.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Scan     *scan.Result
	Analyze  *AnalyzeResult
	Fix      *FixResult
}

// Status reports the overall run status: the fix phase dominates, a full
// run without a fix phase is completed.
func (s *Summary) Status() RunStatus {
	if s.Fix != nil {
		return s.Fix.Status
	}
	return RunCompleted
}

// Run executes scan, analyze, and fix in sequence.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: p.runID, Started: time.Now().UTC()}
	log := logging.FromContext(ctx).With(logging.FieldRunID, p.runID)
	ctx = logging.WithLogger(ctx, log)

	scanResult, err := p.RunScan(ctx)
	if err != nil {
		return nil, err
	}
	summary.Scan = scanResult

	analyzeResult, err := p.RunAnalyze(ctx)
	if err != nil {
		return nil, err
	}
	summary.Analyze = analyzeResult

	fixResult, err := p.RunFix(ctx)
	if err != nil {
		return nil, err
	}
	summary.Fix = fixResult

	summary.Finished = time.Now().UTC()
	return summary, nil
}

// RunScan runs the analyzer and reconciles findings into the store.
func (p *Pipeline) RunScan(ctx context.Context) (*scan.Result, error) {
	log := logging.FromContext(ctx).With(logging.FieldPhase, "scan")
	ctx = logging.WithLogger(ctx, log)

	scanner := scan.New(p.store)
	result, err := scanner.Scan(ctx, p.cfg.ProjectRoot, scan.Options{
		Analyzer: p.cfg.Analyzer,
		Args:     p.cfg.AnalyzerArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("scan phase: %w", err)
	}
	return result, nil
}

// AnalyzeResult summarizes one analysis phase.
type AnalyzeResult struct {
	Diagnostics  int
	Edges        int
	Roots        int
	CyclesBroken int
	Clusters     []diag.Cluster
	FixAvailable int

	// Order is the computed topological fix order.
	Order []int64
}

// RunAnalyze builds the dependency graph and clusters over all active
// diagnostics and persists both.
func (p *Pipeline) RunAnalyze(ctx context.Context) (*AnalyzeResult, error) {
	log := logging.FromContext(ctx).With(logging.FieldPhase, "analyze")
	ctx = logging.WithLogger(ctx, log)

	diags, err := p.store.ListDiagnostics(store.DiagnosticFilter{Active: true})
	if err != nil {
		return nil, fmt.Errorf("analyze phase: %w", err)
	}

	for _, d := range diags {
		if d.Status == diag.StatusDetected {
			if err := p.store.UpdateDiagnosticStatus(d.ID, diag.StatusAnalyzing); err != nil {
				return nil, fmt.Errorf("analyze phase: %w", err)
			}
			d.Status = diag.StatusAnalyzing
		}
	}

	g := graph.Build(diags)
	if err := p.store.ReplaceEdges(g.Edges()); err != nil {
		return nil, fmt.Errorf("analyze phase: %w", err)
	}

	resolver := resolve.New(p.store, p.advise(ctx, diagnosticIDs(diags)))

	clusters := cluster.Partition(diags, g)

	// Each cluster shape becomes a pattern and its members are linked to
	// it, so fixes promoted on one member rank through pattern history for
	// the next diagnostic of the same shape.
	byID := make(map[int64]*diag.Diagnostic, len(diags))
	for _, d := range diags {
		byID[d.ID] = d
	}
	for i := range clusters {
		rep := byID[clusters[i].RepresentativeID]
		if rep == nil {
			continue
		}
		pattern, err := p.store.SavePattern(&diag.Pattern{
			Code:     rep.Code,
			Template: diag.Skeleton(rep.Message),
		})
		if err != nil {
			return nil, fmt.Errorf("analyze phase: %w", err)
		}
		for _, memberID := range clusters[i].DiagnosticIDs {
			member := byID[memberID]
			if member == nil || member.PatternID == pattern.ID {
				continue
			}
			if err := p.store.LinkDiagnosticPattern(memberID, pattern.ID); err != nil {
				return nil, fmt.Errorf("analyze phase: %w", err)
			}
			member.PatternID = pattern.ID
		}
	}

	for i := range clusters {
		rep := g.Diagnostic(clusters[i].RepresentativeID)
		if rep == nil {
			continue
		}
		if fix, _, ok := resolver.FindBestFix(rep); ok {
			clusters[i].SuggestedFix = fix
		}
	}
	clusters, err = p.store.ReplaceClusters(clusters)
	if err != nil {
		return nil, fmt.Errorf("analyze phase: %w", err)
	}

	fixAvailable := 0
	for _, d := range diags {
		if _, _, ok := resolver.FindBestFix(d); !ok {
			continue
		}
		if err := p.store.UpdateDiagnosticStatus(d.ID, diag.StatusFixAvailable); err != nil {
			return nil, fmt.Errorf("analyze phase: %w", err)
		}
		d.Status = diag.StatusFixAvailable
		fixAvailable++
	}

	result := &AnalyzeResult{
		Diagnostics:  len(diags),
		Edges:        g.EdgeCount(),
		Roots:        len(g.Roots()),
		CyclesBroken: g.CyclesBroken(),
		Clusters:     clusters,
		FixAvailable: fixAvailable,
		Order:        g.TopologicalOrder(),
	}
	log.Info("analysis complete",
		logging.FieldEdges, result.Edges,
		logging.FieldRoots, result.Roots,
		logging.FieldCyclesBroken, result.CyclesBroken,
		logging.FieldClusters, len(result.Clusters),
	)
	return result, nil
}

// advise consults the advisory oracle. All failures degrade to no
// suggestions; the oracle is never allowed to fail a run.
func (p *Pipeline) advise(ctx context.Context, ids []int64) []oracle.Suggestion {
	if p.cfg.Advisor == nil || len(ids) == 0 {
		return nil
	}
	suggestions, err := p.cfg.Advisor.BatchAnalyze(ctx, ids, oracle.Options{IncludeContext: true})
	if err != nil {
		logging.FromContext(ctx).Warn("advisory oracle unavailable", logging.FieldError, err)
		return nil
	}
	return suggestions
}

func diagnosticIDs(diags []*diag.Diagnostic) []int64 {
	ids := make([]int64, len(diags))
	for i, d := range diags {
		ids[i] = d.ID
	}
	return ids
}
