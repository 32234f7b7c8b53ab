package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fixpoint-dev/fixpoint/internal/logging"
	"github.com/fixpoint-dev/fixpoint/pkg/apply"
	"github.com/fixpoint-dev/fixpoint/pkg/fsutil"
	"github.com/fixpoint-dev/fixpoint/pkg/graph"
	"github.com/fixpoint-dev/fixpoint/pkg/resolve"
	"github.com/fixpoint-dev/fixpoint/pkg/store"
)

// errCircuitBroken aborts in-flight workers when the breaker trips. It is
// translated into RunCircuitBroken, never surfaced to callers.
var errCircuitBroken = errors.New("circuit breaker tripped")

// FixResult summarizes one fix phase.
type FixResult struct {
	Status   RunStatus
	Attempts int
	Applied  int
	Failed   int
	Skipped  int
	Outcomes []*apply.Outcome
}

// RunFix resolves and applies fixes over all active diagnostics in
// topological order.
//
// Diagnostics of different files run in parallel up to the configured
// worker bound; the applicator's per-file locks serialize same-file work.
// After a file has been mutated, its remaining diagnostics this run are
// skipped since their recorded line numbers may have shifted. The circuit
// breaker halts the phase when a full window of consecutive attempts
// failed; a halted run reports RunCircuitBroken and keeps its partial
// results. The breaker is checked at dispatch, so with parallel workers up
// to Workers-1 attempts already in flight when the window fills may still
// complete before the halt; at Workers 1 the halt lands after exactly the
// window's worth of failures.
func (p *Pipeline) RunFix(ctx context.Context) (*FixResult, error) {
	log := logging.FromContext(ctx).With(logging.FieldPhase, "fix")
	ctx = logging.WithLogger(ctx, log)

	diags, err := p.store.ListDiagnostics(store.DiagnosticFilter{Active: true})
	if err != nil {
		return nil, fmt.Errorf("fix phase: %w", err)
	}

	g := graph.Build(diags)
	order := g.TopologicalOrder()
	resolver := resolve.New(p.store, p.advise(ctx, diagnosticIDs(diags)))
	applicator := apply.New(p.store, p.cfg.ProjectRoot, p.cfg.Backup)
	brk := newBreaker(p.cfg.FailureWindow)

	result := &FixResult{Status: RunCompleted}
	var (
		mu           sync.Mutex
		mutatedFiles sync.Map
	)

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(p.cfg.Workers)

	dispatched := 0
	for _, id := range order {
		// Cancellation and breaker state are checked between diagnostics,
		// never mid-mutation.
		if grpCtx.Err() != nil || brk.isTripped() {
			break
		}
		if p.cfg.MaxFixes > 0 && dispatched >= p.cfg.MaxFixes {
			break
		}

		d := g.Diagnostic(id)
		target := fsutil.ResolvePath(p.cfg.ProjectRoot, d.File)
		if _, mutated := mutatedFiles.Load(target); mutated {
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			continue
		}

		fix, method, ok := resolver.FindBestFix(d)
		if !ok {
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			continue
		}

		dispatched++
		grp.Go(func() error {
			if brk.isTripped() {
				mu.Lock()
				result.Attempts--
				result.Skipped++
				mu.Unlock()
				return nil
			}
			if _, mutated := mutatedFiles.Load(target); mutated {
				mu.Lock()
				result.Attempts--
				result.Skipped++
				mu.Unlock()
				return nil
			}

			outcome, err := applicator.Apply(grpCtx, d, fix, method, apply.Options{
				DryRun:       p.cfg.DryRun,
				CreateBackup: p.cfg.Backup.Enabled,
			})
			if err != nil {
				return err
			}
			if outcome.Written {
				mutatedFiles.Store(target, struct{}{})
			}

			mu.Lock()
			result.Outcomes = append(result.Outcomes, outcome)
			if outcome.Success {
				result.Applied++
			} else {
				result.Failed++
			}
			mu.Unlock()

			log.Debug("fix attempt",
				logging.FieldDiagnosticID, d.ID,
				logging.FieldMethod, string(method),
				logging.FieldDryRun, outcome.DryRun,
				logging.FieldApplied, outcome.Success,
			)

			if brk.record(outcome.Success) {
				return errCircuitBroken
			}
			return nil
		})
		mu.Lock()
		result.Attempts++
		mu.Unlock()
	}

	if err := grp.Wait(); err != nil {
		if errors.Is(err, errCircuitBroken) {
			result.Status = RunCircuitBroken
			log.Warn("fix phase halted by circuit breaker",
				logging.FieldAttempts, result.Attempts,
				logging.FieldFailed, result.Failed,
			)
			return result, nil
		}
		return nil, fmt.Errorf("fix phase: %w", err)
	}
	if brk.isTripped() {
		result.Status = RunCircuitBroken
	}

	log.Info("fix phase complete",
		logging.FieldAttempts, result.Attempts,
		logging.FieldApplied, result.Applied,
		logging.FieldFailed, result.Failed,
		"skipped", result.Skipped,
	)
	return result, nil
}
