// Package apply mutates source files according to resolved fixes under
// backup, dry-run, and per-file locking discipline, and records every
// attempt in the fix history.
package apply

import (
	"context"
	"fmt"
	"time"

	"github.com/fixpoint-dev/fixpoint/internal/logging"
	"github.com/fixpoint-dev/fixpoint/pkg/diag"
	"github.com/fixpoint-dev/fixpoint/pkg/fsutil"
)

// Recorder is the slice of the store the applicator writes through.
type Recorder interface {
	SaveFix(*diag.Fix) (*diag.Fix, error)
	AppendHistory(*diag.FixHistory) error
	RecomputeSuccessRate(fixID int64) (float64, error)
	UpdateDiagnosticStatus(id int64, status diag.Status) error
}

// Options controls one fix application.
type Options struct {
	// DryRun computes and returns the projected content without writing.
	DryRun bool

	// CreateBackup copies the file aside before mutation.
	CreateBackup bool

	// ContextLines overrides the block-replacement window half-height.
	ContextLines int
}

// Outcome reports one attempt. A failed attempt is data, not an error:
// the diagnostic keeps its status and can be retried.
type Outcome struct {
	DiagnosticID int64
	Method       diag.Method

	// Success is true when the mutation was computed and, outside dry-run,
	// written to disk.
	Success bool

	// Written is true when the file content changed on disk.
	Written bool

	// DryRun mirrors the request option.
	DryRun bool

	// Projected holds the would-be file content in dry-run mode.
	Projected string

	// BackupPath is the created backup copy, empty when none was made.
	BackupPath string

	// BackupWarning carries a non-strict backup failure.
	BackupWarning string

	// FailureReason explains an unsuccessful attempt.
	FailureReason string

	// FixID is the persisted fix id, set after promotion.
	FixID int64
}

// Applicator applies fixes to files.
type Applicator struct {
	recorder Recorder
	root     string
	backup   fsutil.BackupConfig
	locks    *pathLocks
}

// New creates an applicator writing attempt records through recorder and
// backups according to cfg. Diagnostic file paths are resolved against
// root: analyzers report them relative to the scanned project, not the
// process working directory.
func New(recorder Recorder, root string, cfg fsutil.BackupConfig) *Applicator {
	return &Applicator{
		recorder: recorder,
		root:     root,
		backup:   cfg,
		locks:    newPathLocks(),
	}
}

// Apply executes one fix against the diagnostic's file.
//
// The per-file lock is held across the whole read-modify-backup-write
// sequence. Any failure during the sequence is recorded as a failed
// history entry and returned inside the Outcome; the error return is
// reserved for context cancellation and store failures.
func (a *Applicator) Apply(ctx context.Context, d *diag.Diagnostic, fix *diag.Fix, method diag.Method, opts Options) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("apply fix: %w", err)
	}

	target := fsutil.ResolvePath(a.root, d.File)

	release := a.locks.acquire(target)
	defer release()

	outcome := &Outcome{
		DiagnosticID: d.ID,
		Method:       method,
		DryRun:       opts.DryRun,
	}

	content, info, err := fsutil.ReadFile(ctx, target)
	if err != nil {
		return a.fail(outcome, fix, "", "", fmt.Sprintf("read target: %v", err))
	}

	m, err := computeMutation(string(content), d, fix, opts.ContextLines)
	if err != nil {
		return a.fail(outcome, fix, "", "", fmt.Sprintf("compute mutation: %v", err))
	}

	if opts.DryRun {
		outcome.Success = true
		outcome.Projected = m.content
		// Dry runs are recorded for audit but never marked successful in
		// history, so they cannot inflate a fix's success rate.
		if err := a.record(outcome, fix, m.before, m.after, false, "dry-run"); err != nil {
			return nil, err
		}
		return outcome, nil
	}

	if opts.CreateBackup {
		backupPath, err := fsutil.CreateBackup(ctx, target, a.backup)
		if err != nil {
			if a.backup.Strict {
				return a.fail(outcome, fix, m.before, m.after, fmt.Sprintf("backup: %v", err))
			}
			outcome.BackupWarning = err.Error()
			logging.FromContext(ctx).Warn("backup failed, proceeding",
				logging.FieldFile, d.File, logging.FieldError, err)
		}
		outcome.BackupPath = backupPath
	}

	if err := fsutil.WriteAtomic(ctx, target, []byte(m.content), info.Mode); err != nil {
		return a.fail(outcome, fix, m.before, m.after, fmt.Sprintf("write target: %v", err))
	}

	outcome.Success = true
	outcome.Written = true

	// First success promotes an ephemeral fix to a persisted one, linked to
	// the diagnostic's pattern so later diagnostics of the same shape
	// resolve through pattern history.
	persisted := fix
	if _, ok := fix.ID.Persisted(); !ok {
		if fix.PatternID == 0 {
			fix.PatternID = d.PatternID
		}
		persisted, err = a.recorder.SaveFix(fix)
		if err != nil {
			return nil, fmt.Errorf("promote fix: %w", err)
		}
	}
	if id, ok := persisted.ID.Persisted(); ok {
		outcome.FixID = id
	}

	if err := a.record(outcome, persisted, m.before, m.after, true, ""); err != nil {
		return nil, err
	}
	if outcome.FixID != 0 {
		if _, err := a.recorder.RecomputeSuccessRate(outcome.FixID); err != nil {
			return nil, fmt.Errorf("recompute success rate: %w", err)
		}
	}
	if err := a.recorder.UpdateDiagnosticStatus(d.ID, diag.StatusFixed); err != nil {
		return nil, fmt.Errorf("mark diagnostic fixed: %w", err)
	}

	return outcome, nil
}

// fail records a failed attempt and returns it as data.
func (a *Applicator) fail(outcome *Outcome, fix *diag.Fix, before, after, reason string) (*Outcome, error) {
	outcome.Success = false
	outcome.FailureReason = reason
	if err := a.record(outcome, fix, before, after, false, reason); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (a *Applicator) record(outcome *Outcome, fix *diag.Fix, before, after string, success bool, reason string) error {
	fixID := int64(0)
	if id, ok := fix.ID.Persisted(); ok {
		fixID = id
	}
	err := a.recorder.AppendHistory(&diag.FixHistory{
		DiagnosticID: outcome.DiagnosticID,
		FixID:        fixID,
		Method:       outcome.Method,
		Timestamp:    time.Now().UTC(),
		Success:      success,
		DryRun:       outcome.DryRun,
		Before:       before,
		After:        after,
		Reason:       reason,
	})
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}
