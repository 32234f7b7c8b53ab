package logging

// Field names shared across the pipeline's structured log output.
const (
	// Common fields.
	FieldError       = "error"
	FieldPath        = "path"
	FieldFile        = "file"
	FieldProjectRoot = "project_root"
	FieldRunID       = "run_id"
	FieldPhase       = "phase"
	FieldDuration    = "duration"

	// Diagnostic fields.
	FieldDiagnosticID = "diagnostic_id"
	FieldCode         = "code"
	FieldSeverity     = "severity"
	FieldCategory     = "category"
	FieldStatus       = "status"
	FieldLine         = "line"

	// Scan fields.
	FieldAnalyzer        = "analyzer"
	FieldDiagnosticsNew  = "diagnostics_new"
	FieldDiagnosticsSeen = "diagnostics_seen"
	FieldLinesSkipped    = "lines_skipped"

	// Graph and cluster fields.
	FieldEdges        = "edges"
	FieldRoots        = "roots"
	FieldCyclesBroken = "cycles_broken"
	FieldClusters     = "clusters"

	// Fix fields.
	FieldFixID      = "fix_id"
	FieldFixKind    = "fix_kind"
	FieldMethod     = "method"
	FieldDryRun     = "dry_run"
	FieldBackupPath = "backup_path"
	FieldAttempts   = "attempts"
	FieldApplied    = "applied"
	FieldFailed     = "failed"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
