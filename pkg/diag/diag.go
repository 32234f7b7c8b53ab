// Package diag defines the core entities of the remediation pipeline:
// diagnostics, fix candidates, fix history, dependency edges, and clusters.
package diag

import "time"

// Severity indicates how urgent a diagnostic is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns a sortable weight for the severity, lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Rank() < 4
}

// Category classifies a diagnostic by the shape of the underlying problem.
type Category string

const (
	CategoryTypeMismatch       Category = "type-mismatch"
	CategoryMissingDeclaration Category = "missing-declaration"
	CategoryImportError        Category = "import-error"
	CategoryUndefinedReference Category = "undefined-reference"
	CategorySyntax             Category = "syntax"
	CategoryOther              Category = "other"
)

// IsRootCause reports whether diagnostics of this category plausibly cause
// downstream diagnostics in the same file.
func (c Category) IsRootCause() bool {
	return c == CategoryMissingDeclaration || c == CategoryImportError
}

// Status tracks a diagnostic through its lifecycle.
//
// Transitions: detected -> analyzing -> fix_available -> fixed | ignored.
// Fixed and ignored are terminal; terminal diagnostics are never deleted,
// only excluded from active queries.
type Status string

const (
	StatusDetected     Status = "detected"
	StatusAnalyzing    Status = "analyzing"
	StatusFixAvailable Status = "fix_available"
	StatusFixed        Status = "fixed"
	StatusIgnored      Status = "ignored"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusFixed || s == StatusIgnored
}

// Diagnostic is a single issue reported by the external static analyzer.
type Diagnostic struct {
	// ID is the store-assigned identifier, 0 before first save.
	ID int64

	// File is the path of the file the diagnostic refers to,
	// relative to the project root.
	File string

	// Line is the 1-based line number.
	Line int

	// Column is the 1-based column number.
	Column int

	// Code is the analyzer-defined identifier (e.g. "E0425").
	Code string

	// Message is the analyzer's message text.
	Message string

	Category Category
	Severity Severity
	Status   Status

	// Hash is the stable content hash over (file, code, normalized message),
	// used to deduplicate diagnostics across scans.
	Hash string

	// FirstSeen is when the diagnostic was first recorded.
	FirstSeen time.Time

	// LastSeen is refreshed every time a scan reports the same hash.
	LastSeen time.Time

	// Occurrences counts how many scans have reported this diagnostic.
	Occurrences int

	// PatternID links to a recurring diagnostic shape, 0 if none.
	PatternID int64

	// ClusterID links to the cluster from the most recent analysis, 0 if none.
	ClusterID int64
}

// Location returns the file:line:column position string.
func (d *Diagnostic) Location() string {
	return formatLocation(d.File, d.Line, d.Column)
}
