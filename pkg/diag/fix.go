package diag

import "time"

// FixKind is the closed set of mutation shapes a fix can take.
type FixKind string

const (
	// FixKindLineReplacement replaces the single line the diagnostic points at.
	FixKindLineReplacement FixKind = "line-replacement"

	// FixKindBlockReplacement replaces a context window of lines around the
	// diagnostic, falling back to line replacement when the window no longer
	// matches the file verbatim.
	FixKindBlockReplacement FixKind = "block-replacement"

	// FixKindInsertion inserts content before the diagnostic line.
	FixKindInsertion FixKind = "insertion"

	// FixKindDeletion deletes the diagnostic line.
	FixKindDeletion FixKind = "deletion"
)

// Valid reports whether k is a known fix kind.
func (k FixKind) Valid() bool {
	switch k {
	case FixKindLineReplacement, FixKindBlockReplacement, FixKindInsertion, FixKindDeletion:
		return true
	}
	return false
}

// FixID distinguishes persisted fixes from ephemeral ones at the type level.
//
// An ephemeral fix has not been saved yet, typically because it was just
// produced by the advisory oracle or a generic rule. It is promoted to a
// persisted fix on its first successful application.
type FixID struct {
	value     int64
	persisted bool
}

// EphemeralFixID returns the identity of a not-yet-saved fix.
func EphemeralFixID() FixID {
	return FixID{}
}

// PersistedFixID returns the identity of a saved fix.
func PersistedFixID(id int64) FixID {
	return FixID{value: id, persisted: true}
}

// Persisted returns the stored id and true when the fix has been saved.
func (id FixID) Persisted() (int64, bool) {
	return id.value, id.persisted
}

// Fix is a candidate remediation for a diagnostic.
type Fix struct {
	ID          FixID
	Title       string
	Description string
	Kind        FixKind

	// Content is the replacement or inserted text. Empty for deletions.
	Content string

	// Priority breaks ties between fixes with equal success rates,
	// higher wins.
	Priority int

	// SuccessRate is the rolling average over this fix's history entries,
	// in [0, 1].
	SuccessRate float64

	// PatternID links to the originating pattern, 0 if none.
	PatternID int64
}

// Pattern is a generalized shape of recurring diagnostics used to look up
// historically successful fixes.
type Pattern struct {
	ID       int64
	Code     string
	Template string
	FixIDs   []int64
}

// Method records how a fix attempt was produced.
type Method string

const (
	MethodAutomatic Method = "automatic"
	MethodPattern   Method = "pattern"
	MethodAdvisory  Method = "advisory"
	MethodManual    Method = "manual"
)

// FixHistory is an immutable record of one application attempt.
type FixHistory struct {
	ID           int64
	DiagnosticID int64

	// FixID is 0 when the attempt used an ephemeral fix that was never
	// promoted (i.e. the attempt failed or ran dry).
	FixID int64

	Method    Method
	Timestamp time.Time
	Success   bool

	// DryRun marks a preview attempt. Dry runs are kept for audit but
	// excluded from success-rate computation.
	DryRun bool

	// Before and After snapshot the mutated region so the attempt can be
	// audited and, if needed, reverted by hand.
	Before string
	After  string

	// Reason explains the failure; empty on success.
	Reason string
}

// DependencyEdge is a directed likely-causes edge between two diagnostics.
type DependencyEdge struct {
	CauseID  int64
	EffectID int64

	// Confidence is the inferred strength of the causal link, in (0, 1].
	Confidence float64
}

// Cluster groups diagnostics sharing a probable root cause.
type Cluster struct {
	ID int64

	// DiagnosticIDs is the member set; a diagnostic belongs to at most one
	// cluster per analysis run.
	DiagnosticIDs []int64

	// RepresentativeID is the lowest member id; its message stands in for
	// the whole cluster.
	RepresentativeID int64

	Description string

	// SuggestedFix is the representative's best-ranked fix, nil when the
	// resolver found none.
	SuggestedFix *Fix
}
