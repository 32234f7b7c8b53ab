package apply

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// DefaultContextLines is the half-height of the block-replacement window.
const DefaultContextLines = 2

// Mutation errors surfaced as per-attempt failure reasons.
var (
	// ErrLineOutOfRange indicates the diagnostic's line no longer exists.
	ErrLineOutOfRange = errors.New("diagnostic line out of range")

	// ErrStaleLocation indicates the target lines no longer mention the
	// diagnostic's symbols, so a destructive replacement was refused.
	ErrStaleLocation = errors.New("target content does not match diagnostic")

	// ErrUnknownFixKind indicates an unrecognized fix kind.
	ErrUnknownFixKind = errors.New("unknown fix kind")
)

// mutation is the computed result of applying a fix in memory.
type mutation struct {
	content string
	before  string
	after   string
}

// computeMutation produces the new file content for the given fix without
// touching the filesystem.
//
// Block replacement substitutes a context window around the diagnostic's
// line. Earlier fixes in the same run may have shifted line numbers, so
// before any destructive replacement the target text is verified to still
// mention an identifier from the diagnostic's message; when the window
// fails that check the mutation falls back to single-line replacement, and
// when the single line fails it too the attempt is refused with
// ErrStaleLocation.
func computeMutation(content string, d *diag.Diagnostic, fix *diag.Fix, contextLines int) (*mutation, error) {
	lines := strings.Split(content, "\n")
	idx := d.Line - 1
	if idx < 0 || idx >= len(lines) {
		return nil, fmt.Errorf("%w: line %d of %d", ErrLineOutOfRange, d.Line, len(lines))
	}
	if contextLines <= 0 {
		contextLines = DefaultContextLines
	}

	switch fix.Kind {
	case diag.FixKindLineReplacement:
		return replaceLines(lines, idx, idx+1, fix.Content, d)

	case diag.FixKindBlockReplacement:
		start := max(idx-contextLines, 0)
		end := min(idx+contextLines+1, len(lines))
		if windowMatches(lines[start:end], d) {
			return spliceLines(lines, start, end, fix.Content)
		}
		// Window is stale; fall back to the single line, verified.
		return replaceLines(lines, idx, idx+1, fix.Content, d)

	case diag.FixKindInsertion:
		before := ""
		inserted := append(slicesClone(lines[:idx]), strings.Split(fix.Content, "\n")...)
		inserted = append(inserted, lines[idx:]...)
		return &mutation{
			content: strings.Join(inserted, "\n"),
			before:  before,
			after:   fix.Content,
		}, nil

	case diag.FixKindDeletion:
		before := lines[idx]
		deleted := append(slicesClone(lines[:idx]), lines[idx+1:]...)
		return &mutation{
			content: strings.Join(deleted, "\n"),
			before:  before,
			after:   "",
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFixKind, fix.Kind)
	}
}

// replaceLines substitutes lines [start, end) after verifying the region
// still belongs to the diagnostic.
func replaceLines(lines []string, start, end int, newText string, d *diag.Diagnostic) (*mutation, error) {
	if !windowMatches(lines[start:end], d) {
		return nil, ErrStaleLocation
	}
	return spliceLines(lines, start, end, newText)
}

func spliceLines(lines []string, start, end int, newText string) (*mutation, error) {
	before := strings.Join(lines[start:end], "\n")
	out := append(slicesClone(lines[:start]), strings.Split(newText, "\n")...)
	out = append(out, lines[end:]...)
	return &mutation{
		content: strings.Join(out, "\n"),
		before:  before,
		after:   newText,
	}, nil
}

// windowMatches reports whether the window still looks like the place the
// diagnostic was reported at. When the message names identifiers, one of
// them must appear in the window; messages without identifiers cannot be
// verified and are accepted as-is.
func windowMatches(window []string, d *diag.Diagnostic) bool {
	idents := diag.Identifiers(d.Message)
	if len(idents) == 0 {
		return true
	}
	for _, line := range window {
		for _, ident := range idents {
			if strings.Contains(line, ident) {
				return true
			}
		}
	}
	return false
}

func slicesClone(s []string) []string {
	out := make([]string, len(s), len(s)+8)
	copy(out, s)
	return out
}
