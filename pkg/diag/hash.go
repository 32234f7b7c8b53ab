package diag

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Identifier and literal shapes replaced by placeholders when building a
// message skeleton. Quoted and backticked tokens come first so that quoted
// numbers are treated as identifiers, not numeric literals.
var (
	quotedTokenRe  = regexp.MustCompile("`[^`]*`|'[^']*'|\"[^\"]*\"")
	numericTokenRe = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	spaceRunRe     = regexp.MustCompile(`\s+`)
)

// Skeleton normalizes a diagnostic message by replacing identifiers and
// literal values with placeholders. Two diagnostics of the same shape
// produce the same skeleton even when they name different symbols.
func Skeleton(message string) string {
	s := quotedTokenRe.ReplaceAllString(message, "<ident>")
	s = numericTokenRe.ReplaceAllString(s, "<num>")
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ContentHash computes the stable deduplication hash for a diagnostic:
// file path, analyzer code, and whitespace-normalized message. Positions
// are deliberately excluded so a diagnostic keeps its identity when
// earlier fixes shift its line; the store updates line and column in
// place and bumps the occurrence count instead of inserting a duplicate.
func ContentHash(file, code, message string) string {
	normalized := strings.TrimSpace(spaceRunRe.ReplaceAllString(message, " "))
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%s", file, code, normalized))
	return hex.EncodeToString(sum[:])
}

// Identifiers extracts the identifier tokens mentioned in a message.
// Analyzers conventionally quote symbol names with backticks or quotes;
// those tokens drive the causal edge inference between diagnostics.
func Identifiers(message string) []string {
	matches := quotedTokenRe.FindAllString(message, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		ident := strings.Trim(m, "`'\"")
		if ident == "" || seen[ident] {
			continue
		}
		seen[ident] = true
		out = append(out, ident)
	}
	return out
}

func formatLocation(file string, line, column int) string {
	return fmt.Sprintf("%s:%d:%d", file, line, column)
}
