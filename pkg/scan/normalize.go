package scan

import (
	"strings"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// rawDiagnostic is one JSON line of analyzer output.
type rawDiagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// valid reports whether the raw line carries the minimum required fields.
func (r *rawDiagnostic) valid() bool {
	return r.File != "" && r.Line > 0 && r.Message != ""
}

// normalize converts a raw analyzer line into a domain diagnostic with
// inferred category, normalized severity, and content hash.
func normalize(r *rawDiagnostic) *diag.Diagnostic {
	severity := normalizeSeverity(r.Severity)
	category := inferCategory(r.Code, r.Message)
	return &diag.Diagnostic{
		File:     r.File,
		Line:     r.Line,
		Column:   r.Column,
		Code:     r.Code,
		Message:  r.Message,
		Category: category,
		Severity: severity,
		Status:   diag.StatusDetected,
		Hash:     diag.ContentHash(r.File, r.Code, r.Message),
	}
}

// normalizeSeverity maps analyzer severity strings onto the domain enum.
// Unknown severities default to medium rather than being dropped.
func normalizeSeverity(s string) diag.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "fatal":
		return diag.SeverityCritical
	case "error", "high":
		return diag.SeverityHigh
	case "warning", "warn", "medium":
		return diag.SeverityMedium
	case "info", "hint", "note", "low":
		return diag.SeverityLow
	default:
		return diag.SeverityMedium
	}
}

// categoryRule maps message substrings to a category. Rules are checked in
// order; the first match wins.
type categoryRule struct {
	contains []string
	category diag.Category
}

var categoryRules = []categoryRule{
	{[]string{"cannot find", "not found in this scope", "undefined reference", "undeclared"}, diag.CategoryUndefinedReference},
	{[]string{"unresolved import", "no external crate", "cannot import", "import error", "module not found", "duplicate import", "imported more than once", "unused import"}, diag.CategoryImportError},
	{[]string{"missing declaration", "not declared", "no declaration"}, diag.CategoryMissingDeclaration},
	{[]string{"mismatched types", "type mismatch", "expected type", "incompatible type"}, diag.CategoryTypeMismatch},
	{[]string{"syntax error", "unexpected token", "expected `;`", "unexpected eof", "unclosed"}, diag.CategorySyntax},
}

// inferCategory classifies a diagnostic from its analyzer code and message.
// Code prefixes carry analyzer conventions; the message rules are the
// fallback for analyzers with opaque codes.
func inferCategory(code, message string) diag.Category {
	switch code {
	case "E0412", "E0425", "E0433":
		return diag.CategoryUndefinedReference
	case "E0432", "E0463":
		return diag.CategoryImportError
	case "E0308":
		return diag.CategoryTypeMismatch
	}

	msg := strings.ToLower(message)
	for _, rule := range categoryRules {
		for _, needle := range rule.contains {
			if strings.Contains(msg, needle) {
				return rule.category
			}
		}
	}
	return diag.CategoryOther
}
