package resolve

import (
	"strings"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

// genericRuleRate is the default success rate for rule-derived fixes.
// Low on purpose: a generic rule knows far less than pattern history.
const genericRuleRate = 0.3

// genericRule matches a diagnostic by category and message content and
// produces an ephemeral fix.
type genericRule struct {
	category diag.Category
	contains []string
	title    string
	kind     diag.FixKind
	content  string
	priority int
}

// Generic code-pattern rules, checked in order. These are the last-resort
// tier: coarse transformations that are safe to attempt when neither
// pattern history nor the oracle has anything better.
var genericRules = []genericRule{
	{
		category: diag.CategoryImportError,
		contains: []string{"duplicate", "imported more than once"},
		title:    "remove duplicate import",
		kind:     diag.FixKindDeletion,
		priority: 3,
	},
	{
		category: diag.CategoryImportError,
		contains: []string{"unused"},
		title:    "remove unused import",
		kind:     diag.FixKindDeletion,
		priority: 2,
	},
	{
		category: diag.CategorySyntax,
		contains: []string{"expected `;`", "missing semicolon", "expected ';'"},
		title:    "insert missing terminator",
		kind:     diag.FixKindInsertion,
		content:  ";",
		priority: 2,
	},
	{
		category: diag.CategoryTypeMismatch,
		contains: []string{"type annotations needed", "cannot infer type"},
		title:    "add explicit type annotation",
		kind:     diag.FixKindInsertion,
		content:  "// fixpoint: add an explicit type annotation on the line below",
		priority: 1,
	},
}

// genericFix returns the first matching generic rule's fix, or nil.
func genericFix(d *diag.Diagnostic) *diag.Fix {
	message := strings.ToLower(d.Message)
	for _, rule := range genericRules {
		if rule.category != d.Category {
			continue
		}
		if !matchesAny(message, rule.contains) {
			continue
		}
		return &diag.Fix{
			ID:          diag.EphemeralFixID(),
			Title:       rule.title,
			Kind:        rule.kind,
			Content:     rule.content,
			Priority:    rule.priority,
			SuccessRate: genericRuleRate,
		}
	}
	return nil
}

func matchesAny(message string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(message, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
