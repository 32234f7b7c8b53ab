package apply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-dev/fixpoint/pkg/diag"
)

func mutateDiagnostic(line int, message string) *diag.Diagnostic {
	return &diag.Diagnostic{
		File:    "src/main.rs",
		Line:    line,
		Column:  1,
		Code:    "E0425",
		Message: message,
	}
}

func TestComputeMutationLineOutOfRange(t *testing.T) {
	t.Parallel()

	d := mutateDiagnostic(10, "cannot find value `total`")
	fix := &diag.Fix{Kind: diag.FixKindLineReplacement, Content: "let total = 0;"}

	_, err := computeMutation("one line\n", d, fix, 0)
	assert.ErrorIs(t, err, ErrLineOutOfRange)
}

func TestComputeMutationStaleLineRefused(t *testing.T) {
	t.Parallel()

	// The message names `total` but line 2 no longer mentions it, so a
	// destructive replacement must be refused.
	content := "fn main() {\n    let count = 0;\n}\n"
	d := mutateDiagnostic(2, "cannot find value `total`")
	fix := &diag.Fix{Kind: diag.FixKindLineReplacement, Content: "    let total = 0;"}

	_, err := computeMutation(content, d, fix, 0)
	assert.ErrorIs(t, err, ErrStaleLocation)
}

func TestComputeMutationBlockStaleWindowRefused(t *testing.T) {
	t.Parallel()

	// Earlier edits shifted line numbers: nothing near line 3 mentions
	// `total` anymore, so the block replacement is refused rather than
	// splicing over unrelated code.
	content := "a\nb\nc\nd\ne\n"
	d := mutateDiagnostic(3, "cannot find value `total`")
	fix := &diag.Fix{Kind: diag.FixKindBlockReplacement, Content: "let total = 1;"}

	_, err := computeMutation(content, d, fix, 1)
	assert.ErrorIs(t, err, ErrStaleLocation)
}

func TestComputeMutationBlockReplacesWindow(t *testing.T) {
	t.Parallel()

	content := "a\nlet total = 1\nc\n"
	d := mutateDiagnostic(2, "cannot find value `total`")
	fix := &diag.Fix{Kind: diag.FixKindBlockReplacement, Content: "let total = 1;"}

	m, err := computeMutation(content, d, fix, 1)
	require.NoError(t, err)
	assert.Equal(t, "let total = 1;\n", m.content)
	assert.Equal(t, "a\nlet total = 1\nc", m.before)
}

func TestComputeMutationMessageWithoutIdentifiers(t *testing.T) {
	t.Parallel()

	// Without a quoted identifier there is nothing to verify against, so the
	// replacement is accepted as-is.
	content := "fn main() {\n    let x = 1\n}\n"
	d := mutateDiagnostic(2, "expected one of: semicolon, operator")
	fix := &diag.Fix{Kind: diag.FixKindLineReplacement, Content: "    let x = 1;"}

	m, err := computeMutation(content, d, fix, 0)
	require.NoError(t, err)
	assert.Equal(t, "fn main() {\n    let x = 1;\n}\n", m.content)
}

func TestComputeMutationUnknownKind(t *testing.T) {
	t.Parallel()

	d := mutateDiagnostic(1, "anything")
	fix := &diag.Fix{Kind: diag.FixKind("rewrite"), Content: "x"}

	_, err := computeMutation("line\n", d, fix, 0)
	assert.ErrorIs(t, err, ErrUnknownFixKind)
}

func TestComputeMutationDeletion(t *testing.T) {
	t.Parallel()

	content := "use helpers;\nuse helpers;\nfn main() {}\n"
	d := mutateDiagnostic(2, "duplicate import `helpers`")
	fix := &diag.Fix{Kind: diag.FixKindDeletion}

	m, err := computeMutation(content, d, fix, 0)
	require.NoError(t, err)
	assert.Equal(t, "use helpers;\nfn main() {}\n", m.content)
	assert.Equal(t, "use helpers;", m.before)
	assert.Empty(t, m.after)
}
