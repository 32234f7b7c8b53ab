package oracle

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractCodeBlock returns the content of the first fenced code block in a
// markdown document. Oracles tend to wrap their proposed code in prose;
// only the code is usable as fix content. Returns false when the document
// contains no fenced block.
func ExtractCodeBlock(markdown string) (string, bool) {
	if !strings.Contains(markdown, "```") {
		return "", false
	}

	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var code string
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		lines := fc.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}
		code = strings.TrimRight(buf.String(), "\n")
		found = true
		return ast.WalkStop, nil
	})

	return code, found
}
