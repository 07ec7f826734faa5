package extractor

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown renders a Markdown document to plain text. Headings are
// kept as their own paragraphs so chunk boundaries tend to fall near them.
func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var paragraphs []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		var t string
		switch node := n.(type) {
		case *ast.Heading:
			t = string(node.Text(data))
		default:
			t = blockText(n, data)
		}
		if t != "" {
			paragraphs = append(paragraphs, t)
		}
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// blockText gets the text content of a goldmark AST node.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(blockText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
