package deck

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// OpenMarkdown decodes a Marp-style markdown file: thematic breaks separate
// slides, headings and paragraphs become shapes, list items keep their
// markers, images become picture shapes and HTML comments carry presenter
// notes.
func OpenMarkdown(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening markdown: %w", err)
	}
	d := DecodeMarkdown(data)
	d.Source = path
	return d, nil
}

// DecodeMarkdown decodes markdown bytes already in memory.
func DecodeMarkdown(data []byte) *Deck {
	data = stripFrontMatter(data)

	doc := goldmark.New().Parser().Parse(text.NewReader(data))

	d := &Deck{Format: FormatMarkdown}
	cur := Slide{Index: 0}
	flush := func() {
		d.Slides = append(d.Slides, cur)
		cur = Slide{Index: len(d.Slides)}
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.ThematicBreak:
			flush()
		case *ast.Heading:
			if txt := nodeText(n, data); strings.TrimSpace(txt) != "" {
				cur.Shapes = append(cur.Shapes, Shape{Text: txt})
			}
			appendImageShapes(&cur, n)
		case *ast.List:
			appendListShapes(&cur, n, data)
		case *ast.Paragraph:
			if txt := nodeText(n, data); strings.TrimSpace(txt) != "" {
				cur.Shapes = append(cur.Shapes, Shape{Text: txt})
			}
			appendImageShapes(&cur, n)
		case *ast.FencedCodeBlock:
			if txt := blockLines(n, data); strings.TrimSpace(txt) != "" {
				cur.Shapes = append(cur.Shapes, Shape{Text: txt})
			}
		case *ast.CodeBlock:
			if txt := blockLines(n, data); strings.TrimSpace(txt) != "" {
				cur.Shapes = append(cur.Shapes, Shape{Text: txt})
			}
		case *ast.HTMLBlock:
			if note := commentText(n, data); note != "" {
				if cur.Notes != "" {
					cur.Notes += "\n"
				}
				cur.Notes += note
			}
		}
	}
	flush()
	return d
}

// nodeText flattens the inline text of a node. Image subtrees are skipped
// so alt text never leaks into slide text.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := child.(type) {
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func appendImageShapes(s *Slide, n ast.Node) {
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if _, ok := child.(*ast.Image); ok {
				s.Shapes = append(s.Shapes, Shape{IsPicture: true})
			}
		}
		return ast.WalkContinue, nil
	})
}

// appendListShapes emits one shape per list item with its original marker
// reconstructed, so downstream bullet detection sees "- x" or "1. x".
func appendListShapes(s *Slide, list *ast.List, src []byte) {
	num := list.Start
	if num <= 0 {
		num = 1
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		txt := strings.TrimSpace(nodeText(item, src))
		appendImageShapes(s, item)
		if txt == "" {
			continue
		}
		if list.IsOrdered() {
			s.Shapes = append(s.Shapes, Shape{Text: fmt.Sprintf("%d%c %s", num, list.Marker, txt)})
			num++
		} else {
			s.Shapes = append(s.Shapes, Shape{Text: string(list.Marker) + " " + txt})
		}
	}
}

func blockLines(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		b.Write(lines.At(i).Value(src))
	}
	return b.String()
}

// commentText extracts the body of an HTML comment block, the Marp
// convention for presenter notes. Other HTML blocks yield nothing.
func commentText(n *ast.HTMLBlock, src []byte) string {
	raw := strings.TrimSpace(blockLines(n, src))
	if !strings.HasPrefix(raw, "<!--") {
		return ""
	}
	raw = strings.TrimPrefix(raw, "<!--")
	raw = strings.TrimSuffix(raw, "-->")
	return strings.TrimSpace(raw)
}

// stripFrontMatter drops a leading YAML fence block if present.
func stripFrontMatter(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return data
	}
	rest := data[bytes.IndexByte(data, '\n')+1:]
	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		return data
	}
	after := rest[idx+len("\n---"):]
	if nl := bytes.IndexByte(after, '\n'); nl >= 0 {
		return after[nl+1:]
	}
	return nil
}
