package compile

import (
	"strings"

	"github.com/vbprojects/althtml/internal/ast"
)

// voidElements are always self-closing regardless of a > suffix.
var voidElements = map[string]struct{}{
	"img": {}, "br": {}, "meta": {}, "input": {}, "link": {}, "hr": {},
	"area": {}, "base": {}, "col": {}, "embed": {}, "source": {}, "track": {}, "wbr": {},
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// emitter renders the expanded tree into compact HTML.
type emitter struct {
	buf strings.Builder
}

// renderNodes emits a node list to a string, used both for the final
// document and for structural macro arguments landing in span positions.
func renderNodes(nodes []ast.Node) string {
	e := &emitter{}
	e.emitNodes(nodes)
	return e.buf.String()
}

func (e *emitter) emitNodes(nodes []ast.Node) {
	for _, node := range nodes {
		e.emitNode(node)
	}
}

func (e *emitter) emitNode(node ast.Node) {
	switch n := node.(type) {
	case *ast.Element:
		e.emitElement(n)
	case *ast.TextNode:
		e.emitText(n)
	case *ast.RawBlock:
		e.buf.WriteString(strings.Join(n.Lines, "\n"))
	}
}

func (e *emitter) emitElement(n *ast.Element) {
	if strings.EqualFold(n.Name, "!DOCTYPE") {
		e.emitDoctype(n)
		return
	}

	e.buf.WriteByte('<')
	e.buf.WriteString(n.Name)
	e.emitAttributes(n)

	_, void := voidElements[strings.ToLower(n.Name)]
	if void || n.SelfClosing {
		e.buf.WriteString(" />")
		return
	}

	e.buf.WriteByte('>')
	e.emitNodes(n.Children)
	e.buf.WriteString("</")
	e.buf.WriteString(n.Name)
	e.buf.WriteByte('>')
}

// emitAttributes writes id, class, then the remaining pairs in source order.
func (e *emitter) emitAttributes(n *ast.Element) {
	id := ""
	for _, part := range n.IDParts {
		id += string(part)
	}
	if id != "" {
		e.writeAttr("id", id)
	}

	if classes := mergeClasses(n.ImplicitClasses, n.ExplicitClasses); len(classes) > 0 {
		e.writeAttr("class", strings.Join(classes, " "))
	}

	for _, attr := range n.Attrs {
		e.writeAttr(attr.Name, string(attr.Value))
	}
}

func (e *emitter) writeAttr(name string, value string) {
	e.buf.WriteByte(' ')
	e.buf.WriteString(name)
	e.buf.WriteString(`="`)
	e.buf.WriteString(attrEscaper.Replace(value))
	e.buf.WriteByte('"')
}

// mergeClasses joins implicit then explicit class words, deduplicated
// preserving first occurrence.
func mergeClasses(implicit []ast.TextSpan, explicit []ast.TextSpan) []string {
	var merged []string
	seen := map[string]struct{}{}
	add := func(words string) {
		for _, w := range strings.Fields(words) {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			merged = append(merged, w)
		}
	}
	for _, span := range implicit {
		add(string(span))
	}
	for _, span := range explicit {
		add(string(span))
	}
	return merged
}

// emitDoctype keeps the bare form simple; any other attribute content is
// emitted normally.
func (e *emitter) emitDoctype(n *ast.Element) {
	bare := len(n.Attrs) == 0 && len(n.IDParts) == 0 && len(n.ExplicitClasses) == 0 &&
		(len(n.ImplicitClasses) == 0 ||
			(len(n.ImplicitClasses) == 1 && strings.EqualFold(string(n.ImplicitClasses[0]), "html")))
	if bare {
		e.buf.WriteString("<!DOCTYPE html>")
	} else {
		e.buf.WriteString("<!DOCTYPE")
		e.emitAttributes(n)
		e.buf.WriteByte('>')
	}
	e.emitNodes(n.Children)
}

// emitText escapes < > & in literal segments, leaves raw segments verbatim,
// and collapses whitespace for implicit text.
func (e *emitter) emitText(n *ast.TextNode) {
	segments := n.Segments
	if segments == nil {
		segments = []ast.Segment{{Text: string(n.Span)}}
	}

	var b strings.Builder
	for _, seg := range segments {
		if seg.Raw {
			b.WriteString(seg.Text)
		} else {
			b.WriteString(textEscaper.Replace(seg.Text))
		}
	}

	text := b.String()
	if !n.PreserveWhitespace {
		text = strings.Join(strings.Fields(text), " ")
	}
	e.buf.WriteString(text)
}
