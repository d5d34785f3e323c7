package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vbprojects/althtml/internal/ast"
	"github.com/vbprojects/althtml/internal/diagnostics"
	"github.com/vbprojects/althtml/internal/lexer"
)

var placeholderRe = regexp.MustCompile(`@(\d+)`)

// builder threads parsed lines into a node forest using indentation levels.
type builder struct {
	file       string
	src        lexer.Source
	lp         lineParser
	diags      *diagnostics.List
	paramDepth int
}

// Build parses and threads every surviving line into a document forest.
// Diagnostics are appended to diags; malformed lines are skipped so later
// independent errors still surface.
func Build(src lexer.Source, diags *diagnostics.List) ast.Document {
	b := &builder{
		file:  src.File,
		src:   src,
		lp:    lineParser{file: src.File, diags: diags},
		diags: diags,
	}
	nodes, _ := b.buildSiblings(0, 0)
	return ast.Document{Nodes: nodes}
}

func (b *builder) errorf(kind diagnostics.Kind, ln lexer.Line, msg string) {
	*b.diags = append(*b.diags, diagnostics.New(kind, b.file, ln.Number, len(ln.Leading)+1, msg, ln.Content))
}

func (b *builder) pos(ln lexer.Line) ast.Position {
	return ast.Position{Line: ln.Number, Column: len(ln.Leading) + 1}
}

// buildSiblings builds consecutive nodes at the given level until a line at
// a shallower level ends the run.
func (b *builder) buildSiblings(i int, level int) ([]ast.Node, int) {
	var nodes []ast.Node
	for i < len(b.src.Lines) && b.src.Lines[i].Level >= level {
		var built []ast.Node
		built, i = b.buildOne(i, b.src.Lines[i].Level)
		nodes = append(nodes, built...)
	}
	return nodes, i
}

// buildOne consumes one line together with every deeper line that belongs to
// it. Forms without a block body flatten trailing deeper lines into the same
// sibling list, matching the open-parent stack the language implies.
func (b *builder) buildOne(i int, level int) ([]ast.Node, int) {
	ln := b.src.Lines[i]
	form := b.lp.parse(ln)
	i++

	switch f := form.(type) {
	case nil:
		return nil, i

	case ast.TagLine:
		return b.buildElement(ln, f, i, level)

	case ast.TextLine:
		node := &ast.TextNode{Position: b.pos(ln), Span: f.Span, PreserveWhitespace: f.Explicit}
		return b.flattenTrailing(node, i, level)

	case ast.SetLine:
		return b.buildSet(ln, f, i, level)

	case ast.MacroDefLine:
		return b.buildMacroDef(ln, f, i, level)

	case ast.MacroRefLine:
		if f.Parameterized {
			return b.buildCall(ln, f, i, level)
		}
		node := &ast.MacroInvocation{Position: b.pos(ln), Name: f.Name}
		return b.flattenTrailing(node, i, level)

	case ast.RawDirectiveLine:
		lines, next := b.captureRaw(i, level)
		return []ast.Node{&ast.RawBlock{Position: b.pos(ln), Lines: lines, Substitute: f.Substitute}}, next

	case ast.MacroArgLine:
		if b.paramDepth == 0 {
			b.errorf(diagnostics.KindUnknownDirective, ln,
				"@"+strconv.Itoa(f.Index)+" placeholder outside a parameterized macro body")
			return nil, i
		}
		node := &ast.MacroArg{Position: b.pos(ln), Index: f.Index}
		return b.flattenTrailing(node, i, level)
	}

	return nil, i
}

// flattenTrailing attaches deeper lines following a non-container form as
// further siblings of the enclosing parent.
func (b *builder) flattenTrailing(node ast.Node, i int, level int) ([]ast.Node, int) {
	nodes := []ast.Node{node}
	if i < len(b.src.Lines) && b.src.Lines[i].Level > level {
		var rest []ast.Node
		rest, i = b.buildSiblings(i, level+1)
		nodes = append(nodes, rest...)
	}
	return nodes, i
}

func (b *builder) buildElement(ln lexer.Line, f ast.TagLine, i int, level int) ([]ast.Node, int) {
	el := &ast.Element{
		Position:      b.pos(ln),
		Name:          f.Name,
		AnglePrefixed: f.AnglePrefixed,
		SelfClosing:   f.SelfClosing,
		Text:          f.Text,
	}
	for _, part := range f.Attrs {
		switch a := part.(type) {
		case ast.Pair:
			el.Attrs = append(el.Attrs, a)
		case ast.ClassWord:
			el.ImplicitClasses = append(el.ImplicitClasses, a.Word)
		case ast.IdFragment:
			el.IDParts = append(el.IDParts, a.Value)
		case ast.ExplicitClass:
			el.ExplicitClasses = append(el.ExplicitClasses, a.Value)
		}
	}

	if i < len(b.src.Lines) && b.src.Lines[i].Level > level {
		var children []ast.Node
		children, i = b.buildSiblings(i, level+1)
		if el.SelfClosing {
			b.errorf(diagnostics.KindSelfClosingHasChildren, ln,
				"self-closing tag '"+el.Name+"' cannot have a block body")
		} else {
			el.Children = children
		}
	}
	return []ast.Node{el}, i
}

// buildSet attaches a set body from indentation. A block whose only child is
// a bare raw directive binds a raw string; any other block binds a subtree.
func (b *builder) buildSet(ln lexer.Line, f ast.SetLine, i int, level int) ([]ast.Node, int) {
	binding := &ast.SetBinding{Position: b.pos(ln), Name: f.Name}

	if f.Inline != nil {
		binding.Body = ast.BoundValue{Kind: ast.BoundLiteral, Text: *f.Inline}
		return []ast.Node{binding}, i
	}

	if i >= len(b.src.Lines) || b.src.Lines[i].Level <= level {
		binding.Body = ast.BoundValue{Kind: ast.BoundLiteral, Text: ""}
		return []ast.Node{binding}, i
	}

	first := b.src.Lines[i]
	if first.Level == level+1 && first.Content == "raw" {
		lines, next := b.captureRaw(i+1, level+1)
		if next >= len(b.src.Lines) || b.src.Lines[next].Level <= level {
			binding.Body = ast.BoundValue{Kind: ast.BoundRawString, Text: ast.TextSpan(strings.Join(lines, "\n"))}
			return []ast.Node{binding}, next
		}
	}

	nodes, next := b.buildSiblings(i, level+1)
	binding.Body = ast.BoundValue{Kind: ast.BoundSubtree, Nodes: nodes}
	return []ast.Node{binding}, next
}

func (b *builder) buildMacroDef(ln lexer.Line, f ast.MacroDefLine, i int, level int) ([]ast.Node, int) {
	if f.Parameterized {
		b.paramDepth++
	}
	body, next := b.buildSiblings(i, level+1)
	if f.Parameterized {
		b.paramDepth--
	}

	binding := &ast.MacroBinding{
		Position:      b.pos(ln),
		Name:          f.Name,
		Parameterized: f.Parameterized,
		Body:          body,
	}
	if f.Parameterized {
		binding.ArgCount = maxPlaceholder(body) + 1
	}
	return []ast.Node{binding}, next
}

// buildCall captures each direct child line with its subtree as one
// positional argument in source order.
func (b *builder) buildCall(ln lexer.Line, f ast.MacroRefLine, i int, level int) ([]ast.Node, int) {
	call := &ast.MacroInvocation{Position: b.pos(ln), Name: f.Name, Parameterized: true}
	for i < len(b.src.Lines) && b.src.Lines[i].Level == level+1 {
		var arg []ast.Node
		arg, i = b.buildOne(i, level+1)
		call.Args = append(call.Args, arg)
	}
	return []ast.Node{call}, i
}

// captureRaw reconstructs the verbatim body of a raw directive, stripping
// one unit beyond the directive's own indentation from each line.
func (b *builder) captureRaw(i int, level int) ([]string, int) {
	prefix := b.src.LeadingFor(level + 1)
	var lines []string
	for i < len(b.src.Lines) && b.src.Lines[i].Level > level {
		ln := b.src.Lines[i]
		leading := strings.TrimPrefix(ln.Leading, prefix)
		lines = append(lines, leading+ln.Raw)
		i++
	}
	return lines, i
}

// maxPlaceholder finds the highest @N index reachable from a macro body,
// both as placeholder lines and inside spans.
func maxPlaceholder(nodes []ast.Node) int {
	max := -1
	scanSpan := func(span ast.TextSpan) {
		for _, m := range placeholderRe.FindAllStringSubmatch(string(span), -1) {
			if n, err := strconv.Atoi(m[1]); err == nil && n > max {
				max = n
			}
		}
	}

	var walk func(nodes []ast.Node)
	walk = func(nodes []ast.Node) {
		for _, node := range nodes {
			switch n := node.(type) {
			case *ast.MacroArg:
				if n.Index > max {
					max = n.Index
				}
			case *ast.Element:
				for _, attr := range n.Attrs {
					scanSpan(attr.Value)
				}
				for _, span := range n.IDParts {
					scanSpan(span)
				}
				for _, span := range n.ImplicitClasses {
					scanSpan(span)
				}
				for _, span := range n.ExplicitClasses {
					scanSpan(span)
				}
				if n.Text != nil {
					scanSpan(*n.Text)
				}
				walk(n.Children)
			case *ast.TextNode:
				scanSpan(n.Span)
			case *ast.RawBlock:
				if n.Substitute {
					for _, line := range n.Lines {
						scanSpan(ast.TextSpan(line))
					}
				}
			case *ast.SetBinding:
				scanSpan(n.Body.Text)
				walk(n.Body.Nodes)
			case *ast.MacroBinding:
				walk(n.Body)
			case *ast.MacroInvocation:
				for _, arg := range n.Args {
					walk(arg)
				}
			}
		}
	}
	walk(nodes)
	return max
}
