package compile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vbprojects/althtml/internal/ast"
	"github.com/vbprojects/althtml/internal/diagnostics"
)

// maxMacroDepth caps transitive macro expansion.
const maxMacroDepth = 1000

var placeholderRe = regexp.MustCompile(`@(\d+)`)

// argValue is one expanded positional argument of a parameterized call.
// Text arguments substitute into spans; structural arguments splice as
// node lists.
type argValue struct {
	nodes  []ast.Node
	text   string
	isText bool
	isRaw  bool
}

// expander walks the tree top-down, registering bindings in document order
// and replacing macro invocations and variable insertions with their
// expansions.
type expander struct {
	file  string
	env   *env
	diags *diagnostics.List
	depth int
}

func (x *expander) errorf(kind diagnostics.Kind, pos ast.Position, format string, args ...any) {
	*x.diags = append(*x.diags, diagnostics.New(kind, x.file, pos.Line, pos.Column, fmt.Sprintf(format, args...), ""))
}

// expandNodes expands a node list. args is non-nil while inside a
// parameterized macro body and carries the invocation's positional values.
func (x *expander) expandNodes(nodes []ast.Node, args []argValue) []ast.Node {
	var out []ast.Node
	for _, node := range nodes {
		out = append(out, x.expandNode(node, args)...)
	}
	return out
}

func (x *expander) expandNode(node ast.Node, args []argValue) []ast.Node {
	switch n := node.(type) {
	case *ast.SetBinding:
		x.registerSet(n, args)
		return nil

	case *ast.MacroBinding:
		if !x.env.defineMacro(macroDef{
			Name:          n.Name,
			Parameterized: n.Parameterized,
			ArgCount:      n.ArgCount,
			Body:          n.Body,
			Position:      n.Position,
		}) {
			x.errorf(diagnostics.KindNameConflict, n.Position,
				"name %q is already bound by 'set' and cannot name a macro", n.Name)
		}
		return nil

	case *ast.Element:
		if inserted, ok := x.expandVarInsertion(n); ok {
			return inserted
		}
		return []ast.Node{x.expandElement(n, args)}

	case *ast.TextNode:
		return []ast.Node{&ast.TextNode{
			Position:           n.Position,
			Span:               n.Span,
			PreserveWhitespace: n.PreserveWhitespace,
			Segments:           x.resolveSpan(n.Span, n.Position, args),
		}}

	case *ast.RawBlock:
		return []ast.Node{x.expandRawBlock(n, args)}

	case *ast.MacroInvocation:
		return x.expandInvocation(n, args)

	case *ast.MacroArg:
		if args == nil {
			return nil
		}
		if n.Index >= len(args) {
			x.errorf(diagnostics.KindMacroArityError, n.Position,
				"argument placeholder @%d exceeds the %d provided argument(s)", n.Index, len(args))
			return nil
		}
		return deepCopyNodes(args[n.Index].nodes)
	}
	return []ast.Node{node}
}

// registerSet binds a set name. Subtree bodies are expanded at definition
// time in a snapshot environment so later redefinitions cannot reach back
// into the stored fragment.
func (x *expander) registerSet(n *ast.SetBinding, args []argValue) {
	value := n.Body
	if value.Kind == ast.BoundSubtree {
		sub := &expander{file: x.file, env: x.env.clone(), diags: x.diags, depth: x.depth}
		value = ast.BoundValue{Kind: ast.BoundSubtree, Nodes: sub.expandNodes(value.Nodes, args)}
	}
	if !x.env.defineVar(n.Name, value) {
		x.errorf(diagnostics.KindNameConflict, n.Position,
			"name %q is already bound by ':macro' and cannot be set", n.Name)
	}
}

// expandVarInsertion reinterprets a bare attribute-less element as a
// reference to a set binding occupying its own line.
func (x *expander) expandVarInsertion(n *ast.Element) ([]ast.Node, bool) {
	bare := !n.SelfClosing && !n.AnglePrefixed &&
		len(n.Attrs) == 0 && len(n.IDParts) == 0 &&
		len(n.ImplicitClasses) == 0 && len(n.ExplicitClasses) == 0 &&
		n.Text == nil && len(n.Children) == 0
	if !bare {
		return nil, false
	}
	bound, ok := x.env.lookupVar(n.Name)
	if !ok {
		return nil, false
	}

	switch bound.Kind {
	case ast.BoundSubtree:
		return deepCopyNodes(bound.Nodes), true
	case ast.BoundRawString:
		return []ast.Node{&ast.RawBlock{Position: n.Position, Lines: strings.Split(string(bound.Text), "\n")}}, true
	default:
		return []ast.Node{&ast.TextNode{
			Position: n.Position,
			Span:     bound.Text,
			Segments: x.resolveSpan(bound.Text, n.Position, nil),
		}}, true
	}
}

func (x *expander) expandElement(n *ast.Element, args []argValue) ast.Node {
	el := &ast.Element{
		Position:      n.Position,
		Name:          n.Name,
		AnglePrefixed: n.AnglePrefixed,
		SelfClosing:   n.SelfClosing,
	}
	for _, attr := range n.Attrs {
		el.Attrs = append(el.Attrs, ast.Pair{
			Name:  attr.Name,
			Value: ast.TextSpan(x.resolveSpanString(attr.Value, n.Position, args)),
		})
	}
	if len(n.IDParts) > 0 {
		var id strings.Builder
		for _, part := range n.IDParts {
			id.WriteString(x.resolveSpanString(part, n.Position, args))
		}
		el.IDParts = []ast.TextSpan{ast.TextSpan(id.String())}
	}
	for _, word := range n.ImplicitClasses {
		el.ImplicitClasses = append(el.ImplicitClasses, ast.TextSpan(x.resolveSpanString(word, n.Position, args)))
	}
	for _, value := range n.ExplicitClasses {
		el.ExplicitClasses = append(el.ExplicitClasses, ast.TextSpan(x.resolveSpanString(value, n.Position, args)))
	}

	if n.Text != nil {
		el.Children = append(el.Children, &ast.TextNode{
			Position:           n.Position,
			Span:               *n.Text,
			PreserveWhitespace: true,
			Segments:           x.resolveSpan(*n.Text, n.Position, args),
		})
	}
	el.Children = append(el.Children, x.expandNodes(n.Children, args)...)
	return el
}

// expandRawBlock substitutes variables into raw@ content as one string; the
// plain raw form stays byte-identical.
func (x *expander) expandRawBlock(n *ast.RawBlock, args []argValue) ast.Node {
	if !n.Substitute {
		return &ast.RawBlock{Position: n.Position, Lines: append([]string(nil), n.Lines...)}
	}
	joined := strings.Join(n.Lines, "\n")
	resolved := segmentsText(x.resolveSpan(ast.TextSpan(joined), n.Position, args))
	return &ast.RawBlock{Position: n.Position, Lines: strings.Split(resolved, "\n")}
}

func (x *expander) expandInvocation(n *ast.MacroInvocation, args []argValue) []ast.Node {
	if x.depth >= maxMacroDepth {
		x.errorf(diagnostics.KindMacroRecursion, n.Position,
			"macro expansion exceeded depth %d at %q", maxMacroDepth, n.Name)
		return nil
	}

	macro, ok := x.env.lookupMacro(n.Name)
	if !ok {
		x.errorf(diagnostics.KindUnknownBinding, n.Position, "undefined macro %q", n.Name)
		return nil
	}
	if macro.Parameterized && !n.Parameterized {
		x.errorf(diagnostics.KindBindingKindMismatch, n.Position,
			"macro %q takes arguments; invoke it with '!%s'", n.Name, n.Name)
		return nil
	}
	if !macro.Parameterized && n.Parameterized {
		x.errorf(diagnostics.KindBindingKindMismatch, n.Position,
			"macro %q takes no arguments; invoke it with '@%s'", n.Name, n.Name)
		return nil
	}

	var callArgs []argValue
	if n.Parameterized {
		if len(n.Args) != macro.ArgCount {
			x.errorf(diagnostics.KindMacroArityError, n.Position,
				"macro %q expects %d argument(s), got %d", n.Name, macro.ArgCount, len(n.Args))
		}
		callArgs = make([]argValue, 0, len(n.Args))
		for _, arg := range n.Args {
			callArgs = append(callArgs, x.makeArg(arg, args))
		}
	}

	before := len(*x.diags)
	sub := &expander{file: x.file, env: x.env.clone(), diags: x.diags, depth: x.depth + 1}
	expanded := sub.expandNodes(deepCopyNodes(macro.Body), callArgs)

	// Body diagnostics carry the definition-site position; surface them at
	// the invocation site too, once, from the outermost call.
	if x.depth == 0 {
		for _, d := range (*x.diags)[before:] {
			*x.diags = append(*x.diags, diagnostics.New(d.Kind, x.file, n.Position.Line, n.Position.Column,
				fmt.Sprintf("in expansion of macro %q: %s", n.Name, d.Message), ""))
		}
	}
	return expanded
}

// makeArg expands one positional argument before substitution. A single
// text line or bare word stays a text argument so it can land inside spans.
func (x *expander) makeArg(nodes []ast.Node, args []argValue) argValue {
	expanded := x.expandNodes(nodes, args)
	if len(expanded) == 1 {
		switch n := expanded[0].(type) {
		case *ast.TextNode:
			return argValue{nodes: expanded, text: segmentsText(n.Segments), isText: true}
		case *ast.RawBlock:
			return argValue{nodes: expanded, text: strings.Join(n.Lines, "\n"), isText: true, isRaw: true}
		case *ast.Element:
			if !n.SelfClosing && !n.AnglePrefixed &&
				len(n.Attrs) == 0 && len(n.IDParts) == 0 &&
				len(n.ImplicitClasses) == 0 && len(n.ExplicitClasses) == 0 &&
				n.Text == nil && len(n.Children) == 0 {
				return argValue{nodes: expanded, text: n.Name, isText: true}
			}
		}
	}
	return argValue{nodes: expanded}
}

// resolveSpan segments a span: @N placeholders first (inside parameterized
// bodies), then bound names longest first by plain substring match.
// Replacement text is not rescanned.
func (x *expander) resolveSpan(span ast.TextSpan, pos ast.Position, args []argValue) []ast.Segment {
	var segments []ast.Segment
	text := string(span)

	if args != nil {
		for len(text) > 0 {
			loc := placeholderRe.FindStringSubmatchIndex(text)
			if loc == nil {
				break
			}
			segments = append(segments, x.resolveNames(text[:loc[0]], pos)...)
			index, _ := strconv.Atoi(text[loc[2]:loc[3]])
			if index >= len(args) {
				x.errorf(diagnostics.KindMacroArityError, pos,
					"argument placeholder @%d exceeds the %d provided argument(s)", index, len(args))
			} else {
				arg := args[index]
				if arg.isText {
					segments = append(segments, ast.Segment{Text: arg.text, Raw: arg.isRaw})
				} else {
					segments = append(segments, ast.Segment{Text: renderNodes(arg.nodes), Raw: true})
				}
			}
			text = text[loc[1]:]
		}
	}

	return append(segments, x.resolveNames(text, pos)...)
}

// resolveNames scans literal text for bound names at every position.
func (x *expander) resolveNames(text string, pos ast.Position) []ast.Segment {
	var segments []ast.Segment
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, ast.Segment{Text: literal.String()})
			literal.Reset()
		}
	}

	i := 0
	for i < len(text) {
		matched := false
		for _, name := range x.env.sortedVars {
			if !strings.HasPrefix(text[i:], name) {
				continue
			}
			bound, _ := x.env.lookupVar(name)
			if bound.Kind == ast.BoundSubtree {
				x.errorf(diagnostics.KindBindingKindMismatch, pos,
					"subtree binding %q cannot be used inside a span; give it a line of its own", name)
				break
			}
			flush()
			segments = append(segments, ast.Segment{
				Text: string(bound.Text),
				Raw:  bound.Kind == ast.BoundRawString,
			})
			i += len(name)
			matched = true
			break
		}
		if !matched {
			literal.WriteByte(text[i])
			i++
		}
	}
	flush()
	return segments
}

// resolveSpanString resolves a span into a flat string for attribute, id and
// class positions, where escaping at emission applies uniformly.
func (x *expander) resolveSpanString(span ast.TextSpan, pos ast.Position, args []argValue) string {
	return segmentsText(x.resolveSpan(span, pos, args))
}

func segmentsText(segments []ast.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

func deepCopyNodes(nodes []ast.Node) []ast.Node {
	out := make([]ast.Node, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, deepCopyNode(node))
	}
	return out
}

func deepCopyNode(node ast.Node) ast.Node {
	switch n := node.(type) {
	case *ast.Element:
		c := *n
		c.Attrs = append([]ast.Pair(nil), n.Attrs...)
		c.IDParts = append([]ast.TextSpan(nil), n.IDParts...)
		c.ImplicitClasses = append([]ast.TextSpan(nil), n.ImplicitClasses...)
		c.ExplicitClasses = append([]ast.TextSpan(nil), n.ExplicitClasses...)
		c.Children = deepCopyNodes(n.Children)
		return &c
	case *ast.TextNode:
		c := *n
		c.Segments = append([]ast.Segment(nil), n.Segments...)
		return &c
	case *ast.RawBlock:
		c := *n
		c.Lines = append([]string(nil), n.Lines...)
		return &c
	case *ast.SetBinding:
		c := *n
		c.Body.Nodes = deepCopyNodes(n.Body.Nodes)
		return &c
	case *ast.MacroBinding:
		c := *n
		c.Body = deepCopyNodes(n.Body)
		return &c
	case *ast.MacroInvocation:
		c := *n
		c.Args = make([][]ast.Node, 0, len(n.Args))
		for _, arg := range n.Args {
			c.Args = append(c.Args, deepCopyNodes(arg))
		}
		return &c
	case *ast.MacroArg:
		c := *n
		return &c
	}
	return node
}
