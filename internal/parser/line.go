package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vbprojects/althtml/internal/ast"
	"github.com/vbprojects/althtml/internal/diagnostics"
	"github.com/vbprojects/althtml/internal/lexer"
)

var (
	tagHeadRe  = regexp.MustCompile(`^(<?)([A-Za-z0-9_-]+)(>?)\s*(.*)$`)
	macroArgRe = regexp.MustCompile(`^@(\d+)$`)
	nameRe     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
)

// lineParser classifies one stripped line into its LineForm.
type lineParser struct {
	file  string
	diags *diagnostics.List
}

func (p *lineParser) errorf(kind diagnostics.Kind, line lexer.Line, col int, msg string, snippet string) {
	*p.diags = append(*p.diags, diagnostics.New(kind, p.file, line.Number, len(line.Leading)+col, msg, snippet))
}

// parse returns the LineForm for a line, or nil when the line cannot be
// classified and a diagnostic was recorded instead. A tag line whose
// attributes are malformed records a diagnostic and still returns its
// TagLine with the attributes parsed before the error.
func (p *lineParser) parse(ln lexer.Line) ast.LineForm {
	content := ln.Content

	switch {
	case content == "set" || strings.HasPrefix(content, "set "):
		return p.parseSet(ln, strings.TrimPrefix(content, "set"))
	case content == ":macro" || strings.HasPrefix(content, ":macro "):
		return p.parseMacroDef(ln, strings.TrimPrefix(content, ":macro"))
	case content == "raw":
		return ast.RawDirectiveLine{Substitute: false}
	case content == "raw@":
		return ast.RawDirectiveLine{Substitute: true}
	case strings.HasPrefix(content, "raw ") || strings.HasPrefix(content, "raw@ "):
		p.errorf(diagnostics.KindRawBlockMisuse, ln, 1,
			"raw directives take no inline content; put the content on an indented block", content)
		return nil
	case strings.HasPrefix(content, "@"):
		return p.parseMacroRef(ln, content)
	case strings.HasPrefix(content, "!"):
		return p.parseBang(ln, content)
	case strings.HasPrefix(content, "|"):
		return ast.TextLine{Span: pipeText(content[1:]), Explicit: true}
	}

	if m := tagHeadRe.FindStringSubmatch(content); m != nil {
		return p.parseTag(ln, m[1] == "<", m[2], m[3] == ">", m[4], len(content)-len(m[4])+1)
	}

	// Quoted implicit text keeps its internal whitespace; the quotes drop.
	if span, quoted := quotedText(content); quoted {
		return ast.TextLine{Span: span, Explicit: true}
	}
	return ast.TextLine{Span: ast.TextSpan(content), Explicit: false}
}

// pipeText drops the single separator space conventionally written after |.
func pipeText(rest string) ast.TextSpan {
	return ast.TextSpan(strings.TrimPrefix(rest, " "))
}

// quotedText unwraps an implicit text line wrapped in double quotes.
func quotedText(content string) (ast.TextSpan, bool) {
	if len(content) >= 2 && strings.HasPrefix(content, `"`) && strings.HasSuffix(content, `"`) {
		return ast.TextSpan(content[1 : len(content)-1]), true
	}
	return "", false
}

func (p *lineParser) parseSet(ln lexer.Line, rest string) ast.LineForm {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		p.errorf(diagnostics.KindUnknownDirective, ln, 1, "variable name missing after 'set'", ln.Content)
		return nil
	}

	name, value, assigned := strings.Cut(rest, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		p.errorf(diagnostics.KindUnknownDirective, ln, 1, "variable name missing after 'set'", ln.Content)
		return nil
	}
	if !assigned {
		return ast.SetLine{Name: name}
	}

	value = strings.TrimSpace(value)
	unquoted, ok := unquote(value)
	if !ok {
		p.errorf(diagnostics.KindMalformedAttribute, ln, 1,
			"inline set value for '"+name+"' must be enclosed in double quotes", ln.Content)
		return nil
	}
	span := ast.TextSpan(unquoted)
	return ast.SetLine{Name: name, Inline: &span}
}

func (p *lineParser) parseMacroDef(ln lexer.Line, rest string) ast.LineForm {
	rest = strings.TrimSpace(rest)
	parameterized := strings.HasPrefix(rest, "!")
	name := strings.TrimPrefix(rest, "!")
	if name == "" || !nameRe.MatchString(name) {
		p.errorf(diagnostics.KindUnknownDirective, ln, 1, "macro name missing after ':macro'", ln.Content)
		return nil
	}
	return ast.MacroDefLine{Name: name, Parameterized: parameterized}
}

func (p *lineParser) parseMacroRef(ln lexer.Line, content string) ast.LineForm {
	rest := strings.TrimSpace(content[1:])
	if m := macroArgRe.FindStringSubmatch(content); m != nil {
		index, err := strconv.Atoi(m[1])
		if err != nil {
			p.errorf(diagnostics.KindUnknownDirective, ln, 1, "invalid argument placeholder", content)
			return nil
		}
		return ast.MacroArgLine{Index: index}
	}
	if rest == "" || !nameRe.MatchString(rest) {
		p.errorf(diagnostics.KindUnknownDirective, ln, 1, "macro name missing after '@'", content)
		return nil
	}
	return ast.MacroRefLine{Name: rest, Parameterized: false}
}

func (p *lineParser) parseBang(ln lexer.Line, content string) ast.LineForm {
	if len(content) >= len("!DOCTYPE") && strings.EqualFold(content[:len("!DOCTYPE")], "!DOCTYPE") {
		rest := content[len("!DOCTYPE"):]
		if rest == "" || strings.HasPrefix(rest, " ") {
			return p.parseTag(ln, false, "!DOCTYPE", false, strings.TrimLeft(rest, " "), len("!DOCTYPE")+1)
		}
	}

	rest := strings.TrimSpace(content[1:])
	if rest == "" || !nameRe.MatchString(rest) {
		p.errorf(diagnostics.KindUnknownDirective, ln, 1, "macro name missing after '!'", content)
		return nil
	}
	return ast.MacroRefLine{Name: rest, Parameterized: true}
}

func (p *lineParser) parseTag(ln lexer.Line, angle bool, name string, selfClosing bool, rest string, restCol int) ast.LineForm {
	tag := ast.TagLine{
		Name:          name,
		AnglePrefixed: angle,
		SelfClosing:   selfClosing,
	}
	attrs, text := p.parseAttributes(ln, rest, restCol)
	tag.Attrs = attrs
	tag.Text = text
	return tag
}

// parseAttributes tokenizes the attribute region left to right, respecting
// double-quoted values with \" and \\ escapes. A top-level | ends attributes
// and the remainder becomes the same-line text span.
func (p *lineParser) parseAttributes(ln lexer.Line, rest string, restCol int) ([]ast.AttrPart, *ast.TextSpan) {
	var attrs []ast.AttrPart
	i := 0
	for i < len(rest) {
		switch rest[i] {
		case ' ', '\t':
			i++
			continue
		case '|':
			span := pipeText(rest[i+1:])
			return attrs, &span
		}

		start := i
		name, next, ok := p.scanAttrName(ln, rest, i, restCol)
		if !ok {
			return attrs, nil
		}
		i = next

		if i < len(rest) && rest[i] == '=' {
			i++
			value, next, ok := p.scanAttrValue(ln, rest, i, restCol)
			if !ok {
				return attrs, nil
			}
			i = next
			if name == "" {
				p.errorf(diagnostics.KindMalformedAttribute, ln, restCol+start,
					"attribute value without a name", rest[start:i])
				continue
			}
			if strings.EqualFold(name, "class") {
				attrs = append(attrs, ast.ExplicitClass{Value: ast.TextSpan(value)})
			} else {
				attrs = append(attrs, ast.Pair{Name: name, Value: ast.TextSpan(value)})
			}
			continue
		}

		if name == "" {
			p.errorf(diagnostics.KindMalformedAttribute, ln, restCol+start,
				"unexpected character in attributes", rest[start:])
			return attrs, nil
		}
		if strings.HasPrefix(name, "#") {
			attrs = append(attrs, ast.IdFragment{Value: ast.TextSpan(name[1:])})
		} else {
			attrs = append(attrs, ast.ClassWord{Word: ast.TextSpan(name)})
		}
	}
	return attrs, nil
}

// scanAttrName consumes a token up to =, whitespace, or a top-level pipe.
func (p *lineParser) scanAttrName(ln lexer.Line, rest string, i int, restCol int) (string, int, bool) {
	start := i
	for i < len(rest) {
		ch := rest[i]
		if ch == '=' || ch == ' ' || ch == '\t' || ch == '|' {
			break
		}
		if ch == '"' {
			p.errorf(diagnostics.KindMalformedAttribute, ln, restCol+i,
				"unexpected quote in attribute name", rest[start:])
			return "", i, false
		}
		i++
	}
	return rest[start:i], i, true
}

// scanAttrValue consumes a quoted or unquoted attribute value.
func (p *lineParser) scanAttrValue(ln lexer.Line, rest string, i int, restCol int) (string, int, bool) {
	if i >= len(rest) || rest[i] != '"' {
		start := i
		for i < len(rest) && rest[i] != ' ' && rest[i] != '\t' && rest[i] != '|' {
			i++
		}
		return rest[start:i], i, true
	}

	start := i
	i++
	var b strings.Builder
	for i < len(rest) {
		ch := rest[i]
		if ch == '\\' && i+1 < len(rest) && (rest[i+1] == '"' || rest[i+1] == '\\') {
			b.WriteByte(rest[i+1])
			i += 2
			continue
		}
		if ch == '"' {
			return b.String(), i + 1, true
		}
		b.WriteByte(ch)
		i++
	}
	p.errorf(diagnostics.KindMalformedAttribute, ln, restCol+start, "unterminated quoted attribute value", rest[start:])
	return "", i, false
}

// unquote strips surrounding double quotes and resolves \" and \\ escapes.
func unquote(value string) (string, bool) {
	if len(value) < 2 || !strings.HasPrefix(value, `"`) || !strings.HasSuffix(value, `"`) {
		return "", false
	}
	inner := value[1 : len(value)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) && (inner[i+1] == '"' || inner[i+1] == '\\') {
			b.WriteByte(inner[i+1])
			i++
			continue
		}
		b.WriteByte(inner[i])
	}
	return b.String(), true
}
