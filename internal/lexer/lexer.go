package lexer

import (
	"fmt"
	"strings"

	"github.com/vbprojects/althtml/internal/diagnostics"
)

const commentMarker = "#//"

// Line is one surviving logical line with its computed indentation level.
type Line struct {
	Number  int
	Level   int
	Leading string
	// Content is the comment-stripped, right-trimmed line body.
	Content string
	// Raw is the untouched line body after Leading, kept for raw blocks.
	Raw string
}

// Source is the scanner output for one input string.
type Source struct {
	File      string
	Lines     []Line
	UnitWidth int
	UnitTab   bool
}

// UnitDetected reports whether any indented line fixed the indentation unit.
func (s Source) UnitDetected() bool {
	return s.UnitTab || s.UnitWidth > 0
}

// LeadingFor reconstructs the whitespace prefix of the given level.
func (s Source) LeadingFor(level int) string {
	if level <= 0 {
		return ""
	}
	if s.UnitTab {
		return strings.Repeat("\t", level)
	}
	return strings.Repeat(" ", level*s.UnitWidth)
}

// scanner tracks indentation state while consuming physical lines.
type scanner struct {
	file      string
	unitWidth int
	unitTab   bool
	unitSet   bool
	prevLevel int
	diags     diagnostics.List
}

func (s *scanner) errorf(kind diagnostics.Kind, line int, col int, snippet string, format string, args ...any) {
	s.diags = append(s.diags, diagnostics.New(kind, s.file, line, col, fmt.Sprintf(format, args...), snippet))
}

// stripComment removes an unquoted, unescaped #// marker and the rest of the
// line. Quote state toggles on unescaped double quotes.
func stripComment(content string) string {
	inQuote := false
	escaped := false
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && strings.HasPrefix(content[i:], commentMarker) {
			return content[:i]
		}
	}
	return content
}

// splitLeading separates the whitespace prefix from the line body.
func splitLeading(line string) (string, string) {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i], line[i:]
}

// level converts a leading prefix into an indentation level, detecting the
// unit on the first indented line.
func (s *scanner) level(number int, leading string) (int, bool) {
	if leading == "" {
		return 0, true
	}
	if strings.ContainsRune(leading, ' ') && strings.ContainsRune(leading, '\t') {
		s.errorf(diagnostics.KindIndentationUnitConflict, number, 1, leading, "mixed tabs and spaces in indentation")
		return 0, false
	}

	if !s.unitSet {
		if leading[0] == '\t' {
			s.unitTab = true
		} else {
			s.unitWidth = len(leading)
		}
		s.unitSet = true
	}

	if s.unitTab {
		if leading[0] != '\t' {
			s.errorf(diagnostics.KindIndentationUnitConflict, number, 1, leading, "space indentation in a tab-indented source")
			return 0, false
		}
		return len(leading), true
	}

	if leading[0] != ' ' {
		s.errorf(diagnostics.KindIndentationUnitConflict, number, 1, leading, "tab indentation in a space-indented source")
		return 0, false
	}
	if len(leading)%s.unitWidth != 0 {
		s.errorf(diagnostics.KindIndentationUnitConflict, number, 1, leading,
			"indentation of %d spaces is not a multiple of the %d-space unit", len(leading), s.unitWidth)
		return 0, false
	}
	return len(leading) / s.unitWidth, true
}

// Scan splits source into surviving lines with validated indentation levels.
func Scan(file string, source string) (Source, diagnostics.List) {
	s := &scanner{file: file}
	out := Source{File: file}

	for number, physical := range strings.Split(source, "\n") {
		physical = strings.TrimSuffix(physical, "\r")
		leading, body := splitLeading(physical)

		content := strings.TrimRight(stripComment(body), " \t")
		if content == "" {
			continue
		}
		content = strings.ReplaceAll(content, "\\"+commentMarker, commentMarker)

		level, ok := s.level(number+1, leading)
		if !ok {
			continue
		}
		if level > s.prevLevel+1 {
			s.errorf(diagnostics.KindIndentationJump, number+1, 1, content,
				"indentation jumped from level %d to level %d", s.prevLevel, level)
			continue
		}
		s.prevLevel = level

		out.Lines = append(out.Lines, Line{
			Number:  number + 1,
			Level:   level,
			Leading: leading,
			Content: content,
			Raw:     body,
		})
	}

	out.UnitWidth = s.unitWidth
	out.UnitTab = s.unitTab
	return out, s.diags
}
