package diagnostics

import (
	"fmt"
	"strings"
)

// Kind classifies a compile diagnostic.
type Kind string

const (
	KindIndentationUnitConflict Kind = "IndentationUnitConflict"
	KindIndentationJump         Kind = "IndentationJump"
	KindUnknownDirective        Kind = "UnknownDirective"
	KindMalformedAttribute      Kind = "MalformedAttribute"
	KindUnknownBinding          Kind = "UnknownBinding"
	KindBindingKindMismatch     Kind = "BindingKindMismatch"
	KindMacroArityError         Kind = "MacroArityError"
	KindMacroRecursion          Kind = "MacroRecursion"
	KindNameConflict            Kind = "NameConflict"
	KindRawBlockMisuse          Kind = "RawBlockMisuse"
	KindSelfClosingHasChildren  Kind = "SelfClosingHasChildren"
)

// Diagnostic is a structured compile error with source metadata.
type Diagnostic struct {
	Kind    Kind
	Message string
	File    string
	Line    int
	Column  int
	Snippet string
}

// Error implements the error interface with file:line:col: kind: message formatting.
func (d Diagnostic) Error() string {
	location := d.File
	if d.Line > 0 {
		location = fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
	}
	if d.Kind == "" {
		return fmt.Sprintf("%s: %s", location, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", location, d.Kind, d.Message)
}

// New constructs a Diagnostic value.
func New(kind Kind, file string, line int, column int, msg string, snippet string) Diagnostic {
	return Diagnostic{
		Kind:    kind,
		Message: msg,
		File:    file,
		Line:    line,
		Column:  column,
		Snippet: snippet,
	}
}

// List collects every diagnostic produced by one compilation.
type List []Diagnostic

// Error joins the collected diagnostics one per line.
func (l List) Error() string {
	msgs := make([]string, 0, len(l))
	for _, d := range l {
		msgs = append(msgs, d.Error())
	}
	return strings.Join(msgs, "\n")
}

// AsList extracts a diagnostic list from an arbitrary error.
func AsList(err error) (List, bool) {
	switch e := err.(type) {
	case List:
		return e, true
	case Diagnostic:
		return List{e}, true
	default:
		return nil, false
	}
}
