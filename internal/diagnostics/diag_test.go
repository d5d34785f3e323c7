package diagnostics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiagnosticFormatting(t *testing.T) {
	d := New(KindIndentationJump, "page.alt", 4, 1, "indentation jumped from level 1 to level 3", "")
	require.Equal(t, "page.alt:4:1: IndentationJump: indentation jumped from level 1 to level 3", d.Error())
}

func TestDiagnosticWithoutPosition(t *testing.T) {
	d := Diagnostic{Kind: KindUnknownBinding, File: "page.alt", Message: "undefined macro"}
	require.Equal(t, "page.alt: UnknownBinding: undefined macro", d.Error())
}

func TestListJoinsLines(t *testing.T) {
	l := List{
		New(KindRawBlockMisuse, "a.alt", 1, 1, "inline raw content", ""),
		New(KindUnknownBinding, "a.alt", 2, 1, "undefined macro \"nope\"", ""),
	}
	require.Equal(t,
		"a.alt:1:1: RawBlockMisuse: inline raw content\na.alt:2:1: UnknownBinding: undefined macro \"nope\"",
		l.Error())
}

func TestAsList(t *testing.T) {
	single := New(KindNameConflict, "a.alt", 1, 1, "conflict", "")
	list, ok := AsList(single)
	require.True(t, ok)
	require.Len(t, list, 1)

	list, ok = AsList(List{single})
	require.True(t, ok)
	require.Len(t, list, 1)

	_, ok = AsList(errors.New("plain"))
	require.False(t, ok)
}
