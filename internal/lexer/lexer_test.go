package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vbprojects/althtml/internal/diagnostics"
)

func TestScanComputesLevels(t *testing.T) {
	src := "html\n  head\n    title\n  body\n"
	out, diags := Scan("page.alt", src)
	require.Empty(t, diags)
	require.Len(t, out.Lines, 4)
	require.Equal(t, []int{0, 1, 2, 1}, []int{out.Lines[0].Level, out.Lines[1].Level, out.Lines[2].Level, out.Lines[3].Level})
	require.Equal(t, 2, out.UnitWidth)
	require.False(t, out.UnitTab)
}

func TestScanTabUnit(t *testing.T) {
	src := "div\n\tp\n\t\tspan\n"
	out, diags := Scan("page.alt", src)
	require.Empty(t, diags)
	require.True(t, out.UnitTab)
	require.Equal(t, 2, out.Lines[2].Level)
	require.Equal(t, "\t\t", out.LeadingFor(2))
}

func TestScanStripsCRLFAndBlankLines(t *testing.T) {
	src := "div\r\n\r\n  p\r\n"
	out, diags := Scan("page.alt", src)
	require.Empty(t, diags)
	require.Len(t, out.Lines, 2)
	require.Equal(t, "p", out.Lines[1].Content)
	require.Equal(t, 3, out.Lines[1].Number)
}

func TestScanStripsComments(t *testing.T) {
	out, diags := Scan("page.alt", "div #// trailing note\n#// whole line\np\n")
	require.Empty(t, diags)
	require.Len(t, out.Lines, 2)
	require.Equal(t, "div", out.Lines[0].Content)
	require.Equal(t, "p", out.Lines[1].Content)
}

func TestScanKeepsCommentMarkerInQuotes(t *testing.T) {
	out, diags := Scan("page.alt", `p data-x="a#//b"`)
	require.Empty(t, diags)
	require.Equal(t, `p data-x="a#//b"`, out.Lines[0].Content)
}

func TestScanUnescapesCommentMarker(t *testing.T) {
	out, diags := Scan("page.alt", `| see \#// for comments`)
	require.Empty(t, diags)
	require.Equal(t, `| see #// for comments`, out.Lines[0].Content)
}

func TestScanRejectsMixedIndentation(t *testing.T) {
	_, diags := Scan("page.alt", "div\n\t p\n")
	require.Len(t, diags, 1)
	require.Equal(t, diagnostics.KindIndentationUnitConflict, diags[0].Kind)
	require.Equal(t, 2, diags[0].Line)
}

func TestScanRejectsNonIntegerLevel(t *testing.T) {
	_, diags := Scan("page.alt", "div\n   p\n  q\n")
	require.Len(t, diags, 1)
	require.Equal(t, diagnostics.KindIndentationUnitConflict, diags[0].Kind)
	require.Equal(t, 3, diags[0].Line)
}

func TestScanRejectsIndentationJump(t *testing.T) {
	_, diags := Scan("page.alt", "div\n  p\n      b\n")
	require.Len(t, diags, 1)
	require.Equal(t, diagnostics.KindIndentationJump, diags[0].Kind)
}

func TestScanAllowsAnyDecrease(t *testing.T) {
	src := "a\n  b\n    c\nd\n"
	out, diags := Scan("page.alt", src)
	require.Empty(t, diags)
	require.Equal(t, 0, out.Lines[3].Level)
}

func TestScanKeepsRawBody(t *testing.T) {
	out, diags := Scan("page.alt", "raw\n  <b>kept #// verbatim</b>\n")
	require.Empty(t, diags)
	require.Equal(t, "<b>kept", out.Lines[1].Content)
	require.Equal(t, "<b>kept #// verbatim</b>", out.Lines[1].Raw)
}
