package htmlcheck

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckBalanceAccepts(t *testing.T) {
	cases := []string{
		"<html><body><p>hi</p></body></html>",
		`<!DOCTYPE html><div id="x"><br /><img src="a.png" /></div>`,
		"<div><meta charset=\"utf-8\"><hr></div>",
		"plain text, no tags",
	}
	for _, html := range cases {
		require.NoError(t, CheckBalance("page.alt", html))
	}
}

func TestCheckBalanceRejectsUnclosed(t *testing.T) {
	require.Error(t, CheckBalance("page.alt", "<div><p>hi</div>"))
	require.Error(t, CheckBalance("page.alt", "<div>"))
	require.Error(t, CheckBalance("page.alt", "</div>"))
	require.Error(t, CheckBalance("page.alt", "<div"))
}
