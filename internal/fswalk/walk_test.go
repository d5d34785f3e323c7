package fswalk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustWrite(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverTemplatesMatchesGlob(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "index.alt"), "div")
	mustWrite(t, filepath.Join(root, "nested", "about.alt"), "p")
	mustWrite(t, filepath.Join(root, "nested", "notes.txt"), "skip")

	files, err := DiscoverTemplates(root, "**/*.alt")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "index.alt", files[0].RelPath)
	require.Equal(t, filepath.Join("nested", "about.alt"), files[1].RelPath)
}

func TestDiscoverTemplatesDefaultsPattern(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.alt"), "div")

	files, err := DiscoverTemplates(root, "  ")
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestExpandGlobs(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "shared", "head.alt"), "set x = \"1\"")
	mustWrite(t, filepath.Join(root, "shared", "foot.alt"), "set y = \"2\"")

	matches, err := ExpandGlobs(root, []string{"shared/*.alt", "shared/head.alt"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestMirrorOutputPathSwapsExtension(t *testing.T) {
	out := MirrorOutputPath("dist", filepath.Join("nested", "about.alt"), ".html")
	require.Equal(t, filepath.Join("dist", "nested", "about.html"), out)
}

func TestEnsureParentDir(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b", "c.html")
	require.NoError(t, EnsureParentDir(target))
	info, err := os.Stat(filepath.Join(root, "a", "b"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
