package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vbprojects/althtml/internal/config"
	"github.com/vbprojects/althtml/internal/report"
)

func mustWrite(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestRunBuildEndToEndAndReports(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(in, "nested"), 0o755))
	mustWrite(t, filepath.Join(in, "a.alt"), "div\n  p | hi\n")
	mustWrite(t, filepath.Join(in, "nested", "b.alt"), "set x = \"1\"\nspan | x\n")

	cfg := config.Default()
	cfg.In = in
	cfg.Out = out
	cfg.Check = true
	cfg.ReportJSON = filepath.Join(root, "report", "report.json")
	cfg.ReportCSV = filepath.Join(root, "report", "report.csv")

	require.NoError(t, runBuild(context.Background(), cfg))

	assertExists(t, filepath.Join(out, "a.html"))
	assertExists(t, filepath.Join(out, "nested", "b.html"))
	assertExists(t, cfg.ReportJSON)
	assertExists(t, cfg.ReportCSV)

	raw, err := os.ReadFile(filepath.Join(out, "a.html"))
	require.NoError(t, err)
	require.Equal(t, "<div><p>hi</p></div>", string(raw))

	reportRaw, err := os.ReadFile(cfg.ReportJSON)
	require.NoError(t, err)
	var decoded report.JSONReport
	require.NoError(t, json.Unmarshal(reportRaw, &decoded))
	require.Equal(t, 2, decoded.Summary.Discovered)
	require.Equal(t, 2, decoded.Summary.Compiled)
}

func TestRunBuildNonStrictContinuesAndFails(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(in, 0o755))
	mustWrite(t, filepath.Join(in, "bad.alt"), "raw oops\n")
	mustWrite(t, filepath.Join(in, "good.alt"), "p | fine\n")

	cfg := config.Default()
	cfg.In = in
	cfg.Out = out

	err := runBuild(context.Background(), cfg)
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, ExitCodeCompileFailed, exitErr.Code)

	assertExists(t, filepath.Join(out, "good.html"))
}

func TestRunBuildStrictStopsAtFirstFailure(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(in, 0o755))
	mustWrite(t, filepath.Join(in, "a_bad.alt"), "@nope\n")
	mustWrite(t, filepath.Join(in, "b_good.alt"), "p\n")

	cfg := config.Default()
	cfg.In = in
	cfg.Out = out
	cfg.Strict = true

	err := runBuild(context.Background(), cfg)
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, ExitCodeCompileFailed, exitErr.Code)

	_, statErr := os.Stat(filepath.Join(out, "b_good.html"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRootCommandCompilesSingleFile(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "page.alt")
	output := filepath.Join(root, "page.html")
	mustWrite(t, input, "html\n  body\n    p | hi\n")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{input, output})
	require.NoError(t, cmd.Execute())

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, "<html><body><p>hi</p></body></html>", string(raw))
}

func TestRootCommandReportsDiagnostics(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "broken.alt")
	mustWrite(t, input, "raw oops\n")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{input})

	err := cmd.Execute()
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, ExitCodeCompileFailed, exitErr.Code)
	require.Contains(t, stderr.String(), "RawBlockMisuse")
	require.Contains(t, stderr.String(), input+":1:1:")
}
