package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/vbprojects/althtml/internal/diagnostics"
)

// FileStatus is the per-template processing status used in reports.
type FileStatus string

const (
	StatusCompiled      FileStatus = "compiled"
	StatusCompileFailed FileStatus = "failed_compile"
	StatusCheckFailed   FileStatus = "failed_check"
)

// DiagnosticItem is the report-friendly representation of one diagnostic.
type DiagnosticItem struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// FileItem describes compilation and validation for one template file.
type FileItem struct {
	File             string           `json:"file"`
	Status           FileStatus       `json:"status"`
	Diagnostics      []DiagnosticItem `json:"diagnostics,omitempty"`
	FeaturesDetected []string         `json:"features_detected,omitempty"`
	Checked          bool             `json:"checked"`
}

// Summary contains aggregate counters for a build run.
type Summary struct {
	Discovered    int `json:"discovered"`
	Compiled      int `json:"compiled"`
	CompileFailed int `json:"compile_failed"`
	CheckFailed   int `json:"check_failed"`
}

// JSONReport is the structured report persisted by --report-json.
type JSONReport struct {
	GeneratedAt string     `json:"generated_at"`
	Summary     Summary    `json:"summary"`
	Files       []FileItem `json:"files"`
}

// NewJSONReport builds a report payload with RFC3339 generation timestamp.
func NewJSONReport(summary Summary, files []FileItem) JSONReport {
	return JSONReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:     summary,
		Files:       files,
	}
}

// ToDiagnosticItems converts an error into typed report diagnostics.
func ToDiagnosticItems(file string, err error) []DiagnosticItem {
	list, ok := diagnostics.AsList(err)
	if !ok {
		return []DiagnosticItem{{
			Kind:    "ERROR",
			Message: err.Error(),
			File:    file,
		}}
	}

	items := make([]DiagnosticItem, 0, len(list))
	for _, d := range list {
		items = append(items, DiagnosticItem{
			Kind:    string(d.Kind),
			Message: d.Message,
			File:    d.File,
			Line:    d.Line,
			Column:  d.Column,
			Snippet: d.Snippet,
		})
	}
	return items
}

// WriteJSON writes the full JSON report if path is non-empty.
func WriteJSON(path string, report JSONReport) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	return os.WriteFile(path, raw, 0o644)
}

func intToString(v int) string {
	return strconv.Itoa(v)
}

func boolToString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// WriteCSV writes the flattened CSV report if path is non-empty.
func WriteCSV(path string, files []FileItem) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	defer w.Flush()

	header := []string{
		"file",
		"status",
		"diagnostics_count",
		"features_count",
		"checked",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	copied := append([]FileItem(nil), files...)
	sort.Slice(copied, func(i, j int) bool { return copied[i].File < copied[j].File })

	for _, item := range copied {
		row := []string{
			item.File,
			string(item.Status),
			intToString(len(item.Diagnostics)),
			intToString(len(item.FeaturesDetected)),
			boolToString(item.Checked),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
