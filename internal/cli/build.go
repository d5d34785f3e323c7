package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vbprojects/althtml/internal/compile"
	"github.com/vbprojects/althtml/internal/config"
	"github.com/vbprojects/althtml/internal/fswalk"
	"github.com/vbprojects/althtml/internal/htmlcheck"
	"github.com/vbprojects/althtml/internal/report"
)

func newBuildCmd() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:           "build",
		Short:         "Compile every template under a directory tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.In, "in", "", "Input root directory containing .alt templates")
	cmd.Flags().StringVar(&cfg.Out, "out", "", "Output root directory for compiled HTML")
	cmd.Flags().StringVar(&cfg.Glob, "glob", cfg.Glob, "Glob pattern relative to --in (supports **)")
	cmd.Flags().StringVar(&cfg.Ext, "ext", cfg.Ext, "Output file extension (example: .html)")
	cmd.Flags().BoolVar(&cfg.Check, "check", cfg.Check, "Verify tag balance of emitted HTML")
	cmd.Flags().BoolVar(&cfg.Strict, "strict", cfg.Strict, "Stop at the first failing file")
	cmd.Flags().StringVar(&cfg.ReportJSON, "report-json", "", "Optional JSON report output path")
	cmd.Flags().StringVar(&cfg.ReportCSV, "report-csv", "", "Optional CSV report output path")

	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func writeReports(cfg config.Config, summary report.Summary, files []report.FileItem) error {
	if cfg.ReportJSON != "" {
		if err := report.WriteJSON(cfg.ReportJSON, report.NewJSONReport(summary, files)); err != nil {
			return err
		}
	}
	if cfg.ReportCSV != "" {
		if err := report.WriteCSV(cfg.ReportCSV, files); err != nil {
			return err
		}
	}
	return nil
}

func runBuild(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	files, err := fswalk.DiscoverTemplates(cfg.In, cfg.Glob)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no template files matched %q under %q", cfg.Glob, cfg.In)
	}

	var (
		compiled      int
		compileFailed int
		checkFailed   int

		fileItems = make([]report.FileItem, 0, len(files))

		stopErr  error
		stopCode = ExitCodeSuccess
	)

	for _, f := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return fmt.Errorf("read %q: %w", f.AbsPath, err)
		}

		item := report.FileItem{
			File: f.RelPath,
		}

		result, err := compile.NewCompiler().Compile(f.RelPath, string(raw))
		if err != nil {
			compileFailed++
			item.Status = report.StatusCompileFailed
			item.Diagnostics = report.ToDiagnosticItems(f.RelPath, err)
			fileItems = append(fileItems, item)
			slog.Warn("compile failed", "file", f.RelPath, "error", err)
			if cfg.Strict {
				stopErr = fmt.Errorf("compile failed on %s: %w", f.RelPath, err)
				stopCode = ExitCodeCompileFailed
				break
			}
			continue
		}
		item.FeaturesDetected = append(item.FeaturesDetected, result.Features...)

		if cfg.Check {
			item.Checked = true
			if err := htmlcheck.CheckBalance(f.RelPath, result.HTML); err != nil {
				checkFailed++
				item.Status = report.StatusCheckFailed
				item.Diagnostics = report.ToDiagnosticItems(f.RelPath, err)
				fileItems = append(fileItems, item)
				slog.Warn("check failed", "file", f.RelPath, "error", err)
				if cfg.Strict {
					stopErr = fmt.Errorf("check failed on %s: %w", f.RelPath, err)
					stopCode = ExitCodeCheckFailed
					break
				}
				continue
			}
		}
		item.Status = report.StatusCompiled

		outPath := fswalk.MirrorOutputPath(cfg.Out, f.RelPath, cfg.Ext)
		if err := fswalk.EnsureParentDir(outPath); err != nil {
			return fmt.Errorf("prepare output path %q: %w", outPath, err)
		}
		if err := os.WriteFile(outPath, []byte(result.HTML), 0o644); err != nil {
			return fmt.Errorf("write compiled output %q: %w", outPath, err)
		}
		compiled++
		fileItems = append(fileItems, item)
	}

	slog.Info(
		"build summary",
		"discovered",
		len(files),
		"compiled",
		compiled,
		"compile_failed",
		compileFailed,
		"check_failed",
		checkFailed,
		"input",
		filepath.Clean(cfg.In),
		"output",
		filepath.Clean(cfg.Out),
	)

	summary := report.Summary{
		Discovered:    len(files),
		Compiled:      compiled,
		CompileFailed: compileFailed,
		CheckFailed:   checkFailed,
	}

	if err := writeReports(cfg, summary, fileItems); err != nil {
		return fmt.Errorf("write report artifacts: %w", err)
	}
	if cfg.ReportJSON != "" || cfg.ReportCSV != "" {
		slog.Info("reports written", "json", cfg.ReportJSON, "csv", cfg.ReportCSV)
	}

	if stopErr != nil {
		return newExitError(stopCode, stopErr)
	}

	if compileFailed > 0 {
		return newExitError(ExitCodeCompileFailed, fmt.Errorf("build finished with %d failed files", compileFailed))
	}
	if checkFailed > 0 {
		return newExitError(ExitCodeCheckFailed, fmt.Errorf("validation finished with check_failed=%d", checkFailed))
	}

	return nil
}
