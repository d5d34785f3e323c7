package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/vbprojects/althtml/internal/compile"
	"github.com/vbprojects/althtml/internal/diagnostics"
	"github.com/vbprojects/althtml/internal/fswalk"
)

// runCompileFile compiles one input file to the output path or stdout.
// Diagnostics are printed one per line to stderr.
func runCompileFile(stdout io.Writer, stderr io.Writer, input string, output string) error {
	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %q: %w", input, err)
	}

	result, err := compile.NewCompiler().Compile(input, string(raw))
	if err != nil {
		if list, ok := diagnostics.AsList(err); ok {
			for _, d := range list {
				fmt.Fprintln(stderr, d.Error())
			}
			return newExitError(ExitCodeCompileFailed,
				fmt.Errorf("compilation failed with %d error(s)", len(list)))
		}
		return newExitError(ExitCodeCompileFailed, err)
	}

	if output == "" {
		fmt.Fprintln(stdout, result.HTML)
		return nil
	}
	if err := fswalk.EnsureParentDir(output); err != nil {
		return fmt.Errorf("prepare output path %q: %w", output, err)
	}
	if err := os.WriteFile(output, []byte(result.HTML), 0o644); err != nil {
		return fmt.Errorf("write output %q: %w", output, err)
	}
	return nil
}
