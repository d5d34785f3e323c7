package compile

import (
	"github.com/vbprojects/althtml/internal/diagnostics"
	"github.com/vbprojects/althtml/internal/lexer"
	"github.com/vbprojects/althtml/internal/parser"
)

// Result is the compilation output for one source.
type Result struct {
	HTML     string
	Features []string
}

// Compiler turns althtml source into HTML. The environment survives across
// Compile calls so header files can preload set and macro bindings; Reset
// clears it.
type Compiler struct {
	env *env
}

// NewCompiler builds a compiler with an empty environment.
func NewCompiler() *Compiler {
	return &Compiler{env: newEnv()}
}

// Reset discards every binding registered by earlier compilations.
func (c *Compiler) Reset() {
	c.env = newEnv()
}

// Compile scans, parses, expands and emits one source string. On failure it
// returns every diagnostic collected across the pipeline; one error never
// masks later independent errors.
func (c *Compiler) Compile(file string, source string) (Result, error) {
	var diags diagnostics.List

	src, scanDiags := lexer.Scan(file, source)
	diags = append(diags, scanDiags...)

	doc := parser.Build(src, &diags)

	x := &expander{file: file, env: c.env, diags: &diags}
	expanded := x.expandNodes(doc.Nodes, nil)

	if len(diags) > 0 {
		return Result{}, diags
	}
	return Result{
		HTML:     renderNodes(expanded),
		Features: detectFeatures(doc),
	}, nil
}
