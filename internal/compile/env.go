package compile

import (
	"sort"

	"github.com/vbprojects/althtml/internal/ast"
)

// macroDef is one registered :macro definition.
type macroDef struct {
	Name          string
	Parameterized bool
	ArgCount      int
	Body          []ast.Node
	Position      ast.Position
}

// env maps names to set bindings and macro definitions. Names share a single
// namespace; a set and a macro may not share a name.
type env struct {
	vars   map[string]ast.BoundValue
	macros map[string]macroDef
	// sortedVars caches variable names longest first for span segmentation.
	sortedVars []string
}

func newEnv() *env {
	return &env{
		vars:   map[string]ast.BoundValue{},
		macros: map[string]macroDef{},
	}
}

// clone snapshots the environment for call-by-value macro expansion.
func (e *env) clone() *env {
	c := newEnv()
	for k, v := range e.vars {
		c.vars[k] = v
	}
	for k, v := range e.macros {
		c.macros[k] = v
	}
	c.sortedVars = append([]string(nil), e.sortedVars...)
	return c
}

// defineVar binds a name to a value, replacing any earlier set binding from
// this point onward. Returns false when the name is taken by a macro.
func (e *env) defineVar(name string, value ast.BoundValue) bool {
	if _, taken := e.macros[name]; taken {
		return false
	}
	if _, existed := e.vars[name]; !existed {
		e.sortedVars = append(e.sortedVars, name)
		sort.Slice(e.sortedVars, func(i, j int) bool {
			a, b := e.sortedVars[i], e.sortedVars[j]
			if len(a) != len(b) {
				return len(a) > len(b)
			}
			return a < b
		})
	}
	e.vars[name] = value
	return true
}

// defineMacro registers a macro definition. Returns false when the name is
// taken by a set binding.
func (e *env) defineMacro(def macroDef) bool {
	if _, taken := e.vars[def.Name]; taken {
		return false
	}
	e.macros[def.Name] = def
	return true
}

func (e *env) lookupVar(name string) (ast.BoundValue, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e *env) lookupMacro(name string) (macroDef, bool) {
	m, ok := e.macros[name]
	return m, ok
}
