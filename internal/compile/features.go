package compile

import (
	"sort"

	"github.com/vbprojects/althtml/internal/ast"
)

func detectFeatures(doc ast.Document) []string {
	set := map[string]struct{}{}

	var walk func(nodes []ast.Node)
	walk = func(nodes []ast.Node) {
		for _, n := range nodes {
			switch t := n.(type) {
			case *ast.Element:
				set["node:element"] = struct{}{}
				if t.SelfClosing {
					set["tag:self_closing"] = struct{}{}
				}
				if t.AnglePrefixed {
					set["tag:custom_element"] = struct{}{}
				}
				if len(t.IDParts) > 0 {
					set["attr:id"] = struct{}{}
				}
				if len(t.ImplicitClasses) > 0 || len(t.ExplicitClasses) > 0 {
					set["attr:class"] = struct{}{}
				}
				if t.Text != nil {
					set["node:inline_text"] = struct{}{}
				}
				walk(t.Children)
			case *ast.TextNode:
				set["node:text"] = struct{}{}
			case *ast.RawBlock:
				if t.Substitute {
					set["directive:raw_substitute"] = struct{}{}
				} else {
					set["directive:raw"] = struct{}{}
				}
			case *ast.SetBinding:
				switch t.Body.Kind {
				case ast.BoundLiteral:
					set["directive:set"] = struct{}{}
				case ast.BoundRawString:
					set["directive:set_raw"] = struct{}{}
				case ast.BoundSubtree:
					set["directive:set_block"] = struct{}{}
					walk(t.Body.Nodes)
				}
			case *ast.MacroBinding:
				if t.Parameterized {
					set["macro:def_args"] = struct{}{}
				} else {
					set["macro:def"] = struct{}{}
				}
				walk(t.Body)
			case *ast.MacroInvocation:
				if t.Parameterized {
					set["macro:call"] = struct{}{}
				} else {
					set["macro:invoke"] = struct{}{}
				}
				for _, arg := range t.Args {
					walk(arg)
				}
			case *ast.MacroArg:
				set["macro:placeholder"] = struct{}{}
			}
		}
	}

	walk(doc.Nodes)
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
