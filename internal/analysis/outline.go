package analysis

import (
	"sort"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// OutlineSymbol is one entry of a document outline.
type OutlineSymbol struct {
	Name      string
	Kind      symbols.Kind
	Detail    string
	Range     symbols.Range
	Selection symbols.Range
	Static    bool
	Children  []OutlineSymbol
}

// Outline lists the declarations of doc as a tree: classes with their
// members, functions with their nested functions, hotkeys, labels, and the
// global variables the auto-execute section defines.
func Outline(doc *parser.Document) []OutlineSymbol {
	tree := doc.Tree

	var build func(hs []symbols.Handle) []OutlineSymbol
	build = func(hs []symbols.Handle) []OutlineSymbol {
		var out []OutlineSymbol

		for _, h := range hs {
			n := tree.Get(h)
			hd := n.Head()

			sym := OutlineSymbol{
				Name:      hd.Name,
				Kind:      hd.Kind,
				Range:     hd.Range,
				Selection: hd.Selection,
			}

			switch n := n.(type) {
			case *symbols.Function:
				sym.Detail = paramDetail("(", n.Params, ")")
				sym.Static = n.Static
			case *symbols.Property:
				if len(n.Params) > 0 {
					sym.Detail = paramDetail("[", n.Params, "]")
				}

				sym.Static = n.Static
			case *symbols.Class:
				if n.Extends != "" {
					sym.Detail = "extends " + n.Extends
				}
			case *symbols.Variable:
				sym.Static = n.Static
				if n.Type != "" {
					sym.Detail = n.Type
				}
			case *symbols.Label:
				if !n.IsDef {
					continue
				}
			case *symbols.Event:
				sym.Detail = "hotkey"
				if n.Hotstring {
					sym.Detail = "hotstring"
				}
			}

			sym.Children = build(hd.Children)
			out = append(out, sym)
		}

		return out
	}

	out := build(tree.Roots)
	out = append(out, globalDefinitions(tree)...)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.Start < out[j].Range.Start
	})

	return out
}

// globalDefinitions returns the declaring definition of every variable
// assigned directly in the auto-execute section.
func globalDefinitions(tree *symbols.Tree) []OutlineSymbol {
	var out []OutlineSymbol

	for _, h := range tree.Root.Vars {
		v, ok := tree.Variable(h)
		if !ok || !v.IsDef || tree.Root.Declaration[symbols.Key(v.Name)] != h {
			continue
		}

		out = append(out, OutlineSymbol{
			Name:      v.Name,
			Kind:      symbols.KindVariable,
			Detail:    v.Type,
			Range:     v.Range,
			Selection: v.Selection,
		})
	}

	return out
}

func paramDetail(open string, params []symbols.Param, close string) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = paramInfo(p).Label()
	}

	return open + strings.Join(parts, ", ") + close
}
