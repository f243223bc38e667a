package analysis

import (
	"fmt"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// HoverInfo is what hovering over a name shows: a code line describing the
// symbol and its documentation.
type HoverInfo struct {
	Range         symbols.Range
	Code          string
	Documentation string
}

// Hover describes the symbol at offset.
func (s *Session) Hover(doc *parser.Document, offset int) (*HoverInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := IdentifySymbolAtPosition(doc, offset)
	if info == nil {
		return nil, false
	}

	kinds := []symbols.Kind(nil)
	if info.Label {
		kinds = []symbols.Kind{symbols.KindLabel}
	}

	name := info.Name
	if info.Member && !strings.Contains(name, ".") {
		return nil, false
	}

	ref, ok := s.findSymbol(doc, name, offset, kinds)
	if !ok {
		return nil, false
	}

	var out *HoverInfo
	if ref.Doc == nil {
		out, ok = builtinHover(ref.Builtin)
	} else {
		out, ok = s.userHover(doc, ref, info, offset)
	}

	if !ok {
		return nil, false
	}

	out.Range = info.Range

	return out, true
}

func (s *Session) userHover(doc *parser.Document, ref SymbolRef, info *SymbolInfo, offset int) (*HoverInfo, bool) {
	tree := ref.Doc.Tree
	hd := tree.Head(ref.Handle)
	out := &HoverInfo{Documentation: hd.Doc}

	switch n := tree.Get(ref.Handle).(type) {
	case *symbols.Function:
		sig := s.userSignature(ref.Doc, ref.Handle, tree.QualifiedName(ref.Handle), n)
		prefix := ""
		if n.Static {
			prefix = "static "
		}

		out.Code = prefix + sig.Label()
	case *symbols.Class:
		out.Code = "class " + tree.QualifiedName(ref.Handle)
		if n.Extends != "" {
			out.Code += " extends " + n.Extends
		}
	case *symbols.Property:
		out.Code = "property " + tree.QualifiedName(ref.Handle)
		if tags := s.returnTags(ref.Doc, ref.Handle); len(tags) > 0 {
			out.Code += ": " + tags.String()
		}
	case *symbols.Variable:
		var tags TagSet
		if ref.Doc == doc && !info.Member {
			c := &inferCtx{s: s, doc: doc, pos: offset}
			tags, _ = c.name(info.Word)
		} else {
			tags, _ = s.declTags(ref, false)
		}

		out.Code = fmt.Sprintf("%s %s: %s", variableKind(tree, n, s.owningRef(ref)), n.Name, known(tags))
		if out.Documentation == "" {
			out.Documentation = n.Doc
		}
	case *symbols.Label:
		out.Code = "label " + n.Name
	case *symbols.Event:
		out.Code = "hotkey " + n.Name
	default:
		return nil, false
	}

	return out, true
}

// owningRef returns the binding ref's variable resolved to, if any.
func (s *Session) owningRef(ref SymbolRef) *Binding {
	if a, ok := s.pass.resolved[ref.Doc.URI]; ok && a.Doc == ref.Doc {
		return a.Bound.Refs[ref.Handle]
	}

	return s.flat(ref.Doc).Refs[ref.Handle]
}

func variableKind(tree *symbols.Tree, v *symbols.Variable, b *Binding) string {
	if _, ok := tree.Get(v.Parent).(*symbols.Class); ok || v.Declared == "this" {
		if v.Static {
			return "static field"
		}

		return "field"
	}

	if b == nil {
		return "variable"
	}

	switch b.Kind {
	case BindParam:
		return "parameter"
	case BindStatic:
		return "static"
	case BindGlobal:
		return "global"
	case BindLocal:
		return "local"
	}

	return "variable"
}

func builtinHover(name string) (*HoverInfo, bool) {
	if canonical, tag, ok := builtins.LookupVariable(name); ok && !strings.Contains(name, ".") {
		return &HoverInfo{Code: fmt.Sprintf("built-in variable %s: %s", canonical, tag)}, true
	}

	if cls, ok := builtins.LookupClass(name); ok {
		code := "class " + cls.Name
		if cls.Extends != "" {
			code += " extends " + cls.Extends
		}

		return &HoverInfo{Code: code, Documentation: cls.Documentation}, true
	}

	cls, member, dotted := strings.Cut(name, ".")
	if dotted {
		if c, ok := builtins.LookupClass(cls); ok {
			for _, static := range []bool{false, true} {
				m, owner, ok := c.Member(member, static)
				if !ok {
					continue
				}

				if m.Property {
					return &HoverInfo{
						Code:          fmt.Sprintf("property %s.%s: %s", owner.Name, m.Name, known(parseAnnotation(m.Returns))),
						Documentation: m.Documentation,
					}, true
				}

				sig := fromBuiltin(m.Signature)
				sig.Name = owner.Name + "." + m.Name

				return &HoverInfo{Code: sig.Label(), Documentation: m.Documentation}, true
			}
		}

		return nil, false
	}

	sig, ok := builtinSignature(name)
	if !ok {
		return nil, false
	}

	return &HoverInfo{Code: sig.Label(), Documentation: sig.Documentation}, true
}
