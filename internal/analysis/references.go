package analysis

import (
	"sort"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// Location is a range in some document of the include graph.
type Location struct {
	Doc   *parser.Document
	Range symbols.Range
}

// References returns the sites that refer to the symbol at offset. Locals
// are matched by binding; globals, functions and classes by name across doc
// and its include graph; members by name on every member access.
func (s *Session) References(doc *parser.Document, offset int, includeDecl bool) []Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.references(doc, offset, includeDecl)
}

func (s *Session) references(doc *parser.Document, offset int, includeDecl bool) []Location {
	info := IdentifySymbolAtPosition(doc, offset)
	if info == nil {
		return nil
	}

	var out []Location

	switch {
	case info.Label:
		out = labelRefs(doc, info, offset, includeDecl)
	case info.Member:
		out = s.memberRefs(doc, info, includeDecl)
	default:
		// calls to functions of included files bind no name in doc
		b, ok := s.bound(doc).Lookup(info.Word, offset)

		switch {
		case !ok && builtins.IsBuiltin(info.Word):
			out = s.globalRefs(doc, info.Word, false)
		case !ok:
			out = s.globalRefs(doc, info.Word, includeDecl)
		case b.Kind == BindBuiltin || b.Kind == BindUnresolved:
			out = s.globalRefs(doc, info.Word, false)
		case b.Kind == BindThis:
			return nil
		case b.Owner.Valid():
			out = localRefs(s.bound(doc), b, includeDecl)
		default:
			out = s.globalRefs(doc, info.Word, includeDecl)
		}
	}

	return dedupe(out)
}

// RenameSites returns every site a rename of the symbol at offset must
// touch. Built-ins cannot be renamed.
func (s *Session) RenameSites(doc *parser.Document, offset int) ([]Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := IdentifySymbolAtPosition(doc, offset)
	if info == nil {
		return nil, false
	}

	if !info.Label && !info.Member {
		b, ok := s.bound(doc).Lookup(info.Word, offset)
		if ok && (b.Kind == BindBuiltin || b.Kind == BindThis) || !ok && builtins.IsBuiltin(info.Word) {
			return nil, false
		}
	}

	locs := s.references(doc, offset, true)

	return locs, len(locs) > 0
}

func localRefs(bound *Bound, b *Binding, includeDecl bool) []Location {
	var out []Location

	tree := bound.Doc.Tree

	for _, h := range bound.References(b) {
		if !includeDecl && h == b.Decl {
			continue
		}

		out = append(out, Location{Doc: bound.Doc, Range: tree.Head(h).Selection})
	}

	return out
}

// globalRefs collects the document-level uses of name in doc and its
// include graph. Locals that shadow the name are skipped.
func (s *Session) globalRefs(doc *parser.Document, name string, includeDecl bool) []Location {
	key := symbols.Key(name)
	docs := append([]*parser.Document{doc}, s.graph(doc)...)

	var out []Location

	for _, d := range docs {
		bound := s.flat(d)
		if d == doc {
			bound = s.bound(d)
		}

		tree := d.Tree

		tree.Each(func(h symbols.Handle, n symbols.Node) {
			hd := n.Head()
			if symbols.Key(hd.Name) != key {
				return
			}

			switch n := n.(type) {
			case *symbols.Variable:
				b, ok := bound.Refs[h]
				if !ok || b.Owner.Valid() && b.Kind != BindGlobal {
					return
				}

				if !includeDecl && b.Decl == h {
					return
				}

				out = append(out, Location{Doc: d, Range: n.Selection})
			case *symbols.Function:
				if n.Kind == symbols.KindFunction && !n.Parent.Valid() && includeDecl {
					out = append(out, Location{Doc: d, Range: n.Selection})
				}
			case *symbols.Class:
				if !n.Parent.Valid() && includeDecl {
					out = append(out, Location{Doc: d, Range: n.Selection})
				}
			}
		})

		out = append(out, callRefs(d, bound, key)...)
		out = append(out, extendsRefs(d, key)...)
	}

	return out
}

// callRefs returns the callee ranges of plain calls to the global key.
func callRefs(d *parser.Document, bound *Bound, key string) []Location {
	var out []Location

	visit := func(sc *symbols.Scope) {
		for _, cs := range sc.CallSites {
			if symbols.Key(cs.Name) != key {
				continue
			}

			if b, ok := bound.Lookup(cs.Name, cs.Range.Start); ok && b.Owner.Valid() && b.Kind != BindGlobal {
				continue
			}

			out = append(out, Location{Doc: d, Range: cs.Range})
		}
	}

	visit(&d.Tree.Root)
	d.Tree.Each(func(h symbols.Handle, _ symbols.Node) {
		if sc := d.Tree.ScopeOf(h); sc != nil {
			visit(sc)
		}
	})

	return out
}

func extendsRefs(d *parser.Document, key string) []Location {
	var out []Location

	d.Tree.Each(func(_ symbols.Handle, n symbols.Node) {
		cls, ok := n.(*symbols.Class)
		if !ok || cls.Extends == "" {
			return
		}

		first, _, _ := strings.Cut(cls.Extends, ".")
		if symbols.Key(first) == key {
			r := cls.ExtendsRange
			out = append(out, Location{Doc: d, Range: symbols.Range{Start: r.Start, End: r.Start + len(first)}})
		}
	})

	return out
}

// memberRefs matches every `.name` access plus the member declarations of
// that name.
func (s *Session) memberRefs(doc *parser.Document, info *SymbolInfo, includeDecl bool) []Location {
	key := symbols.Key(info.Word)
	docs := append([]*parser.Document{doc}, s.graph(doc)...)

	var out []Location

	for _, d := range docs {
		toks := d.Tokens
		for i := 1; i < len(toks); i++ {
			t, dot := toks[i], toks[i-1]
			if t.Kind != syntax.Identifier || !dot.Is(".") || dot.End() != t.Offset || symbols.Key(t.Text) != key {
				continue
			}

			out = append(out, Location{Doc: d, Range: symbols.Range{Start: t.Offset, End: t.End()}})
		}

		if !includeDecl {
			continue
		}

		d.Tree.Each(func(_ symbols.Handle, n symbols.Node) {
			hd := n.Head()
			if symbols.Key(hd.Name) != key {
				return
			}

			if _, ok := d.Tree.Get(hd.Parent).(*symbols.Class); ok {
				out = append(out, Location{Doc: d, Range: hd.Selection})
			}
		})
	}

	return out
}

func labelRefs(doc *parser.Document, info *SymbolInfo, offset int, includeDecl bool) []Location {
	scope := doc.Tree.ScopeOf(doc.Tree.Enclosing(offset))
	key := symbols.Key(info.Word)

	var out []Location

	for _, h := range scope.Labels {
		l, ok := doc.Tree.Get(h).(*symbols.Label)
		if !ok || symbols.Key(l.Name) != key || l.IsDef && !includeDecl {
			continue
		}

		out = append(out, Location{Doc: doc, Range: l.Selection})
	}

	return out
}

func dedupe(locs []Location) []Location {
	sort.SliceStable(locs, func(i, j int) bool {
		if locs[i].Doc.URI != locs[j].Doc.URI {
			return locs[i].Doc.URI < locs[j].Doc.URI
		}

		return locs[i].Range.Start < locs[j].Range.Start
	})

	out := locs[:0]

	for _, l := range locs {
		if n := len(out); n > 0 && l.Doc.URI == out[n-1].Doc.URI && l.Range == out[n-1].Range {
			continue
		}

		out = append(out, l)
	}

	return out
}
