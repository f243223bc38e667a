package analysis

import (
	"sort"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// CompletionKind classifies a completion item.
type CompletionKind int

const (
	CompleteVariable CompletionKind = iota
	CompleteParameter
	CompleteFunction
	CompleteMethod
	CompleteProperty
	CompleteClass
	CompleteKeyword
	CompleteDirective
	CompleteSnippet
)

// CompletionItem is one proposal.
type CompletionItem struct {
	Label         string
	Kind          CompletionKind
	Detail        string
	Documentation string
	// InsertText is a snippet in LSP syntax when Kind is CompleteSnippet.
	InsertText string
}

// controlStructureSnippets contains keyword completion snippets for control structures.
var controlStructureSnippets = map[string]struct {
	snippet string
	detail  string
}{
	"if": {
		snippet: "if (${1:condition}) {\n\t$0\n}",
		detail:  "if statement",
	},
	"loop": {
		snippet: "Loop ${1:count} {\n\t$0\n}",
		detail:  "counted loop",
	},
	"for": {
		snippet: "for ${1:key}, ${2:value} in ${3:obj} {\n\t$0\n}",
		detail:  "for-in loop",
	},
	"while": {
		snippet: "while (${1:condition}) {\n\t$0\n}",
		detail:  "while loop",
	},
	"try": {
		snippet: "try {\n\t$0\n} catch Error as ${1:err} {\n\t\n}",
		detail:  "try-catch block",
	},
	"switch": {
		snippet: "switch ${1:value} {\n\tcase ${2:match}:\n\t\t$0\n\tdefault:\n\t\t\n}",
		detail:  "switch statement",
	},
	"class": {
		snippet: "class ${1:Name} {\n\t__New() {\n\t\t$0\n\t}\n}",
		detail:  "class declaration",
	},
}

// Complete returns the proposals for ctx.
func (s *Session) Complete(doc *parser.Document, ctx *CompletionContext) []CompletionItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []CompletionItem

	switch ctx.Type {
	case CompletionContextNone:
		return nil
	case CompletionContextDirective:
		for _, d := range builtins.Directives {
			items = append(items, CompletionItem{Label: d, Kind: CompleteDirective})
		}
	case CompletionContextMember:
		items = s.memberItems(doc, ctx)
	default:
		items = s.scopeItems(doc, ctx.Offset)
	}

	return filterItems(items, ctx.Prefix)
}

func filterItems(items []CompletionItem, prefix string) []CompletionItem {
	seen := make(map[string]bool, len(items))
	out := items[:0]

	for _, it := range items {
		key := symbols.Key(it.Label)
		if it.Kind == CompleteSnippet {
			key += "\x00snippet"
		}

		if seen[key] || !strings.HasPrefix(strings.ToUpper(it.Label), strings.ToUpper(prefix)) {
			continue
		}

		seen[key] = true
		out = append(out, it)
	}

	return out
}

// scopeItems lists the names visible at offset, nearest scope first, then
// document and include globals, built-ins and keywords.
func (s *Session) scopeItems(doc *parser.Document, offset int) []CompletionItem {
	bound := s.bound(doc)

	var items []CompletionItem

	for env := bound.EnvAt(offset); env != nil; env = env.Parent {
		items = append(items, s.bindingItems(env.Names)...)
	}

	items = append(items, s.bindingItems(bound.Globals)...)

	for _, inc := range s.graph(doc) {
		items = append(items, s.bindingItems(s.flat(inc).Globals)...)
	}

	for _, name := range builtins.FunctionNames() {
		sig, _ := builtins.LookupFunction(name)
		items = append(items, CompletionItem{
			Label:         sig.Name,
			Kind:          CompleteFunction,
			Detail:        sig.Label(),
			Documentation: sig.Documentation,
		})
	}

	for _, name := range builtins.ClassNames() {
		cls, _ := builtins.LookupClass(name)
		items = append(items, CompletionItem{Label: cls.Name, Kind: CompleteClass, Documentation: cls.Documentation})
	}

	for _, name := range builtins.VariableNames() {
		_, tag, _ := builtins.LookupVariable(name)
		items = append(items, CompletionItem{Label: name, Kind: CompleteVariable, Detail: tag})
	}

	for _, kw := range syntax.Keywords() {
		items = append(items, CompletionItem{Label: kw, Kind: CompleteKeyword})

		if sn, ok := controlStructureSnippets[kw]; ok {
			items = append(items, CompletionItem{Label: kw, Kind: CompleteSnippet, Detail: sn.detail, InsertText: sn.snippet})
		}
	}

	return items
}

func (s *Session) bindingItems(names map[string]*Binding) []CompletionItem {
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	items := make([]CompletionItem, 0, len(keys))

	for _, k := range keys {
		b := names[k]
		it := CompletionItem{Label: b.Name, Detail: b.Kind.String()}

		switch b.Kind {
		case BindThis:
			it.Kind = CompleteKeyword
		case BindParam:
			it.Kind = CompleteParameter
		case BindFunction:
			it.Kind = CompleteFunction
			if fn, ok := b.Doc.Tree.Function(b.Decl); ok {
				it.Detail = s.userSignature(b.Doc, b.Decl, b.Name, fn).Label()
				it.Documentation = fn.Doc
			}
		case BindClass:
			it.Kind = CompleteClass
			it.Documentation = b.Doc.Tree.Head(b.Decl).Doc
		default:
			it.Kind = CompleteVariable
		}

		items = append(items, it)
	}

	return items
}

// memberItems lists the members of the receiver's inferred classes.
func (s *Session) memberItems(doc *parser.Document, ctx *CompletionContext) []CompletionItem {
	tags, static := s.receiverTags(doc, ctx.ParentIdentifier, ctx.Offset)

	var items []CompletionItem

	for _, t := range tags {
		if t == TagAny || t == TagNumber || t == TagString {
			continue
		}

		items = append(items, s.classMembers(doc, t, static)...)
	}

	return items
}

// receiverTags evaluates the expression before a member dot. Plain dotted
// names keep track of whether they denote a class object.
func (s *Session) receiverTags(doc *parser.Document, expr string, pos int) (TagSet, bool) {
	c := &inferCtx{s: s, doc: doc, pos: pos}

	if expr != "" && (dottedName.MatchString(expr) || !strings.ContainsAny(expr, ".()[]{} \"'")) {
		parts := strings.Split(expr, ".")
		tags, static := c.name(parts[0])

		for _, p := range parts[1:] {
			tags, static = c.memberTags(tags, static, p, false)
		}

		return tags, static
	}

	return s.inferExpr(doc, expr, pos), false
}

// classMembers lists the members of tag: script classes along the extends
// chain first, then the built-in base.
func (s *Session) classMembers(doc *parser.Document, tag string, static bool) []CompletionItem {
	var items []CompletionItem

	seen := make(map[string]bool)
	base := tagClass(tag)

	for cur := tag; cur != "" && !seen[symbols.Key(cur)]; {
		seen[symbols.Key(cur)] = true

		ref, ok := s.findQualified(doc, cur)
		if !ok {
			base = tagClass(cur)
			break
		}

		cls, ok := ref.Doc.Tree.Class(ref.Handle)
		if !ok {
			return items
		}

		decl := cls.InstanceDecl
		if static {
			decl = cls.StaticDecl
		}

		items = append(items, s.declItems(ref.Doc, decl)...)

		base = "Object"
		doc, cur = ref.Doc, cls.Extends
	}

	cls, ok := builtins.LookupClass(base)
	if !ok {
		return items
	}

	for _, m := range cls.Members(static) {
		it := CompletionItem{Label: m.Name, Kind: CompleteMethod, Detail: m.Label(), Documentation: m.Documentation}
		if m.Property {
			it.Kind = CompleteProperty
			it.Detail = m.Returns
		}

		items = append(items, it)
	}

	return items
}

func (s *Session) declItems(doc *parser.Document, decl map[string]symbols.Handle) []CompletionItem {
	keys := make([]string, 0, len(decl))
	for k := range decl {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var items []CompletionItem

	tree := doc.Tree

	for _, k := range keys {
		h := decl[k]
		hd := tree.Head(h)

		if strings.HasPrefix(hd.Name, "__") {
			continue
		}

		it := CompletionItem{Label: hd.Name, Documentation: hd.Doc}

		switch n := tree.Get(h).(type) {
		case *symbols.Function:
			it.Kind = CompleteMethod
			it.Detail = s.userSignature(doc, h, hd.Name, n).Label()
		case *symbols.Property:
			it.Kind = CompleteProperty
		case *symbols.Class:
			it.Kind = CompleteClass
		default:
			it.Kind = CompleteProperty
		}

		items = append(items, it)
	}

	return items
}
