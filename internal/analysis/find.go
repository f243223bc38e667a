package analysis

import (
	"regexp"
	"slices"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// SymbolRef points at a declaration. Built-ins have no node; Builtin then
// holds their canonical name, e.g. "MsgBox" or "Array.Push".
type SymbolRef struct {
	Doc     *parser.Document
	Handle  symbols.Handle
	Builtin string
}

// Node returns the referenced node, or nil for built-ins.
func (r SymbolRef) Node() symbols.Node {
	if r.Doc == nil {
		return nil
	}

	return r.Doc.Tree.Get(r.Handle)
}

// FindSymbol resolves name as seen from offset pos of doc. name may be
// dotted ("obj.Method", "this.x", "Outer.Inner"). When kinds are given, the
// declaration must be one of them.
func (s *Session) FindSymbol(doc *parser.Document, name string, pos int, kinds ...symbols.Kind) (SymbolRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.findSymbol(doc, name, pos, kinds)
	if !ok || ref.Doc == nil || len(kinds) == 0 {
		return ref, ok
	}

	if !slices.Contains(kinds, ref.Doc.Tree.Head(ref.Handle).Kind) {
		return SymbolRef{}, false
	}

	return ref, true
}

func (s *Session) findSymbol(doc *parser.Document, name string, pos int, kinds []symbols.Kind) (SymbolRef, bool) {
	parts := strings.Split(name, ".")

	if len(parts) == 1 {
		if slices.Contains(kinds, symbols.KindLabel) {
			return findLabel(doc, name, pos)
		}

		if ref, b, ok := s.lookup(doc, name, pos); ok {
			if b.Kind == BindBuiltin {
				return SymbolRef{Handle: symbols.NoHandle, Builtin: b.Name}, true
			}

			return ref, true
		}

		if canonical, ok := builtinName(name); ok {
			return SymbolRef{Handle: symbols.NoHandle, Builtin: canonical}, true
		}

		return SymbolRef{}, false
	}

	c := &inferCtx{s: s, doc: doc, pos: pos}
	tags, static := c.name(parts[0])

	for _, p := range parts[1 : len(parts)-1] {
		tags, static = c.memberTags(tags, static, p, false)
	}

	last := parts[len(parts)-1]

	for _, t := range tags {
		ref, base, ok := s.userMember(doc, t, static, last)
		if ok {
			return ref, true
		}

		if cls, ok := builtins.LookupClass(base); ok {
			if m, owner, ok := cls.Member(last, static); ok {
				return SymbolRef{Handle: symbols.NoHandle, Builtin: owner.Name + "." + m.Name}, true
			}
		}
	}

	return SymbolRef{}, false
}

func builtinName(name string) (string, bool) {
	if sig, ok := builtins.LookupFunction(name); ok {
		return sig.Name, true
	}

	if cls, ok := builtins.LookupClass(name); ok {
		return cls.Name, true
	}

	if canonical, _, ok := builtins.LookupVariable(name); ok {
		return canonical, true
	}

	return "", false
}

func findLabel(doc *parser.Document, name string, pos int) (SymbolRef, bool) {
	scope := doc.Tree.ScopeOf(doc.Tree.Enclosing(pos))

	for _, h := range scope.Labels {
		if l, ok := doc.Tree.Get(h).(*symbols.Label); ok && l.IsDef && strings.EqualFold(l.Name, name) {
			return SymbolRef{Doc: doc, Handle: h}, true
		}
	}

	return SymbolRef{}, false
}

// InferVariableType returns the tags of name at pos. Functions and classes
// yield their qualified name; variables yield the tags of their annotation
// or of the last assignment.
func (s *Session) InferVariableType(doc *parser.Document, name string, pos int) TagSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &inferCtx{s: s, doc: doc, pos: pos}
	tags, _ := c.name(name)

	return known(tags)
}

// lookup resolves a plain name: the scope chain of doc, its globals and
// then the globals of its include graph.
func (s *Session) lookup(doc *parser.Document, name string, pos int) (SymbolRef, *Binding, bool) {
	if b, ok := s.bound(doc).Lookup(name, pos); ok {
		return SymbolRef{Doc: b.Doc, Handle: b.Decl}, b, true
	}

	key := symbols.Key(name)

	for _, inc := range s.graph(doc) {
		if b, ok := s.flat(inc).Globals[key]; ok {
			return SymbolRef{Doc: b.Doc, Handle: b.Decl}, b, true
		}
	}

	return SymbolRef{}, nil, false
}

// findQualified resolves a qualified function or class name such as
// "Outer.Inner" or "A.Method" in doc and its include graph.
func (s *Session) findQualified(doc *parser.Document, qn string) (SymbolRef, bool) {
	parts := strings.Split(qn, ".")

	ref, b, ok := s.lookup(doc, parts[0], 0)
	if !ok || b.Kind != BindFunction && b.Kind != BindClass {
		return SymbolRef{}, false
	}

	for _, p := range parts[1:] {
		cls, ok := ref.Doc.Tree.Class(ref.Handle)
		if !ok {
			return SymbolRef{}, false
		}

		key := symbols.Key(p)

		h, ok := cls.StaticDecl[key]
		if !ok {
			if h, ok = cls.InstanceDecl[key]; !ok {
				return SymbolRef{}, false
			}
		}

		ref = SymbolRef{Doc: ref.Doc, Handle: h}
	}

	return ref, true
}

// userMember looks name up in the script class tag and its script bases.
// When the chain leaves script code, base names the built-in class the
// lookup should continue in.
func (s *Session) userMember(doc *parser.Document, tag string, static bool, name string) (SymbolRef, string, bool) {
	key := symbols.Key(name)
	seen := make(map[string]bool)

	for tag != "" && !seen[strings.ToUpper(tag)] {
		seen[strings.ToUpper(tag)] = true

		ref, ok := s.findQualified(doc, tag)
		if !ok {
			return SymbolRef{}, tagClass(tag), false
		}

		cls, ok := ref.Doc.Tree.Class(ref.Handle)
		if !ok {
			return SymbolRef{}, "", false
		}

		m := cls.InstanceDecl
		if static {
			m = cls.StaticDecl
		}

		if h, ok := m[key]; ok {
			return SymbolRef{Doc: ref.Doc, Handle: h}, "", true
		}

		if cls.Extends == "" {
			return SymbolRef{}, "Object", false
		}

		doc, tag = ref.Doc, cls.Extends
	}

	return SymbolRef{}, "", false
}

// memberTags returns the tags of obj.name (or obj.name(...) when call is
// set) for every tag of obj. The flag reports a class object result.
func (c *inferCtx) memberTags(obj TagSet, static bool, name string, call bool) (TagSet, bool) {
	var (
		out       TagSet
		outStatic bool
	)

	for _, t := range obj {
		switch {
		case t == TagAny, strings.ContainsRune(t, '<'):
			return Tags(TagAny), false
		case t == TagNumber, t == TagString:
			continue
		}

		ref, base, ok := c.s.userMember(c.doc, t, static, name)
		if ok {
			tags, st := c.s.declTags(ref, call)
			out, outStatic = out.Union(tags), outStatic || st

			continue
		}

		// calling a script class object constructs an instance
		if static && call && strings.EqualFold(name, "Call") && base == "Object" {
			out = out.Add(t)
			continue
		}

		cls, ok := builtins.LookupClass(base)
		if !ok {
			continue
		}

		m, _, ok := cls.Member(name, static)
		if !ok {
			continue
		}

		switch {
		case m.Property && call:
			out = out.Add(TagAny)
		case m.Property, call:
			out = out.Union(parseAnnotation(m.Returns))
		default:
			out = out.Add("Func")
		}
	}

	return out, outStatic
}

// declTags returns the tags of a class member declaration.
func (s *Session) declTags(ref SymbolRef, call bool) (TagSet, bool) {
	tree := ref.Doc.Tree

	switch n := tree.Get(ref.Handle).(type) {
	case *symbols.Function:
		if call {
			return s.returnTags(ref.Doc, ref.Handle), false
		}

		return Tags("Func"), false
	case *symbols.Property:
		if call {
			return Tags(TagAny), false
		}

		return s.returnTags(ref.Doc, ref.Handle), false
	case *symbols.Variable:
		if call {
			return Tags(TagAny), false
		}

		return s.inferField(ref.Doc, ref.Handle, n), false
	case *symbols.Class:
		return Tags(tree.QualifiedName(ref.Handle)), !call
	}

	return nil, false
}

func (s *Session) inferField(doc *parser.Document, h symbols.Handle, v *symbols.Variable) TagSet {
	if v.Type != "" {
		return parseAnnotation(v.Type)
	}

	key := memoKey{uri: doc.URI, scope: h, expr: "<field>"}

	return s.memo(key, func() TagSet {
		return s.inferExpr(doc, v.Assign.Text, v.Assign.Offset)
	})
}

// inferBinding returns the tags of a variable binding as seen from pos:
// its annotation if any, otherwise the last assignment before pos. A
// negative pos takes the last assignment in the document.
func (s *Session) inferBinding(b *Binding, pos int) TagSet {
	if b.Doc == nil {
		return nil
	}

	bound := s.owning(b)
	tree := b.Doc.Tree

	var (
		defs  []symbols.Handle
		typed string
	)

	tree.Each(func(h symbols.Handle, n symbols.Node) {
		v, ok := n.(*symbols.Variable)
		if !ok || bound.Refs[h] != b {
			return
		}

		if v.Type != "" && typed == "" {
			typed = v.Type
		}

		if v.IsDef {
			defs = append(defs, h)
		}
	})

	if typed != "" {
		return parseAnnotation(typed)
	}

	if len(defs) == 0 {
		return nil
	}

	def := defs[len(defs)-1]
	if pos >= 0 {
		def = defs[0]
	}

	for _, h := range defs {
		if pos >= 0 && tree.Head(h).Selection.Start < pos {
			def = h
		}
	}

	v, _ := tree.Variable(def)
	if v.Assign.Text == "" {
		return Tags(TagAny)
	}

	key := memoKey{uri: b.Doc.URI, scope: def, expr: "<var>"}

	return s.memo(key, func() TagSet {
		return s.inferExpr(b.Doc, v.Assign.Text, v.Assign.Offset)
	})
}

// owning returns the resolved document b belongs to.
func (s *Session) owning(b *Binding) *Bound {
	if a, ok := s.pass.resolved[b.Doc.URI]; ok && a.Doc == b.Doc && a.Bound.Refs[b.Decl] == b {
		return a.Bound
	}

	if f, ok := s.pass.flat[b.Doc.URI]; ok && f.Doc == b.Doc && f.Refs[b.Decl] == b {
		return f
	}

	return s.bound(b.Doc)
}

var typeTag = regexp.MustCompile(`@type\s*\{([^}]*)\}`)

func docTypeTag(doc string) string {
	if m := typeTag.FindStringSubmatch(doc); m != nil {
		return strings.TrimSpace(m[1])
	}

	return ""
}
