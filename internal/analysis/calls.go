package analysis

import (
	"regexp"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// callShape is what a call site is checked against.
type callShape struct {
	name   string
	params []paramShape
	max    int // -1 for variadic
	// returns is false only for script functions known to return nothing.
	returns bool
}

type paramShape struct {
	name     string
	byRef    bool
	required bool
}

func functionShape(name string, fn *symbols.Function) callShape {
	shape := callShape{
		name:    name,
		max:     fn.MaxParams(),
		returns: fn.Arrow || fn.ReturnType != "" || len(fn.Returns) > 0,
	}

	for _, p := range fn.Params {
		shape.params = append(shape.params, paramShape{
			name:     p.Name,
			byRef:    p.ByRef,
			required: !p.Optional && !p.Variadic && p.Default == "",
		})
	}

	return shape
}

func signatureShape(sig *builtins.Signature) callShape {
	shape := callShape{name: sig.Name, max: sig.MaxParams(), returns: true}

	for _, p := range sig.Params {
		shape.params = append(shape.params, paramShape{
			name:     p.Name,
			byRef:    p.ByRef,
			required: !p.Optional && !p.Variadic,
		})
	}

	return shape
}

var dottedName = regexp.MustCompile(`^[A-Za-z_\p{L}][\w\p{L}]*(\.[A-Za-z_\p{L}][\w\p{L}]*)+$`)

// shapeOf resolves the callee of cs to something with a known parameter
// list.
func (s *Session) shapeOf(doc *parser.Document, cs symbols.CallSite) (callShape, bool) {
	if strings.ContainsRune(cs.Name, '.') {
		if !dottedName.MatchString(cs.Name) {
			return callShape{}, false
		}

		ref, ok := s.findSymbol(doc, cs.Name, cs.Range.Start, nil)
		if !ok {
			return callShape{}, false
		}

		if ref.Doc != nil {
			if fn, ok := ref.Doc.Tree.Function(ref.Handle); ok {
				return functionShape(ref.Doc.Tree.QualifiedName(ref.Handle), fn), true
			}

			return callShape{}, false
		}

		cls, member, _ := strings.Cut(ref.Builtin, ".")
		if c, ok := builtins.LookupClass(cls); ok {
			for _, static := range []bool{false, true} {
				if m, _, ok := c.Member(member, static); ok && !m.Property {
					shape := signatureShape(m.Signature)
					shape.name = ref.Builtin

					return shape, true
				}
			}
		}

		return callShape{}, false
	}

	if ref, b, ok := s.lookup(doc, cs.Name, cs.Range.Start); ok {
		switch b.Kind {
		case BindFunction:
			fn, ok := ref.Doc.Tree.Function(ref.Handle)
			if !ok {
				return callShape{}, false
			}

			return functionShape(fn.Name, fn), true
		case BindClass:
			qn := ref.Doc.Tree.QualifiedName(ref.Handle)

			ctor, _, ok := s.userMember(ref.Doc, qn, false, "__New")
			if !ok {
				return callShape{}, false
			}

			fn, ok := ctor.Doc.Tree.Function(ctor.Handle)
			if !ok {
				return callShape{}, false
			}

			shape := functionShape(qn, fn)
			shape.returns = true

			return shape, true
		case BindBuiltin:
		default:
			return callShape{}, false
		}
	}

	if sig, ok := builtins.LookupFunction(cs.Name); ok {
		return signatureShape(sig), true
	}

	if cls, ok := builtins.LookupClass(cs.Name); ok {
		sig, _ := cls.Constructor()
		shape := signatureShape(sig)
		shape.name = cls.Name

		return shape, true
	}

	return callShape{}, false
}

// checkCalls checks every call site of the analysed document against the
// parameter list of its callee.
func (s *Session) checkCalls(a *Analysis) []diag.Diagnostic {
	var out []diag.Diagnostic

	tree := a.Doc.Tree

	check := func(sc *symbols.Scope) {
		for _, cs := range sc.CallSites {
			shape, ok := s.shapeOf(a.Doc, cs)
			if !ok {
				continue
			}

			out = append(out, s.checkCall(cs, shape)...)
		}
	}

	check(&tree.Root)
	tree.Each(func(h symbols.Handle, _ symbols.Node) {
		if sc := tree.ScopeOf(h); sc != nil {
			check(sc)
		}
	})

	return out
}

func (s *Session) checkCall(cs symbols.CallSite, shape callShape) []diag.Diagnostic {
	var out []diag.Diagnostic

	if !cs.Paren && cs.ArgCount == 0 {
		out = append(out, s.report(diag.CallWithoutParentheses, cs.Range,
			"Function '%s' is called without parentheses", shape.name)...)
	}

	if cs.Used && !shape.returns {
		out = append(out, s.report(diag.MissingReturn, cs.Range,
			"Function '%s' does not return a value", shape.name)...)
	}

	if cs.Spread {
		return out
	}

	if shape.max >= 0 && cs.ArgCount > shape.max {
		out = append(out, s.report(diag.TooManyParams, cs.Range,
			"Too many parameters passed to '%s': expected at most %d, got %d", shape.name, shape.max, cs.ArgCount)...)
	}

	for i, p := range shape.params {
		omitted := i < len(cs.Empty) && cs.Empty[i]

		switch {
		case p.required && (i >= cs.ArgCount || omitted):
			out = append(out, s.report(diag.MissingParam, cs.Range,
				"Missing required parameter '%s' of '%s'", p.name, shape.name)...)
		case p.byRef && i < len(cs.ByRef) && !omitted && !cs.ByRef[i]:
			out = append(out, s.report(diag.MissingByRef, cs.Args,
				"Parameter '%s' of '%s' is passed by reference; use '&'", p.name, shape.name)...)
		}
	}

	return out
}

// checkMembers reports this.name accesses inside class methods when neither
// the class nor its bases declare name. Classes with a __Get or __Call
// meta-function accept any member and are skipped.
func (s *Session) checkMembers(a *Analysis) []diag.Diagnostic {
	if !s.config.Lints.Enabled(diag.UnknownMember) {
		return nil
	}

	doc := a.Doc
	tree := doc.Tree
	toks := doc.Tokens

	var out []diag.Diagnostic

	for i := 0; i+2 < len(toks); i++ {
		this, dot, name := toks[i], toks[i+1], toks[i+2]
		if !this.Is("this") || this.Kind != syntax.Identifier || !dot.Is(".") || dot.Space || dot.NewLine {
			continue
		}

		if name.Kind != syntax.Identifier || name.Space {
			continue
		}

		if i > 0 && toks[i-1].Is(".") && !this.Space {
			continue
		}

		fn := tree.Enclosing(this.Offset)

		cls := tree.EnclosingClass(fn)
		if !cls.Valid() {
			continue
		}

		static := false
		if f, ok := tree.Function(fn); ok {
			static = f.Static
		}

		qn := tree.QualifiedName(cls)
		call := i+3 < len(toks) && toks[i+3].Is("(") && !toks[i+3].Space

		if s.hasMember(doc, qn, static, name.Text, call) {
			continue
		}

		out = append(out, diag.New(diag.UnknownMember, name.Offset, name.End(),
			"Unknown member '%s' of class '%s'", name.Text, qn))
	}

	return out
}

func (s *Session) hasMember(doc *parser.Document, qn string, static bool, name string, call bool) bool {
	if _, _, ok := s.userMember(doc, qn, static, name); ok {
		return true
	}

	meta := "__Get"
	if call {
		meta = "__Call"
	}

	if _, _, ok := s.userMember(doc, qn, static, meta); ok {
		return true
	}

	_, base, _ := s.userMember(doc, qn, static, name)

	cls, ok := builtins.LookupClass(base)
	if !ok {
		// unknown base, possibly from an unresolved include
		return true
	}

	_, _, ok = cls.Member(name, static)

	return ok
}
