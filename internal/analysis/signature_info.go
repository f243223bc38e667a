package analysis

import (
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// FunctionSignature holds information about a function's signature.
type FunctionSignature struct {
	Name       string
	Parameters []ParameterInfo

	// ReturnType is the rendered return tags; empty when unknown.
	ReturnType    string
	Documentation string
}

// ParameterInfo holds information about a single parameter.
type ParameterInfo struct {
	Name         string
	DefaultValue string
	ByRef        bool
	Optional     bool
	Variadic     bool
}

// Label renders the parameter the way it is declared.
func (p ParameterInfo) Label() string {
	var b strings.Builder

	if p.ByRef {
		b.WriteByte('&')
	}

	b.WriteString(p.Name)

	switch {
	case p.Variadic:
		b.WriteByte('*')
	case p.DefaultValue != "":
		b.WriteString(" := ")
		b.WriteString(p.DefaultValue)
	case p.Optional:
		b.WriteByte('?')
	}

	return b.String()
}

// Label renders the whole signature, e.g. "Foo(a, &b, c := 1) => #string".
func (f *FunctionSignature) Label() string {
	parts := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		parts[i] = p.Label()
	}

	label := f.Name + "(" + strings.Join(parts, ", ") + ")"
	if f.ReturnType != "" {
		label += " => " + f.ReturnType
	}

	return label
}

// GetFunctionSignature resolves the callee of ctx to its signature.
func (s *Session) GetFunctionSignature(doc *parser.Document, ctx *CallContext) (*FunctionSignature, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.findSymbol(doc, ctx.FunctionName, ctx.NameOffset, nil)
	if !ok {
		return nil, false
	}

	return s.signatureOf(ref)
}

func (s *Session) signatureOf(ref SymbolRef) (*FunctionSignature, bool) {
	if ref.Doc == nil {
		return builtinSignature(ref.Builtin)
	}

	tree := ref.Doc.Tree

	switch n := tree.Get(ref.Handle).(type) {
	case *symbols.Function:
		return s.userSignature(ref.Doc, ref.Handle, tree.QualifiedName(ref.Handle), n), true
	case *symbols.Class:
		qn := tree.QualifiedName(ref.Handle)

		ctor, base, ok := s.userMember(ref.Doc, qn, false, "__New")
		if ok {
			fn, isFn := ctor.Doc.Tree.Function(ctor.Handle)
			if !isFn {
				return nil, false
			}

			sig := s.userSignature(ctor.Doc, ctor.Handle, qn, fn)
			sig.ReturnType = qn

			return sig, true
		}

		if cls, ok := builtins.LookupClass(base); ok {
			bs, _ := cls.Constructor()
			sig := fromBuiltin(bs)
			sig.Name, sig.ReturnType = qn, qn

			return sig, true
		}
	case *symbols.Property:
		sig := &FunctionSignature{Name: tree.QualifiedName(ref.Handle), Documentation: n.Doc}
		for _, p := range n.Params {
			sig.Parameters = append(sig.Parameters, paramInfo(p))
		}

		return sig, true
	}

	return nil, false
}

func (s *Session) userSignature(doc *parser.Document, h symbols.Handle, name string, fn *symbols.Function) *FunctionSignature {
	sig := &FunctionSignature{Name: name, Documentation: fn.Doc}

	for _, p := range fn.Params {
		sig.Parameters = append(sig.Parameters, paramInfo(p))
	}

	if tags := s.returnTags(doc, h); len(tags) > 0 {
		sig.ReturnType = tags.String()
	}

	return sig
}

func paramInfo(p symbols.Param) ParameterInfo {
	return ParameterInfo{
		Name:         p.Name,
		DefaultValue: p.Default,
		ByRef:        p.ByRef,
		Optional:     p.Optional,
		Variadic:     p.Variadic,
	}
}

// builtinSignature resolves "Name" or "Class.Member".
func builtinSignature(name string) (*FunctionSignature, bool) {
	cls, member, dotted := strings.Cut(name, ".")

	if !dotted {
		if sig, ok := builtins.LookupFunction(name); ok {
			return fromBuiltin(sig), true
		}

		if c, ok := builtins.LookupClass(name); ok {
			bs, tag := c.Constructor()
			sig := fromBuiltin(bs)
			sig.Name, sig.ReturnType = c.Name, tag

			return sig, true
		}

		return nil, false
	}

	c, ok := builtins.LookupClass(cls)
	if !ok {
		return nil, false
	}

	for _, static := range []bool{false, true} {
		if m, owner, ok := c.Member(member, static); ok {
			sig := fromBuiltin(m.Signature)
			sig.Name = owner.Name + "." + m.Name

			return sig, true
		}
	}

	return nil, false
}

func fromBuiltin(bs *builtins.Signature) *FunctionSignature {
	sig := &FunctionSignature{
		Name:          bs.Name,
		ReturnType:    bs.Returns,
		Documentation: bs.Documentation,
	}

	for _, p := range bs.Params {
		sig.Parameters = append(sig.Parameters, ParameterInfo{
			Name:     p.Name,
			ByRef:    p.ByRef,
			Optional: p.Optional,
			Variadic: p.Variadic,
		})
	}

	return sig
}
