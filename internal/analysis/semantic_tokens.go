package analysis

import (
	"sort"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// Semantic token types. The names are the LSP standard names plus "label"
// for goto targets.
const (
	TokenClass     = "class"
	TokenParameter = "parameter"
	TokenVariable  = "variable"
	TokenProperty  = "property"
	TokenFunction  = "function"
	TokenMethod    = "method"
	TokenKeyword   = "keyword"
	TokenString    = "string"
	TokenNumber    = "number"
	TokenComment   = "comment"
	TokenOperator  = "operator"
	TokenEvent     = "event"
	TokenMacro     = "macro"
	TokenLabel     = "label"
)

// Semantic token modifiers.
const (
	ModDeclaration    = "declaration"
	ModReadonly       = "readonly"
	ModStatic         = "static"
	ModModification   = "modification"
	ModDefaultLibrary = "defaultLibrary"
)

// SemanticToken is one classified token in byte offsets. Tokens may span
// lines; the protocol layer splits them.
type SemanticToken struct {
	Offset    int
	Length    int
	Type      string
	Modifiers []string
}

// SemanticTokens classifies every token of doc, using the resolved scopes to
// tell parameters, globals and built-ins apart.
func (s *Session) SemanticTokens(doc *parser.Document) []SemanticToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.analyze(doc)
	c := &tokenCollector{doc: doc, bound: a.Bound, decls: declTokens(doc, a.Bound)}

	for _, t := range doc.Tokens {
		c.visit(t)
	}

	sort.SliceStable(c.tokens, func(i, j int) bool {
		return c.tokens[i].Offset < c.tokens[j].Offset
	})

	return c.tokens
}

type tokenCollector struct {
	doc    *parser.Document
	bound  *Bound
	decls  map[int]SemanticToken
	tokens []SemanticToken
}

func (c *tokenCollector) add(t syntax.Token, typ string, mods ...string) {
	c.tokens = append(c.tokens, SemanticToken{Offset: t.Offset, Length: t.Len, Type: typ, Modifiers: mods})
}

func (c *tokenCollector) visit(t syntax.Token) {
	switch t.Kind {
	case syntax.Keyword:
		c.add(t, TokenKeyword)
	case syntax.Number:
		c.add(t, TokenNumber)
	case syntax.String:
		c.add(t, TokenString)
	case syntax.Comment:
		c.add(t, TokenComment)
	case syntax.Directive:
		c.add(t, TokenMacro)
	case syntax.Label:
		c.add(t, TokenLabel, ModDeclaration)
	case syntax.Hotkey, syntax.Hotstring:
		c.add(t, TokenEvent, ModDeclaration)
	case syntax.Identifier:
		c.identifier(t)
	}
}

func (c *tokenCollector) identifier(t syntax.Token) {
	if d, ok := c.decls[t.Offset]; ok && d.Length == t.Len {
		c.tokens = append(c.tokens, d)
		return
	}

	if t.Is("this") || t.Is("super") {
		c.add(t, TokenKeyword)
		return
	}

	switch t.Hint {
	case syntax.HintMethod:
		c.add(t, TokenMethod)
		return
	case syntax.HintProperty:
		c.add(t, TokenProperty)
		return
	case syntax.HintLabel:
		c.add(t, TokenLabel)
		return
	case syntax.HintParameter:
		c.add(t, TokenParameter, ModDeclaration)
		return
	}

	if b, ok := c.bound.Lookup(t.Text, t.Offset); ok {
		switch b.Kind {
		case BindFunction:
			c.add(t, TokenFunction)
		case BindClass:
			c.add(t, TokenClass)
		case BindParam:
			c.add(t, TokenParameter)
		case BindStatic:
			c.add(t, TokenVariable, ModStatic)
		case BindBuiltin:
			c.builtin(t)
		default:
			c.add(t, TokenVariable)
		}

		return
	}

	switch t.Hint {
	case syntax.HintFunction:
		c.add(t, TokenFunction, ModDefaultLibrary)
	case syntax.HintClass:
		c.add(t, TokenClass)
	default:
		c.builtin(t)
	}
}

func (c *tokenCollector) builtin(t syntax.Token) {
	switch {
	case builtins.IsFunction(t.Text):
		c.add(t, TokenFunction, ModDefaultLibrary)
	case builtins.IsClass(t.Text):
		c.add(t, TokenClass, ModDefaultLibrary)
	case builtins.IsVariable(t.Text):
		c.add(t, TokenVariable, ModDefaultLibrary, ModReadonly)
	default:
		c.add(t, TokenVariable)
	}
}

// declTokens classifies the name tokens of declarations, keyed by offset.
func declTokens(doc *parser.Document, bound *Bound) map[int]SemanticToken {
	tree := doc.Tree
	out := make(map[int]SemanticToken)

	put := func(hd *symbols.Header, typ string, mods ...string) {
		sel := hd.Selection
		if sel.End <= sel.Start || !strings.EqualFold(doc.Text[sel.Start:sel.End], hd.Name) {
			return
		}

		if _, ok := out[sel.Start]; ok {
			return
		}

		out[sel.Start] = SemanticToken{Offset: sel.Start, Length: sel.End - sel.Start, Type: typ, Modifiers: mods}
	}

	tree.Each(func(h symbols.Handle, n symbols.Node) {
		switch n := n.(type) {
		case *symbols.Function:
			if _, ok := tree.Get(n.Parent).(*symbols.Property); ok {
				return
			}

			typ := TokenFunction
			if n.Kind == symbols.KindMethod {
				typ = TokenMethod
			}

			if n.Static {
				put(&n.Header, typ, ModDeclaration, ModStatic)
			} else {
				put(&n.Header, typ, ModDeclaration)
			}
		case *symbols.Class:
			put(&n.Header, TokenClass, ModDeclaration)
		case *symbols.Property:
			if n.Static {
				put(&n.Header, TokenProperty, ModDeclaration, ModStatic)
			} else {
				put(&n.Header, TokenProperty, ModDeclaration)
			}
		case *symbols.Variable:
			b := bound.Refs[h]
			if b != nil && b.Kind == BindBuiltin {
				return
			}

			put(&n.Header, variableToken(tree, n, b), variableMods(h, n, b)...)
		case *symbols.Label:
			if n.IsDef {
				put(&n.Header, TokenLabel, ModDeclaration)
			}
		}
	})

	return out
}

func variableToken(tree *symbols.Tree, v *symbols.Variable, b *Binding) string {
	if v.Declared == "this" {
		return TokenProperty
	}

	if _, ok := tree.Get(v.Parent).(*symbols.Class); ok {
		return TokenProperty
	}

	if b != nil && b.Kind == BindParam || v.Param {
		return TokenParameter
	}

	return TokenVariable
}

func variableMods(h symbols.Handle, v *symbols.Variable, b *Binding) []string {
	var mods []string

	switch {
	case v.Declared != "" || b != nil && b.Decl == h:
		mods = append(mods, ModDeclaration)
	case v.IsDef:
		mods = append(mods, ModModification)
	}

	if v.Static || b != nil && b.Kind == BindStatic {
		mods = append(mods, ModStatic)
	}

	return mods
}
