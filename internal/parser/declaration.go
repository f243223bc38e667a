package parser

import (
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// isFunctionDef reports whether the cursor starts a function definition:
// Name(params) followed by a block or "=>".
func (p *Parser) isFunctionDef() bool {
	t, n := p.tok(), p.peek(1)
	if t.Kind != syntax.Identifier || !n.Is("(") || n.Space || n.NewLine {
		return false
	}

	j := p.matchClose(p.pos + 1)
	if j < 0 || j+1 >= len(p.code) {
		return false
	}

	after := p.all[p.code[j+1]]

	return after.Is("{") || after.Is("=>") && !after.NewLine
}

// parseFunction parses a function or method definition. docIdx is the code
// index of the first token of the declaration (the name or "static").
func (p *Parser) parseFunction(f frame, static bool, docIdx int) {
	name := p.tok()

	kind, parent := symbols.KindFunction, f.owner
	if f.mode == modeClassBody {
		kind, parent = symbols.KindMethod, f.class
	}

	fn := &symbols.Function{
		Header: symbols.Header{
			Kind:      kind,
			Name:      name.Text,
			Selection: symbols.Range{Start: name.Offset, End: name.End()},
			Doc:       p.docComment(docIdx),
		},
		Scope:   symbols.NewScope(),
		Static:  static,
		Closure: kind == symbols.KindFunction && f.owner.Valid() && !static,
	}
	fn.ReturnType = docTag(returnsTag, fn.Doc)

	h := p.tree.Add(parent, fn)

	if kind == symbols.KindMethod {
		p.hint(syntax.HintMethod)
		p.declareMember(f.class, name.Text, h, static)
	} else {
		p.hint(syntax.HintFunction)
		declare(p.scope(f).Declaration, name.Text, h)
	}

	p.next()

	inner := frame{mode: modeStatement, owner: h, class: f.class}
	p.bindParams(inner, fn, p.parseParamList(inner, "(", ")"))

	if p.got("=>") {
		start := p.tok().Offset
		r := p.parseExpr(inner, 0)
		fn.Arrow = true
		fn.Returns = append(fn.Returns, symbols.Expr{Text: p.text(start, r.end), Offset: start})
	} else {
		p.parseBlock(inner)
	}

	fn.Range = symbols.Range{Start: p.all[p.code[docIdx]].Offset, End: max(p.prevEnd(), name.End())}
}

// parseParamList parses a parameter list delimited by open and close.
// Default values are parsed in frame f.
func (p *Parser) parseParamList(f frame, open, close string) []symbols.Param {
	if !p.want(open) {
		return nil
	}

	p.depth++
	defer func() { p.depth-- }()

	var params []symbols.Param

	for !p.tok().Is(close) && !p.atEOF() {
		var prm symbols.Param

		if p.got("&") {
			prm.ByRef = true
		}

		switch n := p.tok(); {
		case n.Is("*"):
			prm.Variadic = true
			prm.Range = symbols.Range{Start: n.Offset, End: n.End()}
			p.next()
		case n.Kind == syntax.Identifier:
			prm.Name = n.Text
			prm.Range = symbols.Range{Start: n.Offset, End: n.End()}
			p.hint(syntax.HintParameter)
			p.next()

			switch {
			case p.got("*"):
				prm.Variadic = true
			case p.got("?"):
				prm.Optional = true
			case p.tok().Is(":="):
				p.next()
				prm.Optional = true

				if d := p.tok(); d.Is(close) || d.Is(",") || d.Kind == syntax.EOF {
					p.errorf(diag.InvalidParameter, n.Offset, n.End(), "Missing default value for parameter '%s'", n.Text)
					break
				}

				start := p.tok().Offset
				r := p.parseBinary(f, precAssign+1, noComma)
				prm.Default = p.text(start, r.end)

				if prm.Default == "" {
					p.errorf(diag.InvalidParameter, n.Offset, n.End(), "Missing default value for parameter '%s'", n.Text)
				}
			}
		default:
			p.errorf(diag.InvalidParameter, n.Offset, n.End(), "Invalid parameter '%s'", n.Text)
			p.skipParam(close)
		}

		if prm.Name != "" || prm.Variadic {
			params = append(params, prm)
		}

		if !p.got(",") {
			break
		}
	}

	if !p.got(close) {
		t := p.tok()
		p.errorf(diag.MissingDelimiter, t.Offset, t.End(), "Missing '%s'", close)
	}

	return params
}

// skipParam advances to the next ',' or close outside nested brackets.
func (p *Parser) skipParam(close string) {
	depth := 0

	for !p.atEOF() {
		t := p.tok()

		switch {
		case depth == 0 && (t.Is(",") || t.Is(close)):
			return
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			if depth == 0 {
				return
			}

			depth--
		}

		p.next()
	}
}

// bindParams declares params as locals of fn.
func (p *Parser) bindParams(f frame, fn *symbols.Function, params []symbols.Param) {
	for i := range params {
		prm := &params[i]
		prm.Handle = symbols.NoHandle

		if prm.Name == "" {
			continue
		}

		if _, dup := fn.Local[symbols.Key(prm.Name)]; dup {
			p.errorf(diag.DuplicateDeclaration, prm.Range.Start, prm.Range.End, "Duplicate parameter '%s'", prm.Name)
			continue
		}

		prm.Handle = p.addVar(f, &symbols.Variable{
			Header: symbols.Header{
				Name:      prm.Name,
				Range:     prm.Range,
				Selection: prm.Range,
			},
			IsDef:    true,
			Assign:   symbols.Expr{Text: prm.Default},
			Declared: "param",
			Param:    true,
			ByRef:    prm.ByRef,
		})

		declare(fn.Local, prm.Name, prm.Handle)
	}

	fn.Params = params
}

// declareMember adds h to the static or instance member table of class.
func (p *Parser) declareMember(class symbols.Handle, name string, h symbols.Handle, static bool) {
	cls, ok := p.tree.Class(class)
	if !ok {
		return
	}

	m := cls.InstanceDecl
	if static {
		m = cls.StaticDecl
	}

	// explicit declarations replace members created by this.x assignments
	if prevH, ok := m[symbols.Key(name)]; ok {
		if prev, ok := p.tree.Variable(prevH); ok && prev.Declared == "this" {
			delete(m, symbols.Key(name))
		}
	}

	declare(m, name, h)
}

func (p *Parser) parseClass(f frame) {
	kw := p.tok()
	kwIdx := p.pos
	p.next()

	name := p.tok()
	if name.Kind != syntax.Identifier {
		p.errorf(diag.InvalidName, name.Offset, name.End(), "Invalid class name '%s'", name.Text)
		p.sync()

		return
	}

	cls := &symbols.Class{
		Header: symbols.Header{
			Kind:      symbols.KindClass,
			Name:      name.Text,
			Selection: symbols.Range{Start: name.Offset, End: name.End()},
			Doc:       p.docComment(kwIdx),
		},
		StaticDecl:   make(map[string]symbols.Handle),
		InstanceDecl: make(map[string]symbols.Handle),
	}

	parent := f.owner
	if f.mode == modeClassBody {
		parent = f.class
	}

	h := p.tree.Add(parent, cls)

	if f.mode == modeClassBody {
		p.declareMember(f.class, name.Text, h, true)
	} else {
		declare(p.scope(f).Declaration, name.Text, h)
	}

	p.hint(syntax.HintClass)
	p.next()

	if p.got("extends") {
		start := p.tok()

		for {
			t := p.tok()
			if t.Kind != syntax.Identifier {
				p.errorf(diag.InvalidName, t.Offset, t.End(), "Invalid base class name '%s'", t.Text)
				break
			}

			p.hint(syntax.HintClass)
			p.next()

			if d := p.tok(); !d.Is(".") || d.Space {
				break
			}

			p.next()
		}

		cls.ExtendsRange = symbols.Range{Start: start.Offset, End: max(start.Offset, p.prevEnd())}
		cls.Extends = p.text(cls.ExtendsRange.Start, cls.ExtendsRange.End)
	}

	open := p.tok()
	if !open.Is("{") {
		p.errorf(diag.MissingDelimiter, open.Offset, open.End(), "Missing '{'")
		cls.Range = symbols.Range{Start: kw.Offset, End: p.prevEnd()}
		p.sync()

		return
	}

	p.next()

	inner := frame{mode: modeClassBody, owner: symbols.NoHandle, class: h}

	for !p.atEOF() && !p.tok().Is("}") {
		start := p.pos
		p.parseClassMember(inner)
		p.endStatement(start)
	}

	p.closeBrace(open)

	cls.Range = symbols.Range{Start: kw.Offset, End: p.prevEnd()}
}

func (p *Parser) parseClassMember(f frame) {
	docIdx := p.pos

	static := false
	if p.tok().IsKeyword("static") {
		static = true
		p.next()
	}

	t, n := p.tok(), p.peek(1)

	switch {
	case t.IsKeyword("class"):
		p.parseClass(f)
	case t.Kind == syntax.Directive:
		p.parseDirective(f)
	case t.Kind == syntax.Identifier && p.isFunctionDef():
		p.parseFunction(f, static, docIdx)
	case t.Kind == syntax.Identifier && (n.Is("[") && !n.Space || n.Is("{") || n.Is("=>")):
		p.parseProperty(f, static, docIdx)
	case t.Kind == syntax.Identifier:
		p.parseFields(f, static, docIdx)
	default:
		p.errorf(diag.UnexpectedToken, t.Offset, t.End(), "Unexpected '%s' in class body", t.Text)
		p.sync()
	}
}

// initFrame returns the frame of the synthetic __Init method that owns the
// field initializers of class.
func (p *Parser) initFrame(class symbols.Handle, static bool) frame {
	cache, ok := p.classInit[class]
	if !ok {
		cache = &[2]symbols.Handle{symbols.NoHandle, symbols.NoHandle}
		p.classInit[class] = cache
	}

	i := 0
	if static {
		i = 1
	}

	if !cache[i].Valid() {
		sel := p.tree.Head(class).Selection
		cache[i] = p.tree.AddDetached(class, &symbols.Function{
			Header: symbols.Header{
				Kind:      symbols.KindMethod,
				Name:      "__Init",
				Range:     sel,
				Selection: sel,
			},
			Scope:  symbols.NewScope(),
			Static: static,
		})
	}

	return frame{mode: modeStatement, owner: cache[i], class: class}
}

func (p *Parser) parseFields(f frame, static bool, docIdx int) {
	doc := p.docComment(docIdx)

	for {
		t := p.tok()
		if t.Kind != syntax.Identifier {
			p.errorf(diag.InvalidName, t.Offset, t.End(), "Invalid field name '%s'", t.Text)
			p.sync()

			return
		}

		p.hint(syntax.HintProperty)
		p.next()

		v := &symbols.Variable{
			Header: symbols.Header{
				Kind:      symbols.KindVariable,
				Name:      t.Text,
				Selection: symbols.Range{Start: t.Offset, End: t.End()},
				Doc:       doc,
			},
			IsDef:    true,
			Static:   static,
			Declared: "field",
			Type:     docTag(typeTag, doc),
		}

		switch c := p.tok(); {
		case c.Is(":="):
			p.next()

			start := p.tok().Offset
			r := p.parseExpr(p.initFrame(f.class, static), noComma)
			v.Assign = symbols.Expr{Text: p.text(start, r.end), Offset: start}
		case p.atLineEnd(), c.Is(","), c.Is("}"):
		default:
			p.errorf(diag.InvalidProperty, t.Offset, c.End(), "Invalid class member '%s'", t.Text)
			p.sync()

			return
		}

		v.Range = symbols.Range{Start: t.Offset, End: max(p.prevEnd(), t.End())}

		h := p.tree.Add(f.class, v)
		p.declareMember(f.class, t.Text, h, static)

		if !p.got(",") {
			return
		}
	}
}

// parseProperty parses Name[params] { get/set/call } or Name => expr.
func (p *Parser) parseProperty(f frame, static bool, docIdx int) {
	name := p.tok()

	prop := &symbols.Property{
		Header: symbols.Header{
			Kind:      symbols.KindProperty,
			Name:      name.Text,
			Selection: symbols.Range{Start: name.Offset, End: name.End()},
			Doc:       p.docComment(docIdx),
		},
		Static: static,
		Get:    symbols.NoHandle,
		Set:    symbols.NoHandle,
		Call:   symbols.NoHandle,
	}

	h := p.tree.Add(f.class, prop)
	p.declareMember(f.class, name.Text, h, static)

	p.hint(syntax.HintProperty)
	p.next()

	pf := frame{mode: modePropertyBody, owner: symbols.NoHandle, class: f.class}
	if p.tok().Is("[") {
		prop.Params = p.parseParamList(pf, "[", "]")
	}

	switch t := p.tok(); {
	case t.Is("=>"):
		p.next()

		acc, af := p.accessor(h, prop, name, "get", f.class)
		p.parseAccessorArrow(af, acc)
		prop.Get = af.owner
	case t.Is("{"):
		p.next()

		for !p.atEOF() && !p.tok().Is("}") {
			start := p.pos
			a := p.tok()
			word := strings.ToLower(a.Text)

			if a.Kind != syntax.Identifier || word != "get" && word != "set" && word != "call" {
				p.errorf(diag.InvalidProperty, a.Offset, a.End(), "Expected 'get', 'set' or 'call' in property '%s'", name.Text)
				p.sync()
				p.endStatement(start)

				continue
			}

			acc, af := p.accessor(h, prop, a, word, f.class)
			p.hint(syntax.HintMethod)
			p.next()

			if p.got("=>") {
				p.parseAccessorArrow(af, acc)
			} else {
				p.parseBlock(af)
			}

			acc.Range = symbols.Range{Start: a.Offset, End: p.prevEnd()}

			switch word {
			case "get":
				prop.Get = af.owner
			case "set":
				prop.Set = af.owner
			default:
				prop.Call = af.owner
			}

			p.endStatement(start)
		}

		p.closeBrace(t)
	default:
		p.errorf(diag.MissingDelimiter, t.Offset, t.End(), "Missing '{' or '=>' after property '%s'", name.Text)
	}

	prop.Range = symbols.Range{Start: p.all[p.code[docIdx]].Offset, End: max(p.prevEnd(), name.End())}
}

// accessor creates the get, set or call method of a property. Setters
// receive an implicit "value" parameter ahead of the property parameters.
func (p *Parser) accessor(ph symbols.Handle, prop *symbols.Property, at syntax.Token, word string, class symbols.Handle) (*symbols.Function, frame) {
	fn := &symbols.Function{
		Header: symbols.Header{
			Kind:      symbols.KindMethod,
			Name:      word,
			Range:     symbols.Range{Start: at.Offset, End: at.End()},
			Selection: symbols.Range{Start: at.Offset, End: at.End()},
		},
		Scope:  symbols.NewScope(),
		Static: prop.Static,
	}
	fn.ReturnType = docTag(returnsTag, prop.Doc)

	h := p.tree.Add(ph, fn)
	af := frame{mode: modeStatement, owner: h, class: class}

	var params []symbols.Param
	if word == "set" {
		params = append(params, symbols.Param{Name: "value", Range: fn.Selection})
	}

	params = append(params, prop.Params...)
	p.bindParams(af, fn, params)

	return fn, af
}

func (p *Parser) parseAccessorArrow(af frame, fn *symbols.Function) {
	start := p.tok().Offset
	r := p.parseExpr(af, 0)

	fn.Arrow = true
	fn.Returns = append(fn.Returns, symbols.Expr{Text: p.text(start, r.end), Offset: start})
	fn.Range.End = max(fn.Range.End, r.end)
}
