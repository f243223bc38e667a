package parser

import (
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

func (p *Parser) parseTopLevel() {
	f := frame{mode: modeTopLevel, owner: symbols.NoHandle, class: symbols.NoHandle}

	for !p.atEOF() {
		if t := p.tok(); t.Is("}") {
			p.errorf(diag.UnexpectedToken, t.Offset, t.End(), "Unexpected '}'")
			p.next()

			continue
		}

		p.parseStatement(f)
	}
}

// parseStatement parses one statement. It always consumes at least one token.
func (p *Parser) parseStatement(f frame) {
	start := p.pos

	saved := p.depth
	p.depth = 0

	defer func() { p.depth = saved }()

	t := p.tok()

	switch t.Kind {
	case syntax.Hotkey, syntax.Hotstring:
		p.parseEvent(f)
	case syntax.Label:
		p.parseLabel(f)
	case syntax.Directive:
		p.parseDirective(f)
	case syntax.Keyword:
		p.parseKeywordStatement(f)
	default:
		switch {
		case t.Is("{"):
			p.parseBlock(f)
		case p.isFunctionDef():
			p.parseFunction(f, false, p.pos)
		default:
			p.parseExprStatement(f)
		}
	}

	p.endStatement(start)
}

func (p *Parser) endStatement(start int) {
	t := p.tok()

	if p.pos == start {
		if t.Kind != syntax.EOF {
			p.errorf(diag.UnexpectedToken, t.Offset, t.End(), "Unexpected '%s'", t.Text)
			p.next()
		}

		return
	}

	if t.Kind == syntax.EOF || t.NewLine || t.Is("}") {
		return
	}

	p.errorf(diag.UnexpectedToken, t.Offset, t.End(), "Unexpected '%s'", t.Text)
	p.sync()
}

func (p *Parser) parseBlock(f frame) {
	open := p.tok()
	if !open.Is("{") {
		p.errorf(diag.MissingDelimiter, open.Offset, open.End(), "Missing '{'")
		return
	}

	p.next()

	for !p.atEOF() && !p.tok().Is("}") {
		p.parseStatement(f)
	}

	p.closeBrace(open)
}

// closeBrace consumes the "}" matching open and records the folding range.
func (p *Parser) closeBrace(open syntax.Token) {
	if t := p.tok(); t.Is("}") {
		p.folding = append(p.folding, symbols.Range{Start: open.Offset, End: t.End()})
		p.next()

		return
	}

	p.errorf(diag.MissingDelimiter, open.Offset, open.End(), "Missing '}'")
}

// parseBody parses the body of a control statement: a block or a single
// statement.
func (p *Parser) parseBody(f frame) {
	t := p.tok()

	switch {
	case t.Is("{"):
		p.parseBlock(f)
	case t.Kind == syntax.EOF || t.Is("}"):
	default:
		p.parseStatement(f)
	}
}

func (p *Parser) parseKeywordStatement(f frame) {
	t := p.tok()

	switch strings.ToLower(t.Text) {
	case "class":
		p.parseClass(f)
	case "global", "local", "static":
		p.parseDeclaration(f)
	case "if":
		p.next()
		p.parseExpr(f, 0)
		p.parseBody(f)

		if p.tok().IsKeyword("else") {
			p.next()
			p.parseBody(f)
		}
	case "while":
		p.next()
		p.parseExpr(f, 0)
		p.parseBody(f)
		p.parseUntil(f)
	case "loop":
		p.parseLoop(f)
	case "for":
		p.parseFor(f)
	case "try":
		p.parseTry(f)
	case "switch":
		p.parseSwitch(f)
	case "return":
		p.next()

		if !p.atLineEnd() && !p.tok().Is("}") {
			start := p.tok().Offset
			r := p.parseExprList(f, 0)

			s := p.scope(f)
			s.Returns = append(s.Returns, symbols.Expr{Text: p.text(start, r.end), Offset: start})
		}
	case "break", "continue":
		p.next()

		if !p.atLineEnd() && p.tok().Kind == syntax.Identifier {
			p.next()
		}
	case "goto":
		p.next()
		p.parseGoto(f)
	case "throw":
		p.next()

		if !p.atLineEnd() && !p.tok().Is("}") {
			p.parseExpr(f, 0)
		}
	case "else", "catch", "finally", "until", "case", "default":
		p.errorf(diag.UnexpectedToken, t.Offset, t.End(), "Unexpected '%s'", t.Text)
		p.next()
		p.parseBody(f)
	default:
		p.parseExprStatement(f)
	}
}

func (p *Parser) parseUntil(f frame) {
	if p.tok().IsKeyword("until") {
		p.next()
		p.parseExpr(f, 0)
	}
}

var loopKinds = map[string]bool{"parse": true, "files": true, "read": true, "reg": true}

func (p *Parser) parseLoop(f frame) {
	p.next()

	if t := p.tok(); !p.atLineEnd() && !t.Is("{") {
		if t.Kind == syntax.Identifier && loopKinds[strings.ToLower(t.Text)] && (p.peek(1).Is(",") || p.peek(1).NewLine) {
			p.next()
			p.got(",")
		}

		if !p.atLineEnd() && !p.tok().Is("{") {
			p.parseExprList(f, 0)
		}
	}

	p.parseBody(f)
	p.parseUntil(f)
}

func (p *Parser) parseFor(f frame) {
	p.next()
	paren := p.got("(")

	for {
		t := p.tok()
		if t.Kind == syntax.Identifier {
			p.addVar(f, &symbols.Variable{
				Header: symbols.Header{
					Name:      t.Text,
					Range:     symbols.Range{Start: t.Offset, End: t.End()},
					Selection: symbols.Range{Start: t.Offset, End: t.End()},
				},
				IsDef: true,
			})
			p.hint(syntax.HintVariable)
			p.next()
		}

		if !p.got(",") {
			break
		}
	}

	if !p.tok().IsKeyword("in") {
		t := p.tok()
		p.errorf(diag.MissingDelimiter, t.Offset, t.End(), "Missing 'in'")
		p.sync()

		return
	}

	p.next()
	p.parseExpr(f, 0)

	if paren {
		p.want(")")
	}

	p.parseBody(f)
	p.parseUntil(f)
}

func (p *Parser) parseTry(f frame) {
	p.next()
	p.parseBody(f)

	for p.tok().IsKeyword("catch") {
		p.next()
		paren := p.got("(")

		for !p.atLineEnd() && !p.tok().Is("{") && !p.tok().IsKeyword("as") && !p.tok().Is(")") {
			if t := p.tok(); t.Kind == syntax.Identifier {
				p.addVar(f, &symbols.Variable{Header: symbols.Header{
					Name:      t.Text,
					Range:     symbols.Range{Start: t.Offset, End: t.End()},
					Selection: symbols.Range{Start: t.Offset, End: t.End()},
				}})
				p.hint(syntax.HintClass)
			}

			p.next()
		}

		if p.got("as") {
			if t := p.tok(); t.Kind == syntax.Identifier {
				p.addVar(f, &symbols.Variable{
					Header: symbols.Header{
						Name:      t.Text,
						Range:     symbols.Range{Start: t.Offset, End: t.End()},
						Selection: symbols.Range{Start: t.Offset, End: t.End()},
					},
					IsDef: true,
				})
				p.hint(syntax.HintVariable)
				p.next()
			} else {
				p.errorf(diag.InvalidName, t.Offset, t.End(), "Expected a variable name after 'as'")
			}
		}

		if paren {
			p.want(")")
		}

		p.parseBody(f)
	}

	if p.tok().IsKeyword("else") {
		p.next()
		p.parseBody(f)
	}

	if p.tok().IsKeyword("finally") {
		p.next()
		p.parseBody(f)
	}
}

func (p *Parser) parseSwitch(f frame) {
	p.next()

	if !p.atLineEnd() && !p.tok().Is("{") {
		p.parseExprList(f, 0)
	}

	open := p.tok()
	if !open.Is("{") {
		p.errorf(diag.MissingDelimiter, open.Offset, open.End(), "Missing '{'")
		p.sync()

		return
	}

	p.next()

	for !p.atEOF() && !p.tok().Is("}") {
		t := p.tok()
		start := p.pos

		switch {
		case t.IsKeyword("case"):
			p.next()
			p.parseExprList(f, stopColon)
			p.want(":")
		case t.IsKeyword("default"):
			p.next()
			p.want(":")
		default:
			p.parseStatement(f)
			continue
		}

		if !p.atLineEnd() && !p.tok().Is("}") {
			p.parseStatement(f)
		} else if p.pos == start {
			p.next()
		}
	}

	p.closeBrace(open)
}

func (p *Parser) parseGoto(f frame) {
	t := p.tok()

	if t.Kind != syntax.Identifier || p.peek(1).Is("(") && !p.peek(1).Space {
		if !p.atLineEnd() {
			p.parseExpr(f, 0)
		}

		return
	}

	h := p.tree.AddDetached(f.owner, &symbols.Label{Header: symbols.Header{
		Kind:      symbols.KindLabel,
		Name:      t.Text,
		Range:     symbols.Range{Start: t.Offset, End: t.End()},
		Selection: symbols.Range{Start: t.Offset, End: t.End()},
	}})

	s := p.scope(f)
	s.Labels = append(s.Labels, h)

	p.hint(syntax.HintLabel)
	p.next()
}

func (p *Parser) parseLabel(f frame) {
	t := p.tok()
	name := strings.TrimSuffix(t.Text, ":")

	h := p.tree.Add(f.owner, &symbols.Label{
		Header: symbols.Header{
			Kind:      symbols.KindLabel,
			Name:      name,
			Range:     symbols.Range{Start: t.Offset, End: t.End()},
			Selection: symbols.Range{Start: t.Offset, End: t.Offset + len(name)},
		},
		IsDef: true,
	})

	s := p.scope(f)
	s.Labels = append(s.Labels, h)

	p.hint(syntax.HintLabel)
	p.next()
}

func (p *Parser) parseDirective(f frame) {
	t := p.tok()
	name, args := syntax.DirectiveName(t.Text)

	switch strings.ToLower(name) {
	case "include", "includeagain":
		inc := Include{
			Raw:   args,
			Range: symbols.Range{Start: t.Offset, End: t.End()},
			Again: strings.EqualFold(name, "IncludeAgain"),
		}

		if lower := strings.ToLower(inc.Raw); lower == "*i" || strings.HasPrefix(lower, "*i ") {
			inc.Optional = true
			inc.Raw = strings.TrimSpace(inc.Raw[2:])
		}

		inc.Raw = strings.Trim(inc.Raw, `"'`)
		if inc.Raw == "" {
			p.errorf(diag.IncludeInvalid, t.Offset, t.End(), "Missing include path")
		} else {
			p.includes = append(p.includes, inc)
		}

		p.next()
	case "hotif":
		p.next()

		if !p.atLineEnd() {
			p.parseExpr(frame{mode: modeExpression, owner: symbols.NoHandle, class: symbols.NoHandle}, 0)
		}
	default:
		p.next()
	}
}

// parseEvent parses a hotkey or hotstring and its body.
func (p *Parser) parseEvent(f frame) {
	t := p.tok()
	docIdx := p.pos

	if f.mode != modeTopLevel {
		p.errorf(diag.UnexpectedToken, t.Offset, t.End(), "Hotkeys and hotstrings must be defined at the top level")
	}

	trigger := strings.TrimSuffix(t.Text, "::")
	ev := &symbols.Event{
		Header: symbols.Header{
			Kind:      symbols.KindEvent,
			Name:      strings.TrimSpace(trigger),
			Selection: symbols.Range{Start: t.Offset, End: t.Offset + len(trigger)},
			Doc:       p.docComment(docIdx),
		},
		Scope:     symbols.NewScope(),
		Hotstring: t.Kind == syntax.Hotstring,
	}

	if ev.Hotstring {
		if i := strings.IndexByte(trigger[1:], ':'); i >= 0 {
			ev.Options = trigger[1 : 1+i]
		}
	}

	h := p.tree.Add(symbols.NoHandle, ev)
	p.hint(syntax.HintEvent)
	p.next()

	inner := frame{mode: modeStatement, owner: h, class: symbols.NoHandle}

	param := p.addVar(inner, &symbols.Variable{
		Header: symbols.Header{
			Name:      "ThisHotkey",
			Range:     ev.Selection,
			Selection: ev.Selection,
		},
		IsDef:    true,
		Param:    true,
		Declared: "param",
	})
	declare(ev.Local, "ThisHotkey", param)

	next := p.tok()

	switch {
	case ev.Hotstring && next.Kind == syntax.String && !next.NewLine:
		p.next()
	case next.Is("{"):
		p.parseBlock(inner)
	case next.NewLine || next.Kind == syntax.EOF:
	case p.peek(1).NewLine && next.Kind != syntax.String && !next.Is("("):
		// a remap such as "a::b"
		p.next()
	default:
		p.parseStatement(inner)
	}

	ev.Range = symbols.Range{Start: t.Offset, End: max(p.prevEnd(), t.End())}
}

// parseDeclaration parses global, local and static declarations.
func (p *Parser) parseDeclaration(f frame) {
	kw := p.tok()
	kwIdx := p.pos
	word := strings.ToLower(kw.Text)
	p.next()

	if word == "static" && p.isFunctionDef() {
		p.parseFunction(f, true, kwIdx)
		return
	}

	s := p.scope(f)

	if p.atLineEnd() || p.tok().Is("}") {
		if word == "global" {
			s.AssumeGlobal = true
		}

		return
	}

	for {
		t := p.tok()
		if t.Kind != syntax.Identifier {
			p.errorf(diag.InvalidName, t.Offset, t.End(), "Invalid variable name '%s'", t.Text)
			p.sync()

			return
		}

		p.next()

		v := &symbols.Variable{
			Header: symbols.Header{
				Name:      t.Text,
				Selection: symbols.Range{Start: t.Offset, End: t.End()},
				Doc:       p.docComment(kwIdx),
			},
			Declared: word,
			Static:   word == "static",
		}

		if p.got(":=") {
			start := p.tok().Offset
			r := p.parseExpr(f, noComma)
			v.IsDef = true
			v.Assign = symbols.Expr{Text: p.text(start, r.end), Offset: start}
		}

		v.Range = symbols.Range{Start: t.Offset, End: max(p.prevEnd(), t.End())}
		v.Type = docTag(typeTag, v.Doc)

		h := p.addVar(f, v)

		if word == "global" {
			declare(s.Global, t.Text, h)
		} else {
			declare(s.Local, t.Text, h)
		}

		if !p.got(",") {
			return
		}
	}
}

// parseExprStatement parses an expression statement, including command-style
// calls such as `MsgBox "hi"`.
func (p *Parser) parseExprStatement(f frame) {
	if last, ok := p.commandCall(); ok {
		p.parseCommandCall(f, last)
		return
	}

	r := p.parseExpr(f, noComma)
	if r.call >= 0 {
		p.scope(f).CallSites[r.call].Used = false
	}

	for p.tok().Is(",") {
		p.next()

		r = p.parseExpr(f, noComma)
		if r.call >= 0 {
			p.scope(f).CallSites[r.call].Used = false
		}
	}
}

// commandCall reports whether the statement starting at the cursor is a
// call without parentheses. last is the code index of the callee's final
// name token.
func (p *Parser) commandCall() (int, bool) {
	t := p.tok()
	if t.Kind != syntax.Identifier {
		return 0, false
	}

	last := p.pos
	for {
		dot, name := p.peek(last-p.pos+1), p.peek(last-p.pos+2)
		if !dot.Is(".") || dot.Space || name.Kind != syntax.Identifier || name.Space || dot.NewLine {
			break
		}

		last += 2
	}

	n := p.peek(last - p.pos + 1)
	if n.Kind == syntax.EOF || n.NewLine || n.Is("}") {
		return last, true
	}

	if !n.Space {
		return 0, false
	}

	switch {
	case n.Kind == syntax.String, n.Kind == syntax.Number, n.Kind == syntax.Identifier:
		return last, true
	case n.Is("%"), n.Is(","), n.Is("("), n.Is("!"), n.Is("&"):
		return last, true
	case n.IsKeyword("true"), n.IsKeyword("false"), n.IsKeyword("unset"), n.IsKeyword("not"):
		return last, true
	}

	return 0, false
}

func (p *Parser) parseCommandCall(f frame, last int) {
	first := p.tok()
	end := p.all[p.code[last]]
	dotted := last > p.pos

	if dotted {
		p.addVar(f, &symbols.Variable{Header: symbols.Header{
			Name:      first.Text,
			Range:     symbols.Range{Start: first.Offset, End: first.End()},
			Selection: symbols.Range{Start: first.Offset, End: first.End()},
		}})
		p.hint(syntax.HintVariable)
		p.hintAt(last, syntax.HintMethod)
	} else {
		p.hint(syntax.HintFunction)
	}

	p.pos = last
	p.next()

	cs := symbols.CallSite{
		Name:  p.src[first.Offset:end.End()],
		Range: symbols.Range{Start: first.Offset, End: end.End()},
	}

	argStart := p.tok().Offset

	if !p.atLineEnd() && !p.tok().Is("}") {
		args := p.parseArgs(f, "")
		cs.ArgCount = args.count
		cs.ByRef = args.byRef
		cs.Empty = args.empty
		cs.Spread = args.spread
	}

	cs.Args = symbols.Range{Start: argStart, End: max(argStart, p.prevEnd())}

	s := p.scope(f)
	s.CallSites = append(s.CallSites, cs)
}
