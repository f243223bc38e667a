package parser

import (
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

type exprFlags uint8

const (
	noComma   exprFlags = 1 << iota // stop at a top-level ','
	stopColon                       // stop at ':' (case lists)
)

// operand describes a parsed (sub)expression.
type operand struct {
	start, end int

	v          symbols.Handle // variable reference when the operand is a bare name
	call       int            // index into the scope's call sites, or -1
	assignable bool
	byRef      bool
	this       bool
	field      string // member name when the operand is this.<name>
}

func span(start, end int) operand {
	return operand{start: start, end: end, v: symbols.NoHandle, call: -1}
}

const (
	precAssign  = 1
	precTernary = 2
	precConcat  = 11
	precPower   = 19
)

// binaryPrec returns the precedence of t as a binary operator.
func binaryPrec(t syntax.Token) (prec int, right, ok bool) {
	if t.Kind == syntax.Keyword {
		switch strings.ToLower(t.Text) {
		case "or":
			return 4, false, true
		case "and":
			return 5, false, true
		case "is", "in", "contains":
			return 7, false, true
		}

		return 0, false, false
	}

	if t.Kind != syntax.Operator {
		return 0, false, false
	}

	if syntax.IsAssignOp(t.Text) {
		return precAssign, true, true
	}

	switch t.Text {
	case "?":
		return precTernary, true, true
	case "??":
		return 3, true, true
	case "||":
		return 4, false, true
	case "&&":
		return 5, false, true
	case "=", "==", "!=", "!==":
		return 8, false, true
	case "<", ">", "<=", ">=":
		return 9, false, true
	case "~=":
		return 10, false, true
	case ".":
		return precConcat, false, true
	case "|":
		return 12, false, true
	case "^":
		return 13, false, true
	case "&":
		return 14, false, true
	case "<<", ">>", ">>>":
		return 15, false, true
	case "+", "-":
		return 16, false, true
	case "*", "/", "//":
		return 17, false, true
	case "**":
		return precPower, true, true
	}

	return 0, false, false
}

// continues reports whether a token at the start of a line continues the
// previous line's expression.
func continues(t syntax.Token) bool {
	if t.Is("++") || t.Is("--") {
		return false
	}

	return t.Is(",") || syntax.IsBinaryOp(t)
}

// ends reports whether t terminates the current expression.
func (p *Parser) ends(t syntax.Token, flags exprFlags) bool {
	switch {
	case t.Kind == syntax.EOF:
		return true
	case t.NewLine && p.depth == 0 && !continues(t):
		return true
	case t.NewLine && p.depth > 0 && (t.Kind == syntax.Hotkey || t.Kind == syntax.Hotstring || t.Kind == syntax.Directive || t.Kind == syntax.Label):
		return true
	case flags&noComma != 0 && t.Is(","):
		return true
	case flags&stopColon != 0 && t.Is(":"):
		return true
	}

	return false
}

// startsOperand reports whether t can begin an implicitly concatenated operand.
func startsOperand(t syntax.Token) bool {
	switch t.Kind {
	case syntax.Identifier, syntax.Number, syntax.String:
		return true
	case syntax.Keyword:
		return t.Is("true") || t.Is("false") || t.Is("unset")
	}

	return t.Is("(") || t.Is("%")
}

func (p *Parser) parseExpr(f frame, flags exprFlags) operand {
	return p.parseBinary(f, 0, flags)
}

// parseExprList parses comma separated expressions and returns their span.
func (p *Parser) parseExprList(f frame, flags exprFlags) operand {
	r := p.parseExpr(f, flags|noComma)

	for p.tok().Is(",") {
		p.next()

		if p.ends(p.tok(), flags|noComma) {
			break
		}

		e := p.parseExpr(f, flags|noComma)
		r = span(r.start, max(r.end, e.end))
	}

	return r
}

func (p *Parser) parseBinary(f frame, minPrec int, flags exprFlags) operand {
	left := p.parseUnary(f, flags)

	for {
		t := p.tok()
		if p.ends(t, flags) {
			return left
		}

		if t.Is("*") && p.spreadAhead() {
			return left
		}

		prec, right, ok := binaryPrec(t)
		implicit := false

		if ok && t.Is(".") && !t.Space && !t.NewLine {
			// member access is handled by parsePostfix
			return left
		}

		if !ok {
			if !startsOperand(t) || !t.Space {
				return left
			}

			prec, implicit = precConcat, true
		}

		if prec < minPrec {
			return left
		}

		switch {
		case prec == precAssign:
			left = p.parseAssign(f, left, flags)
		case prec == precTernary:
			p.next()
			p.parseBinary(f, precAssign, flags&^stopColon)

			if !p.got(":") {
				c := p.tok()
				p.errorf(diag.MissingDelimiter, c.Offset, c.End(), "Missing ':' in ternary expression")
			}

			r := p.parseBinary(f, precTernary, flags)
			left = span(left.start, max(r.end, left.end))
		default:
			if !implicit {
				p.next()
			}

			next := prec + 1
			if right {
				next = prec
			}

			before := p.pos
			r := p.parseBinary(f, next, flags)

			if p.pos == before {
				return left
			}

			left = span(left.start, max(r.end, left.end))
		}
	}
}

// parseAssign parses the right-hand side of an assignment and turns the
// target into a definition.
func (p *Parser) parseAssign(f frame, left operand, flags exprFlags) operand {
	op := p.tok()

	if !left.assignable {
		p.errorf(diag.UnexpectedToken, op.Offset, op.End(), "Invalid assignment target")
	}

	p.next()

	start := p.tok().Offset
	r := p.parseBinary(f, precAssign, flags)
	rhs := p.text(start, r.end)

	if op.Text != ":=" && rhs != "" {
		// x += 1 infers like x + 1
		rhs = p.text(left.start, left.end) + " " + strings.TrimSuffix(op.Text, "=") + " " + rhs
		start = left.start
	}

	if left.v.Valid() {
		p.markDef(f, left.v, symbols.Expr{Text: rhs, Offset: start}, false)
	}

	if left.field != "" {
		p.addField(f, left, symbols.Expr{Text: rhs, Offset: start})
	}

	return span(left.start, max(r.end, left.end))
}

// addField records an assignment to this.<name> as a dynamic instance member.
func (p *Parser) addField(f frame, left operand, assign symbols.Expr) {
	cls, ok := p.tree.Class(f.class)
	if !ok {
		return
	}

	if _, exists := cls.InstanceDecl[symbols.Key(left.field)]; exists {
		return
	}

	nameStart := left.end - len(left.field)
	h := p.tree.AddDetached(f.class, &symbols.Variable{
		Header: symbols.Header{
			Kind:      symbols.KindVariable,
			Name:      left.field,
			Range:     symbols.Range{Start: left.start, End: left.end},
			Selection: symbols.Range{Start: nameStart, End: left.end},
		},
		IsDef:    true,
		Assign:   assign,
		Declared: "this",
	})

	declare(cls.InstanceDecl, left.field, h)
}

func (p *Parser) parseUnary(f frame, flags exprFlags) operand {
	t := p.tok()

	switch {
	case t.Is("-"), t.Is("+"), t.Is("!"), t.Is("~"):
		p.next()
		r := p.parseUnary(f, flags)

		return span(t.Offset, max(r.end, t.End()))
	case t.IsKeyword("not"):
		p.next()
		r := p.parseBinary(f, 6, flags)

		return span(t.Offset, max(r.end, t.End()))
	case t.Is("++"), t.Is("--"):
		p.next()
		r := p.parseUnary(f, flags)

		if r.v.Valid() {
			name := p.text(r.start, r.end)
			p.markDef(f, r.v, symbols.Expr{Text: name + " + 1", Offset: r.start}, false)
		}

		return span(t.Offset, max(r.end, t.End()))
	case t.Is("&"):
		p.next()
		r := p.parseUnary(f, flags)

		if r.v.Valid() {
			p.markDef(f, r.v, symbols.Expr{}, true)
		}

		out := span(t.Offset, max(r.end, t.End()))
		out.byRef = true

		return out
	}

	return p.parsePostfix(f, flags)
}

func (p *Parser) parsePostfix(f frame, flags exprFlags) operand {
	left := p.parsePrimary(f, flags)

	for {
		t := p.tok()

		switch {
		case t.Is(".") && p.isMemberDot(t):
			p.next()

			name := p.tok()
			nameIdx := p.pos

			switch {
			case name.Kind == syntax.Identifier || name.Kind == syntax.Keyword:
				p.hint(syntax.HintProperty)
				p.next()
			case name.Is("%"):
				p.parseDynamic(f)
			default:
				p.errorf(diag.UnexpectedToken, name.Offset, name.End(), "Expected a member name")
				return left
			}

			if n := p.tok(); n.Is("(") && !n.Space && !n.NewLine {
				p.hintAt(nameIdx, syntax.HintMethod)
				callee := p.src[left.start:name.End()]
				left = p.parseCall(f, left.start, callee, symbols.Range{Start: name.Offset, End: name.End()})

				continue
			}

			field := ""
			if left.this && name.Kind == syntax.Identifier {
				field = name.Text
			}

			left = span(left.start, max(p.prevEnd(), left.end))
			left.assignable = true
			left.field = field
		case t.Is("[") && !t.Space && !t.NewLine:
			p.next()
			p.depth++
			p.parseArgs(f, "]")
			p.depth--
			p.want("]")

			left = span(left.start, p.prevEnd())
			left.assignable = true
		case t.Is("(") && !t.Space && !t.NewLine:
			left = p.parseCall(f, left.start, "", symbols.Range{Start: t.Offset, End: t.Offset})
		case (t.Is("++") || t.Is("--")) && !t.NewLine && left.assignable:
			if left.v.Valid() {
				name := p.text(left.start, left.end)
				p.markDef(f, left.v, symbols.Expr{Text: name + " + 1", Offset: left.start}, false)
			}

			p.next()
			left = span(left.start, t.End())
		case t.Is("?") && !t.Space && left.assignable && p.maybeUnsetMark():
			p.next()
			left.end = t.End()
		default:
			return left
		}
	}
}

// isMemberDot reports whether a '.' token is member access rather than
// concatenation.
func (p *Parser) isMemberDot(t syntax.Token) bool {
	if !t.Space && !t.NewLine {
		return true
	}

	n := p.peek(1)

	return t.NewLine && !n.Space && (n.Kind == syntax.Identifier || n.Kind == syntax.Keyword)
}

// spreadAhead reports whether a '*' at the cursor is the variadic suffix of
// an argument, as in f(args*).
func (p *Parser) spreadAhead() bool {
	n := p.peek(1)
	return n.Is(")") || n.Is("]") || n.Is(",") || n.NewLine || n.Kind == syntax.EOF
}

// maybeUnsetMark reports whether a '?' directly after an operand is the
// "maybe unset" suffix rather than a ternary.
func (p *Parser) maybeUnsetMark() bool {
	n := p.peek(1)
	return n.Is(")") || n.Is(",") || n.Is("]") || n.Is("}") || n.Kind == syntax.EOF || n.NewLine
}

func (p *Parser) parsePrimary(f frame, flags exprFlags) operand {
	t := p.tok()

	switch t.Kind {
	case syntax.Number, syntax.String:
		p.next()
		return span(t.Offset, t.End())
	case syntax.Keyword:
		switch strings.ToLower(t.Text) {
		case "true", "false", "unset":
			p.next()
			return span(t.Offset, t.End())
		}
	case syntax.Identifier:
		return p.parseName(f)
	case syntax.Operator:
		switch t.Text {
		case "(":
			if p.isArrowAhead(p.pos) {
				return p.parseArrowFunc(f, flags)
			}

			p.next()
			p.depth++
			p.parseArgs(f, ")")
			p.depth--
			p.want(")")

			return span(t.Offset, p.prevEnd())
		case "[":
			p.next()
			p.depth++
			p.parseArgs(f, "]")
			p.depth--
			p.want("]")

			return span(t.Offset, p.prevEnd())
		case "{":
			return p.parseObject(f)
		case "%":
			r := p.parseDynamic(f)
			r.assignable = true

			return r
		}
	}

	p.errorf(diag.UnexpectedToken, t.Offset, t.End(), "Unexpected '%s'", t.Text)

	if t.NewLine || t.Kind == syntax.EOF || t.Is(")") || t.Is("]") || t.Is("}") || t.Is(",") {
		// left for the enclosing construct; the operand is empty
		return span(t.Offset, t.Offset)
	}

	p.next()

	return span(t.Offset, t.End())
}

// parseName parses an identifier: a variable reference, a call or an arrow
// function.
func (p *Parser) parseName(f frame) operand {
	t := p.tok()
	n := p.peek(1)

	if n.Is("=>") && !n.NewLine {
		return p.parseArrowFunc(f, 0)
	}

	if n.Is("(") && !n.Space {
		if p.isArrowAhead(p.pos + 1) {
			return p.parseArrowFunc(f, 0)
		}

		p.hint(syntax.HintFunction)
		p.next()

		return p.parseCall(f, t.Offset, t.Text, symbols.Range{Start: t.Offset, End: t.End()})
	}

	p.next()

	switch {
	case t.Is("this"), t.Is("super"):
		out := span(t.Offset, t.End())
		out.assignable = true
		out.this = t.Is("this")

		return out
	}

	h := p.addVar(f, &symbols.Variable{Header: symbols.Header{
		Name:      t.Text,
		Range:     symbols.Range{Start: t.Offset, End: t.End()},
		Selection: symbols.Range{Start: t.Offset, End: t.End()},
	}})
	p.hintAt(p.pos-1, syntax.HintVariable)

	out := span(t.Offset, t.End())
	out.v = h
	out.assignable = true

	return out
}

// argInfo summarises an argument list.
type argInfo struct {
	count  int
	byRef  []bool
	empty  []bool
	spread bool
}

// parseArgs parses comma separated arguments up to (not including) close.
// An empty close parses to the end of the line.
func (p *Parser) parseArgs(f frame, close string) argInfo {
	var info argInfo

	if close != "" && p.tok().Is(close) {
		return info
	}

	omitted := func() {
		info.count++
		info.byRef = append(info.byRef, false)
		info.empty = append(info.empty, true)
	}

	for {
		t := p.tok()

		switch {
		case close != "" && t.Is(close):
			omitted()
			return info
		case close == "" && (p.atLineEnd() || t.Is("}")):
			omitted()
			return info
		case t.Is(","):
			omitted()
			p.next()

			continue
		}

		before := p.pos
		r := p.parseBinary(f, 0, noComma)

		if p.tok().Is("*") && p.spreadAhead() {
			info.spread = true
			p.next()
		}

		if p.pos == before {
			return info
		}

		info.count++
		info.byRef = append(info.byRef, r.byRef)
		info.empty = append(info.empty, false)

		if !p.got(",") {
			return info
		}
	}
}

// parseCall parses an argument list at the current '(' and records the call.
func (p *Parser) parseCall(f frame, start int, callee string, calleeRange symbols.Range) operand {
	open := p.tok()
	p.next()

	p.depth++
	args := p.parseArgs(f, ")")
	p.depth--

	closeOff := p.tok().Offset
	if !p.got(")") {
		p.errorf(diag.MissingDelimiter, open.Offset, open.End(), "Missing ')'")
		closeOff = p.prevEnd()
	}

	out := span(start, p.prevEnd())
	out.assignable = true

	if callee == "" {
		return out
	}

	s := p.scope(f)
	s.CallSites = append(s.CallSites, symbols.CallSite{
		Name:     callee,
		Range:    calleeRange,
		Args:     symbols.Range{Start: open.End(), End: max(open.End(), closeOff)},
		ArgCount: args.count,
		ByRef:    args.byRef,
		Empty:    args.empty,
		Spread:   args.spread,
		Paren:    true,
		Used:     true,
	})
	out.call = len(s.CallSites) - 1

	return out
}

// parseObject parses an object literal {key: value, ...}.
func (p *Parser) parseObject(f frame) operand {
	open := p.tok()
	p.next()
	p.depth++

	defer func() { p.depth-- }()

	for !p.tok().Is("}") && !p.atEOF() {
		k := p.tok()

		switch {
		case k.Kind == syntax.Identifier || k.Kind == syntax.Keyword || k.Kind == syntax.Number || k.Kind == syntax.String:
			p.next()
		case k.Is("%"):
			p.parseDynamic(f)
		default:
			p.errorf(diag.InvalidObjectLiteral, k.Offset, k.End(), "Invalid object literal key '%s'", k.Text)
			return p.skipObject(open)
		}

		if !p.got(":") {
			c := p.tok()
			p.errorf(diag.InvalidObjectLiteral, c.Offset, c.End(), "Missing ':' after object literal key")

			return p.skipObject(open)
		}

		p.parseBinary(f, 0, noComma)

		if !p.got(",") {
			break
		}
	}

	if !p.got("}") {
		p.errorf(diag.MissingDelimiter, open.Offset, open.End(), "Missing '}'")
	}

	return span(open.Offset, p.prevEnd())
}

// skipObject skips to the '}' closing the object literal opened at open.
func (p *Parser) skipObject(open syntax.Token) operand {
	depth := 1

	for !p.atEOF() {
		t := p.tok()

		switch {
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
		}

		p.next()

		if depth == 0 {
			break
		}
	}

	return span(open.Offset, p.prevEnd())
}

// parseDynamic parses a %name% dynamic reference.
func (p *Parser) parseDynamic(f frame) operand {
	open := p.tok()
	p.next()
	p.parseBinary(f, 0, noComma)

	if !p.got("%") {
		p.errorf(diag.MissingDelimiter, open.Offset, open.End(), "Missing '%%'")
	}

	return span(open.Offset, p.prevEnd())
}

// matchClose returns the code index of the bracket closing the one at i.
func (p *Parser) matchClose(i int) int {
	depth := 0

	for j := i; j < len(p.code); j++ {
		t := p.all[p.code[j]]

		switch {
		case t.Kind == syntax.EOF:
			return -1
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
			if depth == 0 {
				return j
			}
		}
	}

	return -1
}

// isArrowAhead reports whether the bracket at code index i closes right
// before "=>".
func (p *Parser) isArrowAhead(i int) bool {
	j := p.matchClose(i)
	if j < 0 || j+1 >= len(p.code) {
		return false
	}

	n := p.all[p.code[j+1]]

	return n.Is("=>") && !n.NewLine
}

// parseArrowFunc parses a fat-arrow function: x => e, (a, b) => e or
// Name(a, b) => e. The function is a closure over the enclosing scope.
func (p *Parser) parseArrowFunc(f frame, flags exprFlags) operand {
	first := p.tok()
	fn := &symbols.Function{
		Header: symbols.Header{
			Kind:      symbols.KindFunction,
			Selection: symbols.Range{Start: first.Offset, End: first.End()},
		},
		Scope:   symbols.NewScope(),
		Arrow:   true,
		Closure: true,
	}

	parent := f.owner
	if f.mode == modeClassBody || f.mode == modePropertyBody {
		parent = f.class
	}

	h := p.tree.Add(parent, fn)
	inner := frame{mode: modeExpression, owner: h, class: f.class}

	switch {
	case first.Kind == syntax.Identifier && p.peek(1).Is("=>"):
		p.hint(syntax.HintParameter)
		p.next()
		p.bindParams(inner, fn, []symbols.Param{{
			Name:  first.Text,
			Range: symbols.Range{Start: first.Offset, End: first.End()},
		}})
	case first.Kind == syntax.Identifier:
		fn.Name = first.Text
		p.hint(syntax.HintFunction)
		p.next()
		p.bindParams(inner, fn, p.parseParamList(inner, "(", ")"))
	default:
		p.bindParams(inner, fn, p.parseParamList(inner, "(", ")"))
	}

	p.want("=>")

	start := p.tok().Offset
	r := p.parseBinary(inner, precAssign, flags|noComma)
	fn.Returns = append(fn.Returns, symbols.Expr{Text: p.text(start, r.end), Offset: start})
	fn.Range = symbols.Range{Start: first.Offset, End: max(r.end, p.prevEnd())}

	return span(first.Offset, fn.Range.End)
}
