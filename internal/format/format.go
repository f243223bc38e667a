package format

import (
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// Edit replaces Text[Start:End] of the original document.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Format reformats a whole document.
func Format(text string, opts Options) string {
	out := newFormatter(text, opts, 0).run()

	// a comment or string left open at the end already carries the newline
	if out != "" && strings.HasSuffix(text, "\n") && !strings.HasSuffix(out, "\n") {
		out += eolOf(text)
	}

	return out
}

// FormatRange reformats the lines touched by [start, end). The range is
// snapped to whole lines and the result replaces all of them; the first
// line's indentation is kept as the base level.
func FormatRange(text string, start, end int, opts Options) Edit {
	start = max(0, min(start, len(text)))
	end = max(start, min(end, len(text)))

	// a range ending at column 0 does not touch that line
	if end > start && text[end-1] == '\n' {
		end--
	}

	ls := strings.LastIndexByte(text[:start], '\n') + 1

	le := len(text)
	if nl := strings.IndexByte(text[end:], '\n'); nl >= 0 {
		le = end + nl
	}

	if le > ls && text[le-1] == '\r' {
		le--
	}

	snippet := text[ls:le]

	return Edit{
		Start: ls,
		End:   le,
		Text:  newFormatter(snippet, opts, opts.indentLevel(snippet)).run(),
	}
}

func eolOf(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}

	return "\n"
}

// mode is the syntactic context a frame was opened in.
type mode uint8

const (
	modeBlockStatement mode = iota
	modeStatement
	modeExpression
	modeObjectLiteral
	modeArrayLiteral
	modeForInitializer
	modeConditional
)

// frame is one entry of the mode stack. base is the indentation of the line
// that opened it, indent the indentation of the lines inside.
type frame struct {
	mode   mode
	base   int
	indent int
	close  string

	// head is the control keyword a statement, head or block frame belongs to.
	head string
	// inline marks else/try/finally heads, whose body may follow on the same line.
	inline bool
	// started is set on a statement frame once its body has a token.
	started bool

	ternary int
	oneLine bool
	expand  bool

	isSwitch bool
	inCase   bool
}

func (fr *frame) isHead() bool {
	return fr.mode == modeConditional || fr.mode == modeForInitializer
}

func (fr *frame) statementLevel() bool {
	return fr.mode == modeBlockStatement || fr.mode == modeStatement || fr.isHead()
}

type action uint8

const (
	actNone action = iota
	actOpenBlock
	actOpenObject
	actOpenArray
	actOpenParen
	actClose
	actHead
	actCase
)

// role is how a token binds to its neighbours for spacing.
type role uint8

const (
	roleNone role = iota
	roleOperand
	roleKeyword
	roleWord
	roleBinary
	roleUnary
	rolePostfix
	roleMember
	roleOpen
	roleClose
	roleComma
	roleColon
	rolePreserve
)

type formatter struct {
	opts Options
	src  string
	toks []syntax.Token
	eol  string

	lines     []string
	cur       strings.Builder
	begun     bool
	lineOpen  bool
	curIndent int
	lineFirst int

	stack []*frame

	prevRole   role
	prevTok    syntax.Token
	prevAct    action
	forceBreak bool

	closedBlock bool
	closedHead  string
}

func newFormatter(text string, opts Options, level int) *formatter {
	toks, _ := syntax.Tokenize(text)

	return &formatter{
		opts:  opts,
		src:   text,
		toks:  toks,
		eol:   eolOf(text),
		stack: []*frame{{mode: modeBlockStatement, base: level, indent: level}},
	}
}

func (f *formatter) run() string {
	for i := 0; i < len(f.toks) && f.toks[i].Kind != syntax.EOF; i++ {
		t := f.toks[i]

		if t.Kind == syntax.Hotkey || t.Kind == syntax.Hotstring {
			next := f.toks[i+1]
			section := t.Kind == syntax.Hotstring && next.Kind == syntax.String
			if next.Kind != syntax.EOF && (next.Breaks == 0 || section) && !(t.Kind == syntax.Hotkey && next.Is("{")) {
				i = f.verbatim(i)
				continue
			}
		}

		f.token(i)
	}

	if f.begun {
		f.endLine(true)
	}

	return strings.Join(f.lines, f.eol)
}

func (f *formatter) top() *frame {
	return f.stack[len(f.stack)-1]
}

func (f *formatter) push(fr *frame) {
	f.stack = append(f.stack, fr)
}

func (f *formatter) pop() *frame {
	fr := f.top()
	if len(f.stack) > 1 {
		f.stack = f.stack[:len(f.stack)-1]
	}

	return fr
}

func (f *formatter) token(i int) {
	t := f.toks[i]
	act := f.classify(i)
	r := f.roleOf(i)

	newline, blanks := f.lineBreak(i, act, r)
	f.forceBreak = false

	switch {
	case newline || !f.begun:
		f.startLine(i, act, blanks)
	case t.Kind == syntax.Comment && f.lineOpen:
		f.cur.WriteString(f.commentGap(t))
	case f.lineOpen && f.space(i, act, r):
		f.cur.WriteByte(' ')
	}

	if top := f.top(); top.mode == modeStatement && t.Kind != syntax.Comment {
		top.started = true
	}

	f.write(t)
	f.apply(i, act, r)
}

// verbatim copies a hotkey or hotstring line with its body unchanged and
// returns the index of the last token it covered.
func (f *formatter) verbatim(i int) int {
	t := f.toks[i]

	f.startLine(i, actNone, f.blanks(t))
	f.forceBreak = false

	end := f.lineEnd(t.Offset)
	if next := f.toks[i+1]; t.Kind == syntax.Hotstring && next.Kind == syntax.String {
		end = max(end, f.lineEnd(next.End()))
	}

	j := i + 1
	for ; f.toks[j].Kind != syntax.EOF && f.toks[j].Offset < end; j++ {
		if e := f.toks[j].End(); e > end {
			end = f.lineEnd(e)
		}
	}

	parts := strings.Split(f.src[t.Offset:end], "\n")
	for k, p := range parts {
		if k > 0 {
			f.endLine(false)
		}

		f.cur.WriteString(strings.TrimSuffix(p, "\r"))
	}

	f.lineOpen = true
	f.prevRole = roleNone
	f.prevTok = f.toks[j-1]
	f.prevAct = actNone
	f.closedBlock = false

	return j - 1
}

func (f *formatter) lineEnd(pos int) int {
	if nl := strings.IndexByte(f.src[pos:], '\n'); nl >= 0 {
		return pos + nl
	}

	return len(f.src)
}

func (f *formatter) blanks(t syntax.Token) int {
	n := t.Breaks - 1

	switch {
	case n <= 0 || !f.opts.PreserveNewlines:
		return 0
	case f.opts.MaxPreserveNewlines > 0 && n > f.opts.MaxPreserveNewlines:
		return f.opts.MaxPreserveNewlines
	}

	return n
}

func (f *formatter) endLine(trim bool) {
	line := f.cur.String()
	if trim {
		line = strings.TrimRight(line, " \t")
	}

	f.lines = append(f.lines, line)
	f.cur.Reset()
	f.lineOpen = false
}

// startLine ends the current line, pops the frames the new line leaves and
// writes the indentation.
func (f *formatter) startLine(i int, act action, blanks int) {
	if f.begun {
		f.endLine(true)

		for j := 0; j < blanks; j++ {
			f.lines = append(f.lines, "")
		}
	}

	f.begun = true
	f.lineFirst = i

	cont := f.continuation(i)
	if !cont {
		f.leaveStatements(i, act)

		if top := f.top(); top.mode == modeBlockStatement || top.mode == modeStatement {
			top.ternary = 0
		}
	}

	f.curIndent = f.lineIndent(i, act, cont)
	f.cur.WriteString(f.opts.indent(f.curIndent))
}

// continuation reports whether the token at i continues the previous line
// rather than starting a statement.
func (f *formatter) continuation(i int) bool {
	if !f.top().statementLevel() {
		return true
	}

	t := f.toks[i]

	switch t.Kind {
	case syntax.Operator:
		if t.Is(":") && f.top().ternary == 0 {
			return false
		}

		return t.Is(",") || t.Is("=>") || syntax.IsBinaryOp(t)
	case syntax.Keyword:
		return syntax.IsBinaryOp(t)
	}

	return false
}

// leaveStatements resolves a pending control head into a body frame and pops
// single-statement bodies that are complete.
func (f *formatter) leaveStatements(i int, act action) {
	t := f.toks[i]

	if top := f.top(); top.isHead() {
		if act == actOpenBlock {
			return
		}

		f.pop()

		if top.head != "until" {
			f.push(&frame{mode: modeStatement, base: top.base, indent: top.base + 1, head: top.head})
		}

		return
	}

	kw := ""
	if t.Kind == syntax.Keyword {
		kw = strings.ToLower(t.Text)
	}

	if f.closedBlock && matchesHead(kw, f.closedHead) {
		return
	}

	for top := f.top(); top.mode == modeStatement && top.started; top = f.top() {
		fr := f.pop()
		if matchesHead(kw, fr.head) {
			return
		}
	}
}

// matchesHead reports whether keyword continues a statement opened by head.
func matchesHead(keyword, head string) bool {
	switch keyword {
	case "else":
		return head == "if"
	case "catch":
		return head == "try"
	case "finally":
		return head == "try" || head == "catch"
	case "until":
		return head == "loop"
	}

	return false
}

func (f *formatter) lineIndent(i int, act action, cont bool) int {
	t := f.toks[i]
	top := f.top()

	switch {
	case act == actClose:
		if fr := f.closing(t.Text); fr != nil {
			return fr.base
		}
	case act == actOpenBlock && top.isHead():
		return top.base
	case t.Kind == syntax.Directive && isHotIf(t):
		return f.stack[0].base
	}

	level := top.indent

	if top.isSwitch {
		caseLevel := top.indent
		if f.opts.SwitchCaseAlignment {
			caseLevel = top.base
		}

		switch {
		case act == actCase:
			level = caseLevel
		case top.inCase:
			level = caseLevel + 1
		}
	}

	if cont && (top.statementLevel() || t.Is("?") || t.Is(":")) {
		level++
	}

	return level
}

// closing finds the frame a closing bracket ends.
func (f *formatter) closing(text string) *frame {
	for k := len(f.stack) - 1; k > 0; k-- {
		if f.stack[k].close == text {
			return f.stack[k]
		}
	}

	return nil
}

func isHotIf(t syntax.Token) bool {
	name, _ := syntax.DirectiveName(t.Text)
	return strings.EqualFold(name, "HotIf")
}

func (f *formatter) classify(i int) action {
	t := f.toks[i]

	switch t.Kind {
	case syntax.Operator:
		switch t.Text {
		case "{":
			if f.objectBrace(i) {
				return actOpenObject
			}

			return actOpenBlock
		case "[":
			if f.prevOperand() && !f.sameLineSpace(i) {
				return actOpenParen
			}

			return actOpenArray
		case "(":
			return actOpenParen
		case ")", "]", "}":
			return actClose
		}
	case syntax.Keyword:
		if !f.statementStart(i) {
			return actNone
		}

		switch kw := strings.ToLower(t.Text); kw {
		case "if", "while", "loop", "for", "catch", "switch", "else", "try", "finally", "until":
			return actHead
		case "case", "default":
			if b := f.enclosingBlock(); b.isSwitch {
				return actCase
			}
		}
	}

	return actNone
}

// enclosingBlock skips statement and head frames.
func (f *formatter) enclosingBlock() *frame {
	k := len(f.stack) - 1
	for k > 0 && (f.stack[k].mode == modeStatement || f.stack[k].isHead()) {
		k--
	}

	return f.stack[k]
}

// statementStart reports whether the token at i begins a statement.
func (f *formatter) statementStart(i int) bool {
	t := f.toks[i]
	top := f.top()

	if !top.statementLevel() {
		return false
	}

	if i == 0 || t.Breaks > 0 {
		return !f.continuation(i)
	}

	switch {
	case f.prevAct == actOpenBlock:
		return true
	case f.prevTok.Is("}") && f.closedBlock:
		return true
	case top.isHead() && top.inline && f.prevTok.Kind == syntax.Keyword:
		return true
	}

	return false
}

// objectBrace decides whether "{" opens an object literal: always in
// expression position, and at statement position when the first thing after
// it on the same line is a "key:" pair.
func (f *formatter) objectBrace(i int) bool {
	if f.begun && f.prevTok.Kind == syntax.Hotkey {
		return false
	}

	if f.begun && f.toks[i].Breaks == 0 {
		p := f.prevTok

		switch {
		case p.Kind == syntax.Operator && !p.Is(")") && !p.Is("]") && !p.Is("}") && !p.Is("++") && !p.Is("--"):
			return true
		case p.IsKeyword("return") || p.IsKeyword("throw"):
			return true
		}
	}

	if i+2 >= len(f.toks) {
		return false
	}

	key, colon := f.toks[i+1], f.toks[i+2]
	if key.Breaks > 0 || colon.Breaks > 0 {
		return false
	}

	switch key.Kind {
	case syntax.Identifier, syntax.Keyword, syntax.String, syntax.Number:
		return colon.Is(":")
	}

	return false
}

// matching returns the index of the bracket closing the one at i, or the EOF
// index, and whether a comment occurs in between.
func (f *formatter) matching(i int) (int, bool) {
	depth, comment := 0, false

	for j := i; f.toks[j].Kind != syntax.EOF; j++ {
		t := f.toks[j]

		switch {
		case t.Kind == syntax.Comment:
			comment = true
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
			if depth == 0 {
				return j, comment
			}
		}
	}

	return len(f.toks) - 1, comment
}

// literalContext reports whether the innermost literal around the cursor
// keeps everything on one line or lays out items itself.
func (f *formatter) literalContext() (oneLine, expand bool) {
	for k := len(f.stack) - 1; k > 0; k-- {
		fr := f.stack[k]

		switch fr.mode {
		case modeExpression:
			continue
		case modeObjectLiteral, modeArrayLiteral:
			if fr.oneLine {
				return true, false
			}

			if fr.expand {
				expand = true
			}

			continue
		}

		break
	}

	return false, expand
}

func (f *formatter) lineBreak(i int, act action, r role) (bool, int) {
	t := f.toks[i]
	if !f.begun {
		return false, 0
	}

	blanks := f.blanks(t)

	if f.forceBreak {
		// a trailing comment may stay behind "{"
		if t.Kind == syntax.Comment && t.Breaks == 0 {
			return false, 0
		}

		return true, blanks
	}

	src := t.Breaks > 0

	switch {
	case act == actOpenBlock:
		if f.opts.BraceStyle == BraceExpand {
			return f.lineOpen && !f.startsLine(), blanks
		}

		if src && f.canGlueBrace() {
			return false, 0
		}

		return src, blanks
	case act == actClose:
		fr := f.closing(t.Text)
		if fr != nil && f.prevAct != actOpenBlock && f.prevAct != actOpenObject && f.prevAct != actOpenArray {
			if fr.mode == modeBlockStatement || fr.expand {
				return true, blanks
			}
		}
	case t.Kind == syntax.Keyword && f.closedBlock && isGlueKeyword(t):
		if f.opts.BraceStyle == BraceCollapse {
			return false, 0
		}

		return true, 0
	case f.opts.BreakChainedMethods && r == roleMember && f.prevTok.Is(")"):
		return true, 0
	}

	if oneLine, expand := f.literalContext(); oneLine || expand {
		src = false
	}

	if !src && f.wraps(i, r) {
		return true, 0
	}

	return src, blanks
}

// startsLine reports whether nothing but indentation has been written on the
// current line.
func (f *formatter) startsLine() bool {
	return strings.TrimLeft(f.cur.String(), " \t") == ""
}

func (f *formatter) wraps(i int, r role) bool {
	if f.opts.WrapLineLength <= 0 || f.prevRole != roleComma || f.top().statementLevel() {
		return false
	}

	return f.cur.Len()+1+len(f.toks[i].Text) > f.opts.WrapLineLength
}

func isGlueKeyword(t syntax.Token) bool {
	switch strings.ToLower(t.Text) {
	case "else", "catch", "finally", "until":
		return true
	}

	return false
}

// canGlueBrace reports whether a block "{" at the start of a line can move
// up to the line before: the head of a control statement or a function,
// method, property or class header.
func (f *formatter) canGlueBrace() bool {
	if f.top().isHead() {
		return true
	}

	if !f.top().statementLevel() {
		return false
	}

	p := f.prevTok
	if p.Kind == syntax.Comment || p.Kind == syntax.Hotkey || p.Kind == syntax.Hotstring || p.Kind == syntax.Label || p.Kind == syntax.Directive {
		return false
	}

	j := f.lineFirst
	first := f.toks[j]

	if first.IsKeyword("static") {
		j++
		first = f.toks[j]
	}

	switch {
	case first.IsKeyword("class"):
		return true
	case first.Kind != syntax.Identifier:
		return false
	case p.Offset == first.Offset:
		// property or accessor name alone on its line
		return true
	}

	next := f.toks[j+1]

	return (next.Is("(") || next.Is("[")) && !next.Space && (p.Is(")") || p.Is("]"))
}

func (f *formatter) prevOperand() bool {
	switch f.prevRole {
	case roleOperand, roleClose, rolePostfix:
		return true
	}

	return false
}

// sameLineSpace reports whether whitespace separates the token from the
// previous one on the same source line.
func (f *formatter) sameLineSpace(i int) bool {
	t := f.toks[i]
	return t.Space && t.Breaks == 0
}

func (f *formatter) roleOf(i int) role {
	t := f.toks[i]

	switch t.Kind {
	case syntax.Identifier, syntax.Number, syntax.String:
		return roleOperand
	case syntax.Keyword:
		switch strings.ToLower(t.Text) {
		case "and", "or", "not", "is", "in", "contains":
			return roleWord
		case "true", "false", "unset":
			return roleOperand
		}

		return roleKeyword
	case syntax.Operator:
		return f.operatorRole(i)
	}

	return rolePreserve
}

func (f *formatter) operatorRole(i int) role {
	t, next := f.toks[i], f.toks[i+1]

	switch t.Text {
	case "(", "[", "{":
		return roleOpen
	case ")", "]", "}":
		return roleClose
	case ",":
		return roleComma
	case ".":
		if f.sameLineSpace(i) || t.Breaks > 0 && f.sameLineSpace(i+1) {
			return roleBinary
		}

		return roleMember
	case "!", "~":
		return roleUnary
	case "++", "--":
		if f.prevOperand() && !f.sameLineSpace(i) {
			return rolePostfix
		}

		return roleUnary
	case "*":
		if f.prevOperand() && !f.sameLineSpace(i) && (next.Is(")") || next.Is(",") || next.Is("]")) {
			return rolePostfix
		}

		if !f.prevOperand() {
			return roleUnary
		}

		return f.symmetric(i)
	case "-", "+", "&":
		if !f.prevOperand() {
			return roleUnary
		}

		return f.symmetric(i)
	case "?":
		if f.prevOperand() && !f.sameLineSpace(i) && !f.ternaryAhead(i) {
			return rolePostfix
		}

		return roleBinary
	case ":":
		if f.top().ternary > 0 {
			return roleBinary
		}

		return roleColon
	case "=>":
		return roleBinary
	case "%":
		return rolePreserve
	}

	if syntax.IsBinaryOp(t) {
		return roleBinary
	}

	return rolePreserve
}

// ternaryAhead reports whether the "?" at i has a matching ":" later in the
// same expression.
func (f *formatter) ternaryAhead(i int) bool {
	depth := 0

	for j := i + 1; j < len(f.toks); j++ {
		t := f.toks[j]
		if t.Kind == syntax.EOF || t.NewLine {
			return false
		}

		if t.Kind != syntax.Operator {
			continue
		}

		switch {
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			if depth == 0 {
				return false
			}

			depth--
		case depth == 0 && t.Is(","):
			return false
		case depth == 0 && t.Is(":"):
			return true
		}
	}

	return false
}

// symmetric treats an operator written with the same spacing on both sides
// as binary; anything else could be a command argument such as "MsgBox -1"
// and keeps its spacing.
func (f *formatter) symmetric(i int) role {
	before := f.sameLineSpace(i)
	after := f.sameLineSpace(i+1) || f.toks[i+1].Breaks > 0

	if before == after || f.toks[i].Breaks > 0 {
		return roleBinary
	}

	return rolePreserve
}

func (f *formatter) space(i int, act action, r role) bool {
	t := f.toks[i]
	pr := f.prevRole
	src := t.Space || t.Breaks > 0

	switch {
	case pr == roleNone:
		return src
	case r == roleClose:
		return f.spaceBeforeClose(t, pr)
	case pr == roleOpen:
		return f.spaceAfterOpen()
	case r == roleComma || r == roleColon || r == rolePostfix || r == roleMember:
		return false
	case pr == roleMember || pr == roleUnary:
		return false
	case r == roleBinary || r == roleWord || pr == roleBinary || pr == roleWord || pr == roleComma || pr == roleColon:
		return true
	case pr == roleClose && t.Kind == syntax.Keyword:
		return true
	case act == actOpenBlock:
		if f.prevTok.Kind == syntax.Hotkey {
			return f.opts.SpaceAfterDoubleColon
		}

		return true
	case t.Is("(") && f.prevTok.Kind == syntax.Keyword && conditional(f.prevTok) && f.opts.SpaceBeforeConditional:
		return true
	}

	return src
}

func (f *formatter) spaceBeforeClose(t syntax.Token, pr role) bool {
	if pr == roleOpen {
		return t.Is(")") && f.opts.SpaceInEmptyParen
	}

	if t.Is(")") {
		return f.opts.SpaceInParen
	}

	if fr := f.closing(t.Text); fr != nil && (fr.mode == modeObjectLiteral || fr.mode == modeArrayLiteral) {
		return f.opts.SpaceInOther
	}

	return false
}

func (f *formatter) spaceAfterOpen() bool {
	switch {
	case f.prevTok.Is("("):
		return f.opts.SpaceInParen
	case f.prevAct == actOpenObject || f.prevAct == actOpenArray:
		return f.opts.SpaceInOther
	}

	return false
}

func conditional(t syntax.Token) bool {
	switch strings.ToLower(t.Text) {
	case "if", "while", "for", "switch", "catch", "until", "loop":
		return true
	}

	return false
}

// commentGap keeps the author's spacing before a trailing comment.
func (f *formatter) commentGap(t syntax.Token) string {
	gap := f.src[f.prevTok.End():t.Offset]
	if gap == "" || strings.ContainsAny(gap, "\r\n") {
		return " "
	}

	return gap
}

func (f *formatter) write(t syntax.Token) {
	text := t.Text

	if t.Kind == syntax.Keyword && f.opts.KeywordStartWithUppercase {
		text = strings.ToUpper(text[:1]) + text[1:]
	}

	if !t.Multiline() {
		f.cur.WriteString(text)
		f.lineOpen = true

		return
	}

	f.writeMultiline(t, text)
}

// writeMultiline re-indents the continuation lines of a block comment or a
// continuation-section string by the change of the first line's indentation.
// String content lines move only under the LTrim option, since their
// leading whitespace is otherwise part of the value.
func (f *formatter) writeMultiline(t syntax.Token, text string) {
	ls := strings.LastIndexByte(f.src[:t.Offset], '\n') + 1

	ws := ls
	for ws < t.Offset && (f.src[ws] == ' ' || f.src[ws] == '\t') {
		ws++
	}

	origWS := f.src[ls:ws]
	newWS := f.opts.indent(f.curIndent)

	all := t.Kind == syntax.Comment
	if t.Kind == syntax.String {
		for _, o := range syntax.ContinuationOptions(text) {
			if strings.EqualFold(o, "LTrim") {
				all = true
			}
		}
	}

	parts := strings.Split(text, "\n")
	f.cur.WriteString(strings.TrimSuffix(parts[0], "\r"))

	for _, p := range parts[1:] {
		p = strings.TrimSuffix(p, "\r")
		f.endLine(t.Kind == syntax.Comment)

		trimmed := strings.TrimLeft(p, " \t")
		if (all || strings.HasPrefix(trimmed, "(") || strings.HasPrefix(trimmed, ")")) && strings.HasPrefix(p, origWS) {
			p = newWS + p[len(origWS):]
		}

		f.cur.WriteString(p)
	}

	f.lineOpen = true
}

// apply updates the mode stack after the token at i was written.
func (f *formatter) apply(i int, act action, r role) {
	t := f.toks[i]
	top := f.top()

	closedBlock := false

	switch act {
	case actOpenBlock:
		fr := &frame{mode: modeBlockStatement, base: f.curIndent, indent: f.curIndent + 1, close: "}"}

		if top.isHead() {
			f.pop()
			fr.base, fr.indent, fr.head = top.base, top.base+1, top.head
			fr.isSwitch = top.head == "switch"
		}

		f.push(fr)

		if !f.toks[i+1].Is("}") {
			f.forceBreak = true
		}
	case actOpenObject, actOpenArray:
		f.openLiteral(i, act)
	case actOpenParen:
		f.push(&frame{mode: modeExpression, base: f.curIndent, indent: f.curIndent + 1, close: closer(t.Text)})
	case actClose:
		if f.closing(t.Text) != nil {
			for {
				fr := f.pop()
				if fr.close == t.Text {
					closedBlock = fr.mode == modeBlockStatement
					f.closedHead = fr.head

					break
				}
			}
		}
	case actHead:
		kw := strings.ToLower(t.Text)
		base := f.curIndent

		if top.isHead() && top.inline {
			// else if, else loop, ...
			f.pop()
			base = top.base
		}

		m := modeConditional
		if kw == "for" {
			m = modeForInitializer
		}

		f.push(&frame{mode: m, base: base, indent: base, head: kw, inline: kw == "else" || kw == "try" || kw == "finally"})
	case actCase:
		top.inCase = true
	default:
		if top.isHead() && top.inline && t.Kind != syntax.Comment {
			f.pop()
		}
	}

	switch {
	case r == roleBinary && t.Is("?"):
		f.top().ternary++
	case r == roleBinary && t.Is(":"):
		f.top().ternary--
	case t.Is(",") && f.top().expand:
		f.forceBreak = true
	case t.Kind == syntax.Comment && !strings.HasPrefix(t.Text, "/*"):
		f.forceBreak = true
	case t.Kind == syntax.Directive && isHotIf(t):
		f.hotIf(i)
	}

	f.closedBlock = closedBlock
	f.prevTok = t
	f.prevAct = act

	if t.Kind != syntax.Comment {
		f.prevRole = r
	}
}

func closer(open string) string {
	switch open {
	case "(":
		return ")"
	case "[":
		return "]"
	}

	return "}"
}

func (f *formatter) openLiteral(i int, act action) {
	t := f.toks[i]
	fr := &frame{mode: modeObjectLiteral, base: f.curIndent, indent: f.curIndent + 1, close: closer(t.Text)}

	style := f.opts.ObjectStyle
	if act == actOpenArray {
		fr.mode = modeArrayLiteral
		style = f.opts.ArrayStyle
	}

	end, comment := f.matching(i)
	empty := end == i+1
	inherited, _ := f.literalContext()

	switch {
	case comment:
	case inherited || style == LiteralCollapse:
		fr.oneLine = true
	case style == LiteralExpand:
		fr.expand = !empty
	}

	f.push(fr)

	if fr.expand {
		f.forceBreak = true
	}
}

// hotIf tracks #HotIf regions: a directive with an expression opens one,
// a bare directive closes it.
func (f *formatter) hotIf(i int) {
	root := f.stack[0]
	next := f.toks[i+1]

	active := next.Kind != syntax.EOF && next.Breaks == 0 && next.Kind != syntax.Comment
	if active && f.opts.IndentBetweenHotIf {
		root.indent = root.base + 1
	} else {
		root.indent = root.base
	}
}
