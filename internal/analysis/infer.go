package analysis

import (
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// InferExpr returns the tags expr may evaluate to when it appears at offset
// pos of doc. Unresolvable expressions yield {#any}.
func (s *Session) InferExpr(doc *parser.Document, expr string, pos int) TagSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	return known(s.inferExpr(doc, expr, pos))
}

func known(tags TagSet) TagSet {
	if len(tags) == 0 {
		return Tags(TagAny)
	}

	return tags
}

// memo runs fn once per key and pass. A key met again while fn is still
// running yields no tags, which cuts self-referential definitions.
func (s *Session) memo(key memoKey, fn func() TagSet) TagSet {
	if e, ok := s.pass.memo[key]; ok {
		if e.state == memoResolving {
			return nil
		}

		return e.tags
	}

	e := &memoEntry{state: memoResolving}
	s.pass.memo[key] = e

	e.tags = fn()
	e.state = memoResolved

	return e.tags
}

func (s *Session) inferExpr(doc *parser.Document, expr string, pos int) TagSet {
	norm := strings.Join(strings.Fields(expr), " ")
	if norm == "" {
		return nil
	}

	key := memoKey{uri: doc.URI, scope: doc.Tree.Enclosing(pos), expr: norm}

	return s.memo(key, func() TagSet {
		toks, _ := syntax.Tokenize(norm)

		items := make([]item, 0, len(toks))
		for _, t := range toks {
			if t.Kind != syntax.Comment && t.Kind != syntax.EOF {
				items = append(items, item{tok: t})
			}
		}

		c := &inferCtx{s: s, doc: doc, pos: pos}

		return c.reduce(items)
	})
}

// inferCtx is the position an expression is evaluated at.
type inferCtx struct {
	s   *Session
	doc *parser.Document
	pos int
}

// item is a token or an already reduced operand.
type item struct {
	tok  syntax.Token
	tags TagSet

	value bool
	// static marks a class object as opposed to an instance.
	static bool
}

func (it item) isOp(text string) bool {
	return !it.value && it.tok.Kind == syntax.Operator && it.tok.Text == text
}

func (it item) isOperand() bool {
	if it.value {
		return true
	}

	switch it.tok.Kind {
	case syntax.Identifier, syntax.Number, syntax.String:
		return true
	case syntax.Keyword:
		return it.tok.IsKeyword("true") || it.tok.IsKeyword("false") || it.tok.IsKeyword("unset")
	}

	return false
}

func reduced(tags TagSet, static bool) item {
	return item{tags: tags, value: true, static: static}
}

// splice replaces items[i:j] with it.
func splice(items []item, i, j int, it item) []item {
	out := make([]item, 0, len(items)-(j-i)+1)
	out = append(out, items[:i]...)
	out = append(out, it)

	return append(out, items[j:]...)
}

// reduce rewrites items until no member access or bracket is left, then
// evaluates the remaining flat operator sequence.
func (c *inferCtx) reduce(items []item) TagSet {
	for len(items) > 0 {
		if i, ok := memberAt(items); ok {
			items = c.reduceMember(items, i)
			continue
		}

		i, j, found, bad := innermost(items)
		if bad {
			return Tags(TagAny)
		}

		if !found {
			break
		}

		items = c.reduceBracket(items, i, j)
	}

	return c.reduceFlat(items)
}

// memberAt finds the leftmost obj.name access whose name is not itself
// called or indexed; calls are reduced together with their receiver.
func memberAt(items []item) (int, bool) {
	for i := 1; i+1 < len(items); i++ {
		dot, name := items[i], items[i+1]
		if !dot.isOp(".") || dot.tok.Space || !items[i-1].isOperand() || items[i-1].tok.Kind == syntax.Number {
			continue
		}

		if name.value || name.tok.Kind != syntax.Identifier && name.tok.Kind != syntax.Keyword || name.tok.Space {
			continue
		}

		if i+2 < len(items) && !items[i+2].tok.Space && (items[i+2].isOp("(") || items[i+2].isOp("[")) {
			continue
		}

		return i, true
	}

	return 0, false
}

// innermost finds the first closing bracket and its opener.
func innermost(items []item) (open, close int, found, bad bool) {
	for j, it := range items {
		var want string

		switch {
		case it.isOp(")"):
			want = "("
		case it.isOp("]"):
			want = "["
		case it.isOp("}"):
			want = "{"
		default:
			continue
		}

		for i := j - 1; i >= 0; i-- {
			if items[i].isOp(want) {
				return i, j, true, false
			}

			if items[i].isOp("(") || items[i].isOp("[") || items[i].isOp("{") {
				return 0, 0, false, true
			}
		}

		return 0, 0, false, true
	}

	for _, it := range items {
		if it.isOp("(") || it.isOp("[") || it.isOp("{") {
			return 0, 0, false, true
		}
	}

	return 0, 0, false, false
}

func (c *inferCtx) reduceMember(items []item, i int) []item {
	obj, static := c.operandStatic(items[i-1])
	tags, static := c.memberTags(obj, static, items[i+1].tok.Text, false)

	return splice(items, i-1, i+2, reduced(tags, static))
}

func (c *inferCtx) reduceBracket(items []item, i, j int) []item {
	inner := items[i+1 : j]
	open := items[i]
	adjacent := i > 0 && !open.tok.Space && items[i-1].isOperand() && items[i-1].tok.Kind != syntax.Number &&
		items[i-1].tok.Kind != syntax.String

	switch {
	case open.isOp("(") && adjacent:
		args := splitTop(inner, ",")

		// obj.Method(...)
		if i >= 3 && !items[i-1].value && items[i-2].isOp(".") && !items[i-2].tok.Space && items[i-3].isOperand() {
			obj, static := c.operandStatic(items[i-3])
			tags, _ := c.memberTags(obj, static, items[i-1].tok.Text, true)

			return splice(items, i-3, j+1, reduced(tags, false))
		}

		return splice(items, i-1, j+1, reduced(c.call(items[i-1], args), false))
	case open.isOp("["):
		if adjacent {
			obj, static := c.operandStatic(items[i-1])
			tags, _ := c.memberTags(obj, static, "__Item", false)

			return splice(items, i-1, j+1, reduced(known(tags), false))
		}

		return splice(items, i, j+1, reduced(Tags("Array"), false))
	case open.isOp("{"):
		return splice(items, i, j+1, reduced(Tags("Object"), false))
	}

	parts := splitTop(inner, ",")
	if len(parts) == 0 {
		return splice(items, i, j+1, reduced(nil, false))
	}

	return splice(items, i, j+1, reduced(c.reduce(parts[len(parts)-1]), false))
}

// splitTop splits items at top-level separators.
func splitTop(items []item, sep string) [][]item {
	if len(items) == 0 {
		return nil
	}

	var (
		out   [][]item
		depth int
		start int
	)

	for k, it := range items {
		switch {
		case it.isOp("(") || it.isOp("[") || it.isOp("{"):
			depth++
		case it.isOp(")") || it.isOp("]") || it.isOp("}"):
			depth--
		case depth == 0 && it.isOp(sep):
			out = append(out, items[start:k])
			start = k + 1
		}
	}

	return append(out, items[start:])
}

// Operator precedence, loosest first. Implicit concatenation shares
// precConcat with the explicit dot.
const (
	precNone = iota
	precCoalesce
	precOr
	precAnd
	precIs
	precEquality
	precRelational
	precRegex
	precConcat
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
	precPower
)

func binaryPrec(it item) int {
	if it.value {
		return precNone
	}

	t := it.tok

	if t.Kind == syntax.Keyword {
		switch strings.ToLower(t.Text) {
		case "or":
			return precOr
		case "and":
			return precAnd
		case "is", "in", "contains":
			return precIs
		}

		return precNone
	}

	if t.Kind != syntax.Operator {
		return precNone
	}

	switch t.Text {
	case "??":
		return precCoalesce
	case "||":
		return precOr
	case "&&":
		return precAnd
	case "=", "==", "!=", "!==":
		return precEquality
	case "<", ">", "<=", ">=":
		return precRelational
	case "~=":
		return precRegex
	case ".":
		return precConcat
	case "|":
		return precBitOr
	case "^":
		return precBitXor
	case "&":
		return precBitAnd
	case "<<", ">>", ">>>":
		return precShift
	case "+", "-":
		return precAdditive
	case "*", "/", "//":
		return precMultiplicative
	case "**":
		return precPower
	}

	return precNone
}

// reduceFlat evaluates a sequence without brackets or member accesses.
func (c *inferCtx) reduceFlat(items []item) TagSet {
	if len(items) == 0 {
		return nil
	}

	for k, it := range items {
		if it.value || it.tok.Kind != syntax.Operator || !syntax.IsAssignOp(it.tok.Text) {
			continue
		}

		switch it.tok.Text {
		case ":=":
			return c.reduceFlat(items[k+1:])
		case ".=":
			return Tags(TagString)
		case "??=":
			return c.reduceFlat(items[:k]).Union(c.reduceFlat(items[k+1:]))
		}

		return Tags(TagNumber)
	}

	for _, it := range items {
		if it.isOp("=>") {
			return Tags("Func")
		}
	}

	if tags, ok := c.ternary(items); ok {
		return tags
	}

	// mark which operators sit between two operands
	best, prev := precNone, false
	binary := make([]int, len(items))

	for k, it := range items {
		if it.isOperand() {
			if prev && k > 0 {
				binary[k] = -precConcat
				best = lowest(best, precConcat)
			}

			prev = true

			continue
		}

		if it.isOp("++") || it.isOp("--") {
			continue
		}

		if p := binaryPrec(it); prev && p != precNone {
			binary[k] = p
			best = lowest(best, p)
		}

		prev = false
	}

	switch {
	case best == precNone:
		return c.unary(items)
	case best <= precAnd:
		var out TagSet

		start := 0

		for k := range items {
			if binary[k] == best {
				out = out.Union(known(c.reduceFlat(items[start:k])))
				start = k + 1
			}
		}

		return out.Union(known(c.reduceFlat(items[start:])))
	case best == precConcat:
		return Tags(TagString)
	}

	return Tags(TagNumber)
}

func lowest(a, b int) int {
	if a == precNone || b < a {
		return b
	}

	return a
}

// ternary evaluates cond ? a : b to the union of both branches. A '?' with
// no matching ':' is a maybe-unset mark and is dropped.
func (c *inferCtx) ternary(items []item) (TagSet, bool) {
	for k, it := range items {
		if !it.isOp("?") {
			continue
		}

		nest := 0

		for m := k + 1; m < len(items); m++ {
			switch {
			case items[m].isOp("?"):
				nest++
			case items[m].isOp(":") && nest > 0:
				nest--
			case items[m].isOp(":"):
				return known(c.reduceFlat(items[k+1 : m])).Union(known(c.reduceFlat(items[m+1:]))), true
			}
		}

		rest := append(append([]item{}, items[:k]...), items[k+1:]...)

		return c.reduceFlat(rest), true
	}

	return nil, false
}

// unary evaluates a single operand with optional prefix and postfix
// operators.
func (c *inferCtx) unary(items []item) TagSet {
	first := items[0]

	switch {
	case first.isOp("-"), first.isOp("+"), first.isOp("!"), first.isOp("~"),
		first.isOp("++"), first.isOp("--"), first.tok.IsKeyword("not"):
		return Tags(TagNumber)
	case first.isOp("&"):
		return Tags("VarRef")
	}

	if last := items[len(items)-1]; len(items) > 1 && (last.isOp("++") || last.isOp("--")) {
		return Tags(TagNumber)
	}

	if len(items) == 1 {
		return c.operand(first)
	}

	return Tags(TagAny)
}

// operand returns the tags of one operand.
func (c *inferCtx) operand(it item) TagSet {
	tags, _ := c.operandStatic(it)
	return tags
}

// operandStatic also reports whether the operand denotes a class object.
func (c *inferCtx) operandStatic(it item) (TagSet, bool) {
	if it.value {
		return it.tags, it.static
	}

	t := it.tok

	switch t.Kind {
	case syntax.Number:
		return Tags(TagNumber), false
	case syntax.String:
		return Tags(TagString), false
	case syntax.Keyword:
		if t.IsKeyword("true") || t.IsKeyword("false") {
			return Tags(TagNumber), false
		}

		return nil, false
	case syntax.Identifier:
		return c.name(t.Text)
	}

	return Tags(TagAny), false
}

// name returns the tags of an identifier and whether it denotes a class
// object.
func (c *inferCtx) name(name string) (TagSet, bool) {
	switch {
	case strings.EqualFold(name, "this"):
		return c.this(false)
	case strings.EqualFold(name, "super"):
		return c.this(true)
	}

	if ref, b, ok := c.s.lookup(c.doc, name, c.pos); ok {
		switch b.Kind {
		case BindFunction:
			return Tags(ref.Doc.Tree.QualifiedName(ref.Handle)), false
		case BindClass:
			return Tags(ref.Doc.Tree.QualifiedName(ref.Handle)), true
		case BindThis:
			return c.this(strings.EqualFold(b.Name, "super"))
		}

		if b.Kind.IsVariable() {
			return c.s.inferBinding(b, c.posIn(b)), false
		}
	}

	if _, tag, ok := builtins.LookupVariable(name); ok {
		return parseAnnotation(tag), false
	}

	if cls, ok := builtins.LookupClass(name); ok {
		return Tags(cls.Name), true
	}

	if builtins.IsFunction(name) {
		return Tags("Func"), false
	}

	return nil, false
}

// posIn returns the evaluation offset when b lives in the evaluated
// document, -1 otherwise.
func (c *inferCtx) posIn(b *Binding) int {
	if b.Doc != c.doc {
		return -1
	}

	return c.pos
}

// this returns the class enclosing the position; super yields its base.
func (c *inferCtx) this(super bool) (TagSet, bool) {
	tree := c.doc.Tree
	fn := tree.Enclosing(c.pos)

	cls := tree.EnclosingClass(fn)
	if !cls.Valid() {
		return nil, false
	}

	static := false
	if f, ok := tree.Function(fn); ok {
		static = f.Static
	}

	if super {
		k, _ := tree.Class(cls)
		if k.Extends == "" {
			return Tags("Object"), static
		}

		return Tags(k.Extends), static
	}

	return Tags(tree.QualifiedName(cls)), static
}

// call returns the tags produced by calling callee with args.
func (c *inferCtx) call(callee item, args [][]item) TagSet {
	if callee.value {
		return c.callTags(callee.tags)
	}

	name := callee.tok.Text

	if ref, b, ok := c.s.lookup(c.doc, name, c.pos); ok {
		switch b.Kind {
		case BindFunction:
			return c.s.returnTags(ref.Doc, ref.Handle)
		case BindClass:
			return Tags(ref.Doc.Tree.QualifiedName(ref.Handle))
		}

		if b.Kind.IsVariable() {
			return c.callTags(c.s.inferBinding(b, c.posIn(b)))
		}
	}

	return c.callBuiltin(name, args)
}

// comCreators take a ProgID or CLSID as their first argument.
var comCreators = map[string]bool{
	"COMOBJECT":    true,
	"COMOBJACTIVE": true,
	"COMOBJGET":    true,
}

func (c *inferCtx) callBuiltin(name string, args [][]item) TagSet {
	if comCreators[strings.ToUpper(name)] {
		progID := ""
		if len(args) > 0 && len(args[0]) == 1 && args[0][0].tok.Kind == syntax.String {
			progID = unquote(args[0][0].tok.Text)
		}

		return Tags(comObjectTag(progID))
	}

	if cls, ok := builtins.LookupClass(name); ok {
		_, tag := cls.Constructor()
		return parseAnnotation(tag)
	}

	if sig, ok := builtins.LookupFunction(name); ok {
		return parseAnnotation(sig.Returns)
	}

	return nil
}

// callTags returns the result of calling a value with the given tags. A tag
// naming a function yields its return tags; a class yields an instance.
func (c *inferCtx) callTags(tags TagSet) TagSet {
	var out TagSet

	for _, t := range tags {
		ref, ok := c.s.findQualified(c.doc, t)
		if !ok {
			out = out.Add(TagAny)
			continue
		}

		switch ref.Doc.Tree.Get(ref.Handle).(type) {
		case *symbols.Function:
			out = out.Union(c.s.returnTags(ref.Doc, ref.Handle))
		case *symbols.Class:
			out = out.Add(t)
		default:
			out = out.Add(TagAny)
		}
	}

	return out
}

// returnTags infers what the function or property getter h returns.
func (s *Session) returnTags(doc *parser.Document, h symbols.Handle) TagSet {
	key := memoKey{uri: doc.URI, scope: h, expr: "<returns>"}

	return s.memo(key, func() TagSet {
		switch n := doc.Tree.Get(h).(type) {
		case *symbols.Function:
			if n.ReturnType != "" {
				return parseAnnotation(n.ReturnType)
			}

			var out TagSet
			for _, r := range n.Returns {
				out = out.Union(known(s.inferExpr(doc, r.Text, r.Offset)))
			}

			return out
		case *symbols.Property:
			if n.Get.Valid() {
				return s.returnTags(doc, n.Get)
			}

			if t := docTypeTag(n.Doc); t != "" {
				return parseAnnotation(t)
			}
		}

		return nil
	})
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}

	return s
}
