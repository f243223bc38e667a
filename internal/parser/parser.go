// Package parser builds the symbol tree for an AutoHotkey v2 document.
//
// The parser is a recursive-descent pass over the scanner's tokens. All state
// lives in a Parser value: a cursor into the code tokens and the mode passed
// explicitly down the call chain. Syntax errors are recorded and parsing
// resumes at the next logical line, so Parse always returns a complete tree.
package parser

import (
	"log"
	"regexp"
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// mode is the syntactic context a construct is parsed in.
type mode uint8

const (
	modeTopLevel mode = iota
	modeStatement
	modeExpression
	modeClassBody
	modePropertyBody
)

// frame is threaded through the parse functions. owner is the scope that
// receives variables and call sites; class is the enclosing class, if any.
type frame struct {
	mode  mode
	owner symbols.Handle
	class symbols.Handle
}

// Parser holds the state of a single parse.
type Parser struct {
	src  string
	all  []syntax.Token // every token, comments included
	code []int          // indexes into all, comments excluded
	pos  int            // cursor into code

	// depth counts open brackets inside the current expression; line breaks
	// do not end an expression while it is positive.
	depth int

	tree     *symbols.Tree
	diags    []diag.Diagnostic
	includes []Include
	folding  []symbols.Range

	// classInit caches the synthetic __Init methods per class; index 0 holds
	// the instance initializer and index 1 the static one.
	classInit map[symbols.Handle]*[2]symbols.Handle
}

// Parse scans and parses text. It never fails; problems are reported as
// diagnostics on the returned Document.
func Parse(uri, text string) *Document {
	toks, sc := syntax.Tokenize(text)

	p := &Parser{
		src:       text,
		all:       toks,
		tree:      symbols.NewTree(),
		classInit: make(map[symbols.Handle]*[2]symbols.Handle),
	}

	for i, t := range toks {
		if t.Kind != syntax.Comment {
			p.code = append(p.code, i)
		}
	}

	p.parseTopLevel()

	doc := &Document{
		URI:         uri,
		Text:        text,
		Tokens:      p.all,
		Spans:       sc.Spans(),
		Tree:        p.tree,
		Diagnostics: append(append([]diag.Diagnostic{}, sc.Diagnostics()...), p.diags...),
		Includes:    p.includes,
	}

	doc.Folding = p.foldingRanges(sc.Spans())

	log.Printf("Parsed %s: %d tokens, %d symbols, %d diagnostics", uri, len(toks), p.tree.Len(), len(doc.Diagnostics))

	return doc
}

// ----------------------------------------------------------------------------
// Token navigation

func (p *Parser) tok() syntax.Token {
	return p.all[p.code[p.pos]]
}

func (p *Parser) peek(n int) syntax.Token {
	i := p.pos + n
	if i >= len(p.code) {
		return p.all[p.code[len(p.code)-1]]
	}

	return p.all[p.code[i]]
}

func (p *Parser) next() {
	if p.pos < len(p.code)-1 {
		p.pos++
	}
}

func (p *Parser) atEOF() bool {
	return p.tok().Kind == syntax.EOF
}

// got consumes the current token if it is the operator or keyword text.
func (p *Parser) got(text string) bool {
	if p.tok().Is(text) {
		p.next()
		return true
	}

	return false
}

// want consumes text or reports a missing delimiter.
func (p *Parser) want(text string) bool {
	if p.got(text) {
		return true
	}

	t := p.tok()
	p.errorf(diag.MissingDelimiter, t.Offset, t.End(), "Missing '%s'", text)

	return false
}

// prevEnd returns the end offset of the last consumed token.
func (p *Parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}

	return p.all[p.code[p.pos-1]].End()
}

// atLineEnd reports whether the current token begins a new line or closes
// the enclosing block.
func (p *Parser) atLineEnd() bool {
	t := p.tok()
	return t.Kind == syntax.EOF || t.NewLine
}

func (p *Parser) hint(h syntax.Hint) {
	p.all[p.code[p.pos]].Hint = h
}

func (p *Parser) hintAt(codeIdx int, h syntax.Hint) {
	if codeIdx >= 0 && codeIdx < len(p.code) {
		p.all[p.code[codeIdx]].Hint = h
	}
}

// errorf records a diagnostic. Recovery can report the same token twice, so a
// repeat of the previous diagnostic's code and position is dropped.
func (p *Parser) errorf(code diag.Code, start, end int, format string, args ...any) {
	if n := len(p.diags); n > 0 && p.diags[n-1].Code == code && p.diags[n-1].Start == start {
		return
	}

	p.diags = append(p.diags, diag.New(code, start, end, format, args...))
}

// sync skips to the start of the next logical line, stopping early at a
// closing brace so the enclosing block can finish.
func (p *Parser) sync() {
	depth := 0

	for !p.atEOF() {
		t := p.tok()
		if t.NewLine && depth == 0 {
			return
		}

		switch {
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]"):
			if depth > 0 {
				depth--
			}
		case t.Is("}"):
			if depth == 0 {
				return
			}

			depth--
		}

		p.next()
	}
}

// ----------------------------------------------------------------------------
// Scopes

func (p *Parser) scope(f frame) *symbols.Scope {
	if s := p.tree.ScopeOf(f.owner); s != nil {
		return s
	}

	return &p.tree.Root
}

// declare records the first declaration of a name in a raw scope map.
func declare(m map[string]symbols.Handle, name string, h symbols.Handle) {
	key := symbols.Key(name)
	if _, ok := m[key]; !ok {
		m[key] = h
	}
}

// addVar creates a variable node in the current scope.
func (p *Parser) addVar(f frame, v *symbols.Variable) symbols.Handle {
	v.Kind = symbols.KindVariable

	h := p.tree.AddDetached(f.owner, v)
	s := p.scope(f)
	s.Vars = append(s.Vars, h)

	if v.IsDef {
		declare(s.Declaration, v.Name, h)
	}

	return h
}

// markDef turns a variable reference into a definition.
func (p *Parser) markDef(f frame, h symbols.Handle, assign symbols.Expr, byRef bool) {
	v, ok := p.tree.Variable(h)
	if !ok {
		return
	}

	v.IsDef = true
	v.Assign = assign
	v.ByRef = v.ByRef || byRef

	declare(p.scope(f).Declaration, v.Name, h)
}

func (p *Parser) text(start, end int) string {
	if start < 0 || end > len(p.src) || start > end {
		return ""
	}

	return strings.TrimSpace(p.src[start:end])
}

// ----------------------------------------------------------------------------
// Doc comments

var (
	typeTag    = regexp.MustCompile(`@type\s*\{([^}]*)\}`)
	returnsTag = regexp.MustCompile(`@returns?\s*\{([^}]*)\}`)
)

// docComment returns the comment block directly above the code token at
// index codeIdx, with comment markers stripped.
func (p *Parser) docComment(codeIdx int) string {
	ai := p.code[codeIdx]
	tok := p.all[ai]

	var lines []string

	breaks := tok.Breaks
	for i := ai - 1; i >= 0; i-- {
		c := p.all[i]
		if c.Kind != syntax.Comment || !c.NewLine || breaks > 1 {
			break
		}

		lines = append([]string{stripComment(c.Text)}, lines...)
		breaks = c.Breaks

		if strings.HasPrefix(c.Text, "/*") {
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripComment(text string) string {
	if strings.HasPrefix(text, "/*") {
		text = strings.TrimPrefix(text, "/**")
		text = strings.TrimPrefix(text, "/*")
		text = strings.TrimSuffix(text, "*/")

		lines := strings.Split(text, "\n")
		for i, l := range lines {
			l = strings.TrimSpace(l)
			l = strings.TrimPrefix(l, "*")
			lines[i] = strings.TrimSpace(l)
		}

		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	return strings.TrimSpace(strings.TrimLeft(text, ";"))
}

func docTag(re *regexp.Regexp, doc string) string {
	if m := re.FindStringSubmatch(doc); m != nil {
		return strings.TrimSpace(m[1])
	}

	return ""
}

// ----------------------------------------------------------------------------
// Folding

var regionMarker = regexp.MustCompile(`(?i)^;\s*#(end)?region\b`)

func (p *Parser) foldingRanges(spans *syntax.Spans) []FoldingRange {
	var out []FoldingRange

	for _, r := range p.folding {
		if strings.IndexByte(p.src[r.Start:r.End], '\n') >= 0 {
			out = append(out, FoldingRange{Start: r.Start, End: r.End, Kind: FoldBlock})
		}
	}

	for _, sp := range spans.Multiline(p.src) {
		kind := FoldBlock
		if sp.Kind == syntax.Comment {
			kind = FoldComment
		}

		out = append(out, FoldingRange{Start: sp.Start, End: sp.End, Kind: kind})
	}

	var open []int

	for _, t := range p.all {
		if t.Kind != syntax.Comment {
			continue
		}

		m := regionMarker.FindStringSubmatch(t.Text)
		if m == nil {
			continue
		}

		if m[1] == "" {
			open = append(open, t.Offset)
		} else if len(open) > 0 {
			start := open[len(open)-1]
			open = open[:len(open)-1]
			out = append(out, FoldingRange{Start: start, End: t.End(), Kind: FoldRegion})
		}
	}

	return out
}
