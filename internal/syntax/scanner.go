package syntax

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
)

// Scanner performs lexical analysis on AutoHotkey v2 source code.
//
// Tokens are produced on demand by Next and memoized by the offset they were
// requested at, so lookahead and backtracking in the parser never rescan.
// Scanning never fails: malformed input yields a diagnostic and a best-effort
// token.
type Scanner struct {
	src   string
	memo  map[int]memoEntry
	spans Spans
	diags []diag.Diagnostic
}

type memoEntry struct {
	tok  Token
	next int
}

// NewScanner creates a Scanner for src.
func NewScanner(src string) *Scanner {
	return &Scanner{
		src:  src,
		memo: make(map[int]memoEntry),
	}
}

// Source returns the scanned text.
func (s *Scanner) Source() string {
	return s.src
}

// Spans returns the string/comment span index built so far.
func (s *Scanner) Spans() *Spans {
	return &s.spans
}

// Diagnostics returns the lexical problems found so far.
func (s *Scanner) Diagnostics() []diag.Diagnostic {
	return s.diags
}

// Next returns the token starting at or after pos and the offset just past it.
func (s *Scanner) Next(pos int) (Token, int) {
	if e, ok := s.memo[pos]; ok {
		return e.tok, e.next
	}

	tok, next := s.scan(pos)
	s.memo[pos] = memoEntry{tok: tok, next: next}

	return tok, next
}

// All scans the whole source and returns every token, comments included,
// terminated by an EOF token.
func (s *Scanner) All() []Token {
	var toks []Token

	pos := 0
	for {
		tok, next := s.Next(pos)
		toks = append(toks, tok)

		if tok.Kind == EOF {
			return toks
		}

		pos = next
	}
}

// Tokenize is a convenience wrapper that scans src completely.
func Tokenize(src string) ([]Token, *Scanner) {
	s := NewScanner(src)
	return s.All(), s
}

func (s *Scanner) scan(pos int) (Token, int) {
	n := len(s.src)
	start := pos
	breaks := 0

	for ; pos < n; pos++ {
		c := s.src[pos]
		if c == '\n' {
			breaks++
		} else if c != ' ' && c != '\t' && c != '\r' {
			break
		}
	}

	tok := Token{
		Offset: pos,
		Breaks: breaks,
		Space:  pos > start && isBlank(s.src[pos-1]),
	}

	if pos >= n {
		tok.Kind = EOF
		tok.NewLine = true

		return tok, n
	}

	tok.NewLine = s.atLineStart(pos)
	end, kind := s.lex(pos, tok.NewLine, tok.Space)

	tok.Kind = kind
	tok.Text = s.src[pos:end]
	tok.Len = end - pos

	return tok, end
}

func (s *Scanner) lex(pos int, lineStart, space bool) (int, Kind) {
	src := s.src
	c := src[pos]

	if lineStart {
		if strings.HasPrefix(src[pos:], "/*") {
			return s.blockComment(pos), Comment
		}

		if c != ';' {
			if end, ok := s.hotstring(pos); ok {
				return end, Hotstring
			}

			if end, ok := s.hotkey(pos); ok {
				return end, Hotkey
			}
		}

		if c == '#' && pos+1 < len(src) && isIdentByte(src[pos+1]) {
			return s.directive(pos), Directive
		}

		if end, ok := s.label(pos); ok {
			return end, Label
		}
	}

	if c == ';' && (lineStart || space) {
		return s.lineComment(pos), Comment
	}

	r, w := utf8.DecodeRuneInString(src[pos:])

	switch {
	case isIdentStart(r):
		end := s.identEnd(pos)
		if IsKeyword(src[pos:end]) {
			return end, Keyword
		}

		return end, Identifier
	case isDigit(c) || (c == '.' && pos+1 < len(src) && isDigit(src[pos+1]) && !s.afterOperand(pos)):
		return s.number(pos), Number
	case c == '"' || c == '\'':
		return s.str(pos), String
	}

	for _, op := range operators {
		if strings.HasPrefix(src[pos:], op) {
			return pos + len(op), Operator
		}
	}

	return pos + w, Unknown
}

func (s *Scanner) atLineStart(pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch s.src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}

	return true
}

func (s *Scanner) afterOperand(pos int) bool {
	if pos == 0 {
		return false
	}

	c := s.src[pos-1]

	return isIdentByte(c) || c == ')' || c == ']' || c == '}'
}

func (s *Scanner) lineEnd(pos int) int {
	end := strings.IndexByte(s.src[pos:], '\n')
	if end < 0 {
		end = len(s.src)
	} else {
		end += pos
	}

	if end > pos && s.src[end-1] == '\r' {
		end--
	}

	return end
}

func (s *Scanner) lineComment(pos int) int {
	end := s.lineEnd(pos)
	s.spans.Add(pos, end, Comment)

	return end
}

func (s *Scanner) blockComment(pos int) int {
	idx := strings.Index(s.src[pos+2:], "*/")
	if idx < 0 {
		end := len(s.src)
		s.diags = append(s.diags, diag.New(diag.UnterminatedComment, pos, pos+2, "Unterminated block comment"))
		s.spans.Add(pos, end, Comment)

		return end
	}

	end := pos + 2 + idx + 2
	s.spans.Add(pos, end, Comment)

	return end
}

// directive scans "#Name args". #HotIf keeps its expression as ordinary
// tokens; for every other directive the arguments belong to the token.
func (s *Scanner) directive(pos int) int {
	nameEnd := s.identEnd(pos + 1)
	if strings.EqualFold(s.src[pos+1:nameEnd], "HotIf") {
		return nameEnd
	}

	end := s.lineEnd(pos)
	if cut := trailingComment(s.src[pos:end]); cut >= 0 {
		end = pos + cut
	}

	return pos + len(strings.TrimRight(s.src[pos:end], " \t"))
}

// DirectiveName splits a directive token into its name and argument text.
func DirectiveName(text string) (name, args string) {
	text = strings.TrimPrefix(text, "#")

	i := 0
	for i < len(text) && isIdentByte(text[i]) {
		i++
	}

	return text[:i], strings.TrimSpace(strings.TrimLeft(text[i:], " \t,"))
}

// hotkeyKey matches one key of a hotkey: a key name, an escaped character
// such as "`;", or any single character.
const hotkeyKey = "(?:[A-Za-z0-9_]+|`[^\\s]|[^\\s])"

var (
	hotkeyPattern = regexp.MustCompile(`^[#!^+<>*~$]*` + hotkeyKey + `(?:[ \t]+&[ \t]+~?` + hotkeyKey + `)?(?:[ \t]+(?i:up))?::`)
	labelPattern  = regexp.MustCompile(`^([\pL_][\pL\pN_]*):[ \t]*(?:;.*)?\r?$`)
)

func (s *Scanner) hotkey(pos int) (int, bool) {
	line := s.src[pos:s.lineEnd(pos)]

	loc := hotkeyPattern.FindStringIndex(line)
	if loc == nil {
		return 0, false
	}

	return pos + loc[1], true
}

func (s *Scanner) label(pos int) (int, bool) {
	line := s.src[pos:s.lineEnd(pos)]

	m := labelPattern.FindStringSubmatchIndex(line)
	if m == nil || IsKeyword(line[m[2]:m[3]]) {
		return 0, false
	}

	return pos + m[3] + 1, true
}

// hotstring scans ":opts:abbr::". Unless the X option is present, the text
// after "::" is the replacement and is emitted as a String token that is
// memoized right behind the hotstring.
func (s *Scanner) hotstring(pos int) (int, bool) {
	if s.src[pos] != ':' {
		return 0, false
	}

	lineEnd := s.lineEnd(pos)
	line := s.src[pos:lineEnd]

	j := strings.IndexByte(line[1:], ':')
	if j < 0 {
		return 0, false
	}

	opts := line[1 : 1+j]
	if strings.ContainsAny(opts, " \t") {
		return 0, false
	}

	rest := line[2+j:]

	k := strings.Index(rest, "::")
	if k <= 0 {
		return 0, false
	}

	end := pos + 2 + j + k + 2

	if !strings.ContainsAny(opts, "xX") {
		s.replacement(end, lineEnd)
	}

	return end, true
}

func (s *Scanner) replacement(end, lineEnd int) {
	text := s.src[end:lineEnd]

	lead := len(text) - len(strings.TrimLeft(text, " \t"))
	if lead == len(text) {
		s.sectionReplacement(end, lineEnd)
		return
	}

	if text[lead] == ';' {
		return
	}

	body := text[lead:]
	if cut := trailingComment(body); cut >= 0 {
		body = body[:cut]
	}

	body = strings.TrimRight(body, " \t")
	start := end + lead

	s.spans.Add(start, start+len(body), String)
	s.memo[end] = memoEntry{
		tok: Token{
			Kind:   String,
			Text:   body,
			Offset: start,
			Len:    len(body),
			Space:  lead > 0,
		},
		next: start + len(body),
	}
}

// sectionReplacement takes the replacement of a hotstring with nothing after
// "::" from a continuation section on the following lines.
func (s *Scanner) sectionReplacement(end, lineEnd int) {
	next, ok := s.continuation(lineEnd)
	if !ok {
		return
	}

	start := lineEnd + strings.IndexByte(s.src[lineEnd:], '\n') + 1
	start += len(s.src[start:next]) - len(strings.TrimLeft(s.src[start:next], " \t"))

	s.spans.Add(start, next, String)
	s.memo[end] = memoEntry{
		tok: Token{
			Kind:   String,
			Text:   s.src[start:next],
			Offset: start,
			Len:    next - start,
			Breaks: strings.Count(s.src[end:start], "\n"),
		},
		next: next,
	}
}

func (s *Scanner) identEnd(pos int) int {
	for pos < len(s.src) {
		r, w := utf8.DecodeRuneInString(s.src[pos:])
		if !isIdentRune(r) {
			break
		}

		pos += w
	}

	return pos
}

func (s *Scanner) number(pos int) int {
	src := s.src
	i := pos

	if src[i] == '0' && i+1 < len(src) && (src[i+1] == 'x' || src[i+1] == 'X') {
		i += 2
		for i < len(src) && isHex(src[i]) {
			i++
		}

		return i
	}

	for i < len(src) && isDigit(src[i]) {
		i++
	}

	if i < len(src) && src[i] == '.' && (i+1 >= len(src) || !isIdentStartByte(src[i+1])) {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}

	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}

		if j < len(src) && isDigit(src[j]) {
			i = j
			for i < len(src) && isDigit(src[i]) {
				i++
			}
		}
	}

	return i
}

// str scans a quoted string, following continuation sections when the
// closing quote is not on the opening line.
func (s *Scanner) str(pos int) int {
	src := s.src
	q := src[pos]
	i := pos + 1

	for {
		if i >= len(src) {
			s.diags = append(s.diags, diag.New(diag.UnterminatedString, pos, len(src), "Unterminated string"))
			s.spans.Add(pos, len(src), String)

			return len(src)
		}

		c := src[i]

		switch {
		case c == '`':
			if i+1 < len(src) && src[i+1] != '\n' {
				i += 2
			} else {
				i++
			}
		case c == q:
			s.spans.Add(pos, i+1, String)
			return i + 1
		case c == '\r' || c == '\n':
			if next, ok := s.continuation(i); ok {
				i = next
				continue
			}

			end := s.lineEnd(pos)
			s.diags = append(s.diags, diag.New(diag.UnterminatedString, pos, end, "Unterminated string"))
			s.spans.Add(pos, end, String)

			return end
		default:
			i++
		}
	}
}

// continuation checks whether the line after the line break at i opens a
// continuation section. It returns the offset just past the closing ")".
func (s *Scanner) continuation(i int) (int, bool) {
	src := s.src

	nl := strings.IndexByte(src[i:], '\n')
	if nl < 0 {
		return 0, false
	}

	lineStart := i + nl + 1
	if lineStart >= len(src) {
		return 0, false
	}

	opener := strings.TrimLeft(src[lineStart:s.lineEnd(lineStart)], " \t")
	if !strings.HasPrefix(opener, "(") || strings.Contains(opener, ")") {
		return 0, false
	}

	for p := lineStart; p < len(src); {
		nl := strings.IndexByte(src[p:], '\n')
		if nl < 0 {
			return len(src), true
		}

		p += nl + 1

		line := src[p:s.lineEnd(p)]
		if trimmed := strings.TrimLeft(line, " \t"); strings.HasPrefix(trimmed, ")") {
			return p + len(line) - len(trimmed) + 1, true
		}
	}

	return len(src), true
}

// ContinuationOptions returns the option words of the first continuation
// section opener inside a multi-line string token.
func ContinuationOptions(text string) []string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "(") {
			return strings.Fields(trimmed[1:])
		}
	}

	return nil
}

// trailingComment returns the index of a " ;" comment in line, or -1.
func trailingComment(line string) int {
	for i := 1; i < len(line); i++ {
		if line[i] == ';' && isBlank(line[i-1]) {
			j := i - 1
			for j > 0 && isBlank(line[j-1]) {
				j--
			}

			return j
		}
	}

	return -1
}

// IsIdentifier reports whether name is a valid variable or function name.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return false
		}

		if !isIdentRune(r) {
			return false
		}
	}

	return true
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStartByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentByte(c byte) bool {
	return isIdentStartByte(c) || isDigit(c)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || (r >= 0x80 && !unicode.IsSpace(r) && r != utf8.RuneError)
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
