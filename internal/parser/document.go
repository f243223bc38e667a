package parser

import (
	"sort"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// Document is the result of parsing one source file. It is immutable once
// Parse returns; a reparse builds a new Document.
type Document struct {
	URI  string
	Text string

	// Tokens holds every token, comments included, ending with EOF.
	Tokens []syntax.Token
	Spans  *syntax.Spans

	Tree        *symbols.Tree
	Diagnostics []diag.Diagnostic
	Includes    []Include
	Folding     []FoldingRange
}

// Include is a raw #Include directive. Resolution happens in the include graph.
type Include struct {
	Raw      string // path text as written
	Range    symbols.Range
	Again    bool // #IncludeAgain
	Optional bool // *i prefix
}

// FoldingKind classifies folding ranges.
type FoldingKind string

const (
	FoldBlock   FoldingKind = ""
	FoldComment FoldingKind = "comment"
	FoldRegion  FoldingKind = "region"
)

// FoldingRange is an offset range that an editor may collapse.
type FoldingRange struct {
	Start int
	End   int
	Kind  FoldingKind
}

// TokenAt returns the index of the token covering offset. A cursor placed
// right after a token's last character still selects it, unless another
// token starts there; between a name and the punctuation that follows it the
// name wins.
func (d *Document) TokenAt(offset int) (int, bool) {
	i := sort.Search(len(d.Tokens), func(i int) bool {
		return d.Tokens[i].End() > offset
	})

	prev := -1
	if i > 0 && d.Tokens[i-1].End() == offset && d.Tokens[i-1].Kind != syntax.EOF {
		prev = i - 1
	}

	if i < len(d.Tokens) && d.Tokens[i].Offset <= offset && d.Tokens[i].Kind != syntax.EOF {
		if prev < 0 || !isWord(d.Tokens[prev]) || isWord(d.Tokens[i]) {
			return i, true
		}
	}

	if prev >= 0 {
		return prev, true
	}

	return 0, false
}

func isWord(t syntax.Token) bool {
	return t.Kind == syntax.Identifier || t.Kind == syntax.Keyword
}

// WordAt returns the identifier (possibly dotted, e.g. "obj.prop") ending at
// the token under offset, with its start offset.
func (d *Document) WordAt(offset int) (string, int, bool) {
	i, ok := d.TokenAt(offset)
	if !ok {
		return "", 0, false
	}

	tok := d.Tokens[i]
	if tok.Kind != syntax.Identifier && tok.Kind != syntax.Keyword {
		return "", 0, false
	}

	start := i
	for start >= 2 {
		dot := d.Tokens[start-1]
		prev := d.Tokens[start-2]

		if !dot.Is(".") || dot.Space || prev.Kind != syntax.Identifier || prev.End() != dot.Offset {
			break
		}

		start -= 2
	}

	first := d.Tokens[start]

	return d.Text[first.Offset:tok.End()], first.Offset, true
}
