package analysis

import (
	"strings"

	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// CompletionContextType represents the type of completion context.
type CompletionContextType int

const (
	// CompletionContextGeneral offers scope names, built-ins and keywords.
	CompletionContextGeneral CompletionContextType = iota

	// CompletionContextMember offers the members of the receiver's class.
	CompletionContextMember

	// CompletionContextDirective offers directive names after '#'.
	CompletionContextDirective

	// CompletionContextNone is used inside strings and comments.
	CompletionContextNone
)

// CompletionContext holds information about the completion request context.
type CompletionContext struct {
	Type CompletionContextType

	// ParentIdentifier is the receiver expression before the dot.
	ParentIdentifier string

	// Prefix is the partial name typed so far.
	Prefix string

	// Offset is the cursor position.
	Offset int
}

// DetermineContext analyzes the document and position to determine the
// completion context.
func DetermineContext(doc *parser.Document, offset int) *CompletionContext {
	ctx := &CompletionContext{Type: CompletionContextGeneral, Offset: offset}

	toks := doc.Tokens

	i := -1
	for k, t := range toks {
		if t.Kind == syntax.EOF || t.Offset >= offset {
			break
		}

		i = k
	}

	if i < 0 {
		return ctx
	}

	t := toks[i]

	switch t.Kind {
	case syntax.String, syntax.Comment:
		if offset < t.End() || t.Kind == syntax.Comment && !strings.HasPrefix(t.Text, "/*") {
			ctx.Type = CompletionContextNone
			return ctx
		}
	case syntax.Directive:
		if offset <= t.End() && !strings.ContainsAny(doc.Text[t.Offset:offset], " \t") {
			ctx.Type = CompletionContextDirective
			ctx.Prefix = doc.Text[t.Offset+1 : offset]

			return ctx
		}
	}

	dot := i

	if (t.Kind == syntax.Identifier || t.Kind == syntax.Keyword) && t.End() >= offset {
		ctx.Prefix = doc.Text[t.Offset:offset]
		dot = i - 1
	}

	if dot < 1 || !toks[dot].Is(".") {
		return ctx
	}

	d := toks[dot]
	if dot == i && d.End() != offset || dot != i && d.End() != toks[i].Offset {
		return ctx
	}

	recv := toks[dot-1]
	if d.Space || recv.End() != d.Offset {
		return ctx
	}

	start := receiverStart(toks, dot-1)
	if start < 0 {
		return ctx
	}

	ctx.Type = CompletionContextMember
	ctx.ParentIdentifier = doc.Text[toks[start].Offset:recv.End()]

	return ctx
}

// receiverStart finds the first token of the operand ending at token end:
// a dotted name optionally followed by calls and indexes.
func receiverStart(toks []syntax.Token, end int) int {
	i := end

	for i >= 0 {
		t := toks[i]

		switch {
		case t.Is(")") || t.Is("]"):
			open := "("
			if t.Is("]") {
				open = "["
			}

			depth := 0

			for ; i >= 0; i-- {
				switch {
				case toks[i].Is(t.Text):
					depth++
				case toks[i].Is(open):
					depth--
				}

				if depth == 0 {
					break
				}
			}

			if i < 0 {
				return -1
			}

			if i == 0 || toks[i].Space {
				return i
			}

			i--
		case t.Kind == syntax.Identifier || t.Kind == syntax.String || t.Kind == syntax.Number:
			if i >= 2 && toks[i-1].Is(".") && !toks[i-1].Space && !t.Space && toks[i-2].End() == toks[i-1].Offset {
				i -= 2
				continue
			}

			return i
		default:
			return -1
		}
	}

	return -1
}
