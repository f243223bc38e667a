package analysis

import (
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// CallContext holds information about a function call at the cursor position.
type CallContext struct {
	// FunctionName is the callee as written, possibly dotted ("obj.Method").
	FunctionName string
	// NameOffset is where FunctionName starts.
	NameOffset int

	// ParameterIndex is the 0-based argument the cursor is in.
	ParameterIndex int

	// Command is set for calls without parentheses (MsgBox "a", |).
	Command bool
}

// DetermineCallContext walks backwards from offset to the innermost open
// call. It returns nil when the cursor is not inside an argument list.
func DetermineCallContext(doc *parser.Document, offset int) *CallContext {
	toks := doc.Tokens

	// last token that ends at or before the cursor
	end := -1
	for i, t := range toks {
		if t.Kind == syntax.EOF || t.Offset >= offset {
			break
		}

		end = i
	}

	if end < 0 {
		return nil
	}

	if t := toks[end]; (t.Kind == syntax.String || t.Kind == syntax.Comment) && offset < t.End() {
		return nil
	}

	depth, commas := 0, 0

	for i := end; i >= 0; i-- {
		t := toks[i]

		if t.Kind == syntax.Comment {
			continue
		}

		switch {
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth++
		case t.Is("[") || t.Is("{"):
			if depth == 0 {
				return nil
			}

			depth--
		case t.Is("("):
			if depth > 0 {
				depth--
				break
			}

			if i == 0 || t.Space || toks[i-1].Kind != syntax.Identifier {
				// grouping parenthesis: keep looking for an enclosing call
				commas = 0
				break
			}

			name, start, ok := doc.WordAt(toks[i-1].Offset)
			if !ok {
				return nil
			}

			return &CallContext{FunctionName: name, NameOffset: start, ParameterIndex: commas}
		case t.Is(",") && depth == 0:
			commas++
		}

		if t.NewLine && depth == 0 {
			return commandContext(doc, i, commas)
		}
	}

	return nil
}

// commandContext handles a line such as `MsgBox "a", ` where first is the
// index of the line's first token.
func commandContext(doc *parser.Document, first, commas int) *CallContext {
	toks := doc.Tokens
	t := toks[first]

	if t.Kind != syntax.Identifier {
		return nil
	}

	last := first
	for last+2 < len(toks) && toks[last+1].Is(".") && !toks[last+1].Space && toks[last+2].Kind == syntax.Identifier {
		last += 2
	}

	next := toks[last+1]
	if next.Kind == syntax.EOF || next.NewLine || !next.Space && !next.Is(",") {
		return nil
	}

	if syntax.IsAssignOp(next.Text) && next.Kind == syntax.Operator {
		return nil
	}

	name := doc.Text[t.Offset:toks[last].End()]

	return &CallContext{FunctionName: name, NameOffset: t.Offset, ParameterIndex: commas, Command: true}
}
