package analysis

import (
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// SymbolInfo describes the name under the cursor.
type SymbolInfo struct {
	// Name is the full dotted path ending at the cursor, e.g. "obj.prop".
	Name string
	// Word is the last segment of Name.
	Word  string
	Range symbols.Range // of Word

	// Member is set when Word follows a '.', even if the receiver is not a
	// plain name (as in Foo().Bar).
	Member bool
	Label  bool
}

// IdentifySymbolAtPosition returns the identifier at offset, or nil when the
// cursor is not on a name.
func IdentifySymbolAtPosition(doc *parser.Document, offset int) *SymbolInfo {
	i, ok := doc.TokenAt(offset)
	if !ok {
		return nil
	}

	tok := doc.Tokens[i]

	switch tok.Kind {
	case syntax.Identifier, syntax.Keyword:
	case syntax.Label:
		name := tok.Text
		if n := len(name); n > 0 && name[n-1] == ':' {
			name = name[:n-1]
		}

		return &SymbolInfo{
			Name:  name,
			Word:  name,
			Range: symbols.Range{Start: tok.Offset, End: tok.Offset + len(name)},
			Label: true,
		}
	default:
		return nil
	}

	name, _, ok := doc.WordAt(offset)
	if !ok {
		return nil
	}

	info := &SymbolInfo{
		Name:  name,
		Word:  tok.Text,
		Range: symbols.Range{Start: tok.Offset, End: tok.End()},
		Label: tok.Hint == syntax.HintLabel,
	}

	if i > 0 {
		prev := doc.Tokens[i-1]
		info.Member = prev.Is(".") && prev.End() == tok.Offset
	}

	if tok.Kind == syntax.Keyword && !info.Member {
		return nil
	}

	return info
}
