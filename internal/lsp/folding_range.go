package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
)

// FoldingRange handles textDocument/foldingRange: blocks, block comments,
// runs of line comments and ;#region markers.
func FoldingRange(context *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	_, doc, ok := openDocument(params.TextDocument.URI, "foldingRange")
	if !ok {
		return nil, nil
	}

	out := make([]protocol.FoldingRange, 0, len(doc.Parsed.Folding))

	for _, fr := range doc.Parsed.Folding {
		start := doc.Lines.Position(fr.Start).Line
		end := doc.Lines.Position(fr.End).Line

		// the closing line stays visible
		if fr.Kind == parser.FoldBlock && end > start {
			end--
		}

		if end <= start {
			continue
		}

		r := protocol.FoldingRange{StartLine: start, EndLine: end}

		switch fr.Kind {
		case parser.FoldComment:
			kind := string(protocol.FoldingRangeKindComment)
			r.Kind = &kind
		case parser.FoldRegion:
			kind := string(protocol.FoldingRangeKindRegion)
			r.Kind = &kind
		}

		out = append(out, r)
	}

	return out, nil
}
