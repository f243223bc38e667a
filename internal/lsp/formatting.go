package lsp

import (
	"log"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/format"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

// Formatting handles textDocument/formatting. The whole document is
// replaced by one edit; an already formatted document yields none.
func Formatting(context *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	srv, doc, ok := openDocument(params.TextDocument.URI, "formatting")
	if !ok {
		return nil, nil
	}

	formatted := format.Format(doc.Text, formatOptions(srv, params.Options))
	if formatted == doc.Text {
		return []protocol.TextEdit{}, nil
	}

	log.Printf("Formatted %s\n", doc.URI)

	return []protocol.TextEdit{{
		Range:   doc.Lines.Range(0, len(doc.Text)),
		NewText: formatted,
	}}, nil
}

// RangeFormatting handles textDocument/rangeFormatting. The range is widened
// to whole lines.
func RangeFormatting(context *glsp.Context, params *protocol.DocumentRangeFormattingParams) ([]protocol.TextEdit, error) {
	srv, doc, ok := openDocument(params.TextDocument.URI, "rangeFormatting")
	if !ok {
		return nil, nil
	}

	start := doc.Lines.Offset(params.Range.Start)
	end := doc.Lines.Offset(params.Range.End)

	edit := format.FormatRange(doc.Text, start, end, formatOptions(srv, params.Options))
	if doc.Text[edit.Start:edit.End] == edit.Text {
		return []protocol.TextEdit{}, nil
	}

	return []protocol.TextEdit{{
		Range:   doc.Lines.Range(edit.Start, edit.End),
		NewText: edit.Text,
	}}, nil
}

// formatOptions combines the configured formatter settings with the editor
// options of the request. The editor's indentation applies unless an
// indent string other than the default tab is configured.
func formatOptions(srv *server.Server, editor protocol.FormattingOptions) format.Options {
	opts := srv.Config().Format

	if opts.IndentString != format.DefaultOptions().IndentString {
		return opts
	}

	insertSpaces, _ := editor[protocol.FormattingOptionInsertSpaces].(bool)
	if !insertSpaces {
		return opts
	}

	tabSize := 4

	// decoded JSON numbers are float64
	switch size := editor[protocol.FormattingOptionTabSize].(type) {
	case float64:
		tabSize = int(size)
	case protocol.Integer:
		tabSize = int(size)
	case int:
		tabSize = size
	}

	if tabSize <= 0 {
		tabSize = 4
	}

	opts.IndentString = strings.Repeat(" ", tabSize)

	return opts
}
