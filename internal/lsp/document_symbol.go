package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/document"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/workspace"
)

// DocumentSymbol handles the textDocument/documentSymbol request.
// It returns the outline of the document: classes with their members,
// functions, hotkeys, labels and global variables.
func DocumentSymbol(context *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	srv, doc, ok := openDocument(params.TextDocument.URI, "documentSymbol")
	if !ok {
		return nil, nil
	}

	if !supportsHierarchicalSymbols(srv) {
		return flatDocumentSymbols(doc), nil
	}

	outline := analysis.Outline(doc.Parsed)
	result := collectDocumentSymbols(outline, doc.Lines, false)

	log.Printf("Returning %d top-level document symbols for %s\n", len(result), doc.URI)

	return result, nil
}

func collectDocumentSymbols(items []analysis.OutlineSymbol, lines *document.LineIndex, inClass bool) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(items))

	for _, item := range items {
		sym := protocol.DocumentSymbol{
			Name:           item.Name,
			Kind:           workspace.SymbolKind(item.Kind, inClass),
			Range:          lines.Range(item.Range.Start, item.Range.End),
			SelectionRange: lines.Range(item.Selection.Start, item.Selection.End),
		}

		detail := item.Detail
		if item.Static {
			if detail != "" {
				detail = "static " + detail
			} else {
				detail = "static"
			}
		}

		if detail != "" {
			sym.Detail = &detail
		}

		if len(item.Children) > 0 {
			sym.Children = collectDocumentSymbols(item.Children, lines, item.Kind == symbols.KindClass)
		}

		out = append(out, sym)
	}

	return out
}

// flatDocumentSymbols serves clients without hierarchical outline support.
func flatDocumentSymbols(doc *server.Document) []protocol.SymbolInformation {
	locs := workspace.DocumentSymbols(doc.Parsed)
	out := make([]protocol.SymbolInformation, 0, len(locs))

	for _, loc := range locs {
		info := protocol.SymbolInformation{
			Name:     loc.Name,
			Kind:     loc.Kind,
			Location: loc.Location,
		}

		if loc.ContainerName != "" {
			container := loc.ContainerName
			info.ContainerName = &container
		}

		out = append(out, info)
	}

	return out
}

func supportsHierarchicalSymbols(srv *server.Server) bool {
	caps := srv.GetClientCapabilities()
	if caps == nil || caps.TextDocument == nil || caps.TextDocument.DocumentSymbol == nil ||
		caps.TextDocument.DocumentSymbol.HierarchicalDocumentSymbolSupport == nil {
		return true
	}

	return *caps.TextDocument.DocumentSymbol.HierarchicalDocumentSymbolSupport
}
