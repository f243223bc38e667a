// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/document"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

// Handler returns the protocol handler table with every supported request
// and notification wired.
func Handler() protocol.Handler {
	return protocol.Handler{
		Initialize:  Initialize,
		Initialized: Initialized,
		Shutdown:    Shutdown,
		SetTrace:    SetTrace,

		TextDocumentDidOpen:   DidOpen,
		TextDocumentDidChange: DidChange,
		TextDocumentDidClose:  DidClose,
		TextDocumentDidSave:   DidSave,

		TextDocumentHover:                   Hover,
		TextDocumentCompletion:              Completion,
		TextDocumentSignatureHelp:           SignatureHelp,
		TextDocumentDefinition:              Definition,
		TextDocumentReferences:              References,
		TextDocumentPrepareRename:           PrepareRename,
		TextDocumentRename:                  Rename,
		TextDocumentDocumentSymbol:          DocumentSymbol,
		TextDocumentFoldingRange:            FoldingRange,
		TextDocumentSemanticTokensFull:      SemanticTokensFull,
		TextDocumentSemanticTokensFullDelta: SemanticTokensFullDelta,
		TextDocumentFormatting:              Formatting,
		TextDocumentRangeFormatting:         RangeFormatting,
		TextDocumentCodeAction:              CodeAction,

		WorkspaceSymbol:                    WorkspaceSymbol,
		WorkspaceDidChangeConfiguration:    DidChangeConfiguration,
		WorkspaceDidChangeWorkspaceFolders: DidChangeWorkspaceFolders,
		WorkspaceDidChangeWatchedFiles:     DidChangeWatchedFiles,
	}
}

// openDocument returns the server together with the open document for uri.
// request names the caller in log output.
func openDocument(uri, request string) (*server.Server, *server.Document, bool) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Printf("Warning: server instance not available in %s\n", request)
		return nil, nil, false
	}

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Document not found for %s: %s\n", request, uri)
		return srv, nil, false
	}

	return srv, doc, true
}

// linesFor returns the line index of a document of the include graph. Open
// documents already carry one.
func linesFor(srv *server.Server, doc *parser.Document) *document.LineIndex {
	if open, ok := srv.Documents().Get(doc.URI); ok && open.Parsed == doc {
		return open.Lines
	}

	return document.NewLineIndex(doc.Text)
}

// toLocations converts analysis locations, which may point into included
// files, to protocol locations.
func toLocations(srv *server.Server, locs []analysis.Location) []protocol.Location {
	lines := make(map[string]*document.LineIndex)
	out := make([]protocol.Location, 0, len(locs))

	for _, loc := range locs {
		li, ok := lines[loc.Doc.URI]
		if !ok {
			li = linesFor(srv, loc.Doc)
			lines[loc.Doc.URI] = li
		}

		out = append(out, protocol.Location{
			URI:   loc.Doc.URI,
			Range: li.Range(loc.Range.Start, loc.Range.End),
		})
	}

	return out
}
