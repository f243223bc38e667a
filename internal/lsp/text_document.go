package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/document"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

// DidOpen handles the textDocument/didOpen notification.
// This is sent when a document is opened in the editor.
func DidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidOpen")
		return nil
	}

	uri := params.TextDocument.URI
	text := params.TextDocument.Text
	languageID := params.TextDocument.LanguageID
	version := int(params.TextDocument.Version)

	log.Printf("Document opened: %s (version %d, language %s, %d bytes)\n",
		uri, version, languageID, len(text))

	srv.OpenDocument(server.NewDocument(uri, text, version, languageID))

	publishOpenDocuments(context, srv)

	return nil
}

// DidClose handles the textDocument/didClose notification.
// This is sent when a document is closed in the editor.
func DidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidClose")
		return nil
	}

	uri := params.TextDocument.URI

	srv.CloseDocument(uri)

	// the unsaved contents are gone; index what is on disk again
	if err := srv.RefreshFile(uri); err != nil {
		log.Printf("Could not reindex closed document %s: %v\n", uri, err)
	}

	log.Printf("Document closed: %s\n", uri)

	// Send empty diagnostics to clear error markers in the editor
	// Only send notification if context is properly initialized (not in tests)
	if context != nil && context.Notify != nil {
		diagnosticsParams := &protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: []protocol.Diagnostic{},
		}
		context.Notify(protocol.ServerTextDocumentPublishDiagnostics, diagnosticsParams)
	}

	publishOpenDocuments(context, srv)

	return nil
}

// DidChange handles the textDocument/didChange notification.
// This is sent when a document's content changes in the editor.
// It supports both full and incremental sync modes.
func DidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	srv, doc, ok := openDocument(params.TextDocument.URI, "didChange")
	if !ok {
		return nil
	}

	uri := params.TextDocument.URI
	version := int(params.TextDocument.Version)

	newText, err := document.ApplyContentChanges(doc.Text, params.ContentChanges)
	if err != nil {
		// Keep the last good text rather than storing a corrupted one
		log.Printf("Error applying changes to %s: %v\n", uri, err)
		return nil
	}

	log.Printf("Document changed: %s (version %d, %d change(s))\n",
		uri, version, len(params.ContentChanges))

	srv.OpenDocument(server.NewDocument(uri, newText, version, doc.LanguageID))

	publishOpenDocuments(context, srv)

	return nil
}

// DidSave handles the textDocument/didSave notification. Documents that
// include the saved file but are not open read it from disk.
func DidSave(context *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidSave")
		return nil
	}

	log.Printf("Document saved: %s\n", params.TextDocument.URI)

	if err := srv.RefreshFile(params.TextDocument.URI); err != nil {
		log.Printf("Could not refresh %s: %v\n", params.TextDocument.URI, err)
	}

	return nil
}
