package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

// SemanticTokensFull handles textDocument/semanticTokens/full requests.
// It returns semantic highlighting information for the entire document.
func SemanticTokensFull(context *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	log.Printf("SemanticTokensFull request for: %s\n", params.TextDocument.URI)

	srv, doc, ok := openDocument(params.TextDocument.URI, "semanticTokens/full")
	if !ok {
		return nil, nil
	}

	tokens := collectTokens(srv, doc)
	resultID := storeTokens(srv, doc, tokens)

	log.Printf("Collected %d semantic tokens for %s\n", len(tokens), params.TextDocument.URI)

	return &protocol.SemanticTokens{
		ResultID: &resultID,
		Data:     server.EncodeSemanticTokens(tokens),
	}, nil
}

// SemanticTokensFullDelta handles textDocument/semanticTokens/full/delta.
// It answers with edits against the result the client still holds, or with
// full tokens when that result is no longer cached.
func SemanticTokensFullDelta(context *glsp.Context, params *protocol.SemanticTokensDeltaParams) (any, error) {
	log.Printf("SemanticTokensFullDelta request for: %s (previous %s)\n",
		params.TextDocument.URI, params.PreviousResultID)

	srv, doc, ok := openDocument(params.TextDocument.URI, "semanticTokens/full/delta")
	if !ok {
		return nil, nil
	}

	var previous []server.SemanticToken
	if cached, found := srv.SemanticTokensCache().Retrieve(doc.URI, params.PreviousResultID); found {
		previous = cached.Tokens
	}

	tokens := collectTokens(srv, doc)
	resultID := storeTokens(srv, doc, tokens)

	result := server.ComputeSemanticTokensDelta(previous, tokens, resultID)
	if result.IsDelta {
		return result.Delta, nil
	}

	return result.Full, nil
}

func collectTokens(srv *server.Server, doc *server.Document) []server.SemanticToken {
	raw := srv.Session().SemanticTokens(doc.Parsed)
	return srv.SemanticTokensLegend().ConvertSemanticTokens(raw, doc.Lines)
}

func storeTokens(srv *server.Server, doc *server.Document, tokens []server.SemanticToken) string {
	cache := srv.SemanticTokensCache()
	resultID := cache.NextResultID(doc.Version)
	cache.Store(doc.URI, doc.Version, resultID, tokens)

	return resultID
}
