package lsp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

const testURI = "file:///test/script.ahk"

// notifications records what handlers send to the client.
type notifications struct {
	mu          sync.Mutex
	diagnostics map[string][]protocol.Diagnostic
	count       int
}

func (n *notifications) context() *glsp.Context {
	n.diagnostics = make(map[string][]protocol.Diagnostic)

	return &glsp.Context{
		Notify: func(method string, params any) {
			n.mu.Lock()
			defer n.mu.Unlock()

			if method != protocol.ServerTextDocumentPublishDiagnostics {
				return
			}

			p := params.(*protocol.PublishDiagnosticsParams)
			n.diagnostics[p.URI] = p.Diagnostics
			n.count++
		},
	}
}

func (n *notifications) codes(uri string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []string
	for _, d := range n.diagnostics[uri] {
		out = append(out, d.Code.Value.(string))
	}

	return out
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	srv := server.New()
	SetServer(srv)
	t.Cleanup(func() { SetServer(nil) })

	return srv
}

func openTestDocument(t *testing.T, ctx *glsp.Context, uri, text string) {
	t.Helper()

	err := DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "ahk2",
			Version:    1,
			Text:       text,
		},
	})
	require.NoError(t, err)
}

func docPosition(uri string, line, character uint32) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{Line: line, Character: character},
	}
}

func lspRange(sl, sc, el, ec uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: sl, Character: sc},
		End:   protocol.Position{Line: el, Character: ec},
	}
}

func waitForIndex(t *testing.T, srv *server.Server) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.WaitForIndex(ctx)
}
