package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/document"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

func TestConvertDiagnostics(t *testing.T) {
	text := "x := 1\nFoo() {\n\tx := 2\n}\n"
	lines := document.NewLineIndex(text)

	diags := []diag.Diagnostic{
		diag.New(diag.MissingParam, 0, 1, "Missing a required parameter '%s'", "a"),
		diag.New(diag.LocalSameAsGlobal, 16, 17, "Local variable '%s' has the same name as a global variable", "x"),
	}

	out := convertDiagnostics(diags, lines)
	require.Len(t, out, 2)

	assert.Equal(t, lspRange(0, 0, 0, 1), out[0].Range)
	assert.Equal(t, protocol.DiagnosticSeverityError, *out[0].Severity)
	assert.Equal(t, "E_MISSING_PARAM", out[0].Code.Value)
	assert.Equal(t, "Missing a required parameter 'a'", out[0].Message)
	assert.Empty(t, out[0].Tags)

	assert.Equal(t, lspRange(2, 1, 2, 2), out[1].Range)
	assert.Equal(t, protocol.DiagnosticSeverityHint, *out[1].Severity)
	assert.Equal(t, []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}, out[1].Tags)
	assert.Equal(t, "ahk2", *out[1].Source)
}

func TestSortDiagnostics(t *testing.T) {
	diagnostics := []protocol.Diagnostic{
		{Range: lspRange(3, 0, 3, 1), Message: "c"},
		{Range: lspRange(1, 4, 1, 5), Message: "b"},
		{Range: lspRange(1, 2, 1, 3), Message: "a"},
	}

	sortDiagnostics(diagnostics)

	assert.Equal(t, "a", diagnostics[0].Message)
	assert.Equal(t, "b", diagnostics[1].Message)
	assert.Equal(t, "c", diagnostics[2].Message)
}

func TestDiagnostics_MaxProblems(t *testing.T) {
	srv := newTestServer(t)

	srv.UpdateConfig(func(cfg *server.Config) {
		cfg.MaxProblems = 2
	})

	var n notifications
	ctx := n.context()

	openTestDocument(t, ctx, testURI, "Need(a) {\n}\nNeed()\nNeed()\nNeed()\nNeed()\n")

	published := n.diagnostics[testURI]
	require.Len(t, published, 2)
	assert.Equal(t, uint32(2), published[0].Range.Start.Line, "the first problems are kept")
	assert.Equal(t, uint32(3), published[1].Range.Start.Line)
}

func TestPublishDiagnostics_WithoutNotify(t *testing.T) {
	assert.NotPanics(t, func() {
		PublishDiagnostics(&glsp.Context{}, testURI, nil)
		PublishDiagnostics(nil, testURI, nil)
	})
}
