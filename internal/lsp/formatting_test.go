package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

func formatDocument(t *testing.T, options protocol.FormattingOptions) []protocol.TextEdit {
	t.Helper()

	edits, err := Formatting(&glsp.Context{}, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Options:      options,
	})
	require.NoError(t, err)

	return edits
}

func TestFormatting(t *testing.T) {
	newTestServer(t)

	openTestDocument(t, &glsp.Context{}, testURI, "class A {\n x := 1\n}")

	edits := formatDocument(t, protocol.FormattingOptions{})

	require.Len(t, edits, 1)
	assert.Equal(t, lspRange(0, 0, 2, 1), edits[0].Range)
	assert.Equal(t, "class A {\n\tx := 1\n}", edits[0].NewText)
}

func TestFormatting_AlreadyFormatted(t *testing.T) {
	newTestServer(t)

	openTestDocument(t, &glsp.Context{}, testURI, "class A {\n\tx := 1\n}")

	edits := formatDocument(t, protocol.FormattingOptions{})

	require.NotNil(t, edits)
	assert.Empty(t, edits)
}

func TestFormatting_EditorIndentation(t *testing.T) {
	tests := []struct {
		name     string
		tabSize  any
		expected string
	}{
		{"decoded json number", float64(2), "class A {\n  x := 1\n}"},
		{"integer", protocol.Integer(3), "class A {\n   x := 1\n}"},
		{"missing size", nil, "class A {\n    x := 1\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestServer(t)

			openTestDocument(t, &glsp.Context{}, testURI, "class A {\nx := 1\n}")

			options := protocol.FormattingOptions{protocol.FormattingOptionInsertSpaces: true}
			if tt.tabSize != nil {
				options[protocol.FormattingOptionTabSize] = tt.tabSize
			}

			edits := formatDocument(t, options)

			require.Len(t, edits, 1)
			assert.Equal(t, tt.expected, edits[0].NewText)
		})
	}
}

func TestFormatting_ConfiguredIndentWins(t *testing.T) {
	srv := newTestServer(t)

	srv.UpdateConfig(func(cfg *server.Config) {
		cfg.Format.IndentString = "  "
	})

	openTestDocument(t, &glsp.Context{}, testURI, "class A {\nx := 1\n}")

	edits := formatDocument(t, protocol.FormattingOptions{
		protocol.FormattingOptionInsertSpaces: true,
		protocol.FormattingOptionTabSize:      float64(8),
	})

	require.Len(t, edits, 1)
	assert.Equal(t, "class A {\n  x := 1\n}", edits[0].NewText)
}

func TestRangeFormatting(t *testing.T) {
	newTestServer(t)

	openTestDocument(t, &glsp.Context{}, testURI, "x:=1\ny:=2\nz:=3")

	edits, err := RangeFormatting(&glsp.Context{}, &protocol.DocumentRangeFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Range:        lspRange(1, 1, 1, 2),
	})
	require.NoError(t, err)

	require.Len(t, edits, 1)
	assert.Equal(t, lspRange(1, 0, 1, 4), edits[0].Range)
	assert.Equal(t, "y := 2", edits[0].NewText)
}

func TestFormatting_UnknownDocument(t *testing.T) {
	newTestServer(t)

	assert.Nil(t, formatDocument(t, protocol.FormattingOptions{}))
}
