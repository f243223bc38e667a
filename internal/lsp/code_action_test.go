package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func codeDiagnostic(code string, rng protocol.Range) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range: rng,
		Code:  &protocol.IntegerOrString{Value: code},
	}
}

func codeActions(t *testing.T, diagnostics ...protocol.Diagnostic) []protocol.CodeAction {
	t.Helper()

	result, err := CodeAction(&glsp.Context{}, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Range:        lspRange(0, 0, 0, 0),
		Context:      protocol.CodeActionContext{Diagnostics: diagnostics},
	})
	require.NoError(t, err)

	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok, "unexpected result type %T", result)

	return actions
}

func TestCodeAction_InitializeVariable(t *testing.T) {
	newTestServer(t)

	openTestDocument(t, &glsp.Context{}, testURI, "Show() {\n\tMsgBox value\n}\n")

	diagnostic := codeDiagnostic("W_VAR_UNSET", lspRange(1, 8, 1, 13))
	actions := codeActions(t, diagnostic)

	require.Len(t, actions, 1)
	assert.Equal(t, "Initialize variable 'value'", actions[0].Title)
	require.NotNil(t, actions[0].Kind)
	assert.Equal(t, string(protocol.CodeActionKindQuickFix), *actions[0].Kind)
	assert.Equal(t, []protocol.Diagnostic{diagnostic}, actions[0].Diagnostics)

	require.NotNil(t, actions[0].Edit)
	assert.Equal(t, []protocol.TextEdit{{
		Range:   lspRange(1, 0, 1, 0),
		NewText: "\tvalue := \"\"\n",
	}}, actions[0].Edit.Changes[testURI])
}

func TestCodeAction_InitializeVariable_CRLF(t *testing.T) {
	newTestServer(t)

	openTestDocument(t, &glsp.Context{}, testURI, "MsgBox value\r\n")

	actions := codeActions(t, codeDiagnostic("W_VAR_UNSET", lspRange(0, 7, 0, 12)))

	require.Len(t, actions, 1)
	assert.Equal(t, "value := \"\"\r\n", actions[0].Edit.Changes[testURI][0].NewText)
}

func TestCodeAction_AddParentheses(t *testing.T) {
	newTestServer(t)

	openTestDocument(t, &glsp.Context{}, testURI, "Run() {\n}\nfn := Run\n")

	actions := codeActions(t, codeDiagnostic("H_CALL_WITHOUT_PARENS", lspRange(2, 6, 2, 9)))

	require.Len(t, actions, 1)
	assert.Equal(t, "Add parentheses", actions[0].Title)
	require.NotNil(t, actions[0].IsPreferred)
	assert.True(t, *actions[0].IsPreferred)
	assert.Equal(t, []protocol.TextEdit{{Range: lspRange(2, 9, 2, 9), NewText: "()"}}, actions[0].Edit.Changes[testURI])
}

func TestCodeAction_NoFix(t *testing.T) {
	newTestServer(t)

	openTestDocument(t, &glsp.Context{}, testURI, "MsgBox \"a b\"\n")

	tests := []struct {
		name       string
		diagnostic protocol.Diagnostic
	}{
		{"unrelated code", codeDiagnostic("E_MISSING_PARAM", lspRange(0, 0, 0, 6))},
		{"no code", protocol.Diagnostic{Range: lspRange(0, 0, 0, 6)}},
		{"not an identifier", codeDiagnostic("W_VAR_UNSET", lspRange(0, 7, 0, 12))},
		{"empty range", codeDiagnostic("W_VAR_UNSET", lspRange(0, 3, 0, 3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, codeActions(t, tt.diagnostic))
		})
	}
}

func TestCodeAction_FromPublishedDiagnostics(t *testing.T) {
	newTestServer(t)

	var n notifications
	ctx := n.context()

	openTestDocument(t, ctx, testURI, "Show() {\n\tMsgBox value\n}\n")

	var unset []protocol.Diagnostic
	for _, d := range n.diagnostics[testURI] {
		if d.Code.Value == "W_VAR_UNSET" {
			unset = append(unset, d)
		}
	}

	require.Len(t, unset, 1)

	actions := codeActions(t, unset...)
	require.Len(t, actions, 1)
	assert.Equal(t, "Initialize variable 'value'", actions[0].Title)
}
