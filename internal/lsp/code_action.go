package lsp

import (
	"log"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// CodeAction handles the textDocument/codeAction request.
// This provides quick fixes for the diagnostics the client sends along.
func CodeAction(context *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	_, doc, ok := openDocument(params.TextDocument.URI, "codeAction")
	if !ok {
		return nil, nil
	}

	selectedRange := params.Range
	diagnostics := params.Context.Diagnostics

	log.Printf("CodeAction request at %s range (%d:%d)-(%d:%d), %d diagnostics\n",
		doc.URI,
		selectedRange.Start.Line, selectedRange.Start.Character,
		selectedRange.End.Line, selectedRange.End.Character,
		len(diagnostics))

	actions := []protocol.CodeAction{}

	for _, diagnostic := range diagnostics {
		actions = append(actions, GenerateQuickFixes(diagnostic, doc)...)
	}

	log.Printf("Returning %d code actions\n", len(actions))

	return actions, nil
}

// GenerateQuickFixes generates quick fix code actions for a diagnostic.
func GenerateQuickFixes(diagnostic protocol.Diagnostic, doc *server.Document) []protocol.CodeAction {
	switch diagnosticCode(diagnostic) {
	case diag.CallWithoutParentheses:
		return []protocol.CodeAction{addParenthesesAction(diagnostic, doc.URI)}
	case diag.VarUnset:
		name := diagnosticText(diagnostic, doc)
		if !syntax.IsIdentifier(name) {
			return nil
		}

		return []protocol.CodeAction{initializeVariableAction(diagnostic, doc, name)}
	}

	return nil
}

func diagnosticCode(diagnostic protocol.Diagnostic) diag.Code {
	if diagnostic.Code == nil {
		return ""
	}

	code, _ := diagnostic.Code.Value.(string)

	return diag.Code(code)
}

// diagnosticText returns the source text the diagnostic covers.
func diagnosticText(diagnostic protocol.Diagnostic, doc *server.Document) string {
	start := doc.Lines.Offset(diagnostic.Range.Start)
	end := doc.Lines.Offset(diagnostic.Range.End)

	if start >= end || end > len(doc.Text) {
		return ""
	}

	return doc.Text[start:end]
}

// addParenthesesAction turns a bare function reference into a call.
func addParenthesesAction(diagnostic protocol.Diagnostic, uri string) protocol.CodeAction {
	end := diagnostic.Range.End
	preferred := true

	return protocol.CodeAction{
		Title:       "Add parentheses",
		Kind:        stringPtr(string(protocol.CodeActionKindQuickFix)),
		Diagnostics: []protocol.Diagnostic{diagnostic},
		IsPreferred: &preferred,
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				uri: {{Range: protocol.Range{Start: end, End: end}, NewText: "()"}},
			},
		},
	}
}

// initializeVariableAction assigns an empty string to the variable on a new
// line above its first read, indented like that line.
func initializeVariableAction(diagnostic protocol.Diagnostic, doc *server.Document, name string) protocol.CodeAction {
	line := int(diagnostic.Range.Start.Line)
	lineStart := doc.Lines.LineStart(line)
	lineText := doc.Text[lineStart:doc.Lines.LineEnd(line)]
	indent := lineText[:len(lineText)-len(strings.TrimLeft(lineText, " \t"))]

	insertAt := protocol.Position{Line: protocol.UInteger(line), Character: 0}
	title := "Initialize variable '" + name + "'"

	log.Printf("Created quick fix: %s\n", title)

	return protocol.CodeAction{
		Title:       title,
		Kind:        stringPtr(string(protocol.CodeActionKindQuickFix)),
		Diagnostics: []protocol.Diagnostic{diagnostic},
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				doc.URI: {{
					Range:   protocol.Range{Start: insertAt, End: insertAt},
					NewText: indent + name + ` := ""` + eolOf(doc.Text),
				}},
			},
		},
	}
}

func eolOf(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}

	return "\n"
}

// stringPtr is a helper function to create a pointer to a string.
func stringPtr(s string) *string {
	return &s
}
