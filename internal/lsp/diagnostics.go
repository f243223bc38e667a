package lsp

import (
	"log"
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/diag"
	"github.com/CWBudde/go-ahk2-lsp/internal/document"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

const diagnosticSource = "ahk2"

// PublishDiagnostics sends diagnostic information to the client for a specific document.
// This notifies the editor about syntax errors, scope conflicts, call-shape errors and lint warnings.
//
// Parameters:
//   - context: The GLSP context for sending notifications
//   - uri: The document URI to publish diagnostics for
//   - diagnostics: List of diagnostics to publish
func PublishDiagnostics(context *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	if context == nil || context.Notify == nil {
		log.Println("Warning: Cannot publish diagnostics - context or Notify is nil")
		return
	}

	sortDiagnostics(diagnostics)

	params := &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}

	log.Printf("Publishing %d diagnostic(s) for %s", len(diagnostics), uri)

	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

// sortDiagnostics sorts diagnostics by position (line first, then column).
// This ensures diagnostics are presented in a predictable order in the editor.
func sortDiagnostics(diagnostics []protocol.Diagnostic) {
	sort.SliceStable(diagnostics, func(i, j int) bool {
		if diagnostics[i].Range.Start.Line != diagnostics[j].Range.Start.Line {
			return diagnostics[i].Range.Start.Line < diagnostics[j].Range.Start.Line
		}

		return diagnostics[i].Range.Start.Character < diagnostics[j].Range.Start.Character
	})
}

// documentDiagnostics analyses doc against its include graph and converts
// the result. At most maxProblems diagnostics are returned when it is
// positive.
func documentDiagnostics(srv *server.Server, doc *server.Document) []protocol.Diagnostic {
	result := srv.Session().Analyze(doc.Parsed)

	diagnostics := convertDiagnostics(result.Diagnostics, doc.Lines)

	if maxProblems := srv.Config().MaxProblems; maxProblems > 0 && len(diagnostics) > maxProblems {
		sortDiagnostics(diagnostics)
		diagnostics = diagnostics[:maxProblems]
	}

	return diagnostics
}

func convertDiagnostics(diags []diag.Diagnostic, lines *document.LineIndex) []protocol.Diagnostic {
	source := diagnosticSource
	out := make([]protocol.Diagnostic, 0, len(diags))

	for _, d := range diags {
		severity := d.Code.Severity()
		out = append(out, protocol.Diagnostic{
			Range:    lines.Range(d.Start, d.End),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: string(d.Code)},
			Source:   &source,
			Message:  d.Message,
			Tags:     d.Code.Tags(),
		})
	}

	return out
}

// publishOpenDocuments re-analyses every open document and publishes the
// results. An edit in one document can change the diagnostics of any
// document that includes it.
func publishOpenDocuments(context *glsp.Context, srv *server.Server) {
	uris := srv.Documents().List()
	sort.Strings(uris)

	for _, uri := range uris {
		doc, ok := srv.Documents().Get(uri)
		if !ok {
			continue
		}

		PublishDiagnostics(context, uri, documentDiagnostics(srv, doc))
	}
}
