package lsp

import (
	"log"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/document"
)

// SignatureHelp handles textDocument/signatureHelp requests
// Shows function signatures and parameter hints during function calls.
func SignatureHelp(context *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	srv, doc, ok := openDocument(params.TextDocument.URI, "signatureHelp")
	if !ok {
		return nil, nil //nolint:nilnil // nil is valid LSP response
	}

	position := params.Position

	log.Printf("SignatureHelp request: URI=%s, Line=%d, Character=%d\n",
		params.TextDocument.URI, position.Line, position.Character)

	callCtx := analysis.DetermineCallContext(doc.Parsed, doc.Lines.Offset(position))
	if callCtx == nil {
		return nil, nil //nolint:nilnil // not inside an argument list
	}

	sig, found := srv.Session().GetFunctionSignature(doc.Parsed, callCtx)
	if !found {
		log.Printf("SignatureHelp: function '%s' not found\n", callCtx.FunctionName)
		return nil, nil //nolint:nilnil
	}

	info := buildSignatureInformation(sig)
	active := activeParameter(sig, callCtx.ParameterIndex)
	zero := protocol.UInteger(0)

	return &protocol.SignatureHelp{
		Signatures:      []protocol.SignatureInformation{info},
		ActiveSignature: &zero,
		ActiveParameter: &active,
	}, nil
}

// buildSignatureInformation renders sig with parameter labels given as
// UTF-16 offsets into the signature label.
func buildSignatureInformation(sig *analysis.FunctionSignature) protocol.SignatureInformation {
	label := sig.Label()
	info := protocol.SignatureInformation{Label: label}

	if sig.Documentation != "" {
		info.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: sig.Documentation,
		}
	}

	// parameters are rendered in order after the opening parenthesis
	pos := strings.IndexByte(label, '(') + 1

	for _, p := range sig.Parameters {
		text := p.Label()

		idx := strings.Index(label[pos:], text)
		if idx < 0 {
			info.Parameters = append(info.Parameters, protocol.ParameterInformation{Label: text})
			continue
		}

		start := pos + idx
		end := start + len(text)
		pos = end

		info.Parameters = append(info.Parameters, protocol.ParameterInformation{
			Label: []protocol.UInteger{
				protocol.UInteger(document.UTF16Len(label[:start])),
				protocol.UInteger(document.UTF16Len(label[:end])),
			},
		})
	}

	return info
}

// activeParameter maps an argument index onto the parameter list. Extra
// arguments belong to a trailing variadic parameter.
func activeParameter(sig *analysis.FunctionSignature, index int) protocol.UInteger {
	n := len(sig.Parameters)
	if n > 0 && index >= n && sig.Parameters[n-1].Variadic {
		index = n - 1
	}

	return protocol.UInteger(max(index, 0))
}
