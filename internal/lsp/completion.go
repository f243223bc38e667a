package lsp

import (
	"log"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

const maxCompletionItems = 200

// Completion handles the textDocument/completion request.
// This provides scope, member and directive completion.
func Completion(context *glsp.Context, params *protocol.CompletionParams) (any, error) {
	startTime := time.Now()

	defer func() {
		log.Printf("Completion took %v", time.Since(startTime))
	}()

	empty := &protocol.CompletionList{IsIncomplete: false, Items: []protocol.CompletionItem{}}

	srv, doc, ok := openDocument(params.TextDocument.URI, "completion")
	if !ok {
		return empty, nil
	}

	position := params.Position

	log.Printf("Completion request at %s line %d, character %d\n",
		params.TextDocument.URI, position.Line, position.Character)

	completionContext := analysis.DetermineContext(doc.Parsed, doc.Lines.Offset(position))

	// Inside a comment or string
	if completionContext.Type == analysis.CompletionContextNone {
		log.Println("Completion suppressed (inside comment or string)")
		return empty, nil
	}

	if params.Context != nil && params.Context.TriggerKind == protocol.CompletionTriggerKindTriggerCharacter &&
		params.Context.TriggerCharacter != nil && *params.Context.TriggerCharacter == "." &&
		completionContext.Type != analysis.CompletionContextMember {
		// a dot after a number or an expression the analysis cannot type
		return empty, nil
	}

	log.Printf("Completion context: type=%d, parent=%s, prefix=%s\n",
		completionContext.Type, completionContext.ParentIdentifier, completionContext.Prefix)

	key := server.CompletionKey(completionContext)

	items, cached := srv.CompletionCache().Get(doc.URI, doc.Version, key)
	if !cached {
		items = toCompletionItems(srv.Session().Complete(doc.Parsed, completionContext), srv.SupportsSnippets())
		srv.CompletionCache().Set(doc.URI, doc.Version, key, items)
	}

	incomplete := false
	if len(items) > maxCompletionItems {
		items = items[:maxCompletionItems]
		incomplete = true
	}

	log.Printf("Returning %d completion items\n", len(items))

	return &protocol.CompletionList{IsIncomplete: incomplete, Items: items}, nil
}

// toCompletionItems converts analysis proposals. Snippets are dropped for
// clients that cannot expand them.
func toCompletionItems(proposals []analysis.CompletionItem, snippets bool) []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, 0, len(proposals))

	for _, p := range proposals {
		if p.Kind == analysis.CompleteSnippet && !snippets {
			continue
		}

		kind := completionItemKind(p.Kind)
		item := protocol.CompletionItem{
			Label: p.Label,
			Kind:  &kind,
		}

		if p.Detail != "" {
			detail := p.Detail
			item.Detail = &detail
		}

		if p.Documentation != "" {
			item.Documentation = protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: p.Documentation,
			}
		}

		if p.Kind == analysis.CompleteSnippet {
			insertText := p.InsertText
			format := protocol.InsertTextFormatSnippet
			item.InsertText = &insertText
			item.InsertTextFormat = &format
		}

		items = append(items, item)
	}

	return items
}

func completionItemKind(kind analysis.CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case analysis.CompleteFunction:
		return protocol.CompletionItemKindFunction
	case analysis.CompleteMethod:
		return protocol.CompletionItemKindMethod
	case analysis.CompleteProperty:
		return protocol.CompletionItemKindProperty
	case analysis.CompleteClass:
		return protocol.CompletionItemKindClass
	case analysis.CompleteKeyword, analysis.CompleteDirective:
		return protocol.CompletionItemKindKeyword
	case analysis.CompleteSnippet:
		return protocol.CompletionItemKindSnippet
	default:
		return protocol.CompletionItemKindVariable
	}
}
