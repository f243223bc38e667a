package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// Definition handles the textDocument/definition request.
// This provides "go-to definition" functionality, allowing users to navigate
// to where a symbol is defined.
func Definition(context *glsp.Context, params *protocol.DefinitionParams) (interface{}, error) {
	srv, doc, ok := openDocument(params.TextDocument.URI, "definition")
	if !ok {
		return nil, nil
	}

	position := params.Position
	offset := doc.Lines.Offset(position)

	log.Printf("Definition request at %s line %d, character %d\n",
		params.TextDocument.URI, position.Line, position.Character)

	info := analysis.IdentifySymbolAtPosition(doc.Parsed, offset)
	if info == nil {
		log.Printf("Position %d:%d is not on a symbol\n", position.Line, position.Character)
		return nil, nil
	}

	// the receiver of Foo().Bar cannot be named
	if info.Member && info.Name == info.Word {
		return nil, nil
	}

	var kinds []symbols.Kind
	if info.Label {
		kinds = []symbols.Kind{symbols.KindLabel}
	}

	ref, found := srv.Session().FindSymbol(doc.Parsed, info.Name, offset, kinds...)
	if found && ref.Doc == nil {
		log.Printf("%s is built in, no definition to show\n", info.Name)
		return nil, nil
	}

	if found {
		head := ref.Doc.Tree.Head(ref.Handle)
		lines := linesFor(srv, ref.Doc)

		return protocol.Location{
			URI:   ref.Doc.URI,
			Range: lines.Range(head.Selection.Start, head.Selection.End),
		}, nil
	}

	if info.Member || info.Label {
		return nil, nil
	}

	// defined in a file the document does not include
	locations := workspaceDefinitions(srv, info.Word)
	if len(locations) == 0 {
		log.Printf("No definition found for %s\n", info.Name)
		return nil, nil
	}

	return locations, nil
}

// workspaceDefinitions looks name up among the functions and classes of the
// workspace index.
func workspaceDefinitions(srv *server.Server, name string) []protocol.Location {
	var locations []protocol.Location

	for _, sym := range srv.WorkspaceIndex().FindSymbol(name) {
		if sym.ContainerName != "" {
			continue
		}

		switch sym.Kind {
		case protocol.SymbolKindFunction, protocol.SymbolKindClass:
			locations = append(locations, sym.Location)
		}
	}

	return locations
}
