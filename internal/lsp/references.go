package lsp

import (
	"log"
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

// References handles the textDocument/references request.
// It returns locations of all references to the symbol at the given position.
//
// Locals resolve through their binding. Global names are also looked up in
// workspace files outside the include graph of the document.
func References(context *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	srv, doc, ok := openDocument(params.TextDocument.URI, "references")
	if !ok {
		return []protocol.Location{}, nil
	}

	position := params.Position
	includeDecl := params.Context.IncludeDeclaration
	offset := doc.Lines.Offset(position)

	log.Printf("References request at %s line %d, character %d (includeDeclaration=%t)\n",
		params.TextDocument.URI, position.Line, position.Character, includeDecl)

	info := analysis.IdentifySymbolAtPosition(doc.Parsed, offset)
	if info == nil {
		return []protocol.Location{}, nil
	}

	locations := toLocations(srv, srv.Session().References(doc.Parsed, offset, includeDecl))

	if !info.Member && !info.Label && isGlobalName(srv, doc, info.Word, offset) {
		locations = append(locations, outsideGraph(srv, doc, info.Word)...)
	}

	sortLocations(locations)

	log.Printf("Found %d reference(s) to %s\n", len(locations), info.Name)

	return locations, nil
}

// isGlobalName reports whether name at offset refers to something other
// files can see.
func isGlobalName(srv *server.Server, doc *server.Document, name string, offset int) bool {
	b, ok := srv.Session().Analyze(doc.Parsed).Bound.Lookup(name, offset)
	if !ok {
		return true
	}

	switch b.Kind {
	case analysis.BindGlobal, analysis.BindFunction, analysis.BindClass, analysis.BindUnresolved:
		return true
	}

	return false
}

// outsideGraph returns the occurrences of name recorded by the workspace
// reference index in files that are neither open nor included by doc.
func outsideGraph(srv *server.Server, doc *server.Document, name string) []protocol.Location {
	inGraph := map[string]bool{doc.URI: true}
	for _, inc := range srv.Session().Analyze(doc.Parsed).Includes {
		inGraph[inc.URI] = true
	}

	var out []protocol.Location

	for _, loc := range srv.Symbols().FindReferences(name, srv.Documents()) {
		if !inGraph[loc.URI] {
			out = append(out, loc)
		}
	}

	return out
}

func sortLocations(locations []protocol.Location) {
	sort.SliceStable(locations, func(i, j int) bool {
		a, b := locations[i], locations[j]
		if a.URI != b.URI {
			return a.URI < b.URI
		}

		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}

		return a.Range.Start.Character < b.Range.Start.Character
	})
}
