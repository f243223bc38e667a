package lsp

import (
	"context"
	"log"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/server"
	"github.com/CWBudde/go-ahk2-lsp/internal/workspace"
)

const (
	maxWorkspaceSymbols = 500
	fallbackTimeout     = 2 * time.Second
)

// WorkspaceSymbol handles the workspace/symbol request.
// It returns symbols across the entire workspace that match the query string.
func WorkspaceSymbol(ctx *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in WorkspaceSymbol")
		return nil, nil
	}

	query := params.Query
	log.Printf("WorkspaceSymbol request with query: %q\n", query)

	var symbolLocations []workspace.SymbolLocation

	if srv.IndexReady() || len(srv.GetWorkspaceFolders()) == 0 {
		symbolLocations = srv.WorkspaceIndex().Search(query, maxWorkspaceSymbols)
	} else {
		// the scan is still running; parse a few files directly
		searchCtx, cancel := context.WithTimeout(context.Background(), fallbackTimeout)
		symbolLocations = workspace.FallbackSearch(searchCtx, srv.GetWorkspaceFolders(), query, maxWorkspaceSymbols)
		cancel()

		symbolLocations = mergeOpenSymbols(srv.WorkspaceIndex().Search(query, maxWorkspaceSymbols), symbolLocations)
	}

	log.Printf("Found %d workspace symbols matching query %q\n", len(symbolLocations), query)

	result := make([]protocol.SymbolInformation, 0, len(symbolLocations))

	for _, symLoc := range symbolLocations {
		symbolInfo := protocol.SymbolInformation{
			Name:     symLoc.Name,
			Kind:     symLoc.Kind,
			Location: symLoc.Location,
		}

		if symLoc.ContainerName != "" {
			container := symLoc.ContainerName
			symbolInfo.ContainerName = &container
		}

		result = append(result, symbolInfo)
	}

	return result, nil
}

// mergeOpenSymbols puts what is already indexed, which includes the open
// documents, before the fallback results from other files.
func mergeOpenSymbols(indexed, fallback []workspace.SymbolLocation) []workspace.SymbolLocation {
	seen := make(map[string]bool, len(indexed))
	for _, sym := range indexed {
		seen[sym.Location.URI] = true
	}

	out := indexed
	for _, sym := range fallback {
		if !seen[sym.Location.URI] {
			out = append(out, sym)
		}
	}

	if len(out) > maxWorkspaceSymbols {
		out = out[:maxWorkspaceSymbols]
	}

	return out
}
