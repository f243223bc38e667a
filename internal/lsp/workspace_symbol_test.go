package lsp

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/workspace"
)

func workspaceSymbols(t *testing.T, query string) []protocol.SymbolInformation {
	t.Helper()

	result, err := WorkspaceSymbol(&glsp.Context{}, &protocol.WorkspaceSymbolParams{Query: query})
	require.NoError(t, err)

	return result
}

func symbolNames(infos []protocol.SymbolInformation) []string {
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}

	return names
}

func TestWorkspaceSymbol_OpenDocuments(t *testing.T) {
	newTestServer(t)

	openTestDocument(t, &glsp.Context{}, testURI, "class Greeter {\n\tGreet() {\n\t}\n}\nHelper() {\n}\n")

	result := workspaceSymbols(t, "gree")

	assert.ElementsMatch(t, []string{"Greeter", "Greet"}, symbolNames(result))

	for _, info := range result {
		assert.Equal(t, testURI, info.Location.URI)

		if info.Name == "Greet" {
			require.NotNil(t, info.ContainerName)
			assert.Equal(t, "Greeter", *info.ContainerName)
			assert.Equal(t, protocol.SymbolKindMethod, info.Kind)
		}
	}

	assert.Empty(t, workspaceSymbols(t, "nothing"))
}

func TestWorkspaceSymbol_IndexedFolder(t *testing.T) {
	srv := newTestServer(t)

	dir := t.TempDir()
	writeScript(t, dir, "lib.ahk", "Remote() {\n}\n")

	srv.SetWorkspaceFolders([]string{dir})
	srv.StartIndexing(workspaceFolders([]string{dir}))
	require.NoError(t, waitForIndex(t, srv))

	result := workspaceSymbols(t, "remote")
	require.Len(t, result, 1)
	assert.Equal(t, analysis.PathToURI(filepath.Join(dir, "lib.ahk")), result[0].Location.URI)
}

func TestWorkspaceSymbol_FallbackWhileIndexing(t *testing.T) {
	srv := newTestServer(t)

	dir := t.TempDir()
	writeScript(t, dir, "lib.ahk", "Remote() {\n}\n")

	// folders are known but no scan has run yet
	srv.SetWorkspaceFolders([]string{dir})
	require.False(t, srv.IndexReady())

	openTestDocument(t, &glsp.Context{}, testURI, "RemoteControl() {\n}\n")

	result := workspaceSymbols(t, "remote")

	assert.Equal(t, []string{"RemoteControl", "Remote"}, symbolNames(result), "open documents come first")
}

func TestMergeOpenSymbols(t *testing.T) {
	at := func(name, uri string) workspace.SymbolLocation {
		return workspace.SymbolLocation{Name: name, Location: protocol.Location{URI: uri}}
	}

	indexed := []workspace.SymbolLocation{at("A", "file:///open.ahk")}
	fallback := []workspace.SymbolLocation{
		at("A", "file:///open.ahk"),
		at("B", "file:///disk.ahk"),
	}

	merged := mergeOpenSymbols(indexed, fallback)

	require.Len(t, merged, 2)
	assert.Equal(t, "A", merged[0].Name)
	assert.Equal(t, "file:///disk.ahk", merged[1].Location.URI)
}
