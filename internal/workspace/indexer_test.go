package workspace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

const sampleScript = `class Window extends Gui {
	title := ""
	Show() {
	}
}

Greet(name, greeting := "Hi") {
	return greeting " " name
}
`

func TestIsScriptFile(t *testing.T) {
	assert.True(t, IsScriptFile("main.ahk"))
	assert.True(t, IsScriptFile("LIB.AHK"))
	assert.True(t, IsScriptFile("x.ah2"))
	assert.True(t, IsScriptFile("x.ahk2"))
	assert.False(t, IsScriptFile("x.txt"))
	assert.False(t, IsScriptFile("ahk"))
}

func TestDocumentSymbols(t *testing.T) {
	doc := parser.Parse("file:///sample.ahk", sampleScript)

	byName := make(map[string]SymbolLocation)
	for _, sym := range DocumentSymbols(doc) {
		byName[sym.Name] = sym
	}

	window, ok := byName["Window"]
	require.True(t, ok)
	assert.Equal(t, protocol.SymbolKindClass, window.Kind)
	assert.Equal(t, "extends Gui", window.Detail)
	assert.Equal(t, "", window.ContainerName)
	assert.Equal(t, protocol.Position{Line: 0, Character: 6}, window.Location.Range.Start)

	title, ok := byName["title"]
	require.True(t, ok)
	assert.Equal(t, protocol.SymbolKindField, title.Kind)
	assert.Equal(t, "Window", title.ContainerName)

	show, ok := byName["Show"]
	require.True(t, ok)
	assert.Equal(t, protocol.SymbolKindMethod, show.Kind)
	assert.Equal(t, "Window", show.ContainerName)

	greet, ok := byName["Greet"]
	require.True(t, ok)
	assert.Equal(t, protocol.SymbolKindFunction, greet.Kind)
	assert.Equal(t, uint32(6), greet.Location.Range.Start.Line)
}

func TestSymbolKind(t *testing.T) {
	assert.Equal(t, protocol.SymbolKindVariable, SymbolKind(symbols.KindVariable, false))
	assert.Equal(t, protocol.SymbolKindField, SymbolKind(symbols.KindVariable, true))
	assert.Equal(t, protocol.SymbolKindEvent, SymbolKind(symbols.KindEvent, false))
	assert.Equal(t, protocol.SymbolKindKey, SymbolKind(symbols.KindLabel, false))
}

func newWorkspace(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.ahk"), sampleScript)
	writeFile(t, filepath.Join(root, "lib", "util.ah2"), "Helper() {\n}\n")
	writeFile(t, filepath.Join(root, "node_modules", "skip.ahk"), "Skipped() {\n}\n")
	writeFile(t, filepath.Join(root, ".git", "hidden.ahk"), "Hidden() {\n}\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "NotCode() {\n}\n")

	return root
}

func TestIndexer_BuildWorkspaceIndex(t *testing.T) {
	root := newWorkspace(t)
	index := NewSymbolIndex()

	var parsed []string

	indexer := NewIndexer(index)
	indexer.OnFile = func(doc *parser.Document) {
		parsed = append(parsed, doc.URI)
	}

	err := indexer.BuildWorkspaceIndex(context.Background(), []protocol.WorkspaceFolder{
		{URI: analysis.PathToURI(root), Name: "root"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, index.GetFileCount())
	assert.Len(t, parsed, 2)

	helper := index.FindSymbol("helper")
	require.Len(t, helper, 1)
	assert.Equal(t, analysis.PathToURI(filepath.Join(root, "lib", "util.ah2")), helper[0].Location.URI)

	assert.NotEmpty(t, index.FindSymbol("Greet"))
	assert.Empty(t, index.FindSymbol("Skipped"))
	assert.Empty(t, index.FindSymbol("Hidden"))
	assert.Empty(t, index.FindSymbol("NotCode"))
}

func TestIndexer_BuildWorkspaceIndex_Cancelled(t *testing.T) {
	root := newWorkspace(t)
	index := NewSymbolIndex()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewIndexer(index).BuildWorkspaceIndex(ctx, []protocol.WorkspaceFolder{
		{URI: analysis.PathToURI(root)},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, index.GetFileCount())
}

func TestIndexer_BuildAsync(t *testing.T) {
	root := newWorkspace(t)
	index := NewSymbolIndex()
	mainURI := analysis.PathToURI(filepath.Join(root, "main.ahk"))

	indexer := NewIndexer(index)
	indexer.Skip = func(uri string) bool { return uri == mainURI }

	done := indexer.BuildAsync(context.Background(), []protocol.WorkspaceFolder{
		{URI: analysis.PathToURI(root)},
	})
	<-done

	assert.Equal(t, 1, index.GetFileCount())
	assert.Empty(t, index.FindSymbol("Greet"), "skipped files are not indexed")
	assert.NoError(t, IndexWorkspace(context.Background(), index, nil))
}

func TestIndexer_IndexFile_Reindex(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.ahk")
	writeFile(t, path, "First() {\n}\n")

	index := NewSymbolIndex()
	indexer := NewIndexer(index)

	_, err := indexer.IndexFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, index.FindSymbol("First"))

	writeFile(t, path, "Second() {\n}\n")
	doc, err := indexer.IndexFile(path)
	require.NoError(t, err)
	assert.Equal(t, analysis.PathToURI(path), doc.URI)

	assert.Empty(t, index.FindSymbol("First"))
	assert.NotEmpty(t, index.FindSymbol("Second"))

	_, err = indexer.IndexFile(filepath.Join(root, "missing.ahk"))
	assert.Error(t, err)
}

func TestFallbackSearch(t *testing.T) {
	root := newWorkspace(t)

	results := FallbackSearch(context.Background(), []string{root}, "GRE", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "Greet", results[0].Name)

	all := FallbackSearch(context.Background(), []string{root}, "", 2)
	assert.Len(t, all, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, FallbackSearch(ctx, []string{root}, "", 10))
}
