package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
)

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	return path
}

func TestServer_OpenAndCloseDocument(t *testing.T) {
	srv := New()
	uri := "file:///test/open.ahk"

	srv.CompletionCache().Set("file:///test/other.ahk", 1, "k", nil)

	srv.OpenDocument(NewDocument(uri, "Greet() {\n}\nGreet()\n", 1, "ahk2"))

	doc, ok := srv.Documents().Get(uri)
	require.True(t, ok)
	assert.Equal(t, 1, doc.Version)

	_, ok = srv.Session().Document(uri)
	assert.True(t, ok)

	assert.Len(t, srv.WorkspaceIndex().FindSymbol("greet"), 1)

	_, cached := srv.CompletionCache().Get("file:///test/other.ahk", 1, "k")
	assert.False(t, cached, "opening a document clears cached completions")

	srv.SemanticTokensCache().Store(uri, 1, "1.1", nil)
	srv.CloseDocument(uri)

	_, ok = srv.Documents().Get(uri)
	assert.False(t, ok)

	_, ok = srv.SemanticTokensCache().Latest(uri)
	assert.False(t, ok)

	// the index keeps the last contents of a closed file
	assert.Len(t, srv.WorkspaceIndex().FindSymbol("greet"), 1)
}

func TestServer_UpdateConfig(t *testing.T) {
	srv := New()
	srv.CompletionCache().Set("file:///a.ahk", 1, "k", nil)

	srv.UpdateConfig(func(cfg *Config) {
		cfg.MaxProblems = 3
		cfg.Diagnostics.VarUnset = false
	})

	cfg := srv.Config()
	assert.Equal(t, 3, cfg.MaxProblems)
	assert.False(t, cfg.Diagnostics.VarUnset)

	_, cached := srv.CompletionCache().Get("file:///a.ahk", 1, "k")
	assert.False(t, cached)

	// Config returns a copy
	cfg.MaxProblems = 50
	assert.Equal(t, 3, srv.Config().MaxProblems)
}

func TestServer_NewWithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProblems = 9

	srv := NewWithConfig(cfg)
	assert.Equal(t, 9, srv.Config().MaxProblems)
	assert.NotNil(t, srv.SemanticTokensLegend())
	assert.False(t, srv.IsShuttingDown())

	srv.SetShuttingDown()
	assert.True(t, srv.IsShuttingDown())
}

func TestServer_RefreshAndRemoveFile(t *testing.T) {
	srv := New()
	dir := t.TempDir()

	path := writeFile(t, dir, "tools.ahk", "Tool() {\n}\n")
	uri := analysis.PathToURI(path)

	require.NoError(t, srv.RefreshFile(uri))
	require.Len(t, srv.WorkspaceIndex().FindSymbol("Tool"), 1)
	assert.Len(t, srv.Symbols().FindReferences("tool", srv.Documents()), 1)

	writeFile(t, dir, "tools.ahk", "Gadget() {\n}\n")
	require.NoError(t, srv.RefreshFile(uri))
	assert.Empty(t, srv.WorkspaceIndex().FindSymbol("Tool"))
	assert.Len(t, srv.WorkspaceIndex().FindSymbol("Gadget"), 1)

	srv.RemoveFile(uri)
	assert.Empty(t, srv.WorkspaceIndex().FindSymbol("Gadget"))
	assert.Empty(t, srv.Symbols().FindReferences("gadget", srv.Documents()))
}

func TestServer_RefreshFileKeepsOpenDocument(t *testing.T) {
	srv := New()
	dir := t.TempDir()

	path := writeFile(t, dir, "open.ahk", "OnDisk() {\n}\n")
	uri := analysis.PathToURI(path)

	srv.OpenDocument(NewDocument(uri, "InEditor() {\n}\n", 4, "ahk2"))

	require.NoError(t, srv.RefreshFile(uri))
	assert.Empty(t, srv.WorkspaceIndex().FindSymbol("OnDisk"))
	assert.Len(t, srv.WorkspaceIndex().FindSymbol("InEditor"), 1)

	srv.RemoveFile(uri)
	assert.Len(t, srv.WorkspaceIndex().FindSymbol("InEditor"), 1)
}

func TestServer_RefreshFileErrors(t *testing.T) {
	srv := New()

	assert.Error(t, srv.RefreshFile("http://example.com/x.ahk"))
	assert.Error(t, srv.RefreshFile(analysis.PathToURI(filepath.Join(t.TempDir(), "gone.ahk"))))
}

func TestServer_IndexingAndRemoveFolder(t *testing.T) {
	srv := New()

	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "a.ahk", "Alpha() {\n}\n")
	writeFile(t, first, "sub/b.ahk", "Bravo() {\n}\n")
	writeFile(t, second, "c.ahk", "Charlie() {\n}\n")

	assert.False(t, srv.IndexReady())
	assert.NoError(t, srv.WaitForIndex(context.Background()))

	srv.StartIndexing([]protocol.WorkspaceFolder{
		{URI: analysis.PathToURI(first), Name: "first"},
		{URI: analysis.PathToURI(second), Name: "second"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.WaitForIndex(ctx))
	assert.True(t, srv.IndexReady())

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		assert.Len(t, srv.WorkspaceIndex().FindSymbol(name), 1, name)
	}

	srv.RemoveFolder(first)

	assert.Empty(t, srv.WorkspaceIndex().FindSymbol("Alpha"))
	assert.Empty(t, srv.WorkspaceIndex().FindSymbol("Bravo"))
	assert.Len(t, srv.WorkspaceIndex().FindSymbol("Charlie"), 1)
}

func TestServer_WaitForIndexCancelled(t *testing.T) {
	srv := New()

	srv.mu.Lock()
	srv.indexDone = make(chan struct{})
	srv.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, srv.WaitForIndex(ctx), context.Canceled)
	assert.False(t, srv.IndexReady())
}

func TestWithinDir(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "proj")

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"direct child", filepath.Join(root, "a.ahk"), true},
		{"nested", filepath.Join(root, "lib", "b.ahk"), true},
		{"the folder itself", root, true},
		{"sibling with common prefix", filepath.Join(string(filepath.Separator), "work", "project", "a.ahk"), false},
		{"parent", filepath.Join(string(filepath.Separator), "work", "a.ahk"), false},
		{"dot-dot prefixed name", filepath.Join(root, "..lib", "c.ahk"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withinDir(root, tt.path))
		})
	}
}

func TestServer_ClientCapabilities(t *testing.T) {
	srv := New()

	assert.False(t, srv.SupportsSnippets())
	assert.True(t, srv.SupportsMarkdownHover())

	tests := []struct {
		name     string
		raw      string
		snippets bool
		markdown bool
	}{
		{"empty", `{}`, false, true},
		{"snippets", `{"textDocument": {"completion": {"completionItem": {"snippetSupport": true}}}}`, true, true},
		{"snippets off", `{"textDocument": {"completion": {"completionItem": {"snippetSupport": false}}}}`, false, true},
		{"plain hover", `{"textDocument": {"hover": {"contentFormat": ["plaintext"]}}}`, false, false},
		{"markdown hover", `{"textDocument": {"hover": {"contentFormat": ["plaintext", "markdown"]}}}`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var caps protocol.ClientCapabilities
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &caps))

			srv.SetClientCapabilities(&caps)

			assert.Same(t, &caps, srv.GetClientCapabilities())
			assert.Equal(t, tt.snippets, srv.SupportsSnippets())
			assert.Equal(t, tt.markdown, srv.SupportsMarkdownHover())
		})
	}
}

func TestServer_WorkspaceFolders(t *testing.T) {
	srv := New()
	assert.Empty(t, srv.GetWorkspaceFolders())

	srv.SetWorkspaceFolders([]string{"/a", "/b"})
	assert.Equal(t, []string{"/a", "/b"}, srv.GetWorkspaceFolders())
}
