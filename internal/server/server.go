// Package server provides the core LSP server state and management.
package server

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/document"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/workspace"
)

// Server holds the state of the LSP server.
type Server struct {
	// documents stores all open documents
	documents *DocumentStore

	// session analyses open documents together with their includes
	session *analysis.Session

	// symbolIndex caches references for workspace documents (even when not open)
	symbolIndex *SymbolIndex

	// workspaceIndex stores workspace-wide symbol definitions for global symbol search
	workspaceIndex *workspace.SymbolIndex

	// workspaceFolders stores the workspace folders from the client
	workspaceFolders []string

	// clientCapabilities stores the client's capabilities from the initialize request
	clientCapabilities *protocol.ClientCapabilities

	completionCache *CompletionCache

	config *Config

	// semanticTokensLegend defines the token types and modifiers for semantic highlighting
	semanticTokensLegend *SemanticTokensLegend

	// semanticTokensCache stores previous semantic tokens for delta computation
	semanticTokensCache *SemanticTokensCache

	// cancelIndexing stops a running workspace scan; indexDone is closed
	// once it finished
	cancelIndexing context.CancelFunc
	indexDone      <-chan struct{}

	// mutex protects server state
	mu sync.RWMutex

	// shutting down flag
	shuttingDown bool
}

// New creates a new LSP server instance with the default configuration.
func New() *Server {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a server starting from cfg.
func NewWithConfig(cfg Config) *Server {
	return &Server{
		documents:            NewDocumentStore(),
		session:              analysis.NewSession(workspace.NewFileResolver(), cfg.AnalysisConfig()),
		symbolIndex:          NewSymbolIndex(),
		workspaceIndex:       workspace.NewSymbolIndex(),
		completionCache:      NewCompletionCache(),
		semanticTokensLegend: NewSemanticTokensLegend(),
		semanticTokensCache:  NewSemanticTokensCache(),
		config:               &cfg,
	}
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down and stops a running
// workspace scan.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	s.shuttingDown = true
	cancel := s.cancelIndexing
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Documents returns the document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Session returns the analysis session.
func (s *Server) Session() *analysis.Session {
	return s.session
}

// Symbols returns the workspace reference index.
func (s *Server) Symbols() *SymbolIndex {
	return s.symbolIndex
}

// WorkspaceIndex returns the workspace-wide symbol index.
func (s *Server) WorkspaceIndex() *workspace.SymbolIndex {
	return s.workspaceIndex
}

// OpenDocument stores doc and makes it the version the analysis sees.
func (s *Server) OpenDocument(doc *Document) {
	s.documents.Set(doc.URI, doc)
	s.session.Open(doc.Parsed)
	s.symbolIndex.UpdateDocument(doc)
	s.workspaceIndex.ReplaceFile(doc.URI, workspace.DocumentSymbols(doc.Parsed))
	s.workspaceIndex.UpdateFileVersion(doc.URI, int32(doc.Version))

	// completions of other documents may depend on this one through includes
	s.completionCache.Clear()
}

// CloseDocument forgets the open version of uri. The file on disk is
// analysed from then on, and the workspace indexes keep its last contents.
func (s *Server) CloseDocument(uri string) {
	s.documents.Delete(uri)
	s.session.Close(uri)
	s.completionCache.InvalidateDocument(uri)
	s.semanticTokensCache.InvalidateDocument(uri)
}

// Config returns a copy of the server configuration.
func (s *Server) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return *s.config
}

// UpdateConfig updates the server configuration atomically.
// The update function is called with the current config under a write lock.
// The analysis session picks up the new settings immediately.
func (s *Server) UpdateConfig(update func(*Config)) {
	s.mu.Lock()
	update(s.config)
	cfg := *s.config
	s.mu.Unlock()

	s.session.SetConfig(cfg.AnalysisConfig())
	s.completionCache.Clear()
}

// SetWorkspaceFolders sets the workspace folders.
func (s *Server) SetWorkspaceFolders(folders []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workspaceFolders = folders
}

// GetWorkspaceFolders returns the workspace folders.
func (s *Server) GetWorkspaceFolders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.workspaceFolders
}

// StartIndexing scans folders in the background. Definitions go to the
// workspace index and identifier occurrences to the reference index. A
// previous scan is cancelled first.
func (s *Server) StartIndexing(folders []protocol.WorkspaceFolder) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.cancelIndexing != nil {
		s.cancelIndexing()
	}

	indexer := s.newIndexer()

	s.cancelIndexing = cancel
	s.indexDone = indexer.BuildAsync(ctx, folders)
	s.mu.Unlock()
}

func (s *Server) newIndexer() *workspace.Indexer {
	indexer := workspace.NewIndexer(s.workspaceIndex)
	indexer.Skip = func(uri string) bool {
		_, open := s.documents.Get(uri)
		return open
	}
	indexer.OnFile = func(doc *parser.Document) {
		s.symbolIndex.UpdateDocument(&Document{
			URI:    doc.URI,
			Text:   doc.Text,
			Parsed: doc,
			Lines:  document.NewLineIndex(doc.Text),
		})
	}

	return indexer
}

// RefreshFile re-reads a file that changed on disk. Open documents keep
// their editor contents; every other file is reindexed, and the analysis
// drops what it loaded through includes.
func (s *Server) RefreshFile(uri string) error {
	s.session.BeginPass()
	s.completionCache.Clear()

	if _, open := s.documents.Get(uri); open {
		return nil
	}

	path, err := analysis.URIToPath(uri)
	if err != nil {
		return err
	}

	_, err = s.newIndexer().IndexFile(path)

	return err
}

// RemoveFile forgets a file deleted from disk.
func (s *Server) RemoveFile(uri string) {
	s.session.BeginPass()
	s.completionCache.Clear()

	if _, open := s.documents.Get(uri); open {
		return
	}

	s.workspaceIndex.RemoveFile(uri)
	s.symbolIndex.RemoveDocument(uri)
}

// RemoveFolder forgets the indexed files below dir, a folder that left the
// workspace. Open documents stay indexed.
func (s *Server) RemoveFolder(dir string) {
	for _, uri := range s.workspaceIndex.Files() {
		path, err := analysis.URIToPath(uri)
		if err != nil || !withinDir(dir, path) {
			continue
		}

		if _, open := s.documents.Get(uri); open {
			continue
		}

		s.workspaceIndex.RemoveFile(uri)
		s.symbolIndex.RemoveDocument(uri)
	}
}

func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IndexReady reports whether the workspace scan has finished. It is false
// before the first scan starts.
func (s *Server) IndexReady() bool {
	s.mu.RLock()
	done := s.indexDone
	s.mu.RUnlock()

	if done == nil {
		return false
	}

	select {
	case <-done:
		return true
	default:
		return false
	}
}

// WaitForIndex blocks until the running workspace scan ends or ctx is done.
func (s *Server) WaitForIndex(ctx context.Context) error {
	s.mu.RLock()
	done := s.indexDone
	s.mu.RUnlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetClientCapabilities sets the client's capabilities.
func (s *Server) SetClientCapabilities(capabilities *protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clientCapabilities = capabilities
}

// GetClientCapabilities returns the client's capabilities.
func (s *Server) GetClientCapabilities() *protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clientCapabilities
}

// SupportsSnippets returns true if the client supports snippet completions.
func (s *Server) SupportsSnippets() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caps := s.clientCapabilities
	if caps == nil || caps.TextDocument == nil || caps.TextDocument.Completion == nil ||
		caps.TextDocument.Completion.CompletionItem == nil ||
		caps.TextDocument.Completion.CompletionItem.SnippetSupport == nil {
		return false
	}

	return *caps.TextDocument.Completion.CompletionItem.SnippetSupport
}

// SupportsMarkdownHover reports whether the client renders markdown in
// hovers. Clients that send no preference are assumed to.
func (s *Server) SupportsMarkdownHover() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caps := s.clientCapabilities
	if caps == nil || caps.TextDocument == nil || caps.TextDocument.Hover == nil ||
		len(caps.TextDocument.Hover.ContentFormat) == 0 {
		return true
	}

	for _, kind := range caps.TextDocument.Hover.ContentFormat {
		if kind == protocol.MarkupKindMarkdown {
			return true
		}
	}

	return false
}

// CompletionCache returns the completion cache.
func (s *Server) CompletionCache() *CompletionCache {
	return s.completionCache
}

// SemanticTokensLegend returns the semantic tokens legend.
// The legend is immutable and shared across all requests.
func (s *Server) SemanticTokensLegend() *SemanticTokensLegend {
	return s.semanticTokensLegend
}

// SemanticTokensCache returns the semantic tokens cache for delta support.
func (s *Server) SemanticTokensCache() *SemanticTokensCache {
	return s.semanticTokensCache
}
