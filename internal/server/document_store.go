package server

import (
	"sync"

	"github.com/CWBudde/go-ahk2-lsp/internal/document"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
)

// Document represents an open document in the workspace. A Document is
// never mutated after it is stored; an edit stores a new one.
type Document struct {
	URI        string
	Text       string
	Version    int
	LanguageID string

	// Parsed is the token stream and symbol tree of Text.
	Parsed *parser.Document
	// Lines converts between byte offsets and LSP positions.
	Lines *document.LineIndex
}

// NewDocument parses text and returns the document ready to be stored.
func NewDocument(uri, text string, version int, languageID string) *Document {
	return &Document{
		URI:        uri,
		Text:       text,
		Version:    version,
		LanguageID: languageID,
		Parsed:     parser.Parse(uri, text),
		Lines:      document.NewLineIndex(text),
	}
}

// DocumentStore manages all open documents.
type DocumentStore struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

// NewDocumentStore creates a new document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*Document),
	}
}

// Set stores or updates a document.
func (ds *DocumentStore) Set(uri string, doc *Document) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = doc
}

// Get retrieves a document by URI.
func (ds *DocumentStore) Get(uri string) (*Document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, ok := ds.documents[uri]

	return doc, ok
}

// Delete removes a document from the store.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// List returns all document URIs.
func (ds *DocumentStore) List() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	uris := make([]string, 0, len(ds.documents))
	for uri := range ds.documents {
		uris = append(uris, uri)
	}

	return uris
}

// Clear removes all documents from the store.
func (ds *DocumentStore) Clear() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents = make(map[string]*Document)
}
