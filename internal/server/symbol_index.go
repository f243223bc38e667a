package server

import (
	"sort"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

// SymbolIndex records where each identifier occurs in workspace files, so
// references can reach files that are neither open nor included. Names are
// matched case-insensitively.
type SymbolIndex struct {
	mu         sync.RWMutex
	references map[string]map[string][]protocol.Range
}

func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		references: make(map[string]map[string][]protocol.Range),
	}
}

// UpdateDocument replaces the occurrences recorded for doc.
func (si *SymbolIndex) UpdateDocument(doc *Document) {
	if doc == nil {
		return
	}

	if doc.Parsed == nil {
		si.RemoveDocument(doc.URI)
		return
	}

	ranges := collectReferences(doc)

	si.mu.Lock()
	defer si.mu.Unlock()

	si.removeLocked(doc.URI)

	for key, list := range ranges {
		if _, ok := si.references[key]; !ok {
			si.references[key] = make(map[string][]protocol.Range)
		}

		si.references[key][doc.URI] = list
	}
}

func (si *SymbolIndex) RemoveDocument(uri string) {
	if uri == "" {
		return
	}

	si.mu.Lock()
	defer si.mu.Unlock()

	si.removeLocked(uri)
}

func (si *SymbolIndex) removeLocked(uri string) {
	for key, uris := range si.references {
		if _, ok := uris[uri]; ok {
			delete(uris, uri)

			if len(uris) == 0 {
				delete(si.references, key)
			}
		}
	}
}

// FindReferences returns the occurrences of name in indexed documents that
// are not open in docStore; open documents are answered by the analysis.
func (si *SymbolIndex) FindReferences(name string, docStore *DocumentStore) []protocol.Location {
	if name == "" {
		return nil
	}

	openDocs := make(map[string]struct{})

	if docStore != nil {
		for _, uri := range docStore.List() {
			openDocs[uri] = struct{}{}
		}
	}

	si.mu.RLock()

	perURI, ok := si.references[symbols.Key(name)]
	if !ok {
		si.mu.RUnlock()
		return nil
	}

	copied := make(map[string][]protocol.Range, len(perURI))
	for uri, ranges := range perURI {
		copied[uri] = append([]protocol.Range(nil), ranges...)
	}

	si.mu.RUnlock()

	uris := make([]string, 0, len(copied))
	for uri := range copied {
		if _, open := openDocs[uri]; !open {
			uris = append(uris, uri)
		}
	}

	sort.Strings(uris)

	var locations []protocol.Location

	for _, uri := range uris {
		for _, r := range copied[uri] {
			locations = append(locations, protocol.Location{URI: uri, Range: r})
		}
	}

	return locations
}

func collectReferences(doc *Document) map[string][]protocol.Range {
	result := make(map[string][]protocol.Range)

	for _, tok := range doc.Parsed.Tokens {
		if tok.Kind != syntax.Identifier {
			continue
		}

		key := symbols.Key(tok.Text)
		result[key] = append(result[key], doc.Lines.Range(tok.Offset, tok.End()))
	}

	return result
}
