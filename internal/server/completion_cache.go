package server

import (
	"fmt"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
)

// CompletionCache keeps the completion items computed for the current
// version of each document. Clients often repeat a request at an unchanged
// position (retriggering, resolving), and the item list is only valid until
// the next edit.
type CompletionCache struct {
	documentCaches map[string]*documentCompletionCache

	mu sync.RWMutex
}

type documentCompletionCache struct {
	version int
	items   map[string][]protocol.CompletionItem
}

// NewCompletionCache creates a new completion cache.
func NewCompletionCache() *CompletionCache {
	return &CompletionCache{
		documentCaches: make(map[string]*documentCompletionCache),
	}
}

// CompletionKey identifies a completion request within one document
// version.
func CompletionKey(ctx *analysis.CompletionContext) string {
	return fmt.Sprintf("%d|%s|%s|%d", ctx.Type, ctx.ParentIdentifier, ctx.Prefix, ctx.Offset)
}

// Get returns the items cached for key, provided the document is still at
// version.
func (c *CompletionCache) Get(uri string, version int, key string) ([]protocol.CompletionItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docCache, exists := c.documentCaches[uri]
	if !exists || docCache.version != version {
		return nil, false
	}

	items, ok := docCache.items[key]

	return items, ok
}

// Set caches items for key. Entries of older versions of the document are
// dropped.
func (c *CompletionCache) Set(uri string, version int, key string, items []protocol.CompletionItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	docCache, exists := c.documentCaches[uri]
	if !exists || docCache.version != version {
		docCache = &documentCompletionCache{
			version: version,
			items:   make(map[string][]protocol.CompletionItem),
		}
		c.documentCaches[uri] = docCache
	}

	docCache.items[key] = items
}

// InvalidateDocument invalidates the cache for a specific document.
func (c *CompletionCache) InvalidateDocument(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.documentCaches, uri)
}

// Clear clears all cached completion items. Every document depends on the
// configuration and on its includes, so this runs when either changes.
func (c *CompletionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.documentCaches = make(map[string]*documentCompletionCache)
}
