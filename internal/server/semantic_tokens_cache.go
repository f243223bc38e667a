package server

import (
	"strconv"
	"sync"
	"sync/atomic"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// maxResultsPerDocument bounds the token sets kept per document. A client
// only ever asks for a delta against one of its most recent results.
const maxResultsPerDocument = 4

// CachedTokens is a token set previously sent to the client.
type CachedTokens struct {
	ResultID string
	Version  int
	Tokens   []SemanticToken // not encoded
}

// SemanticTokensCache keeps the recent token sets of each document so a
// semanticTokens/full/delta request can be answered with edits.
type SemanticTokensCache struct {
	documents map[protocol.DocumentUri][]*CachedTokens // oldest first

	seq atomic.Uint64
	mu  sync.RWMutex
}

// NewSemanticTokensCache creates a new semantic tokens cache.
func NewSemanticTokensCache() *SemanticTokensCache {
	return &SemanticTokensCache{
		documents: make(map[protocol.DocumentUri][]*CachedTokens),
	}
}

// NextResultID returns a result identifier that is unique for the lifetime
// of the cache. The document version is part of it to ease debugging.
func (c *SemanticTokensCache) NextResultID(version int) string {
	return strconv.Itoa(version) + "." + strconv.FormatUint(c.seq.Add(1), 10)
}

// Store records tokens as the latest result for uri, dropping the oldest
// result once the per-document bound is reached.
func (c *SemanticTokensCache) Store(uri protocol.DocumentUri, version int, resultID string, tokens []SemanticToken) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := c.documents[uri]
	if len(results) >= maxResultsPerDocument {
		results = append(results[:0:0], results[len(results)-maxResultsPerDocument+1:]...)
	}

	c.documents[uri] = append(results, &CachedTokens{
		ResultID: resultID,
		Version:  version,
		Tokens:   tokens,
	})
}

// Retrieve fetches the token set uri was sent under resultID.
func (c *SemanticTokensCache) Retrieve(uri protocol.DocumentUri, resultID string) (*CachedTokens, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cached := range c.documents[uri] {
		if cached.ResultID == resultID {
			return cached, true
		}
	}

	return nil, false
}

// Latest returns the most recent token set of uri.
func (c *SemanticTokensCache) Latest(uri protocol.DocumentUri) (*CachedTokens, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	results := c.documents[uri]
	if len(results) == 0 {
		return nil, false
	}

	return results[len(results)-1], true
}

// InvalidateDocument removes all cached tokens for a document. It is
// called when the document is closed.
func (c *SemanticTokensCache) InvalidateDocument(uri protocol.DocumentUri) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.documents, uri)
}

// Clear removes all cached tokens from the cache.
func (c *SemanticTokensCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.documents = make(map[protocol.DocumentUri][]*CachedTokens)
}

// Size returns the number of cached token sets.
func (c *SemanticTokensCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, results := range c.documents {
		n += len(results)
	}

	return n
}
