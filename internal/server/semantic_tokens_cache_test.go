package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestSemanticTokensCache_StoreAndRetrieve(t *testing.T) {
	cache := NewSemanticTokensCache()
	assert.Equal(t, 0, cache.Size())

	uri := protocol.DocumentUri("file:///test.ahk")
	tokens := []SemanticToken{
		{Line: 0, StartChar: 0, Length: 3, TokenType: 0},
		{Line: 1, StartChar: 0, Length: 5, TokenType: 1, Modifiers: 1},
	}

	cache.Store(uri, 3, "r1", tokens)
	assert.Equal(t, 1, cache.Size())

	cached, found := cache.Retrieve(uri, "r1")
	require.True(t, found)
	assert.Equal(t, tokens, cached.Tokens)
	assert.Equal(t, 3, cached.Version)

	_, found = cache.Retrieve(uri, "missing")
	assert.False(t, found)

	_, found = cache.Retrieve("file:///other.ahk", "r1")
	assert.False(t, found)
}

func TestSemanticTokensCache_Latest(t *testing.T) {
	cache := NewSemanticTokensCache()
	uri := protocol.DocumentUri("file:///test.ahk")

	_, found := cache.Latest(uri)
	assert.False(t, found)

	cache.Store(uri, 1, "a", nil)
	cache.Store(uri, 2, "b", []SemanticToken{})

	latest, found := cache.Latest(uri)
	require.True(t, found)
	assert.Equal(t, "b", latest.ResultID)
	assert.Empty(t, latest.Tokens)
}

func TestSemanticTokensCache_BoundPerDocument(t *testing.T) {
	cache := NewSemanticTokensCache()
	uri := protocol.DocumentUri("file:///test.ahk")

	for i := 0; i < maxResultsPerDocument+2; i++ {
		cache.Store(uri, i, fmt.Sprintf("result-%d", i), []SemanticToken{{Line: uint32(i)}})
	}

	assert.Equal(t, maxResultsPerDocument, cache.Size())

	_, found := cache.Retrieve(uri, "result-0")
	assert.False(t, found, "oldest result is evicted")

	_, found = cache.Retrieve(uri, "result-1")
	assert.False(t, found)

	last := fmt.Sprintf("result-%d", maxResultsPerDocument+1)
	cached, found := cache.Retrieve(uri, last)
	require.True(t, found)
	assert.Equal(t, uint32(maxResultsPerDocument+1), cached.Tokens[0].Line)
}

func TestSemanticTokensCache_Invalidate(t *testing.T) {
	cache := NewSemanticTokensCache()
	a := protocol.DocumentUri("file:///a.ahk")
	b := protocol.DocumentUri("file:///b.ahk")

	cache.Store(a, 1, "a1", nil)
	cache.Store(a, 2, "a2", nil)
	cache.Store(b, 1, "b1", nil)

	cache.InvalidateDocument(a)
	assert.Equal(t, 1, cache.Size())

	_, found := cache.Retrieve(b, "b1")
	assert.True(t, found)

	cache.InvalidateDocument("file:///none.ahk")
	assert.Equal(t, 1, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestSemanticTokensCache_NextResultID(t *testing.T) {
	cache := NewSemanticTokensCache()

	first := cache.NextResultID(1)
	second := cache.NextResultID(1)

	assert.Equal(t, "1.1", first)
	assert.Equal(t, "1.2", second)
	assert.Equal(t, "7.3", cache.NextResultID(7))
}

func TestSemanticTokensCache_ConcurrentAccess(t *testing.T) {
	cache := NewSemanticTokensCache()

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			uri := protocol.DocumentUri(fmt.Sprintf("file:///doc%d.ahk", n))
			for v := 0; v < 10; v++ {
				id := cache.NextResultID(v)
				cache.Store(uri, v, id, []SemanticToken{{Line: uint32(v)}})

				_, found := cache.Retrieve(uri, id)
				assert.True(t, found)
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 10*maxResultsPerDocument, cache.Size())
}
