package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func rangeAt(line, start, end uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: start},
		End:   protocol.Position{Line: line, Character: end},
	}
}

func TestSymbolIndex_FindReferences(t *testing.T) {
	si := NewSymbolIndex()

	si.UpdateDocument(NewDocument("file:///b.ahk", "total := 1\nTotal += 2 ; total\n", 1, "ahk2"))
	si.UpdateDocument(NewDocument("file:///a.ahk", "MsgBox total\n", 1, "ahk2"))

	locations := si.FindReferences("TOTAL", nil)

	// comments are not identifiers, and files are listed in order
	assert.Equal(t, []protocol.Location{
		{URI: "file:///a.ahk", Range: rangeAt(0, 7, 12)},
		{URI: "file:///b.ahk", Range: rangeAt(0, 0, 5)},
		{URI: "file:///b.ahk", Range: rangeAt(1, 0, 5)},
	}, locations)

	assert.Nil(t, si.FindReferences("", nil))
	assert.Nil(t, si.FindReferences("missing", nil))
}

func TestSymbolIndex_SkipsOpenDocuments(t *testing.T) {
	si := NewSymbolIndex()
	store := NewDocumentStore()

	open := NewDocument("file:///open.ahk", "shared := 1\n", 1, "ahk2")
	store.Set(open.URI, open)

	si.UpdateDocument(open)
	si.UpdateDocument(NewDocument("file:///closed.ahk", "shared := 2\n", 1, "ahk2"))

	locations := si.FindReferences("shared", store)
	require.Len(t, locations, 1)
	assert.Equal(t, "file:///closed.ahk", locations[0].URI)
}

func TestSymbolIndex_UpdateReplacesAndRemove(t *testing.T) {
	si := NewSymbolIndex()

	si.UpdateDocument(NewDocument("file:///a.ahk", "first := 1\n", 1, "ahk2"))
	si.UpdateDocument(NewDocument("file:///a.ahk", "second := 1\n", 2, "ahk2"))

	assert.Empty(t, si.FindReferences("first", nil))
	assert.Len(t, si.FindReferences("second", nil), 1)

	si.RemoveDocument("file:///a.ahk")
	assert.Empty(t, si.FindReferences("second", nil))

	// no-ops
	si.UpdateDocument(nil)
	si.RemoveDocument("")
	si.UpdateDocument(&Document{URI: "file:///empty.ahk"})
	assert.Empty(t, si.references)
}

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()

	doc := NewDocument("file:///a.ahk", "x := 1", 3, "ahk2")
	assert.Equal(t, "file:///a.ahk", doc.Parsed.URI)
	assert.NotNil(t, doc.Lines)

	store.Set(doc.URI, doc)
	store.Set("file:///b.ahk", NewDocument("file:///b.ahk", "", 1, "ahk2"))

	got, ok := store.Get("file:///a.ahk")
	require.True(t, ok)
	assert.Same(t, doc, got)

	assert.ElementsMatch(t, []string{"file:///a.ahk", "file:///b.ahk"}, store.List())

	store.Delete("file:///a.ahk")
	_, ok = store.Get("file:///a.ahk")
	assert.False(t, ok)

	store.Clear()
	assert.Empty(t, store.List())
}
