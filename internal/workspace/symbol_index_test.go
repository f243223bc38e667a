package workspace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const (
	testURI1 = "file:///lib/one.ahk"
	testURI2 = "file:///lib/two.ahk"
)

func lineRange(line uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: 0},
		End:   protocol.Position{Line: line, Character: 10},
	}
}

func TestSymbolIndex_NewSymbolIndex(t *testing.T) {
	index := NewSymbolIndex()

	require.NotNil(t, index)
	assert.Equal(t, 0, index.GetFileCount())
	assert.Equal(t, 0, index.GetSymbolCount())
	assert.Equal(t, 0, index.GetTotalLocationCount())
}

func TestSymbolIndex_FindSymbol(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("SendKeys", protocol.SymbolKindFunction, testURI1, lineRange(5), "", "(keys, delay := 10)")

	for _, name := range []string{"SendKeys", "sendkeys", "SENDKEYS"} {
		locations := index.FindSymbol(name)
		require.Len(t, locations, 1, name)

		loc := locations[0]
		assert.Equal(t, "SendKeys", loc.Name)
		assert.Equal(t, protocol.SymbolKindFunction, loc.Kind)
		assert.Equal(t, testURI1, loc.Location.URI)
		assert.Equal(t, uint32(5), loc.Location.Range.Start.Line)
		assert.Equal(t, "(keys, delay := 10)", loc.Detail)
	}

	assert.Nil(t, index.FindSymbol("Missing"))
}

func TestSymbolIndex_FindSymbol_MultipleLocations(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("Init", protocol.SymbolKindFunction, testURI1, lineRange(1), "", "")
	index.AddSymbol("Init", protocol.SymbolKindMethod, testURI2, lineRange(3), "App", "")

	locations := index.FindSymbol("init")
	require.Len(t, locations, 2)
	assert.Equal(t, 1, index.GetSymbolCount())
	assert.Equal(t, 2, index.GetTotalLocationCount())
	assert.Equal(t, 2, index.GetFileCount())
}

func TestSymbolIndex_RemoveFile(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("Shared", protocol.SymbolKindFunction, testURI1, lineRange(0), "", "")
	index.AddSymbol("OnlyOne", protocol.SymbolKindFunction, testURI1, lineRange(2), "", "")
	index.AddSymbol("Shared", protocol.SymbolKindFunction, testURI2, lineRange(0), "", "")

	index.RemoveFile(testURI1)

	assert.Nil(t, index.FindSymbol("OnlyOne"))
	shared := index.FindSymbol("Shared")
	require.Len(t, shared, 1)
	assert.Equal(t, testURI2, shared[0].Location.URI)
	assert.Equal(t, 1, index.GetFileCount())

	// removing an unknown file is a no-op
	index.RemoveFile("file:///unknown.ahk")
	assert.Equal(t, 1, index.GetFileCount())
}

func TestSymbolIndex_ReplaceFile(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("Old", protocol.SymbolKindFunction, testURI1, lineRange(0), "", "")

	index.ReplaceFile(testURI1, []SymbolLocation{
		{Name: "New", Kind: protocol.SymbolKindClass, Location: protocol.Location{Range: lineRange(4)}},
	})

	assert.Nil(t, index.FindSymbol("Old"))
	locations := index.FindSymbol("New")
	require.Len(t, locations, 1)
	assert.Equal(t, testURI1, locations[0].Location.URI)

	index.ReplaceFile(testURI2, nil)
	assert.Equal(t, 2, index.GetFileCount(), "a file without definitions is still indexed")
	assert.Empty(t, index.FindSymbolsInFile(testURI2))
}

func TestSymbolIndex_FindSymbolsByKind(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("Zeta", protocol.SymbolKindClass, testURI1, lineRange(0), "", "")
	index.AddSymbol("Run", protocol.SymbolKindFunction, testURI1, lineRange(1), "", "")
	index.AddSymbol("Alpha", protocol.SymbolKindClass, testURI2, lineRange(0), "", "")

	classes := index.FindSymbolsByKind(protocol.SymbolKindClass)
	require.Len(t, classes, 2)
	assert.Equal(t, "Alpha", classes[0].Name)
	assert.Equal(t, "Zeta", classes[1].Name)
}

func TestSymbolIndex_FindSymbolsInFile(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("A", protocol.SymbolKindFunction, testURI1, lineRange(0), "", "")
	index.AddSymbol("a", protocol.SymbolKindVariable, testURI1, lineRange(1), "", "")
	index.AddSymbol("B", protocol.SymbolKindFunction, testURI2, lineRange(0), "", "")

	assert.Len(t, index.FindSymbolsInFile(testURI1), 2)
	assert.Len(t, index.FindSymbolsInFile(testURI2), 1)
	assert.Nil(t, index.FindSymbolsInFile("file:///none.ahk"))
}

func TestSymbolIndex_ContainerName(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("Show", protocol.SymbolKindMethod, testURI1, lineRange(0), "Gui.Window", "()")

	locations := index.FindSymbol("Show")
	require.Len(t, locations, 1)
	assert.Equal(t, "Gui.Window", locations[0].ContainerName)
}

func TestSymbolIndex_Clear(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("Func1", protocol.SymbolKindFunction, testURI1, lineRange(0), "", "")
	index.AddSymbol("Func2", protocol.SymbolKindFunction, testURI2, lineRange(0), "", "")

	index.Clear()

	assert.Equal(t, 0, index.GetSymbolCount())
	assert.Equal(t, 0, index.GetFileCount())
}

func TestSymbolIndex_UpdateFileVersion(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("F", protocol.SymbolKindFunction, testURI1, lineRange(0), "", "")

	index.UpdateFileVersion(testURI1, 7)
	index.UpdateFileVersion("file:///none.ahk", 3)

	index.mutex.RLock()
	defer index.mutex.RUnlock()

	assert.Equal(t, int32(7), index.files[testURI1].Version)
	assert.NotContains(t, index.files, "file:///none.ahk")
}

func TestSymbolIndex_Search(t *testing.T) {
	index := NewSymbolIndex()
	index.AddSymbol("testFunc", protocol.SymbolKindFunction, testURI1, lineRange(0), "", "")
	index.AddSymbol("MyTest", protocol.SymbolKindClass, testURI1, lineRange(1), "", "")
	index.AddSymbol("helper", protocol.SymbolKindFunction, testURI2, lineRange(0), "", "")

	tests := []struct {
		name  string
		query string
		max   int
		want  []string
	}{
		{name: "substring", query: "test", want: []string{"MyTest", "testFunc"}},
		{name: "case insensitive", query: "TEST", want: []string{"MyTest", "testFunc"}},
		{name: "no match", query: "xyz", want: nil},
		{name: "empty query matches all", query: "", want: []string{"helper", "MyTest", "testFunc"}},
		{name: "limit", query: "", max: 2, want: []string{"helper", "MyTest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, loc := range index.Search(tt.query, tt.max) {
				names = append(names, loc.Name)
			}

			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSymbolIndex_ThreadSafety(t *testing.T) {
	index := NewSymbolIndex()

	var wg sync.WaitGroup

	wg.Add(3)

	go func() {
		defer wg.Done()

		for i := 0; i < 50; i++ {
			index.AddSymbol("Func1", protocol.SymbolKindFunction, testURI1, lineRange(uint32(i)), "", "")
		}
	}()

	go func() {
		defer wg.Done()

		for j := 0; j < 50; j++ {
			index.FindSymbol("func1")
			index.Search("func", 10)
		}
	}()

	go func() {
		defer wg.Done()

		for j := 0; j < 50; j++ {
			index.ReplaceFile(testURI2, []SymbolLocation{{Name: "Func1"}})
		}
	}()

	wg.Wait()

	assert.Len(t, index.FindSymbolsInFile(testURI2), 1)
	assert.Len(t, index.FindSymbolsInFile(testURI1), 50)
}
