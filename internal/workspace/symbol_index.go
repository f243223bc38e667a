// Package workspace indexes the AutoHotkey scripts of the workspace folders
// and resolves #Include paths against the file system.
package workspace

import (
	"log"
	"sort"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// SymbolLocation represents a location where a symbol is defined.
type SymbolLocation struct {
	Name          string              // Symbol name as written
	Kind          protocol.SymbolKind // Function, Class, Method, ...
	Location      protocol.Location   // Full location with URI and range
	ContainerName string              // Qualified name of the enclosing class or function
	Detail        string              // Parameters or base class
}

// FileInfo stores metadata about an indexed file.
type FileInfo struct {
	URI     string   // Document URI
	Version int32    // Document version
	Symbols []string // Keys of the symbols defined in this file
}

// SymbolIndex maintains a workspace-wide index of symbol definitions.
// Lookups are case-insensitive, like AutoHotkey names.
type SymbolIndex struct {
	// symbols maps symbols.Key(name) to the definitions with that name
	symbols map[string][]SymbolLocation

	// files maps document URIs to file metadata
	files map[string]*FileInfo

	mutex sync.RWMutex
}

// NewSymbolIndex creates a new empty symbol index.
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		symbols: make(map[string][]SymbolLocation),
		files:   make(map[string]*FileInfo),
	}
}

// AddSymbol adds a symbol definition to the index.
func (si *SymbolIndex) AddSymbol(name string, kind protocol.SymbolKind, uri string, symbolRange protocol.Range, containerName string, detail string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.addLocked(SymbolLocation{
		Name:          name,
		Kind:          kind,
		Location:      protocol.Location{URI: uri, Range: symbolRange},
		ContainerName: containerName,
		Detail:        detail,
	})
}

func (si *SymbolIndex) addLocked(loc SymbolLocation) {
	key := symbols.Key(loc.Name)
	uri := loc.Location.URI

	si.symbols[key] = append(si.symbols[key], loc)

	fileInfo, exists := si.files[uri]
	if !exists {
		fileInfo = &FileInfo{URI: uri}
		si.files[uri] = fileInfo
	}

	fileInfo.Symbols = append(fileInfo.Symbols, key)
}

// ReplaceFile swaps the definitions recorded for uri in one step, so a
// concurrent search never sees the file half indexed.
func (si *SymbolIndex) ReplaceFile(uri string, locations []SymbolLocation) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeLocked(uri)

	for _, loc := range locations {
		loc.Location.URI = uri
		si.addLocked(loc)
	}

	if _, ok := si.files[uri]; !ok {
		// a file without definitions still counts as indexed
		si.files[uri] = &FileInfo{URI: uri}
	}
}

// FindSymbol returns all definitions of name. Returns nil if the symbol is
// not found.
func (si *SymbolIndex) FindSymbol(name string) []SymbolLocation {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	locations, exists := si.symbols[symbols.Key(name)]
	if !exists {
		return nil
	}

	result := make([]SymbolLocation, len(locations))
	copy(result, locations)

	return result
}

// FindSymbolsByKind searches for symbols of a specific kind.
func (si *SymbolIndex) FindSymbolsByKind(kind protocol.SymbolKind) []SymbolLocation {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	var result []SymbolLocation

	for _, locations := range si.symbols {
		for _, loc := range locations {
			if loc.Kind == kind {
				result = append(result, loc)
			}
		}
	}

	sortLocations(result)

	return result
}

// FindSymbolsInFile returns all symbols defined in a specific file.
func (si *SymbolIndex) FindSymbolsInFile(uri string) []SymbolLocation {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	fileInfo, exists := si.files[uri]
	if !exists {
		return nil
	}

	seen := make(map[string]bool)

	var result []SymbolLocation

	for _, key := range fileInfo.Symbols {
		if seen[key] {
			continue
		}

		seen[key] = true

		for _, loc := range si.symbols[key] {
			if loc.Location.URI == uri {
				result = append(result, loc)
			}
		}
	}

	return result
}

// RemoveFile removes all symbols from a file.
// This should be called when a file is deleted or before re-indexing.
func (si *SymbolIndex) RemoveFile(uri string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	if si.removeLocked(uri) {
		log.Printf("Removed all symbols from file: %s", uri)
	}
}

func (si *SymbolIndex) removeLocked(uri string) bool {
	fileInfo, exists := si.files[uri]
	if !exists {
		return false
	}

	for _, key := range fileInfo.Symbols {
		locations := si.symbols[key]

		var remaining []SymbolLocation

		for _, loc := range locations {
			if loc.Location.URI != uri {
				remaining = append(remaining, loc)
			}
		}

		if len(remaining) > 0 {
			si.symbols[key] = remaining
		} else {
			delete(si.symbols, key)
		}
	}

	delete(si.files, uri)

	return true
}

// UpdateFileVersion updates the version number for a file.
func (si *SymbolIndex) UpdateFileVersion(uri string, version int32) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	if fileInfo, exists := si.files[uri]; exists {
		fileInfo.Version = version
	}
}

// Files returns the URIs of the indexed files, sorted.
func (si *SymbolIndex) Files() []string {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	uris := make([]string, 0, len(si.files))
	for uri := range si.files {
		uris = append(uris, uri)
	}

	sort.Strings(uris)

	return uris
}

// GetFileCount returns the number of files in the index.
func (si *SymbolIndex) GetFileCount() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	return len(si.files)
}

// GetSymbolCount returns the number of distinct symbol names in the index.
func (si *SymbolIndex) GetSymbolCount() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	return len(si.symbols)
}

// GetTotalLocationCount returns the total number of symbol locations across all symbols.
func (si *SymbolIndex) GetTotalLocationCount() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	count := 0
	for _, locations := range si.symbols {
		count += len(locations)
	}

	return count
}

// Clear removes all symbols and file information from the index.
func (si *SymbolIndex) Clear() {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.symbols = make(map[string][]SymbolLocation)
	si.files = make(map[string]*FileInfo)

	log.Println("Symbol index cleared")
}

// Search returns the symbols whose name contains query, ignoring case.
// An empty query matches everything. Results are ordered by name, then by
// location, and cut at maxResults when it is positive.
func (si *SymbolIndex) Search(query string, maxResults int) []SymbolLocation {
	si.mutex.RLock()

	key := symbols.Key(query)

	var results []SymbolLocation

	for symbolKey, locations := range si.symbols {
		if strings.Contains(symbolKey, key) {
			results = append(results, locations...)
		}
	}

	si.mutex.RUnlock()

	sortLocations(results)

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}

	return results
}

func sortLocations(locs []SymbolLocation) {
	sort.SliceStable(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]

		if ka, kb := symbols.Key(a.Name), symbols.Key(b.Name); ka != kb {
			return ka < kb
		}

		if a.Location.URI != b.Location.URI {
			return a.Location.URI < b.Location.URI
		}

		if a.Location.Range.Start.Line != b.Location.Range.Start.Line {
			return a.Location.Range.Start.Line < b.Location.Range.Start.Line
		}

		return a.Location.Range.Start.Character < b.Location.Range.Start.Character
	})
}
