package workspace

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/document"
	"github.com/CWBudde/go-ahk2-lsp/internal/parser"
	"github.com/CWBudde/go-ahk2-lsp/internal/symbols"
)

// scriptExtensions are the file extensions indexed as AutoHotkey v2 scripts.
var scriptExtensions = []string{".ahk", ".ah2", ".ahk2"}

// IsScriptFile reports whether path has an AutoHotkey script extension.
func IsScriptFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range scriptExtensions {
		if ext == e {
			return true
		}
	}

	return false
}

// Indexer handles workspace file indexing.
type Indexer struct {
	index     *SymbolIndex
	resolver  *FileResolver
	maxDepth  int
	maxFiles  int
	fileCount int

	// Skip, when set, excludes files by URI. The server skips documents the
	// client has open, which are indexed from their editor contents.
	Skip func(uri string) bool
	// OnFile, when set, receives every file parsed during indexing.
	OnFile func(doc *parser.Document)
}

// NewIndexer creates a new workspace indexer.
func NewIndexer(index *SymbolIndex) *Indexer {
	return &Indexer{
		index:    index,
		resolver: NewFileResolver(),
		maxDepth: 10,    // Maximum directory depth
		maxFiles: 10000, // Maximum files to index
	}
}

// BuildWorkspaceIndex scans workspace folders and indexes all script files.
// It stops between files once ctx is done, keeping what was indexed so far,
// and returns ctx.Err() in that case.
func (idx *Indexer) BuildWorkspaceIndex(ctx context.Context, workspaceFolders []protocol.WorkspaceFolder) error {
	if len(workspaceFolders) == 0 {
		log.Println("No workspace folders to index")
		return nil
	}

	log.Printf("Starting workspace indexing for %d folders\n", len(workspaceFolders))

	for _, folder := range workspaceFolders {
		path, err := analysis.URIToPath(folder.URI)
		if err != nil {
			log.Printf("Warning: Could not convert URI to path: %s: %v\n", folder.URI, err)
			continue
		}

		log.Printf("Indexing workspace folder: %s\n", path)

		if err := idx.indexDirectory(ctx, path, 0); err != nil {
			log.Printf("Workspace indexing interrupted after %d files: %v\n", idx.fileCount, err)
			return err
		}
	}

	log.Printf("Workspace indexing complete. Indexed %d files, %d symbols\n",
		idx.fileCount, idx.index.GetTotalLocationCount())

	return nil
}

// indexDirectory recursively indexes a directory.
func (idx *Indexer) indexDirectory(ctx context.Context, dirPath string, depth int) error {
	if depth > idx.maxDepth || idx.fileCount >= idx.maxFiles {
		return nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		// Silently skip directories we can't read (permissions, etc.)
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		fullPath := filepath.Join(dirPath, name)

		if strings.HasPrefix(name, ".") {
			continue
		}

		if entry.IsDir() {
			if skipDirectory(name) {
				continue
			}

			if err := idx.indexDirectory(ctx, fullPath, depth+1); err != nil {
				return err
			}

			continue
		}

		if !IsScriptFile(name) || idx.fileCount >= idx.maxFiles {
			continue
		}

		if _, err := idx.IndexFile(fullPath); err != nil {
			log.Printf("Warning: Could not index file %s: %v\n", fullPath, err)
		}
	}

	return nil
}

func skipDirectory(name string) bool {
	switch name {
	case "node_modules", "vendor", "bin", "obj", "dist", "build", "out", "__pycache__":
		return true
	}

	return false
}

// IndexFile parses a file and replaces its definitions in the index.
func (idx *Indexer) IndexFile(filePath string) (*parser.Document, error) {
	text, err := idx.resolver.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	if abs, err := filepath.Abs(filePath); err == nil {
		filePath = abs
	}

	uri := analysis.PathToURI(filePath)
	if idx.Skip != nil && idx.Skip(uri) {
		return nil, nil
	}

	doc := parser.Parse(uri, text)

	idx.index.ReplaceFile(doc.URI, DocumentSymbols(doc))
	idx.fileCount++

	if idx.OnFile != nil {
		idx.OnFile(doc)
	}

	return doc, nil
}

// DocumentSymbols flattens the outline of doc into index entries. Members
// carry the dotted name of their enclosing declarations as container.
func DocumentSymbols(doc *parser.Document) []SymbolLocation {
	lines := document.NewLineIndex(doc.Text)

	var (
		out  []SymbolLocation
		walk func(items []analysis.OutlineSymbol, container string, inClass bool)
	)

	walk = func(items []analysis.OutlineSymbol, container string, inClass bool) {
		for _, item := range items {
			out = append(out, SymbolLocation{
				Name:          item.Name,
				Kind:          SymbolKind(item.Kind, inClass),
				Location:      protocol.Location{URI: doc.URI, Range: lines.Range(item.Selection.Start, item.Selection.End)},
				ContainerName: container,
				Detail:        item.Detail,
			})

			child := item.Name
			if container != "" {
				child = container + "." + item.Name
			}

			walk(item.Children, child, item.Kind == symbols.KindClass)
		}
	}

	walk(analysis.Outline(doc), "", false)

	return out
}

// SymbolKind maps a declaration kind to its LSP symbol kind. Variables
// declared in a class body are fields.
func SymbolKind(kind symbols.Kind, inClass bool) protocol.SymbolKind {
	switch kind {
	case symbols.KindClass:
		return protocol.SymbolKindClass
	case symbols.KindFunction:
		return protocol.SymbolKindFunction
	case symbols.KindMethod:
		return protocol.SymbolKindMethod
	case symbols.KindProperty:
		return protocol.SymbolKindProperty
	case symbols.KindLabel:
		return protocol.SymbolKindKey
	case symbols.KindEvent:
		return protocol.SymbolKindEvent
	case symbols.KindVariable:
		if inClass {
			return protocol.SymbolKindField
		}
	}

	return protocol.SymbolKindVariable
}

// IndexWorkspace is a helper function that creates an indexer and builds the workspace index.
func IndexWorkspace(ctx context.Context, index *SymbolIndex, workspaceFolders []protocol.WorkspaceFolder) error {
	return NewIndexer(index).BuildWorkspaceIndex(ctx, workspaceFolders)
}

// BuildAsync runs BuildWorkspaceIndex in a background goroutine. The
// returned channel is closed when indexing ends.
func (idx *Indexer) BuildAsync(ctx context.Context, workspaceFolders []protocol.WorkspaceFolder) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panic in workspace indexing: %v\n", r)
			}
		}()

		_ = idx.BuildWorkspaceIndex(ctx, workspaceFolders)
	}()

	return done
}

// FallbackSearch performs on-demand symbol search when the index is not
// ready. It parses at most 50 script files of the given folders.
func FallbackSearch(ctx context.Context, workspaceFolders []string, query string, maxResults int) []SymbolLocation {
	log.Printf("Warning: Symbol index not ready, using fallback search for query %q\n", query)

	if maxResults <= 0 {
		maxResults = 100
	}

	key := symbols.Key(query)
	resolver := NewFileResolver()

	var results []SymbolLocation

	filesSearched := 0
	maxFilesToSearch := 50

	for _, folder := range workspaceFolders {
		if len(results) >= maxResults {
			break
		}

		err := filepath.WalkDir(folder, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			name := entry.Name()

			if entry.IsDir() {
				if path != folder && (strings.HasPrefix(name, ".") || skipDirectory(name)) {
					return filepath.SkipDir
				}

				return nil
			}

			if !IsScriptFile(name) {
				return nil
			}

			if filesSearched >= maxFilesToSearch || len(results) >= maxResults {
				return filepath.SkipAll
			}

			filesSearched++

			text, err := resolver.ReadFile(path)
			if err != nil {
				return nil
			}

			for _, sym := range DocumentSymbols(parser.Parse(analysis.PathToURI(path), text)) {
				if strings.Contains(symbols.Key(sym.Name), key) {
					results = append(results, sym)
				}
			}

			return nil
		})
		if err != nil {
			log.Printf("Warning: Error walking workspace folder %s: %v\n", folder, err)
		}
	}

	log.Printf("Fallback search found %d results from %d files\n", len(results), filesSearched)

	sortLocations(results)

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return results
}
