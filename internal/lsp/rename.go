package lsp

import (
	"errors"
	"fmt"
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/builtins"
	"github.com/CWBudde/go-ahk2-lsp/internal/syntax"
)

var (
	errNotRenamable = errors.New("the element at the cursor cannot be renamed")
	errNoDocument   = errors.New("document is not open")
)

// PrepareRename handles textDocument/prepareRename. It returns the range of
// the name at the cursor, or null when there is nothing to rename.
func PrepareRename(context *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	srv, doc, ok := openDocument(params.TextDocument.URI, "prepareRename")
	if !ok {
		return nil, nil
	}

	offset := doc.Lines.Offset(params.Position)

	info := analysis.IdentifySymbolAtPosition(doc.Parsed, offset)
	if info == nil {
		return nil, nil
	}

	if _, renamable := srv.Session().RenameSites(doc.Parsed, offset); !renamable {
		log.Printf("PrepareRename: %s cannot be renamed\n", info.Name)
		return nil, nil
	}

	return protocol.RangeWithPlaceholder{
		Range:       doc.Lines.Range(info.Range.Start, info.Range.End),
		Placeholder: info.Word,
	}, nil
}

// Rename handles textDocument/rename. Every site the analysis binds to the
// symbol, in the document and its includes, is replaced.
func Rename(context *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	srv, doc, ok := openDocument(params.TextDocument.URI, "rename")
	if !ok {
		return nil, errNoDocument
	}

	if err := validateNewName(params.NewName); err != nil {
		return nil, err
	}

	offset := doc.Lines.Offset(params.Position)

	sites, renamable := srv.Session().RenameSites(doc.Parsed, offset)
	if !renamable {
		return nil, errNotRenamable
	}

	changes := make(map[protocol.DocumentUri][]protocol.TextEdit)

	for _, loc := range toLocations(srv, sites) {
		changes[loc.URI] = append(changes[loc.URI], protocol.TextEdit{
			Range:   loc.Range,
			NewText: params.NewName,
		})
	}

	log.Printf("Rename to %s touches %d site(s) in %d file(s)\n", params.NewName, len(sites), len(changes))

	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

func validateNewName(name string) error {
	switch {
	case !syntax.IsIdentifier(name):
		return fmt.Errorf("%q is not a valid name", name)
	case syntax.IsKeyword(name):
		return fmt.Errorf("%q is a reserved word", name)
	case builtins.IsBuiltin(name):
		return fmt.Errorf("%q would shadow a built-in", name)
	}

	return nil
}
