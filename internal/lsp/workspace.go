package lsp

import (
	"log"
	"slices"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
	"github.com/CWBudde/go-ahk2-lsp/internal/workspace"
)

// DidChangeConfiguration handles workspace configuration changes from the client.
// The settings are expected under the "ahk2" key:
//
//	{
//	  "ahk2": {
//	    "max_problems": 100,
//	    "diagnostics": {"var_unset": false},
//	    "format": {"brace_style": "expand"}
//	  }
//	}
//
// Keys that are not sent keep their current values. Diagnostics of open
// documents are republished with the new settings.
func DidChangeConfiguration(context *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidChangeConfiguration")
		return nil
	}

	if params.Settings == nil {
		return nil
	}

	var applyErr error

	srv.UpdateConfig(func(cfg *server.Config) {
		applyErr = cfg.ApplySettings(params.Settings)
	})

	if applyErr != nil {
		log.Printf("Warning: ignoring invalid settings: %v\n", applyErr)
		return nil
	}

	cfg := srv.Config()
	log.Printf("Configuration updated: max_problems = %d, trace = %s\n", cfg.MaxProblems, cfg.Trace)

	publishOpenDocuments(context, srv)

	return nil
}

// DidChangeWorkspaceFolders handles changes to workspace folders.
// This notification is sent when workspace folders are added or removed.
// Removed folders drop out of the index; the remaining ones are rescanned.
func DidChangeWorkspaceFolders(context *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidChangeWorkspaceFolders")
		return nil
	}

	folders := slices.Clone(srv.GetWorkspaceFolders())

	for _, folder := range params.Event.Removed {
		log.Printf("Workspace folder removed: %s (%s)\n", folder.Name, folder.URI)

		path, err := analysis.URIToPath(folder.URI)
		if err != nil {
			continue
		}

		folders = slices.DeleteFunc(folders, func(f string) bool { return f == path })
		srv.RemoveFolder(path)
	}

	for _, folder := range params.Event.Added {
		log.Printf("Workspace folder added: %s (%s)\n", folder.Name, folder.URI)

		path, err := analysis.URIToPath(folder.URI)
		if err != nil {
			log.Printf("Warning: ignoring workspace folder %s: %v\n", folder.URI, err)
			continue
		}

		if !slices.Contains(folders, path) {
			folders = append(folders, path)
		}
	}

	srv.SetWorkspaceFolders(folders)
	srv.StartIndexing(workspaceFolders(folders))

	return nil
}

// DidChangeWatchedFiles keeps the indexes in step with changes made outside
// the editor.
func DidChangeWatchedFiles(context *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidChangeWatchedFiles")
		return nil
	}

	changed := false

	for _, event := range params.Changes {
		path, err := analysis.URIToPath(event.URI)
		if err != nil || !workspace.IsScriptFile(path) {
			continue
		}

		changed = true

		if event.Type == protocol.FileChangeTypeDeleted {
			srv.RemoveFile(event.URI)
			continue
		}

		if err := srv.RefreshFile(event.URI); err != nil {
			log.Printf("Could not reindex %s: %v\n", event.URI, err)
		}
	}

	// included files may have changed under open documents
	if changed {
		publishOpenDocuments(context, srv)
	}

	return nil
}
