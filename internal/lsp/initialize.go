package lsp

import (
	"log"
	"path/filepath"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-ahk2-lsp/internal/analysis"
	"github.com/CWBudde/go-ahk2-lsp/internal/server"
)

const (
	serverName    = "go-ahk2-lsp"
	serverVersion = "0.1.0"
)

var (
	// serverInstance holds the global server instance
	// This is set by SetServer and accessed by handlers
	serverInstance interface{}
)

// SetServer sets the global server instance for handlers to access.
func SetServer(srv interface{}) {
	serverInstance = srv
}

// Initialize handles the LSP initialize request.
// This is the first request sent by the client and establishes the server capabilities.
func Initialize(context *glsp.Context, params *protocol.InitializeParams) (interface{}, error) {
	legend := server.NewSemanticTokensLegend()

	if srv, ok := serverInstance.(*server.Server); ok && srv != nil {
		caps := params.Capabilities
		srv.SetClientCapabilities(&caps)
		srv.SetWorkspaceFolders(workspaceFolderPaths(params))

		if params.InitializationOptions != nil {
			var applyErr error

			srv.UpdateConfig(func(cfg *server.Config) {
				applyErr = cfg.ApplySettings(params.InitializationOptions)
			})

			if applyErr != nil {
				log.Printf("Warning: ignoring initialization options: %v\n", applyErr)
			}
		}

		legend = srv.SemanticTokensLegend()
	}

	changeKind := protocol.TextDocumentSyncKindIncremental
	trueVal := true
	falseVal := false

	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueVal,
			Change:    &changeKind,
			WillSave:  &falseVal,
			Save: &protocol.SaveOptions{
				IncludeText: &falseVal,
			},
		},

		HoverProvider:      &trueVal,
		DefinitionProvider: &trueVal,
		ReferencesProvider: &trueVal,

		DocumentSymbolProvider:  &trueVal,
		WorkspaceSymbolProvider: &trueVal,
		FoldingRangeProvider:    &trueVal,

		CompletionProvider: &protocol.CompletionOptions{
			// member access and directives
			TriggerCharacters: []string{".", "#"},
			ResolveProvider:   &falseVal,
		},

		SignatureHelpProvider: &protocol.SignatureHelpOptions{
			TriggerCharacters:   []string{"(", ","},
			RetriggerCharacters: []string{},
		},

		RenameProvider: &protocol.RenameOptions{
			PrepareProvider: &trueVal,
		},

		SemanticTokensProvider: &protocol.SemanticTokensOptions{
			Legend: legend.ToProtocolLegend(),
			Full:   &protocol.SemanticDelta{Delta: &trueVal},
		},

		DocumentFormattingProvider:      &trueVal,
		DocumentRangeFormattingProvider: &trueVal,

		CodeActionProvider: &protocol.CodeActionOptions{
			CodeActionKinds: []protocol.CodeActionKind{
				protocol.CodeActionKindQuickFix,
			},
			ResolveProvider: &falseVal,
		},

		Workspace: &protocol.ServerCapabilitiesWorkspace{
			WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
				Supported:           &trueVal,
				ChangeNotifications: &protocol.BoolOrString{Value: true},
			},
		},
	}

	version := serverVersion

	result := protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}

	return result, nil
}

// workspaceFolderPaths returns the local paths of the workspace. Older
// clients only send a root URI or path.
func workspaceFolderPaths(params *protocol.InitializeParams) []string {
	var uris []string

	switch {
	case len(params.WorkspaceFolders) > 0:
		for _, folder := range params.WorkspaceFolders {
			uris = append(uris, folder.URI)
		}
	case params.RootURI != nil && *params.RootURI != "":
		uris = append(uris, *params.RootURI)
	case params.RootPath != nil && *params.RootPath != "":
		return []string{filepath.Clean(*params.RootPath)}
	}

	paths := make([]string, 0, len(uris))

	for _, uri := range uris {
		path, err := analysis.URIToPath(uri)
		if err != nil {
			log.Printf("Warning: ignoring workspace folder %s: %v\n", uri, err)
			continue
		}

		paths = append(paths, path)
	}

	return paths
}

// workspaceFolders converts folder paths back to protocol folders.
func workspaceFolders(paths []string) []protocol.WorkspaceFolder {
	folders := make([]protocol.WorkspaceFolder, 0, len(paths))
	for _, path := range paths {
		folders = append(folders, protocol.WorkspaceFolder{
			URI:  analysis.PathToURI(path),
			Name: filepath.Base(path),
		})
	}

	return folders
}

// Initialized handles the initialized notification from the client.
// This is sent after the initialize response, signaling that the client is ready.
// It starts indexing the workspace folders in the background.
func Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in Initialized")
		return nil
	}

	folders := srv.GetWorkspaceFolders()
	if len(folders) == 0 {
		return nil
	}

	srv.StartIndexing(workspaceFolders(folders))

	return nil
}

// Shutdown handles the shutdown request.
// The client sends this to ask the server to shut down gracefully.
func Shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	if srv, ok := serverInstance.(*server.Server); ok && srv != nil {
		srv.SetShuttingDown()
	}

	return nil
}

// SetTrace handles $/setTrace.
func SetTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}
