package server

import (
	"context"
	"encoding/json"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"glslls/internal/compiler"
	"glslls/internal/config"
	"glslls/internal/diagnostics"
	"glslls/internal/rpc"
)

func (s *Session) initialize(msg *rpc.Message) []byte {
	var params protocol.InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams,
				fmt.Sprintf("invalid initialize params: %s", err)))
		}
	}

	cfg, err := config.Load(params.InitializationOptions, s.config)
	if err != nil {
		log.Warningf("ignoring malformed initializationOptions: %s", err.Error())
	} else {
		s.config = cfg
		if configurable, ok := s.compiler.(interface{ Configure(compiler.Options) }); ok {
			configurable.Configure(cfg.Compiler)
		}
	}

	s.workspace.SetInitialized()

	return s.encode(rpc.NewResponse(msg.ID, protocol.InitializeResult{
		Capabilities: serverCapabilities(),
	}))
}

func (s *Session) textDocumentDidOpen(ctx context.Context, msg *rpc.Message) []byte {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams,
			fmt.Sprintf("invalid didOpen params: %s", err)))
	}

	uri := string(params.TextDocument.URI)
	text := params.TextDocument.Text
	s.workspace.AddDocument(uri, text)

	frame, err := s.publishDiagnostics(ctx, uri, text)
	if err != nil {
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams, err.Error()))
	}
	return frame
}

func (s *Session) textDocumentDidChange(ctx context.Context, msg *rpc.Message) []byte {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams,
			fmt.Sprintf("invalid didChange params: %s", err)))
	}
	if len(params.ContentChanges) == 0 {
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams,
			"didChange carries no content changes"))
	}

	// Only full-document sync is advertised; the first change is the
	// complete replacement text.
	var text string
	switch change := params.ContentChanges[0].(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		text = change.Text
	case protocol.TextDocumentContentChangeEvent:
		if change.Range != nil {
			return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams,
				"incremental sync is not supported"))
		}
		text = change.Text
	default:
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams,
			fmt.Sprintf("unexpected change event type %T", change)))
	}

	uri := string(params.TextDocument.TextDocumentIdentifier.URI)
	if err := s.workspace.ChangeDocument(uri, text); err != nil {
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams, err.Error()))
	}

	// Diagnose what the workspace now holds, not what the request carried.
	current, _ := s.workspace.Document(uri)
	frame, err := s.publishDiagnostics(ctx, uri, current)
	if err != nil {
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams, err.Error()))
	}
	return frame
}

func (s *Session) textDocumentDidClose(msg *rpc.Message) []byte {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeInvalidParams,
			fmt.Sprintf("invalid didClose params: %s", err)))
	}

	uri := string(params.TextDocument.URI)
	s.workspace.RemoveDocument(uri)

	// Clear any previously published diagnostics for the closed document.
	return s.encode(rpc.NewNotification("textDocument/publishDiagnostics",
		protocol.PublishDiagnosticsParams{
			URI:         protocol.DocumentUri(uri),
			Diagnostics: []protocol.Diagnostic{},
		}))
}

// publishDiagnostics compiles text and frames the publish notification.
// The returned error is an input-validation failure (unknown shader
// extension); a failed or timed-out compiler run instead publishes an
// empty list so the session keeps going.
func (s *Session) publishDiagnostics(ctx context.Context, uri, text string) ([]byte, error) {
	stage, err := compiler.StageFromPath(uri)
	if err != nil {
		return nil, err
	}

	list := []protocol.Diagnostic{}
	compileLog, err := s.compiler.Compile(ctx, stage, text)
	if err != nil {
		log.Warningf("compiler invocation failed, publishing no diagnostics: %s", err.Error())
	} else {
		log.Debugf("diagnostics raw output: %s", compileLog)
		list = diagnostics.Translate(text, compileLog)
	}

	return s.encode(rpc.NewNotification("textDocument/publishDiagnostics",
		protocol.PublishDiagnosticsParams{
			URI:         protocol.DocumentUri(uri),
			Diagnostics: list,
		})), nil
}

// serverCapabilities advertises open/close notifications with full-document
// sync and explicitly nothing else, mirroring what the session can serve.
func serverCapabilities() protocol.ServerCapabilities {
	syncKind := protocol.TextDocumentSyncKindFull
	return protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose:         &protocol.True,
			Change:            &syncKind,
			WillSave:          &protocol.False,
			WillSaveWaitUntil: &protocol.False,
			Save:              &protocol.SaveOptions{IncludeText: &protocol.False},
		},
		HoverProvider:                    false,
		DefinitionProvider:               false,
		ReferencesProvider:               false,
		DocumentHighlightProvider:        false,
		DocumentSymbolProvider:           false,
		WorkspaceSymbolProvider:          false,
		CodeActionProvider:               false,
		DocumentFormattingProvider:       false,
		DocumentRangeFormattingProvider:  false,
		RenameProvider:                   false,
		CompletionProvider:               &protocol.CompletionOptions{ResolveProvider: &protocol.False},
		SignatureHelpProvider:            &protocol.SignatureHelpOptions{},
		CodeLensProvider:                 &protocol.CodeLensOptions{ResolveProvider: &protocol.False},
		DocumentLinkProvider:             &protocol.DocumentLinkOptions{ResolveProvider: &protocol.False},
		DocumentOnTypeFormattingProvider: &protocol.DocumentOnTypeFormattingOptions{},
		ExecuteCommandProvider:           &protocol.ExecuteCommandOptions{Commands: []string{}},
	}
}
