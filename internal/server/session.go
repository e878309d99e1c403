package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"glslls/internal/compiler"
	"glslls/internal/config"
	"glslls/internal/rpc"
	"glslls/internal/workspace"
)

var log = commonlog.GetLogger("glslls.server")

// State is the session's position in the initialization handshake. It is a
// tagged state rather than a bare flag so further lifecycle states (e.g.
// shutdown) slot into the same switch.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
)

// Session routes completed protocol messages to their handlers under the
// initialization state machine. One mutex serializes dispatch end to end:
// the host may deliver requests concurrently, and a change must be
// observed by the diagnostic pass that follows it.
type Session struct {
	mu        sync.Mutex
	workspace *workspace.Workspace
	compiler  compiler.Compiler
	config    config.Config
}

// NewSession creates a session over an empty workspace.
func NewSession(cfg config.Config, comp compiler.Compiler) *Session {
	return &Session{
		workspace: workspace.NewWorkspace(),
		compiler:  comp,
		config:    cfg,
	}
}

// Handle consumes one completed framed message and returns the framed
// reply. A nil return means the message warrants no reply (notifications);
// that is a valid outcome, not a failure.
func (s *Session) Handle(ctx context.Context, buffer *rpc.MessageBuffer) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := buffer.Message()
	if err != nil || msg.Method == "" {
		if err != nil {
			log.Errorf("unparsable message: %s", err.Error())
		}
		return s.encode(rpc.NewErrorResponse(nil, rpc.CodeParseError, "Couldn't parse message."))
	}
	log.Infof("received message of type '%s'", msg.Method)
	log.Debugf("raw message: %s", string(buffer.Raw()))

	// As per LSP spec, everything except the initialize handshake is
	// rejected until the client has initialized.
	if s.state() == StateUninitialized && msg.Method != "initialize" {
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeServerNotInitialized, "Server not yet initialized."))
	}

	switch msg.Method {
	case "initialize":
		return s.initialize(msg)
	case "initialized":
		log.Infof("client initialized")
		return nil
	case "textDocument/didOpen":
		return s.textDocumentDidOpen(ctx, msg)
	case "textDocument/didChange":
		return s.textDocumentDidChange(ctx, msg)
	case "textDocument/didClose":
		return s.textDocumentDidClose(msg)
	default:
		return s.encode(rpc.NewErrorResponse(msg.ID, rpc.CodeMethodNotFound,
			fmt.Sprintf("Method '%s' not supported.", msg.Method)))
	}
}

// state derives the machine position from the workspace flag; the
// workspace owns the initialization fact, the session only interprets it.
func (s *Session) state() State {
	if s.workspace.IsInitialized() {
		return StateInitialized
	}
	return StateUninitialized
}

func (s *Session) encode(message any) []byte {
	frame, err := rpc.Encode(message)
	if err != nil {
		log.Errorf("failed to encode response: %s", err.Error())
		return nil
	}
	log.Debugf("sending message: %s", string(frame))
	return frame
}
