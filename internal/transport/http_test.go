package transport_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"glslls/internal/compiler"
	"glslls/internal/config"
	"glslls/internal/rpc"
	"glslls/internal/server"
	"glslls/internal/transport"
)

type silentCompiler struct{}

func (silentCompiler) Compile(context.Context, compiler.Stage, string) (string, error) {
	return "", nil
}

func post(t *testing.T, handler http.Handler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestRouterRoundTrip(t *testing.T) {
	session := server.NewSession(config.Default(), silentCompiler{})
	router := transport.NewRouter(session)

	frame, err := rpc.Encode(map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{},
	})
	if err != nil {
		t.Fatalf("Failed to encode request: %v", err)
	}

	recorder := post(t, router, frame)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", recorder.Code)
	}

	body, _ := io.ReadAll(recorder.Body)
	buffer := rpc.NewMessageBuffer()
	buffer.HandleBytes(body)
	if !buffer.Completed() {
		t.Fatalf("Response is not a complete frame: %q", body)
	}
	msg, err := buffer.Message()
	if err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if msg.Error != nil {
		t.Errorf("Unexpected error response: %+v", msg.Error)
	}
	if string(msg.ID) != "1" {
		t.Errorf("Expected echoed id 1, got %s", msg.ID)
	}
}

func TestRouterPipelinedFrames(t *testing.T) {
	session := server.NewSession(config.Default(), silentCompiler{})
	router := transport.NewRouter(session)

	initialize, _ := rpc.Encode(map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{},
	})
	unknown, _ := rpc.Encode(map[string]any{
		"jsonrpc": "2.0", "id": 2, "method": "foo/bar",
	})

	recorder := post(t, router, append(append([]byte{}, initialize...), unknown...))
	body, _ := io.ReadAll(recorder.Body)

	buffer := rpc.NewMessageBuffer()
	buffer.HandleBytes(body)

	var replies []*rpc.Message
	for buffer.Completed() {
		msg, err := buffer.Message()
		if err != nil {
			t.Fatalf("Failed to decode reply: %v", err)
		}
		replies = append(replies, msg)
		buffer.Reset()
	}
	if len(replies) != 2 {
		t.Fatalf("Expected 2 replies, got %d", len(replies))
	}
	if replies[0].Error != nil {
		t.Errorf("Expected initialize to succeed, got %+v", replies[0].Error)
	}
	if replies[1].Error == nil || replies[1].Error.Code != rpc.CodeMethodNotFound {
		t.Errorf("Expected method-not-found for the second frame, got %+v", replies[1])
	}
}

func TestRouterSilentNotification(t *testing.T) {
	session := server.NewSession(config.Default(), silentCompiler{})
	router := transport.NewRouter(session)

	initialize, _ := rpc.Encode(map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{},
	})
	post(t, router, initialize)

	initialized, _ := rpc.Encode(map[string]any{"jsonrpc": "2.0", "method": "initialized"})
	recorder := post(t, router, initialized)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", recorder.Code)
	}
	if body, _ := io.ReadAll(recorder.Body); len(body) != 0 {
		t.Errorf("Expected an empty body for a reply-less notification, got %q", body)
	}
}
