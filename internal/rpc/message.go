package rpc

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version tag attached to every outgoing
// message.
const Version = "2.0"

// JSON-RPC error codes returned by the session.
const (
	CodeParseError           = -32700
	CodeMethodNotFound       = -32601
	CodeInvalidParams        = -32602
	CodeServerNotInitialized = -32002
)

// Message is the generic JSON-RPC envelope. Params, Result and Error stay
// raw/typed so a single struct can represent requests, notifications and
// responses; the id is kept raw to echo it back verbatim (clients may use
// numbers or strings).
type Message struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the JSON-RPC error object.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Response is an outgoing reply to a request.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// Notification is an outgoing server-initiated message without an id.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// NewResponse builds a success response echoing the request id.
func NewResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error response with one of the fixed codes.
func NewErrorResponse(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: Version, ID: id, Error: &ResponseError{Code: code, Message: message}}
}

// NewNotification builds a server notification for the given method.
func NewNotification(method string, params any) Notification {
	return Notification{JSONRPC: Version, Method: method, Params: params}
}
