package rpc

import (
	"encoding/json"
	"fmt"
)

// Encode serializes a response or notification and wraps it in the wire
// envelope. The declared length counts bytes, not characters, so frames
// carrying multi-byte text stay in sync with the receiver's framer.
func Encode(message any) ([]byte, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	header := fmt.Sprintf(
		"Content-Length: %d\r\nContent-Type: application/vscode-jsonrpc;charset=utf-8\r\n\r\n",
		len(body),
	)
	return append([]byte(header), body...), nil
}
