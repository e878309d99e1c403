package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MessageBuffer accumulates raw bytes from the transport and carves them
// into Content-Length framed messages. Chunk boundaries carry no meaning:
// a message may arrive in many chunks and one chunk may carry several
// messages. After a completed message has been handled, Reset discards it
// and rescans any pipelined bytes that followed it.
type MessageBuffer struct {
	data     []byte
	headers  map[string]string
	body     []byte
	consumed int
	complete bool
	err      error
}

// NewMessageBuffer returns an empty buffer.
func NewMessageBuffer() *MessageBuffer {
	return &MessageBuffer{headers: map[string]string{}}
}

// HandleBytes appends a chunk and attempts to complete a message.
func (b *MessageBuffer) HandleBytes(chunk []byte) {
	b.data = append(b.data, chunk...)
	b.scan()
}

// Completed reports whether a full message (or an unparsable header block,
// see Message) is ready to be consumed.
func (b *MessageBuffer) Completed() bool {
	return b.complete
}

// Headers returns the parsed header block of the completed message.
func (b *MessageBuffer) Headers() map[string]string {
	return b.headers
}

// Body returns the raw body bytes of the completed message.
func (b *MessageBuffer) Body() []byte {
	return b.body
}

// Raw returns the full consumed frame, headers included, for logging.
func (b *MessageBuffer) Raw() []byte {
	return b.data[:b.consumed]
}

// Message decodes the completed body into the generic JSON-RPC envelope.
// A non-nil error means the frame was unparsable (bad headers, missing or
// non-numeric Content-Length, or a body that is not valid JSON); callers
// answer that with a parse error response rather than tearing down the
// session.
func (b *MessageBuffer) Message() (*Message, error) {
	if b.err != nil {
		return nil, b.err
	}
	var msg Message
	if err := json.Unmarshal(b.body, &msg); err != nil {
		return nil, fmt.Errorf("decode message body: %w", err)
	}
	return &msg, nil
}

// Reset discards the consumed message and rescans whatever pipelined bytes
// remain, so Completed may immediately report true again. Resetting an
// incomplete buffer drops everything.
func (b *MessageBuffer) Reset() {
	var rest []byte
	if b.complete && b.consumed < len(b.data) {
		rest = append(rest, b.data[b.consumed:]...)
	}
	b.data = rest
	b.headers = map[string]string{}
	b.body = nil
	b.consumed = 0
	b.complete = false
	b.err = nil
	b.scan()
}

// scan looks for a header/body separator and, once the declared number of
// body bytes has arrived, marks the message complete.
func (b *MessageBuffer) scan() {
	if b.complete {
		return
	}
	sep, sepLen := findSeparator(b.data)
	if sep < 0 {
		return
	}

	headers := parseHeaders(b.data[:sep])
	length, ok := contentLength(headers)
	if !ok {
		// Without a usable length the end of the body cannot be found;
		// swallow the buffered bytes and surface the frame as unparsable.
		b.headers = headers
		b.consumed = len(b.data)
		b.complete = true
		b.err = fmt.Errorf("frame without a usable Content-Length header")
		return
	}

	bodyStart := sep + sepLen
	if len(b.data)-bodyStart < length {
		return
	}
	b.headers = headers
	b.body = b.data[bodyStart : bodyStart+length]
	b.consumed = bodyStart + length
	b.complete = true
}

// findSeparator locates the blank line between headers and body, accepting
// both CRLF and bare LF conventions. Returns the separator offset and its
// length, or -1 when no separator has arrived yet.
func findSeparator(data []byte) (int, int) {
	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	lf := bytes.Index(data, []byte("\n\n"))
	switch {
	case crlf < 0 && lf < 0:
		return -1, 0
	case crlf < 0:
		return lf, 2
	case lf < 0 || crlf <= lf:
		return crlf, 4
	default:
		return lf, 2
	}
}

func parseHeaders(block []byte) map[string]string {
	headers := map[string]string{}
	for _, line := range strings.Split(string(block), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return headers
}

func contentLength(headers map[string]string) (int, bool) {
	for name, value := range headers {
		if !strings.EqualFold(name, "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
