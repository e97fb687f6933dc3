package wsclient

import (
	"errors"
	"fmt"
)

// Handshake failures. A *HandshakeError passed to Hooks.Error wraps
// exactly one of these so callers can use errors.Is.
var (
	ErrUnexpectedStatus  = errors.New("unexpected handshake response status")
	ErrInvalidConnection = errors.New("'Connection' header value must be 'Upgrade'")
	ErrInvalidUpgrade    = errors.New("'Upgrade' header value must be 'websocket'")
	ErrInvalidAccept     = errors.New("'Sec-WebSocket-Accept' value validation failed")
	ErrInvalidResponse   = errors.New("invalid handshake response")
	ErrMalformedResponse = errors.New("malformed handshake response")
)

// ErrNotHandshaked is returned by Send before the handshake completes.
var ErrNotHandshaked = errors.New("websocket handshake has not completed")

// HandshakeError describes why the server's upgrade response was rejected.
type HandshakeError struct {
	// StatusCode is the status of the rejected response, 0 if it could not be parsed.
	StatusCode int
	// Header and Value name the offending header, if any.
	Header string
	Value  string

	// Response is the rejected response, nil if it could not be parsed.
	Response *Response

	Err error
}

func (e *HandshakeError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnexpectedStatus):
		return fmt.Sprintf("websocket protocol violation: expected handshake response status code 101 but got %v", e.StatusCode)
	case e.Header != "":
		return fmt.Sprintf("websocket protocol violation: %v: got %q", e.Err, e.Value)
	default:
		return fmt.Sprintf("websocket protocol violation: %v", e.Err)
	}
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}
