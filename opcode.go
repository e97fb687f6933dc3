package wsclient

import (
	"fmt"
)

// Opcode is the first byte of a WebSocket frame: the opcode in the low
// four bits together with the FIN and RSV flags.
// See https://tools.ietf.org/html/rfc6455#section-5.2
type Opcode byte

// https://tools.ietf.org/html/rfc6455#section-11.8.
const (
	OpContinuation Opcode = iota
	OpText
	OpBinary
	// 3 - 7 are reserved for further non-control frames.
	_
	_
	_
	_
	_
	OpClose
	OpPing
	OpPong
	// 11-16 are reserved for further control frames.
)

// Fin marks the final fragment of a message.
// Most callers send Fin|OpText or Fin|OpBinary.
const Fin Opcode = 1 << 7

// Kind returns the opcode with the FIN and RSV bits cleared.
func (op Opcode) Kind() Opcode {
	return op & 0xf
}

// Control reports whether op is a close, ping or pong frame.
func (op Opcode) Control() bool {
	switch op.Kind() {
	case OpClose, OpPing, OpPong:
		return true
	}
	return false
}

func (op Opcode) String() string {
	var s string
	switch op.Kind() {
	case OpContinuation:
		s = "continuation"
	case OpText:
		s = "text"
	case OpBinary:
		s = "binary"
	case OpClose:
		s = "close"
	case OpPing:
		s = "ping"
	case OpPong:
		s = "pong"
	default:
		s = fmt.Sprintf("opcode(%d)", int(op.Kind()))
	}
	if op&Fin != 0 {
		s += "+fin"
	}
	return s
}
