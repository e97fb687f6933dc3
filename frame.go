package wsclient

import (
	"encoding/binary"
	"math"
)

// maskBit is set in the second header byte of every client frame.
const maskBit = 1 << 7

// maxShortPayload is the largest payload length that fits in the
// first length byte.
// See https://tools.ietf.org/html/rfc6455#section-5.2.
const maxShortPayload = 125

// frameHeaderLen returns the length of the opcode byte plus the length
// field for a payload of n bytes. The 4 byte mask is not included.
func frameHeaderLen(n int64) int {
	switch {
	case n <= maxShortPayload:
		return 1 + 1
	case n <= math.MaxUint16:
		return 1 + 3
	default:
		return 1 + 9
	}
}

// appendFrameHeader appends the opcode byte and the masked length field
// for a payload of n bytes to b.
//
// The extended 64 bit length is written in full so payloads past 4 GiB
// are encoded correctly.
func appendFrameHeader(b []byte, op Opcode, n int64) []byte {
	b = append(b, byte(op))

	switch {
	case n <= maxShortPayload:
		b = append(b, byte(n)|maskBit)
	case n <= math.MaxUint16:
		b = append(b, 126|maskBit)
		b = binary.BigEndian.AppendUint16(b, uint16(n))
	default:
		b = append(b, 127|maskBit)
		b = binary.BigEndian.AppendUint64(b, uint64(n))
	}
	return b
}

// appendFrame appends one complete masked frame carrying p to b.
// p is not modified.
func appendFrame(b []byte, op Opcode, key Mask, p []byte) []byte {
	b = appendFrameHeader(b, op, int64(len(p)))
	b = append(b, key[:]...)

	off := len(b)
	b = append(b, p...)
	mask(key, 0, b[off:])
	return b
}

// EncodeFrame returns a new buffer holding one masked frame with the
// given first byte and payload.
//
// op is written verbatim so the caller sets Fin and any RSV bits.
// There is no fragmentation; a multi frame message is a sequence of
// EncodeFrame calls.
//
// EncodeFrame panics if the handshake has not completed.
func (c *Client) EncodeFrame(op Opcode, p []byte) []byte {
	if c.state != StateHandshaked {
		panic("wsclient: EncodeFrame called before the handshake completed")
	}

	n := int64(len(p))
	b := make([]byte, 0, frameHeaderLen(n)+len(c.mask)+len(p))
	return appendFrame(b, op, c.mask, p)
}
