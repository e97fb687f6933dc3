package wsclient

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"

	"github.com/google/uuid"
)

var keyGUID = []byte("258EAFA5-E914-47DA-95CA-C5AB0DC85B11")

// secWebSocketKey returns the Sec-WebSocket-Key derived from a connection id.
// The id's 16 raw bytes make the nonce RFC 6455 asks for.
func secWebSocketKey(id uuid.UUID) string {
	return base64.StdEncoding.EncodeToString(id[:])
}

// acceptDigest returns the SHA-1 digest a server must send back,
// base64 encoded, for the given Sec-WebSocket-Key.
// See https://tools.ietf.org/html/rfc6455#section-4.2.2
func acceptDigest(secWebSocketKey string) [sha1.Size]byte {
	h := sha1.New()
	h.Write([]byte(secWebSocketKey))
	h.Write(keyGUID)

	var sum [sha1.Size]byte
	h.Sum(sum[:0])
	return sum
}

// secWebSocketAccept returns the expected Sec-WebSocket-Accept header value.
func secWebSocketAccept(secWebSocketKey string) string {
	sum := acceptDigest(secWebSocketKey)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// validAccept reports whether value decodes to exactly the digest
// expected for key. A value that does not decode, or decodes to
// anything other than 20 matching bytes, is invalid.
func validAccept(key, value string) bool {
	got, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return false
	}
	exp := acceptDigest(key)
	return subtle.ConstantTimeCompare(got, exp[:]) == 1
}
