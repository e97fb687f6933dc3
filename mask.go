package wsclient

import (
	"encoding/binary"
	"io"
)

// Mask is the 4 byte key a client XORs over every frame payload.
// See https://tools.ietf.org/html/rfc6455#section-5.3
type Mask [4]byte

// newMask reads a fresh key from r.
func newMask(r io.Reader) (Mask, error) {
	var m Mask
	_, err := io.ReadFull(r, m[:])
	return m, err
}

// mask applies the WebSocket masking algorithm to b in place
// with the given key where the first 2 bits of pos
// are the starting position in the key.
//
// The returned value is the position of the next byte
// to be used for masking in the key. Masking twice with the
// same key and position restores b.
func mask(key Mask, pos int, b []byte) int {
	// If the payload is at least 16 bytes, then it's worth
	// masking 8 bytes at a time.
	// Optimization from https://github.com/golang/go/issues/31586#issuecomment-485530859
	if len(b) >= 16 {
		// We first create a key that is 8 bytes long
		// and is aligned on the position correctly.
		var alignedKey [8]byte
		for i := range alignedKey {
			alignedKey[i] = key[(i+pos)&3]
		}
		k := binary.LittleEndian.Uint64(alignedKey[:])

		for len(b) >= 32 {
			v := binary.LittleEndian.Uint64(b)
			binary.LittleEndian.PutUint64(b, v^k)
			v = binary.LittleEndian.Uint64(b[8:])
			binary.LittleEndian.PutUint64(b[8:], v^k)
			v = binary.LittleEndian.Uint64(b[16:])
			binary.LittleEndian.PutUint64(b[16:], v^k)
			v = binary.LittleEndian.Uint64(b[24:])
			binary.LittleEndian.PutUint64(b[24:], v^k)
			b = b[32:]
		}

		for len(b) >= 8 {
			v := binary.LittleEndian.Uint64(b)
			binary.LittleEndian.PutUint64(b, v^k)
			b = b[8:]
		}
	}

	// xor remaining bytes.
	for i := range b {
		b[i] ^= key[pos&3]
		pos++
	}

	return pos & 3
}
