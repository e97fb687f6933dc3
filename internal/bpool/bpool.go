// Package bpool pools the scratch buffers used while serializing
// handshake requests, buffering handshake responses and encoding
// JSON payloads.
package bpool

import (
	"bytes"
	"sync"
)

// maxRetained is the largest capacity a buffer may have and still be
// returned to the pool.
const maxRetained = 64 << 10

var bpool sync.Pool

// Get returns a buffer from the pool or creates a new one if
// the pool is empty.
func Get() *bytes.Buffer {
	b, ok := bpool.Get().(*bytes.Buffer)
	if !ok {
		b = &bytes.Buffer{}
	}
	return b
}

// Put returns a buffer into the pool.
// Buffers that grew past maxRetained are dropped.
func Put(b *bytes.Buffer) {
	if b.Cap() > maxRetained {
		return
	}
	b.Reset()
	bpool.Put(b)
}
