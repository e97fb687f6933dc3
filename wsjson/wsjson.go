// Package wsjson sends JSON values as WebSocket text frames.
package wsjson

import (
	"encoding/json"
	"fmt"

	"nhooyr.io/wsclient"
	"nhooyr.io/wsclient/internal/bpool"
	"nhooyr.io/wsclient/internal/errd"
)

// Sender is implemented by *wsclient.Client and *wsnet.Conn.
type Sender interface {
	Send(op wsclient.Opcode, p []byte) error
}

// Send encodes v as JSON and sends it as one final text frame.
func Send(s Sender, v interface{}) (err error) {
	defer errd.Wrap(&err, "failed to write json")

	b := bpool.Get()
	defer bpool.Put(b)

	err = json.NewEncoder(b).Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	// The frame is built from a copy so b can go back to the pool.
	return s.Send(wsclient.Fin|wsclient.OpText, b.Bytes())
}
