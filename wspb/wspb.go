// Package wspb sends protobuf messages as WebSocket binary frames.
package wspb

import (
	"fmt"

	"github.com/golang/protobuf/proto"

	"nhooyr.io/wsclient"
	"nhooyr.io/wsclient/internal/errd"
)

// Sender is implemented by *wsclient.Client and *wsnet.Conn.
type Sender interface {
	Send(op wsclient.Opcode, p []byte) error
}

// Send marshals m and sends it as one final binary frame.
func Send(s Sender, m proto.Message) (err error) {
	defer errd.Wrap(&err, "failed to write protobuf")

	b, err := proto.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal protobuf: %w", err)
	}
	return s.Send(wsclient.Fin|wsclient.OpBinary, b)
}
