package wstest

import (
	"errors"
	"time"

	"github.com/gobwas/ws"
)

// Stream collects the bytes passed to Hooks.Received so server frames can
// be decoded with gobwas/ws.
type Stream struct {
	ch      chan []byte
	buf     []byte
	timeout time.Duration
}

// NewStream returns a Stream whose reads give up after timeout.
func NewStream(timeout time.Duration) *Stream {
	return &Stream{
		ch:      make(chan []byte, 4096),
		timeout: timeout,
	}
}

// Received is meant to be used as Hooks.Received.
func (s *Stream) Received(p []byte) {
	s.ch <- append([]byte(nil), p...)
}

var errTimeout = errors.New("timed out waiting for server bytes")

func (s *Stream) Read(p []byte) (int, error) {
	if len(s.buf) == 0 {
		select {
		case s.buf = <-s.ch:
		case <-time.After(s.timeout):
			return 0, errTimeout
		}
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// ReadFrame reads one server frame and unmasks it if needed.
func (s *Stream) ReadFrame() (ws.Frame, error) {
	f, err := ws.ReadFrame(s)
	if err != nil {
		return ws.Frame{}, err
	}
	if f.Header.Masked {
		f = ws.UnmaskFrameInPlace(f)
	}
	return f, nil
}
