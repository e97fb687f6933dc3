package wsclient

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gobwas/httphead"

	"nhooyr.io/wsclient/internal/bpool"
	"nhooyr.io/wsclient/internal/errd"
)

// maxResponseHeaderSize bounds how much of the upgrade response is buffered
// while waiting for the end of the header block.
const maxResponseHeaderSize = 8 << 10

var headerEnd = []byte("\r\n\r\n")

// responseParser buffers the upgrade response until its header block is
// complete. A 101 response has no body so anything after the blank line
// belongs to the WebSocket stream.
type responseParser struct {
	buf *bytes.Buffer
}

// feed appends p and, once the header block is complete, returns the parsed
// response and the bytes that followed it. Until then it returns a nil
// response and no error.
func (p *responseParser) feed(b []byte) (*Response, []byte, error) {
	if p.buf == nil {
		p.buf = bpool.Get()
	}
	p.buf.Write(b)

	i := bytes.Index(p.buf.Bytes(), headerEnd)
	if i == -1 {
		if p.buf.Len() > maxResponseHeaderSize {
			return nil, nil, fmt.Errorf("%w: header block exceeds %v bytes", ErrMalformedResponse, maxResponseHeaderSize)
		}
		return nil, nil, nil
	}

	if i > maxResponseHeaderSize {
		return nil, nil, fmt.Errorf("%w: header block exceeds %v bytes", ErrMalformedResponse, maxResponseHeaderSize)
	}

	head := p.buf.Bytes()[:i+len(headerEnd)]
	rest := append([]byte(nil), p.buf.Bytes()[len(head):]...)

	resp, err := parseResponse(head)
	if err != nil {
		return nil, nil, err
	}
	p.reset()
	return resp, rest, nil
}

func (p *responseParser) reset() {
	if p.buf != nil {
		bpool.Put(p.buf)
		p.buf = nil
	}
}

func parseResponse(head []byte) (_ *Response, err error) {
	defer errd.Wrap(&err, "failed to parse handshake response")

	br := bufio.NewReader(bytes.NewReader(head))

	line, err := httphead.ReadLine(br)
	if err != nil {
		return nil, err
	}
	rl, ok := httphead.ParseResponseLine(line)
	if !ok {
		// The reason phrase may be omitted entirely.
		rl, ok = httphead.ParseResponseLine(append(line[:len(line):len(line)], ' '))
	}
	if !ok {
		return nil, fmt.Errorf("%w: bad status line %q", ErrMalformedResponse, line)
	}

	resp := &Response{
		Major:      rl.Version.Major,
		Minor:      rl.Version.Minor,
		StatusCode: rl.Status,
		Reason:     string(rl.Reason),
	}

	for {
		line, err := httphead.ReadLine(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: unterminated header block", ErrMalformedResponse)
			}
			return nil, err
		}
		if len(line) == 0 {
			return resp, nil
		}

		k, v, ok := httphead.ParseHeaderLine(line)
		if !ok {
			return nil, fmt.Errorf("%w: bad header line %q", ErrMalformedResponse, line)
		}
		resp.Header = append(resp.Header, HeaderField{
			Name:  string(k),
			Value: string(v),
		})
	}
}
