package wsclient

import (
	"testing"

	"nhooyr.io/wsclient/internal/test/assert"
)

func TestRequestHeaders(t *testing.T) {
	t.Parallel()

	var r Request
	r.Add("Cookie", "a=1")
	r.Add("X-Trace", "1")
	r.Add("Cookie", "b=2")

	r.Set("Cookie", "c=3")
	assert.Equal(t, "header", []HeaderField{
		{Name: "Cookie", Value: "c=3"},
		{Name: "X-Trace", Value: "1"},
	}, r.Header)

	r.Set("cookie", "lower")
	assert.Equal(t, "case sensitive", "c=3", r.Get("Cookie"))
	assert.Equal(t, "lower", "lower", r.Get("cookie"))

	r.Del("X-Trace")
	assert.Equal(t, "deleted", "", r.Get("X-Trace"))
	assert.Equal(t, "len", 2, len(r.Header))
}

func TestRequestBytes(t *testing.T) {
	t.Parallel()

	r := Request{
		Method: "GET",
		URI:    "/",
		Body:   []byte("hi"),
	}
	r.Add("Host", "example.com")
	assert.Equal(t, "with body", "GET / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 2\r\n\r\nhi", string(r.Bytes()))

	r.Add("Content-Length", "2")
	r.SetEmptyBody()
	assert.Equal(t, "empty body", "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n", string(r.Bytes()))
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		var p responseParser
		resp, rest, err := p.feed([]byte("HTTP/1.1 101 Switching Protocols\r\n" +
			"Upgrade: websocket\r\n" +
			"Sec-WebSocket-Accept:   abc=  \r\n" +
			"Connection: Upgrade\r\n" +
			"\r\n" +
			"tail"))
		assert.Success(t, err)
		assert.Equal(t, "response", &Response{
			Major:      1,
			Minor:      1,
			StatusCode: 101,
			Reason:     "Switching Protocols",
			Header: []HeaderField{
				{Name: "Upgrade", Value: "websocket"},
				{Name: "Sec-WebSocket-Accept", Value: "abc="},
				{Name: "Connection", Value: "Upgrade"},
			},
		}, resp)
		assert.Equal(t, "rest", []byte("tail"), rest)
		assert.Equal(t, "buffer released", true, p.buf == nil)
		assert.Equal(t, "status line", "HTTP/1.1 101 Switching Protocols", resp.String())
	})

	t.Run("partial", func(t *testing.T) {
		t.Parallel()

		var p responseParser
		resp, _, err := p.feed([]byte("HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n"))
		assert.Success(t, err)
		assert.Equal(t, "response", (*Response)(nil), resp)

		resp, rest, err := p.feed([]byte("\r\n"))
		assert.Success(t, err)
		assert.Equal(t, "status", 404, resp.StatusCode)
		assert.Equal(t, "content length", "0", resp.Get("Content-Length"))
		assert.Equal(t, "rest", 0, len(rest))
	})

	t.Run("badHeader", func(t *testing.T) {
		t.Parallel()

		var p responseParser
		_, _, err := p.feed([]byte("HTTP/1.1 101 Switching Protocols\r\nno colon here\r\n\r\n"))
		assert.ErrorIs(t, ErrMalformedResponse, err)
		assert.Contains(t, err, "failed to parse handshake response")
	})

	t.Run("badStatus", func(t *testing.T) {
		t.Parallel()

		var p responseParser
		_, _, err := p.feed([]byte("HTTP/1.1 abc OK\r\n\r\n"))
		assert.ErrorIs(t, ErrMalformedResponse, err)
	})
}

func TestParseResponseNoReason(t *testing.T) {
	t.Parallel()

	var p responseParser
	resp, _, err := p.feed([]byte("HTTP/1.1 101\r\nUpgrade: websocket\r\n\r\n"))
	assert.Success(t, err)
	assert.Equal(t, "status", 101, resp.StatusCode)
	assert.Equal(t, "reason", "", resp.Reason)
}
