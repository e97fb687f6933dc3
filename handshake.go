package wsclient

import (
	"errors"
	"fmt"
	"net/http"
)

// OnConnected sends the upgrade request. The transport calls it once the
// byte stream is established.
//
// The request carries the upgrade headers and a Sec-WebSocket-Key derived
// from the connection id. Hooks.Preparing runs after they are set and may
// add to them. The response is verified against the id derived key, so
// overriding Sec-WebSocket-Key fails the handshake. The body is always
// emptied before sending.
func (c *Client) OnConnected() {
	if c.state != StateIdle {
		c.log.Debug("ignoring connect", "state", c.state)
		return
	}

	c.req = Request{
		Method: http.MethodGet,
		URI:    c.opts.Path,
	}
	if c.opts.Host != "" {
		c.req.Set("Host", c.opts.Host)
	}
	c.req.Set("Upgrade", "websocket")
	c.req.Set("Connection", "Upgrade")
	c.req.Set("Sec-WebSocket-Key", secWebSocketKey(c.opts.ID))
	c.req.Set("Sec-WebSocket-Version", "13")

	if c.hooks.Preparing != nil {
		c.hooks.Preparing(&c.req)
	}
	c.req.SetEmptyBody()

	c.state = StateAwaitingResponse
	c.log.Debug("sending websocket upgrade request", "uri", c.req.URI, "mode", c.opts.Mode)

	err := c.transmit(c.req.Bytes())
	if err != nil {
		c.fail(fmt.Errorf("failed to send handshake request: %w", err))
	}
}

// OnDisconnected resets the Client to StateIdle. If the handshake had
// completed, Hooks.Disconnected fires once. It is safe to call in any
// state and more than once.
func (c *Client) OnDisconnected() {
	handshaked := c.state == StateHandshaked

	c.state = StateIdle
	c.req.reset()
	c.parser.reset()
	c.mask = Mask{}

	if handshaked {
		c.log.Debug("websocket session ended")
		if c.hooks.Disconnected != nil {
			c.hooks.Disconnected()
		}
	}
}

// OnReceived accepts bytes from the transport. While the handshake is in
// progress they are parsed as the upgrade response. Afterwards they are
// passed to Hooks.Received.
func (c *Client) OnReceived(p []byte) {
	switch c.state {
	case StateHandshaked:
		c.received(p)
	case StateAwaitingResponse:
		resp, rest, err := c.parser.feed(p)
		if err != nil {
			c.fail(&HandshakeError{Err: err})
			return
		}
		if resp == nil {
			return
		}
		c.OnResponse(resp)
		if c.state == StateHandshaked && len(rest) > 0 {
			c.received(rest)
		}
	}
}

func (c *Client) received(p []byte) {
	if c.hooks.Received != nil {
		c.hooks.Received(p)
	}
}

// OnResponse verifies the server's upgrade response.
// See https://tools.ietf.org/html/rfc6455#section-4.1
//
// It is a no-op unless the Client is waiting for a response. On success
// the Client is handshaked, the frame mask is generated and
// Hooks.Connected fires. On failure Hooks.Error fires once and the
// transport is closed asynchronously.
func (c *Client) OnResponse(resp *Response) {
	if c.state != StateAwaitingResponse {
		return
	}

	err := c.verifyResponse(resp)
	if err != nil {
		c.fail(err)
		return
	}

	c.mask, err = newMask(c.opts.Rand)
	if err != nil {
		c.fail(fmt.Errorf("failed to generate frame mask: %w", err))
		return
	}

	c.state = StateHandshaked
	c.log.Debug("websocket handshake complete", "status", resp.StatusCode)
	if c.hooks.Connected != nil {
		c.hooks.Connected(resp)
	}
}

// verifyResponse checks the status and scans every header once. Unknown
// headers are allowed; Connection, Upgrade and Sec-WebSocket-Accept must
// all be present and valid.
func (c *Client) verifyResponse(resp *Response) error {
	if resp.StatusCode != http.StatusSwitchingProtocols {
		return &HandshakeError{
			StatusCode: resp.StatusCode,
			Response:   resp,
			Err:        ErrUnexpectedStatus,
		}
	}

	var connection, upgrade, accept bool
	for _, f := range resp.Header {
		var err error
		switch f.Name {
		case "Connection":
			connection = f.Value == "Upgrade"
			if !connection {
				err = ErrInvalidConnection
			}
		case "Upgrade":
			upgrade = f.Value == "websocket"
			if !upgrade {
				err = ErrInvalidUpgrade
			}
		case "Sec-WebSocket-Accept":
			accept = validAccept(secWebSocketKey(c.opts.ID), f.Value)
			if !accept {
				err = ErrInvalidAccept
			}
		}
		if err != nil {
			return &HandshakeError{
				StatusCode: resp.StatusCode,
				Response:   resp,
				Header:     f.Name,
				Value:      f.Value,
				Err:        err,
			}
		}
	}

	if !connection || !upgrade || !accept {
		return &HandshakeError{
			StatusCode: resp.StatusCode,
			Response:   resp,
			Err:        ErrInvalidResponse,
		}
	}
	return nil
}

// fail reports err once and closes the transport. There is no retry.
func (c *Client) fail(err error) {
	c.state = StateFailed
	c.parser.reset()

	var herr *HandshakeError
	if errors.As(err, &herr) {
		c.log.Warn("websocket handshake rejected", "error", err)
	} else {
		c.log.Warn("websocket handshake failed", "error", err)
	}

	if c.hooks.Error != nil {
		c.hooks.Error(err)
	}
	c.t.CloseAsync()
}
