// Package wsclient implements the client side of the WebSocket opening
// handshake and client frame encoding.
//
// See https://tools.ietf.org/html/rfc6455
//
// A Client does no I/O of its own. It is driven by a byte stream Transport
// through OnConnected, OnReceived and OnDisconnected, and it writes through
// the same Transport. Once the server's upgrade response has been verified,
// EncodeFrame and Send produce masked frames ready for the wire.
//
// Package wsnet provides a Transport over a net.Conn along with Dial.
// Frame decoding is not provided; bytes that arrive after the handshake
// are handed to Hooks.Received untouched.
package wsclient
