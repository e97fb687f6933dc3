package wsclient

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	mathrand "math/rand"
	"time"

	"github.com/google/uuid"
)

// Transport is the byte stream a Client negotiates and sends frames over.
//
// The transport drives the Client by calling OnConnected, OnReceived and
// OnDisconnected from a single logical flow and delivers bytes in order.
type Transport interface {
	// Send hands p to the OS and returns once it has been written.
	Send(p []byte) error
	// SendAsync queues p for writing and returns immediately.
	// The transport owns p afterwards.
	SendAsync(p []byte) error
	// CloseAsync starts tearing down the connection. The transport
	// reports completion through OnDisconnected.
	CloseAsync()
}

// SendMode selects which Transport method a Client writes with.
type SendMode int

// SendMode constants.
const (
	// ModeSync writes with Transport.Send.
	ModeSync SendMode = iota
	// ModeAsync writes with Transport.SendAsync.
	ModeAsync
)

func (m SendMode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeAsync:
		return "async"
	}
	return fmt.Sprintf("SendMode(%d)", int(m))
}

// Hooks are the callbacks a Client invokes on the transport's flow.
// Every field is optional.
type Hooks struct {
	// Preparing may edit the upgrade request before it is sent,
	// for example to set the path or add Origin and cookies.
	Preparing func(req *Request)
	// Connected is called once the server's response has been verified.
	Connected func(resp *Response)
	// Disconnected is called when a handshaked connection goes away.
	Disconnected func()
	// Error receives handshake and transmit failures. It is called at
	// most once per failure and never on success.
	Error func(err error)
	// Received gets every byte that arrives after the upgrade response.
	// p is only valid for the duration of the call.
	Received func(p []byte)
}

// Options configures a Client.
type Options struct {
	// ID is the connection id the handshake key is derived from.
	// Defaults to a random UUID.
	ID uuid.UUID

	// Host is sent as the Host header when non empty.
	Host string

	// Path is the request URI. Defaults to "/".
	Path string

	// Mode selects synchronous or queued writes. Defaults to ModeSync.
	Mode SendMode

	// Rand is the source of the frame mask. Defaults to a generator
	// owned by the Client and seeded from crypto/rand.
	Rand io.Reader

	// Logger defaults to discarding everything.
	Logger *slog.Logger

	Hooks Hooks
}

func (opts *Options) ensure() *Options {
	if opts == nil {
		opts = &Options{}
	} else {
		o := *opts
		opts = &o
	}

	if opts.ID == uuid.Nil {
		opts.ID = uuid.New()
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.Rand == nil {
		opts.Rand = newMaskSource()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}

// newMaskSource returns a generator private to one connection so that
// masks are independent across connections.
func newMaskSource() io.Reader {
	var seed [8]byte
	_, err := cryptorand.Read(seed[:])
	if err != nil {
		binary.LittleEndian.PutUint64(seed[:], uint64(time.Now().UnixNano()))
	}
	return mathrand.New(mathrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}

// State is the handshake state of a Client.
type State int

// State constants.
const (
	StateIdle State = iota
	StateAwaitingResponse
	StateHandshaked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting-response"
	case StateHandshaked:
		return "handshaked"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Client is the client half of one WebSocket connection.
//
// A Client is not safe for concurrent use. It never blocks and never
// starts goroutines; all I/O goes through its Transport.
type Client struct {
	t     Transport
	opts  *Options
	log   *slog.Logger
	hooks Hooks

	state  State
	req    Request
	parser responseParser
	mask   Mask
}

// NewClient returns a Client in StateIdle that writes to t.
func NewClient(t Transport, opts *Options) *Client {
	opts = opts.ensure()
	return &Client{
		t:     t,
		opts:  opts,
		log:   opts.Logger.With("conn", opts.ID.String()),
		hooks: opts.Hooks,
	}
}

// ID returns the connection id.
func (c *Client) ID() uuid.UUID {
	return c.opts.ID
}

// State returns the current handshake state.
func (c *Client) State() State {
	return c.state
}

// Handshaked reports whether the server's upgrade response has been verified.
func (c *Client) Handshaked() bool {
	return c.state == StateHandshaked
}

// Send encodes one masked frame and writes it with the configured SendMode.
func (c *Client) Send(op Opcode, p []byte) error {
	if c.state != StateHandshaked {
		return ErrNotHandshaked
	}
	err := c.transmit(c.EncodeFrame(op, p))
	if err != nil {
		return fmt.Errorf("failed to send %v frame: %w", op, err)
	}
	return nil
}

func (c *Client) transmit(p []byte) error {
	if c.opts.Mode == ModeAsync {
		return c.t.SendAsync(p)
	}
	return c.t.Send(p)
}
