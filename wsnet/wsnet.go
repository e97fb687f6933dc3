// Package wsnet runs a wsclient.Client over a net.Conn.
//
// Conn owns one read goroutine that feeds the Client and, in
// wsclient.ModeAsync, one writer goroutine that drains a FIFO of pending
// writes. Every call into the Client happens under a single mutex, so the
// Client sees one logical flow of events.
package wsnet

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"sync"

	"github.com/eapache/queue"
	"golang.org/x/time/rate"

	"nhooyr.io/wsclient"
	"nhooyr.io/wsclient/internal/errd"
)

// Options configures Dial and Handshake.
type Options struct {
	// Header is appended to the upgrade request before Hooks.Preparing runs.
	Header []wsclient.HeaderField

	// Mode selects synchronous writes or the queued writer goroutine.
	Mode wsclient.SendMode

	// Limiter, if set, is waited on before every write to the socket,
	// the upgrade request included.
	Limiter *rate.Limiter

	// Dialer is used to open the TCP connection. Defaults to &net.Dialer{}.
	Dialer *net.Dialer

	// TLSConfig is used for wss URLs. ServerName defaults to the URL host.
	TLSConfig *tls.Config

	// Logger defaults to discarding everything.
	Logger *slog.Logger

	// Hooks are passed through to the Client. They run on the read
	// goroutine and must not call methods on the Conn.
	Hooks wsclient.Hooks
}

func (opts *Options) ensure() *Options {
	if opts == nil {
		opts = &Options{}
	} else {
		o := *opts
		opts = &o
	}

	if opts.Dialer == nil {
		opts.Dialer = &net.Dialer{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}

// Dial connects to a ws or wss URL and performs the WebSocket handshake.
// It returns once the server's response has been verified, the handshake
// failed, or ctx expired.
func Dial(ctx context.Context, u string, opts *Options) (_ *Conn, _ *wsclient.Response, err error) {
	defer errd.Wrap(&err, "failed to websocket dial")

	opts = opts.ensure()

	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse url: %w", err)
	}

	var port string
	switch parsedURL.Scheme {
	case "ws":
		port = "80"
	case "wss":
		port = "443"
	default:
		return nil, nil, fmt.Errorf("unexpected url scheme: %q", parsedURL.Scheme)
	}
	if parsedURL.Port() != "" {
		port = parsedURL.Port()
	}
	addr := net.JoinHostPort(parsedURL.Hostname(), port)

	nc, err := opts.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	if parsedURL.Scheme == "wss" {
		cfg := &tls.Config{}
		if opts.TLSConfig != nil {
			cfg = opts.TLSConfig.Clone()
		}
		if cfg.ServerName == "" {
			cfg.ServerName = parsedURL.Hostname()
		}
		tc := tls.Client(nc, cfg)
		err = tc.HandshakeContext(ctx)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("failed to perform tls handshake: %w", err)
		}
		nc = tc
	}

	return handshake(ctx, nc, parsedURL.Host, parsedURL.RequestURI(), opts)
}

// Handshake performs the WebSocket handshake over an established nc.
// nc is closed if the handshake fails.
func Handshake(ctx context.Context, nc net.Conn, host, path string, opts *Options) (_ *Conn, _ *wsclient.Response, err error) {
	defer errd.Wrap(&err, "failed to websocket handshake")

	return handshake(ctx, nc, host, path, opts.ensure())
}

func handshake(ctx context.Context, nc net.Conn, host, path string, opts *Options) (*Conn, *wsclient.Response, error) {
	c := newConn(nc, opts)

	ready := make(chan *wsclient.Response, 1)
	failed := make(chan error, 1)

	user := opts.Hooks
	hooks := user
	hooks.Preparing = func(req *wsclient.Request) {
		for _, f := range opts.Header {
			req.Add(f.Name, f.Value)
		}
		if user.Preparing != nil {
			user.Preparing(req)
		}
	}
	hooks.Connected = func(resp *wsclient.Response) {
		if user.Connected != nil {
			user.Connected(resp)
		}
		ready <- resp
	}
	hooks.Error = func(err error) {
		if user.Error != nil {
			user.Error(err)
		}
		select {
		case failed <- err:
		default:
		}
	}

	c.client = wsclient.NewClient(transport{c}, &wsclient.Options{
		Host:   host,
		Path:   path,
		Mode:   opts.Mode,
		Logger: opts.Logger,
		Hooks:  hooks,
	})
	c.log = opts.Logger.With("conn", c.client.ID().String())

	if opts.Mode == wsclient.ModeAsync {
		go c.writeLoop()
	}

	// Closing the socket unblocks a write to a peer that is not reading
	// and cancels c.ctx, which ends any limiter wait.
	stop := context.AfterFunc(ctx, func() {
		c.close()
	})

	c.mu.Lock()
	c.client.OnConnected()
	c.mu.Unlock()

	go c.readLoop()

	select {
	case resp := <-ready:
		if !stop() {
			c.Close()
			return nil, nil, ctx.Err()
		}
		return c, resp, nil
	case err := <-failed:
		stop()
		c.Close()
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	case <-c.done:
		stop()
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		select {
		case err := <-failed:
			return nil, nil, err
		default:
		}
		return nil, nil, fmt.Errorf("connection closed during handshake: %w", c.readErr)
	case <-ctx.Done():
		c.Close()
		return nil, nil, ctx.Err()
	}
}

// Conn is a handshaked WebSocket connection over a net.Conn.
type Conn struct {
	nc      net.Conn
	log     *slog.Logger
	limiter *rate.Limiter

	// mu serializes every call into client.
	mu     sync.Mutex
	client *wsclient.Client

	wmu sync.Mutex

	qmu   sync.Mutex
	queue *queue.Queue
	wake  chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    chan struct{}

	// readErr is set before done is closed.
	readErr error
	done    chan struct{}
}

func newConn(nc net.Conn, opts *Options) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		nc:      nc,
		log:     opts.Logger,
		limiter: opts.Limiter,
		queue:   queue.New(),
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// ID returns the connection id the handshake key was derived from.
func (c *Conn) ID() string {
	return c.client.ID().String()
}

// Send writes one masked frame. In wsclient.ModeAsync it returns once the
// frame is queued.
func (c *Conn) Send(op wsclient.Opcode, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.client.Send(op, p)
}

// Done is closed once the connection has been torn down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close closes the underlying connection and waits for the read goroutine
// to report the disconnect. Queued writes that have not reached the socket
// are dropped.
func (c *Conn) Close() error {
	err := c.close()
	<-c.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *Conn) close() error {
	err := net.ErrClosed
	c.closeOnce.Do(func() {
		close(c.closed)
		c.cancel()
		err = c.nc.Close()
	})
	return err
}

func (c *Conn) readLoop() {
	defer close(c.done)

	b := make([]byte, 32<<10)
	for {
		n, err := c.nc.Read(b)
		if n > 0 {
			c.mu.Lock()
			c.client.OnReceived(b[:n])
			c.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.log.Debug("websocket read failed", "error", err)
			}
			c.readErr = err
			c.close()

			c.mu.Lock()
			c.client.OnDisconnected()
			c.mu.Unlock()
			return
		}
	}
}

// write waits on the limiter and writes p in full.
func (c *Conn) write(p []byte) error {
	if c.limiter != nil {
		err := c.limiter.Wait(c.ctx)
		if err != nil {
			return fmt.Errorf("failed to wait for send rate limiter: %w", err)
		}
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	_, err := c.nc.Write(p)
	return err
}

func (c *Conn) enqueue(p []byte) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}

	c.qmu.Lock()
	c.queue.Add(p)
	c.qmu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

func (c *Conn) dequeue() ([]byte, bool) {
	c.qmu.Lock()
	defer c.qmu.Unlock()

	if c.queue.Length() == 0 {
		return nil, false
	}
	return c.queue.Remove().([]byte), true
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case <-c.wake:
		}

		for {
			p, ok := c.dequeue()
			if !ok {
				break
			}
			err := c.write(p)
			if err != nil {
				c.log.Debug("queued websocket write failed", "error", err)
				c.close()
				return
			}
		}
	}
}

// transport adapts Conn to wsclient.Transport without exposing raw writes
// on Conn itself.
type transport struct {
	c *Conn
}

func (t transport) Send(p []byte) error {
	return t.c.write(p)
}

func (t transport) SendAsync(p []byte) error {
	return t.c.enqueue(p)
}

func (t transport) CloseAsync() {
	go t.c.close()
}
