package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"golang.org/x/time/rate"

	"nhooyr.io/wsclient"
	"nhooyr.io/wsclient/wsnet"
)

// run dials cfg.URL, prints the handshake response to out and sends every
// message. Server frames are printed as they arrive until cfg.Wait passes
// without one, cfg.Expect frames were printed, or the server hangs up.
func run(ctx context.Context, cfg config, in io.Reader, out io.Writer, log *slog.Logger) error {
	header, err := cfg.headerFields()
	if err != nil {
		return err
	}

	w := &syncWriter{w: out}
	p := newPrinter(w)
	defer p.close()

	opts := &wsnet.Options{
		Header: header,
		Mode:   cfg.mode(),
		Logger: log,
		Hooks: wsclient.Hooks{
			Received: p.received,
		},
	}
	if cfg.Rate > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	c, resp, err := wsnet.Dial(ctx, cfg.URL, opts)
	if err != nil {
		var herr *wsclient.HandshakeError
		if errors.As(err, &herr) && herr.Response != nil {
			printResponse(w, herr.Response)
		}
		return err
	}
	printResponse(w, resp)
	defer func() {
		// Unblocks a Received hook stuck on a frame nobody will print.
		p.close()
		c.Close()
	}()

	op := cfg.opcode()
	send := func(msg string) error {
		err := c.Send(op, []byte(msg))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "> %v %s\n", op, msg)
		return nil
	}

	if len(cfg.Messages) > 0 {
		for _, msg := range cfg.Messages {
			err = send(msg)
			if err != nil {
				return err
			}
		}
	} else {
		s := bufio.NewScanner(in)
		for s.Scan() {
			err = send(s.Text())
			if err != nil {
				return err
			}
		}
		err = s.Err()
		if err != nil {
			return fmt.Errorf("failed to read messages: %w", err)
		}
	}

	return p.wait(ctx, c.Done(), cfg.Wait, cfg.Expect)
}

func printResponse(w io.Writer, resp *wsclient.Response) {
	fmt.Fprintln(w, resp.String())
	for _, f := range resp.Header {
		fmt.Fprintf(w, "%s: %s\n", f.Name, f.Value)
	}
	fmt.Fprintln(w)
}

// printer decodes the raw server bytes handed to Hooks.Received.
type printer struct {
	w  io.Writer
	pr *io.PipeReader
	pw *io.PipeWriter

	mu     sync.Mutex
	frames int
	frame  chan struct{}
	done   chan struct{}
}

func newPrinter(w io.Writer) *printer {
	pr, pw := io.Pipe()
	p := &printer{
		w:     w,
		pr:    pr,
		pw:    pw,
		frame: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *printer) received(b []byte) {
	// Fails once the printer is closed and the bytes are dropped.
	_, _ = p.pw.Write(b)
}

func (p *printer) loop() {
	defer close(p.done)

	for {
		f, err := ws.ReadFrame(p.pr)
		if err != nil {
			return
		}
		if f.Header.Masked {
			ws.Cipher(f.Payload, f.Header.Mask, 0)
		}
		printFrame(p.w, f)

		p.mu.Lock()
		p.frames++
		p.mu.Unlock()
		select {
		case p.frame <- struct{}{}:
		default:
		}
	}
}

func (p *printer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// wait returns once idle passes without a frame, expect frames (if
// positive) have been printed, done is closed or ctx is done.
func (p *printer) wait(ctx context.Context, done <-chan struct{}, idle time.Duration, expect int) error {
	t := time.NewTimer(idle)
	defer t.Stop()

	for {
		if expect > 0 && p.count() >= expect {
			return nil
		}
		select {
		case <-p.frame:
			if !t.Stop() {
				<-t.C
			}
			t.Reset(idle)
		case <-t.C:
			return nil
		case <-done:
			return nil
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		}
	}
}

func (p *printer) close() {
	p.pr.Close()
	<-p.done
}

func printFrame(w io.Writer, f ws.Frame) {
	op := wsclient.Opcode(f.Header.OpCode)
	if f.Header.Fin {
		op |= wsclient.Fin
	}

	switch f.Header.OpCode {
	case ws.OpText:
		fmt.Fprintf(w, "< %v %s\n", op, f.Payload)
	case ws.OpClose:
		code, reason := ws.ParseCloseFrameData(f.Payload)
		fmt.Fprintf(w, "< %v %d %s\n", op, code, reason)
	default:
		fmt.Fprintf(w, "< %v %x\n", op, f.Payload)
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
