package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"nhooyr.io/wsclient/internal/test/assert"
	"nhooyr.io/wsclient/internal/test/wstest"
)

func TestRun(t *testing.T) {
	t.Parallel()

	s, u := wstest.NewServer()
	t.Cleanup(s.Close)

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("messages", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := defaultConfig()
		cfg.URL = u
		cfg.Headers = []string{"Origin: " + s.URL}
		cfg.Messages = []string{"hello", "world"}
		cfg.Expect = 2
		cfg.Wait = 5 * time.Second

		var out bytes.Buffer
		err := run(ctx, cfg, strings.NewReader(""), &out, discard)
		assert.Success(t, err)

		got := out.String()
		assert.Contains(t, got, "HTTP/1.1 101 Switching Protocols\n")
		assert.Contains(t, got, "Upgrade: websocket\n")
		assert.Contains(t, got, "> text+fin hello\n")
		assert.Contains(t, got, "< text+fin hello\n")
		assert.Contains(t, got, "< text+fin world\n")
	})

	t.Run("stdinBinaryAsync", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := defaultConfig()
		cfg.URL = u
		cfg.Binary = true
		cfg.Async = true
		cfg.Rate = 100
		cfg.Expect = 2
		cfg.Wait = 5 * time.Second

		var out bytes.Buffer
		err := run(ctx, cfg, strings.NewReader("ab\ncd\n"), &out, discard)
		assert.Success(t, err)

		got := out.String()
		assert.Contains(t, got, "< binary+fin 6162\n")
		assert.Contains(t, got, "< binary+fin 6364\n")
	})

	t.Run("idle", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := defaultConfig()
		cfg.URL = u
		cfg.Wait = 50 * time.Millisecond

		var out bytes.Buffer
		err := run(ctx, cfg, strings.NewReader(""), &out, discard)
		assert.Success(t, err)
		assert.Contains(t, out.String(), "HTTP/1.1 101")
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := defaultConfig()
		cfg.URL = wstest.URL(s) + "/status/404"

		var out bytes.Buffer
		err := run(ctx, cfg, strings.NewReader(""), &out, discard)
		assert.Contains(t, err, "status code 101 but got 404")
		assert.Contains(t, out.String(), "HTTP/1.1 404 Not Found\n")
	})
}
