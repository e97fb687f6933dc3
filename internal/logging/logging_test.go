package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"nhooyr.io/wsclient/internal/test/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in  string
		exp slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"trace", slog.LevelInfo},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.in, tc.exp, ParseLevel(tc.in))
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	log := New(Config{
		Level:  ParseLevel("warn"),
		Format: ParseFormat("JSON"),
		Output: &b,
	})

	log.Info("dropped")
	log.Warn("websocket handshake rejected", "status", 404)

	var entry map[string]interface{}
	err := json.Unmarshal(b.Bytes(), &entry)
	assert.Success(t, err)
	assert.Equal(t, "msg", "websocket handshake rejected", entry["msg"])
	assert.Equal(t, "status", 404.0, entry["status"])
}
