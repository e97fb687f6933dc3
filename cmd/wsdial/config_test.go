package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"nhooyr.io/wsclient"
	"nhooyr.io/wsclient/internal/test/assert"
)

const testConfig = `
url: ws://example.com/chat
headers:
  - "Origin: http://example.com"
  - "X-Token: abc"
messages: [one, two]
binary: true
rate: 5
wait: 250ms
log:
  level: debug
  format: json
`

func writeConfig(t *testing.T, s string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wsdial.yaml")
	err := os.WriteFile(path, []byte(s), 0o600)
	assert.Success(t, err)
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		cfg, err := loadConfig(writeConfig(t, testConfig))
		assert.Success(t, err)
		assert.Equal(t, "url", "ws://example.com/chat", cfg.URL)
		assert.Equal(t, "headers", []string{"Origin: http://example.com", "X-Token: abc"}, cfg.Headers)
		assert.Equal(t, "messages", []string{"one", "two"}, cfg.Messages)
		assert.Equal(t, "binary", true, cfg.Binary)
		assert.Equal(t, "rate", 5.0, cfg.Rate)
		assert.Equal(t, "wait", 250*time.Millisecond, cfg.Wait)
		assert.Equal(t, "log level", "debug", cfg.Log.Level)
		assert.Equal(t, "log format", "json", cfg.Log.Format)
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		cfg, err := loadConfig("")
		assert.Success(t, err)
		assert.Equal(t, "wait", time.Second, cfg.Wait)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Contains(t, err, "failed to read config")
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		_, err := loadConfig(writeConfig(t, "wait: [1"))
		assert.Contains(t, err, "failed to parse config")
	})
}

func TestMerge(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(writeConfig(t, testConfig))
	assert.Success(t, err)

	var (
		cfgPath string
		flags   = defaultConfig()
	)
	fs := pflag.NewFlagSet("wsdial", pflag.ContinueOnError)
	bindFlags(fs, &cfgPath, &flags)
	err = fs.Parse([]string{
		"-H", "X-Trace: 1",
		"-m", "three",
		"--async",
		"--wait", "2s",
	})
	assert.Success(t, err)

	cfg.merge(fs, flags, []string{"ws://localhost:8080/"})
	assert.Equal(t, "url", "ws://localhost:8080/", cfg.URL)
	assert.Equal(t, "headers", []string{"Origin: http://example.com", "X-Token: abc", "X-Trace: 1"}, cfg.Headers)
	assert.Equal(t, "messages", []string{"three"}, cfg.Messages)
	assert.Equal(t, "async", true, cfg.Async)
	assert.Equal(t, "wait", 2*time.Second, cfg.Wait)

	// Unset flags keep the file's values.
	assert.Equal(t, "binary", true, cfg.Binary)
	assert.Equal(t, "rate", 5.0, cfg.Rate)
	assert.Equal(t, "log level", "debug", cfg.Log.Level)
	assert.Equal(t, "mode", wsclient.ModeAsync, cfg.mode())
	assert.Equal(t, "opcode", wsclient.Fin|wsclient.OpBinary, cfg.opcode())
}

func TestHeaderFields(t *testing.T) {
	t.Parallel()

	cfg := config{Headers: []string{"Origin:http://a", "  X-Empty :  "}}
	h, err := cfg.headerFields()
	assert.Success(t, err)
	assert.Equal(t, "fields", []wsclient.HeaderField{
		{Name: "Origin", Value: "http://a"},
		{Name: "X-Empty", Value: ""},
	}, h)

	for _, s := range []string{"no colon", ": value"} {
		cfg := config{URL: "ws://a", Headers: []string{s}}
		err := cfg.validate()
		assert.Contains(t, err, "is not in the form")
	}

	err = config{}.validate()
	assert.Contains(t, err, "no url given")
	err = config{URL: "ws://a", Rate: -1}.validate()
	assert.Contains(t, err, "rate must not be negative")
}
