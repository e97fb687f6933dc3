package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"nhooyr.io/wsclient"
)

// config is the YAML config file layout. Flags that were set on the
// command line override it.
type config struct {
	URL      string        `yaml:"url"`
	Headers  []string      `yaml:"headers"`
	Messages []string      `yaml:"messages"`
	Binary   bool          `yaml:"binary"`
	Async    bool          `yaml:"async"`
	Rate     float64       `yaml:"rate"`
	Wait     time.Duration `yaml:"wait"`
	Expect   int           `yaml:"expect"`
	Log      struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func defaultConfig() config {
	return config{
		Wait: time.Second,
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	err = yaml.Unmarshal(b, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	return cfg, nil
}

// merge copies every flag the user set over cfg.
func (cfg *config) merge(fs *pflag.FlagSet, flags config, args []string) {
	if len(args) > 0 {
		cfg.URL = args[0]
	}
	if fs.Changed("header") {
		cfg.Headers = append(cfg.Headers, flags.Headers...)
	}
	if fs.Changed("message") {
		cfg.Messages = flags.Messages
	}
	if fs.Changed("binary") {
		cfg.Binary = flags.Binary
	}
	if fs.Changed("async") {
		cfg.Async = flags.Async
	}
	if fs.Changed("rate") {
		cfg.Rate = flags.Rate
	}
	if fs.Changed("wait") {
		cfg.Wait = flags.Wait
	}
	if fs.Changed("expect") {
		cfg.Expect = flags.Expect
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = flags.Log.Level
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = flags.Log.Format
	}
}

func (cfg config) validate() error {
	if cfg.URL == "" {
		return errors.New("no url given")
	}
	if cfg.Rate < 0 {
		return fmt.Errorf("rate must not be negative: %v", cfg.Rate)
	}
	_, err := cfg.headerFields()
	return err
}

// headerFields parses "Name: value" headers in order.
func (cfg config) headerFields() ([]wsclient.HeaderField, error) {
	var h []wsclient.HeaderField
	for _, s := range cfg.Headers {
		name, value, ok := strings.Cut(s, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("header %q is not in the form 'Name: value'", s)
		}
		h = append(h, wsclient.HeaderField{
			Name:  name,
			Value: strings.TrimSpace(value),
		})
	}
	return h, nil
}

func (cfg config) opcode() wsclient.Opcode {
	if cfg.Binary {
		return wsclient.Fin | wsclient.OpBinary
	}
	return wsclient.Fin | wsclient.OpText
}

func (cfg config) mode() wsclient.SendMode {
	if cfg.Async {
		return wsclient.ModeAsync
	}
	return wsclient.ModeSync
}
