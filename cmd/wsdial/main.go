// Command wsdial dials a WebSocket server, prints the handshake response,
// sends messages and prints the frames the server sends back.
package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"nhooyr.io/wsclient/internal/logging"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		flags   = defaultConfig()
	)

	cmd := &cobra.Command{
		Use:   "wsdial [flags] URL",
		Short: "Dial a WebSocket server and exchange messages",
		Long: `Dial a ws:// or wss:// URL, print the handshake response, send
each --message (or each line of stdin) as a masked frame and print every
frame the server sends back until --wait passes without one.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			cfg.merge(cmd.Flags(), flags, args)
			err = cfg.validate()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			log := logging.New(logging.Config{
				Level:  logging.ParseLevel(cfg.Log.Level),
				Format: logging.ParseFormat(cfg.Log.Format),
				Output: cmd.ErrOrStderr(),
			})
			return run(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), log)
		},
	}

	bindFlags(cmd.Flags(), &cfgPath, &flags)
	return cmd
}

func bindFlags(f *pflag.FlagSet, cfgPath *string, flags *config) {
	f.StringVar(cfgPath, "config", "", "YAML config file")
	f.StringArrayVarP(&flags.Headers, "header", "H", nil, "extra request header 'Name: value' (repeatable)")
	f.StringArrayVarP(&flags.Messages, "message", "m", nil, "message to send (repeatable, default reads stdin lines)")
	f.BoolVar(&flags.Binary, "binary", false, "send binary frames instead of text")
	f.BoolVar(&flags.Async, "async", false, "queue writes on a writer goroutine")
	f.Float64Var(&flags.Rate, "rate", 0, "maximum messages per second (0 is unlimited)")
	f.DurationVar(&flags.Wait, "wait", flags.Wait, "how long to wait for server frames after the last one")
	f.IntVar(&flags.Expect, "expect", 0, "exit after this many server frames")
	f.StringVar(&flags.Log.Level, "log-level", "info", "debug, info, warn or error")
	f.StringVar(&flags.Log.Format, "log-format", "text", "text or json")
}
