package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nulpointcorp/agentkit/internal/app"
	"github.com/nulpointcorp/agentkit/internal/config"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":    "LOG_LEVEL",
	"metrics-addr": "METRICS_ADDR",
	"provider":     "PROVIDER",
	"model":        "MODEL",
	"temperature":  "TEMPERATURE",
	"max-tokens":   "MAX_TOKENS",
}

// cli carries the state shared by all subcommands of one invocation.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	v   *viper.Viper
	cfg *config.Config
	log *slog.Logger
	app *app.App
}

func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{in: in, out: out, errOut: errOut, v: viper.New()}

	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	c.close()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "agentkit",
		Short:         "Chat with LLMs and run tool-calling agents",
		Long:          "agentkit talks to the OpenRouter gateway, OpenAI, Anthropic, Gemini or any OpenAI-compatible endpoint.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("metrics-addr", "", "Serve /metrics and /health on this address, e.g. :9090")

	root.AddCommand(
		newModelsCmd(c),
		newCheckCmd(c),
		newChatCmd(c),
		newAskCmd(c),
		newCompareCmd(c),
		newAgentCmd(c),
	)
	return root
}

// addCompletionFlags registers the sampling flags shared by chat-like commands.
func addCompletionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("provider", "p", "", "Provider: gateway, direct, anthropic, gemini, custom")
	cmd.Flags().StringP("model", "m", "", "Model alias or fully qualified model id")
	cmd.Flags().Float64P("temperature", "t", 0, "Sampling temperature (0 to 2)")
	cmd.Flags().Int("max-tokens", 0, "Maximum reply tokens (0 = provider default)")
}

// setup binds the flags of the running command, loads the configuration and
// builds the app.
func (c *cli) setup(cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := c.v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg, err := config.LoadFrom(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg

	c.log = buildLogger(cfg.LogLevel, c.errOut)
	slog.SetDefault(c.log)

	a, err := app.New(cmd.Context(), cfg, c.log, version)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

// run executes fn while the app's background listeners are up.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	return c.app.Run(cmd.Context(), fn)
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
}
