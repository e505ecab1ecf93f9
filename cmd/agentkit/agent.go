package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nulpointcorp/agentkit/internal/agent"
)

func newAgentCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent <preset> <message>",
		Short: "Run a preset tool-calling agent: " + strings.Join(agent.PresetNames(), ", "),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := agent.Preset(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("provider") {
				d.Provider, _ = cmd.Flags().GetString("provider")
			}
			if model, _ := cmd.Flags().GetString("model"); model != "" {
				d = d.WithModel(model)
			}
			if instructions, _ := cmd.Flags().GetString("instructions"); instructions != "" {
				d = d.WithInstructions(instructions)
			}
			showTools, _ := cmd.Flags().GetBool("show-tools")

			return c.run(cmd, func(ctx context.Context) error {
				a, err := c.app.NewAgent(d)
				if err != nil {
					return err
				}

				res, err := a.Run(ctx, strings.Join(args[1:], " "))
				var mte *agent.MaxTurnsError
				if err != nil && !errors.As(err, &mte) {
					return err
				}

				if showTools {
					for _, tc := range res.ToolCalls {
						fmt.Fprintf(c.out, "[tool] %s(%s) -> %s\n", tc.Name, tc.Arguments, tc.Output)
					}
				}
				if res.FinalOutput != "" {
					fmt.Fprintln(c.out, res.FinalOutput)
				}
				return err
			})
		},
	}
	cmd.Flags().StringP("provider", "p", "", "Override the preset's provider")
	cmd.Flags().StringP("model", "m", "", "Override the provider's default model")
	cmd.Flags().String("instructions", "", "Override the preset's instructions")
	cmd.Flags().Bool("show-tools", false, "Print every tool call")
	return cmd
}
