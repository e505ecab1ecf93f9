package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nulpointcorp/agentkit/internal/app"
)

var defaultCompareModels = []string{"llama_4_maverick", "mistral_small", "gpt_4_mini"}

func newCompareCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <prompt>",
		Short: "Send the same prompt to several models and print each reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, _ := cmd.Flags().GetStringSlice("models")
			return c.run(cmd, func(ctx context.Context) error {
				client, err := c.app.NewChat(app.ChatOptions{})
				if err != nil {
					return err
				}
				for _, r := range client.Compare(ctx, strings.Join(args, " "), models) {
					fmt.Fprintf(c.out, "=== %s ===\n%s\n\n", r.Model, r.Text)
				}
				return nil
			})
		},
	}
	addCompletionFlags(cmd)
	cmd.Flags().StringSlice("models", defaultCompareModels, "Comma-separated model aliases or ids")
	return cmd
}
