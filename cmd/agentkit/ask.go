package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nulpointcorp/agentkit/internal/app"
)

func newAskCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Get a one-off reply without conversation history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				client, err := c.app.NewChat(app.ChatOptions{})
				if err != nil {
					return err
				}
				reply, err := client.Response(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, reply)
				return nil
			})
		},
	}
	addCompletionFlags(cmd)
	return cmd
}
