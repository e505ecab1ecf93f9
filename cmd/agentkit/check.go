package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nulpointcorp/agentkit/internal/agent"
)

func newCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show which providers are configured and the available agent presets",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, st := range c.app.Check() {
				fmt.Fprintf(c.out, "%s: ", strings.ToUpper(st.Tag))
				if st.Err != nil {
					fmt.Fprintln(c.out, "not configured")
					fmt.Fprintf(c.out, "  error: %v\n", st.Err)
				} else {
					fmt.Fprintln(c.out, "configured")
					fmt.Fprintf(c.out, "  model: %s\n", st.Model)
					fmt.Fprintf(c.out, "  url:   %s\n", st.BaseURL)
				}
				fmt.Fprintln(c.out)
			}

			fmt.Fprintln(c.out, "Agent presets:")
			for _, name := range agent.PresetNames() {
				d, _ := agent.Preset(name)
				fmt.Fprintf(c.out, "  - %-8s %s (%s, %d tools)\n", name, d.Name, d.Provider, len(d.Tools))
			}
			return nil
		},
	}
}
