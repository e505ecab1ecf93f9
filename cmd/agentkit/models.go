package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nulpointcorp/agentkit/internal/catalog"
)

func newModelsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List model aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			free, _ := cmd.Flags().GetBool("free")
			paid, _ := cmd.Flags().GetBool("paid")
			if !free && !paid {
				free, paid = true, true
			}

			cat := c.app.Catalog()
			tables := cat.Tables()
			if free {
				printTable(c, "Free models", cat.Names(catalog.TierFree), tables[catalog.TierFree])
			}
			if paid {
				printTable(c, "Paid models", cat.Names(catalog.TierPaid), tables[catalog.TierPaid])
			}
			return nil
		},
	}
	cmd.Flags().Bool("free", false, "Show free-tier aliases only")
	cmd.Flags().Bool("paid", false, "Show paid-tier aliases only")
	return cmd
}

func printTable(c *cli, title string, names []string, t catalog.Table) {
	fmt.Fprintf(c.out, "%s:\n", title)
	for _, n := range names {
		fmt.Fprintf(c.out, "  %-22s %s\n", n, t[n])
	}
	fmt.Fprintln(c.out)
}
