package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantnet/netintel/internal/graph"
)

var cofundersJSON bool

var cofundersCmd = &cobra.Command{
	Use:   "cofunders <grantee>",
	Short: "List the foundations funding a grantee, largest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}
		g := b.Network()
		grantee, err := ResolveOrg(g, args[0], graph.Grantee)
		if err != nil {
			return err
		}

		engine := queryEngine(g)
		cofunders := engine.FindCoFunders(grantee.ID)
		if cofundersJSON {
			return printJSON(cofunders)
		}

		fmt.Printf("\n  %s (%s): %d funders\n\n", grantee.Name, grantee.ID, len(cofunders))
		for _, c := range cofunders {
			fmt.Printf("  %-12s %14s  %2d grants  avg %-12s %s\n",
				c.FoundationID, dollars(c.TotalFunding), c.GrantCount, dollars(c.AverageGrant),
				truncTitle(c.FoundationName, 40))
			fmt.Printf("  %12s years: %s\n", "", joinYears(c.Years))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	cofundersCmd.Flags().BoolVar(&cofundersJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(cofundersCmd)
}
