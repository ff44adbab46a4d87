package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantnet/netintel/internal/graph"
)

var portfolioJSON bool

var portfolioCmd = &cobra.Command{
	Use:   "portfolio <foundation>",
	Short: "Show a foundation's grantees and funding totals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}
		g := b.Network()
		foundation, err := ResolveOrg(g, args[0], graph.Foundation)
		if err != nil {
			return err
		}

		p := queryEngine(g).GranteePortfolio(foundation.ID)
		if portfolioJSON {
			return printJSON(p)
		}

		fmt.Printf("\n  %s (%s)\n", p.FoundationName, p.FoundationID)
		fmt.Printf("  %d grantees, %d grants, %s total, %s average\n\n",
			p.GranteeCount, p.TotalGrants, dollars(p.TotalFunding), dollars(p.AverageGrantSize))
		for _, pg := range p.Grantees {
			fmt.Printf("  %-12s %14s  %2d grants  %-4s %-2s  %s\n",
				pg.GranteeID, dollars(pg.TotalFunding), pg.GrantCount, pg.NTEECode, pg.State,
				truncTitle(pg.GranteeName, 40))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	portfolioCmd.Flags().BoolVar(&portfolioJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(portfolioCmd)
}
