package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantnet/netintel/internal/graph"
)

var sharedJSON bool

var sharedCmd = &cobra.Command{
	Use:   "shared <foundation> <foundation>",
	Short: "List grantees funded by both foundations",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}
		g := b.Network()
		first, err := ResolveOrg(g, args[0], graph.Foundation)
		if err != nil {
			return err
		}
		second, err := ResolveOrg(g, args[1], graph.Foundation)
		if err != nil {
			return err
		}

		shared := queryEngine(g).FindSharedGrantees(first.ID, second.ID)
		if sharedJSON {
			return printJSON(shared)
		}

		fmt.Printf("\n  %s and %s share %d grantees\n\n", first.Name, second.Name, len(shared))
		for _, s := range shared {
			fmt.Printf("  %-12s %14s  (%s + %s)  %s\n",
				s.GranteeID, dollars(s.CombinedFunding), dollars(s.Foundation1Total), dollars(s.Foundation2Total),
				truncTitle(s.GranteeName, 40))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	sharedCmd.Flags().BoolVar(&sharedJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(sharedCmd)
}
