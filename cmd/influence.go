package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantnet/netintel/internal/graph"
	"grantnet/netintel/internal/influence"
)

var (
	influenceJSON         bool
	influenceLimit        int
	influenceType         string
	influenceDistribution bool
)

var influenceCmd = &cobra.Command{
	Use:   "influence [organization]",
	Short: "Rank organizations by influence, or profile one organization",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeType := graph.NodeType(influenceType)
		switch nodeType {
		case "", graph.Foundation, graph.Grantee:
		default:
			return fmt.Errorf("--type must be foundation or grantee, got %q", influenceType)
		}

		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}
		g := b.Network()
		analyzer := influence.New(g, influence.WithConfig(cfg.Influence), influence.WithLogger(logger))

		if influenceDistribution {
			d := analyzer.InfluenceDistribution()
			if influenceJSON {
				return printJSON(d)
			}
			section("INFLUENCE DISTRIBUTION")
			for _, t := range []influence.Tier{influence.TierHigh, influence.TierMedium, influence.TierLow} {
				fmt.Printf("  %-6s %4d  (%.1f%%)\n", t, d.TierCounts[t], d.TierPercentages[t])
			}
			fmt.Printf("  Averages: degree=%.3f pagerank=%.4f closeness=%.3f\n\n",
				d.AverageDegree, d.AveragePageRank, d.AverageCloseness)
			return nil
		}

		if len(args) == 1 {
			org, err := ResolveOrg(g, args[0], nodeType)
			if err != nil {
				return err
			}
			ni, _ := analyzer.ScoreNodeInfluence(org.ID)
			if influenceJSON {
				return printJSON(ni)
			}
			printInfluence(ni)
			return nil
		}

		top := analyzer.ScoreTopInfluencers(influenceLimit, nodeType)
		if influenceJSON {
			return printJSON(top)
		}
		section("TOP INFLUENCERS")
		for i, ni := range top {
			fmt.Printf("  %2d. %-6s pagerank=%.4f degree=%.3f  %s\n",
				i+1, ni.InfluenceTier, ni.PageRank, ni.DegreeCentrality, truncTitle(ni.NodeName, 40))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	influenceCmd.Flags().BoolVar(&influenceJSON, "json", false, "Output as JSON")
	influenceCmd.Flags().IntVar(&influenceLimit, "limit", 10, "Number of organizations to rank")
	influenceCmd.Flags().StringVar(&influenceType, "type", "", "Restrict to foundation or grantee")
	influenceCmd.Flags().BoolVar(&influenceDistribution, "distribution", false, "Show tier distribution instead of a ranking")
	rootCmd.AddCommand(influenceCmd)
}

func printInfluence(ni influence.NodeInfluence) {
	fmt.Printf("\n  %s (%s, %s)\n", ni.NodeName, ni.NodeID, ni.NodeType)
	fmt.Printf("  Tier: %s\n", ni.InfluenceTier)
	fmt.Printf("  degree=%.3f pagerank=%.4f closeness=%.3f betweenness~%.3f\n",
		ni.DegreeCentrality, ni.PageRank, ni.ClosenessCentrality, ni.BetweennessCentrality)
	fmt.Printf("  %s\n", ni.Interpretation)
	if len(ni.KeyConnections) > 0 {
		fmt.Println("\n  Key connections:")
		for _, c := range ni.KeyConnections {
			fmt.Printf("    %-12s %14s  %s\n", c.ID, dollars(c.Weight), truncTitle(c.Name, 40))
		}
	}
	fmt.Println()
}
