package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"grantnet/netintel/internal/builder"
	"grantnet/netintel/internal/graph"
)

var (
	statsJSON         bool
	statsTopN         int
	statsHubThreshold int
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"analyze"},
	Short:   "Summarize the funding network: size, density, connectivity, hubs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("top-n") {
			cfg.Analysis.TopN = statsTopN
		}
		if cmd.Flags().Changed("hub-threshold") {
			cfg.Analysis.HubThreshold = statsHubThreshold
		}
		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}

		stats := b.NetworkStatistics()
		if statsJSON {
			return printJSON(stats)
		}
		printStats(stats, b.Network())
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().IntVar(&statsTopN, "top-n", 10, "Number of hubs to show")
	statsCmd.Flags().IntVar(&statsHubThreshold, "hub-threshold", 10, "Minimum degree to consider an organization a hub")
	rootCmd.AddCommand(statsCmd)
}

func printStats(s builder.NetworkStatistics, g *graph.Network) {
	section("NETWORK")
	fmt.Printf("  Organizations: %d (%d foundations, %d grantees)  Relationships: %d\n",
		s.NodeCount, s.FoundationCount, s.GranteeCount, s.EdgeCount)
	fmt.Printf("  Density: %.4f  Average degree: %.2f\n", s.Density, s.AverageDegree)
	fmt.Printf("  Grantees per foundation: %.2f  Funders per grantee: %.2f\n",
		s.AvgGrantsPerFoundation, s.AvgFundersPerGrantee)
	fmt.Printf("  Grants: %s totalling %s (average %s)\n",
		humanize.Comma(int64(s.TotalGrantCount)), dollars(s.TotalGrantAmount), dollars(s.AverageGrantAmount))
	if s.MostConnectedFoundation != "" {
		fmt.Printf("  Most connected foundation: %s\n", truncTitle(g.NameOf(s.MostConnectedFoundation), 50))
	}
	if s.MostConnectedGrantee != "" {
		fmt.Printf("  Most connected grantee: %s\n", truncTitle(g.NameOf(s.MostConnectedGrantee), 50))
	}

	c := s.Connectivity
	section("CONNECTIVITY")
	if c.IsConnected {
		fmt.Println("  Connected: every organization is reachable")
	} else {
		fmt.Printf("  Components: %d  Largest: %d organizations\n", c.NumComponents, c.LargestComponentSize)
	}

	// Degree distribution
	fmt.Println("\n  Degree distribution:")
	for _, b := range s.DegreeHistogram {
		if b.Count > 0 {
			barWidth := int(math.Log2(float64(b.Count))) + 2
			fmt.Printf("    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	// Hubs
	if len(s.Hubs) > 0 {
		fmt.Println("\n  Top hubs (degree > threshold):")
		for _, hub := range s.Hubs {
			fmt.Printf("    %-12s degree=%d  %s (%s)\n", hub.ID, hub.Degree, truncTitle(hub.Name, 40), hub.Type)
		}
	}
	fmt.Println()
}
