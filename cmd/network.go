package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantnet/netintel/internal/graph"
	"grantnet/netintel/internal/influence"
)

var (
	brokersJSON bool

	similarJSON bool
	similarTopN int

	lapsedJSON      bool
	lapsedReference int
	lapsedYears     int
)

var brokersCmd = &cobra.Command{
	Use:   "brokers",
	Short: "Find organizations and relationships whose loss would split the network",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}
		report := influence.New(b.Network(), influence.WithLogger(logger)).FindBrokers()
		if brokersJSON {
			return printJSON(report)
		}

		section("BROKERS")
		if report.BrokerCount == 0 {
			fmt.Println("  No single organization holds the network together")
		}
		limit := 10
		if len(report.Brokers) < limit {
			limit = len(report.Brokers)
		}
		for _, br := range report.Brokers[:limit] {
			fmt.Printf("  %-12s splits into %d  (%s, degree %d)  %s\n",
				br.ID, br.ComponentsIfRemoved, br.Type, br.Degree, truncTitle(br.Name, 40))
		}
		if report.BridgeCount > 0 {
			fmt.Printf("\n  %d sole-link relationships:\n", report.BridgeCount)
			limit = 10
			if len(report.Bridges) < limit {
				limit = len(report.Bridges)
			}
			for _, be := range report.Bridges[:limit] {
				fmt.Printf("    %s -> %s (%s)\n",
					truncTitle(be.FoundationName, 30), truncTitle(be.GranteeName, 30), dollars(be.TotalAmount))
			}
		}
		fmt.Println()
		return nil
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar <foundation>",
	Short: "Rank foundations by portfolio overlap with a foundation",
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

		similar := queryEngine(g).SimilarFunders(foundation.ID, similarTopN)
		if similarJSON {
			return printJSON(similar)
		}

		section("SIMILAR TO " + foundation.Name)
		for _, s := range similar {
			fmt.Printf("  %.3f  %d shared  %s\n", s.Similarity, s.SharedCount, truncTitle(s.Name, 40))
		}
		fmt.Println()
		return nil
	},
}

var lapsedCmd = &cobra.Command{
	Use:   "lapsed",
	Short: "List funding relationships with no recent grants",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}
		g := b.Network()

		lapsed := queryEngine(g).LapsedRelationships(lapsedReference, lapsedYears)
		if lapsedJSON {
			return printJSON(lapsed)
		}

		section("LAPSED RELATIONSHIPS")
		for _, r := range lapsed {
			fmt.Printf("  last %d (%dy ago)  %-30s -> %-30s %s\n",
				r.LastGrantYear, r.YearsSince, truncTitle(r.FoundationName, 30), truncTitle(r.GranteeName, 30),
				dollars(r.TotalAmount))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	brokersCmd.Flags().BoolVar(&brokersJSON, "json", false, "Output as JSON")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "Output as JSON")
	similarCmd.Flags().IntVar(&similarTopN, "top-n", 0, "Number of foundations to show (0 uses the configured default)")
	lapsedCmd.Flags().BoolVar(&lapsedJSON, "json", false, "Output as JSON")
	lapsedCmd.Flags().IntVar(&lapsedReference, "reference-year", 0, "Year to measure from (0 uses the latest grant year)")
	lapsedCmd.Flags().IntVar(&lapsedYears, "lapse-years", 0, "Years without a grant to count as lapsed (0 uses the configured default)")
	rootCmd.AddCommand(brokersCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(lapsedCmd)
}
