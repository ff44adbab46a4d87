package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"grantnet/netintel/internal/pathfinder"
)

var (
	pathsJSON    bool
	pathsMaxHops int
	pathwaysJSON bool
)

var pathsCmd = &cobra.Command{
	Use:   "paths <source> <target>",
	Short: "List raw funding paths between two organizations",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}
		g := b.Network()
		source, err := ResolveOrg(g, args[0], "")
		if err != nil {
			return err
		}
		target, err := ResolveOrg(g, args[1], "")
		if err != nil {
			return err
		}

		paths := queryEngine(g).FundingPaths(source.ID, target.ID, pathsMaxHops)
		if pathsJSON {
			return printJSON(paths)
		}

		if len(paths) == 0 {
			fmt.Printf("\n  No paths from %s to %s\n\n", source.Name, target.Name)
			return nil
		}
		fmt.Printf("\n  %d paths from %s to %s\n\n", len(paths), source.Name, target.Name)
		for i, p := range paths {
			names := make([]string, len(p))
			for j, id := range p {
				names[j] = truncTitle(g.NameOf(id), 30)
			}
			fmt.Printf("  %2d. [%d hops] %s\n", i+1, len(p)-1, strings.Join(names, " → "))
		}
		fmt.Println()
		return nil
	},
}

var pathwaysCmd = &cobra.Command{
	Use:   "pathways <source> <target>",
	Short: "Find and score introduction pathways to a target organization",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}
		g := b.Network()
		source, err := ResolveOrg(g, args[0], "")
		if err != nil {
			return err
		}
		target, err := ResolveOrg(g, args[1], "")
		if err != nil {
			return err
		}

		pf := pathfinder.New(queryEngine(g), pathfinder.WithConfig(cfg.Pathfinding), pathfinder.WithLogger(logger))
		pathways := pf.FindBoardPathways(source.ID, target.ID)
		if pathwaysJSON {
			return printJSON(pathways)
		}

		if len(pathways) == 0 {
			fmt.Printf("\n  No pathway from %s to %s within %d hops\n\n", source.Name, target.Name, cfg.Pathfinding.MaxHops)
			return nil
		}
		for i, pw := range pathways {
			fmt.Printf("\n  %d. strength %s  (%d hops)\n", i+1, dollars(pw.PathStrength), pw.PathLength)
			fmt.Printf("     %s\n", pw.PathDescription)
			fmt.Printf("     Strategy: %s\n", pw.CultivationStrategy)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	pathsCmd.Flags().BoolVar(&pathsJSON, "json", false, "Output as JSON")
	pathsCmd.Flags().IntVar(&pathsMaxHops, "max-hops", 0, "Maximum edges per path (0 uses the configured default)")
	pathwaysCmd.Flags().BoolVar(&pathwaysJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(pathwaysCmd)
}
