package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"grantnet/netintel/internal/builder"
	"grantnet/netintel/internal/db"
)

var importCmd = &cobra.Command{
	Use:   "import <payload.json>",
	Short: "Load a bundling payload into the grants store",
	Long:  "Records every funding source in the payload as a grant and registers unknown organizations. Grants already in the store are skipped, so importing the same payload twice changes nothing. Creates the database if it does not exist.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		payload, err := builder.LoadPayload(args[0])
		if err != nil {
			return err
		}

		path := cfg.Database.Path
		if path == "" {
			path = "grantnet.db"
		}
		d, err := db.OpenDB(path)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.Migrate(ctx); err != nil {
			return err
		}

		res, err := d.ImportPayload(ctx, payload)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d grants to %d grantees into %s (%d duplicates skipped, %d new organizations)\n",
			res.Grants, len(payload.BundledGrantees), path, res.Duplicates, res.Organizations)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
