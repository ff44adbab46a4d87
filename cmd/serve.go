package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"grantnet/netintel/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve network queries over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		b, err := LoadNetwork(cmd.Context())
		if err != nil {
			return err
		}
		if cfg.Logging.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		return api.NewServer(b, cfg, logger).Run(cmd.Context(), cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
