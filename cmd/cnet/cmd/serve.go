/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/ssargent/isiscnet/pkg/api"
	"github.com/ssargent/isiscnet/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the REST API over the catalog. Requests under /api/v1 need the
X-API-Key header; the key comes from the config file (run 'cnet init' to
generate one) or --api-key. Prometheus metrics are served at /metrics.

Examples:
  cnet serve
  cnet serve --port 9300 --bind 0.0.0.0 --catalog ./catalog`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		cfg := api.ServerConfig{
			Port:   a.config.Server.Port,
			Bind:   a.config.Server.Bind,
			APIKey: a.config.Server.APIKey,
		}
		flags := cmd.Flags()
		if flags.Changed("port") {
			cfg.Port, _ = flags.GetInt("port")
		}
		if flags.Changed("bind") {
			cfg.Bind, _ = flags.GetString("bind")
		}
		if flags.Changed("api-key") {
			cfg.APIKey, _ = flags.GetString("api-key")
		}
		if cfg.APIKey == "" || cfg.APIKey == config.Auto {
			return errors.New("no API key configured: run 'cnet init' or pass --api-key")
		}

		cat, err := openCatalog(cmd, a)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, cat.Close()) }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd.Printf("Starting REST API on %s:%d\n", cfg.Bind, cfg.Port)
		return container.GetServerFactory().CreateServerStarter().StartServer(ctx, cat, cfg, a.logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 9200, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key for clients (default: from config)")
	serveCmd.Flags().String("catalog", "", "Catalog directory (default: from config)")
}
