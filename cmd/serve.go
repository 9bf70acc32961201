package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tranvictor/approvalscan/config"
	"github.com/tranvictor/approvalscan/scan"
	"github.com/tranvictor/approvalscan/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scan API over HTTP",
	Long: `Serves POST /api/scan, GET /api/scan/{address}, POST /api/validate and
POST /api/validate-chain, plus /health and /metrics.

Allowed CORS origins come from APPROVALSCAN_CORS_ORIGINS.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		service := scan.NewService(newBackend(appLogger), newBook(), scan.DefaultOptions(), appLogger)
		defer service.Close()
		appLogger.Info("starting api server",
			zap.String("listen", config.ListenAddress),
			zap.Strings("cors_origins", config.CORSOrigins),
		)
		return server.New(service, config.CORSOrigins, appLogger).ListenAndServe(ctx, config.ListenAddress)
	},
}

func init() {
	serveCmd.Flags().StringVar(&config.ListenAddress, "listen", config.ListenAddress, "address the API listens on")
	rootCmd.AddCommand(serveCmd)
}
