package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querypad/internal/cli/config"
	"github.com/leapstack-labs/querypad/internal/ui"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long: `Start the querypad web server.

Credentials are entered in the browser and kept only in the cookie
session; the server itself holds no database configuration.`,
		Example: `  # Serve on the default port
  querypad serve

  # Different port and catalog location
  querypad serve --port 9000 --catalog /srv/querypad/saved_queries.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			logger := config.LoggerFromContext(cmd.Context())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := ui.NewServer(ui.Config{
				Port:          cfg.Port,
				SessionSecret: cfg.SessionSecret,
				CatalogPath:   cfg.CatalogPath,
				Logger:        logger,
			})
			return srv.Serve(ctx)
		},
	}
}
