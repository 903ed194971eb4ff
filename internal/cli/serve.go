package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/agentlab/internal/migrate"
	"github.com/emiliopalmerini/agentlab/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON HTTP API and the realtime change feed.

Examples:
  agentlab serve                  # Listen on AGENTLAB_ADDR (default :8080)
  agentlab serve --addr :3000     # Listen on port 3000
  agentlab serve --migrate=false  # Do not apply pending migrations`,
	RunE: runServe,
}

var (
	serveAddr    string
	serveMigrate bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Address to listen on (overrides AGENTLAB_ADDR)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withApp(cmd, func(app *AppContext) error {
		if serveMigrate {
			if err := migrate.RunAll(ctx, app.DB); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}

		addr := app.Config.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		server := web.NewServer(
			web.Config{Addr: addr, ShutdownTimeout: app.Config.ShutdownTimeout},
			web.Deps{
				Experiments: app.Experiments,
				Battles:     app.Battles,
				Rating:      app.Rating,
				Hub:         app.Hub,
				Metrics:     app.Metrics,
				Logger:      app.Logger,
			},
		)

		err := server.Start(ctx)
		app.Logger.Info("server stopped")
		return err
	})
}
