package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentlab",
	Short: "Track, rate and rank AI agent experiments",
	Long: `agentlab tracks AI agent experiments (prompt, context and output),
lets you rate them, ranks them against each other with pairwise Elo battles
and serves dashboard analytics over the collection.

Configuration is read from AGENTLAB_* environment variables, for example
AGENTLAB_DATABASE_URL and AGENTLAB_DATABASE_AUTH_TOKEN.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp runs fn with a fresh AppContext and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(app *AppContext) error) error {
	ctx := cmd.Context()
	app, err := appFactory(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close(ctx) }()
	return fn(app)
}
