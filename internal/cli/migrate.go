package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/agentlab/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run database migrations",
	Long: `Run database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  agentlab migrate      # Run all pending migrations
  agentlab migrate 1    # Migrate to version 1
  agentlab migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	target := -1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return fmt.Errorf("invalid version number: %s", args[0])
		}
		target = v
	}

	return withApp(cmd, func(app *AppContext) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		runner := migrate.NewRunner(app.DB, out)

		if err := runner.EnsureMigrationsTable(ctx); err != nil {
			return fmt.Errorf("failed to create migrations table: %w", err)
		}

		current, dirty, err := runner.CurrentVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to get current version: %w", err)
		}
		if dirty {
			return fmt.Errorf("database is in dirty state at version %d, manual intervention required", current)
		}

		all, err := migrate.Load()
		if err != nil {
			return fmt.Errorf("failed to load migrations: %w", err)
		}

		fmt.Fprintf(out, "Current version: %d\n", current)

		if target < 0 {
			fmt.Fprintln(out, "Running all pending migrations...")
			return runner.Up(ctx, all, current)
		}
		return runner.To(ctx, all, current, target)
	})
}
