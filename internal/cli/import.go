package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/agentlab/internal/importer"
	"github.com/emiliopalmerini/agentlab/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import experiments from a spreadsheet CSV export",
	Long: `Import experiments from a CSV export (for example File > Download > CSV
in Google Sheets). The first row must be a header; recognised columns are
name, goal, board, prompt, context, output, rating and notes.

Rows without a name or with a non-numeric rating are skipped and reported.

Examples:
  agentlab import experiments.csv
  agentlab import experiments.csv --board imported --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importBoard  string
	importDryRun bool
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importBoard, "board", "b", "", "Board for rows that do not name one")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and report without writing")
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	result, err := importer.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	for _, rowErr := range result.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", rowErr)
	}

	if importDryRun {
		fmt.Fprintf(out, "Would import %d experiments (%d rows skipped)\n", len(result.Experiments), len(result.Skipped))
		return nil
	}

	return withApp(cmd, func(app *AppContext) error {
		// Rows keep their file order in created_at.
		base := time.Now()
		for i := range result.Experiments {
			exp := &result.Experiments[i]
			exp.ID = uuid.New().String()
			exp.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
			if exp.Board == nil {
				exp.Board = util.StringPtr(importBoard)
			}
			if err := app.Experiments.Create(cmd.Context(), exp); err != nil {
				return fmt.Errorf("failed to import row %d (%s): %w", i+1, exp.Name, err)
			}
		}

		app.Logger.Info("import finished", "file", args[0], "imported", len(result.Experiments), "skipped", len(result.Skipped))
		fmt.Fprintf(out, "Imported %d experiments (%d rows skipped)\n", len(result.Experiments), len(result.Skipped))
		return nil
	})
}
