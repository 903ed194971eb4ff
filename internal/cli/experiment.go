package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
	"github.com/emiliopalmerini/agentlab/internal/util"
)

var experimentCmd = &cobra.Command{
	Use:     "experiment",
	Aliases: []string{"exp"},
	Short:   "Manage experiments",
	Long:    `Create, list, rate and delete experiments.`,
}

var experimentCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new experiment",
	Long: `Create a new experiment. Every experiment starts at an Elo score of 1200.

Examples:
  agentlab experiment create "summarise-v2" --goal "Summarize" --rating 4
  agentlab experiment create "translate-fr" --goal "Translate" --prompt "$(cat prompt.txt)"`,
	Args: cobra.ExactArgs(1),
	RunE: runExperimentCreate,
}

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List experiments, oldest first",
	RunE:  runExperimentList,
}

var experimentRateCmd = &cobra.Command{
	Use:   "rate <id> <rating>",
	Short: "Set or clear the human rating",
	Long: `Set the human rating (1-5) of an experiment. Use "none" to clear it.

Examples:
  agentlab experiment rate 3f2a... 5
  agentlab experiment rate 3f2a... none`,
	Args: cobra.ExactArgs(2),
	RunE: runExperimentRate,
}

var experimentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an experiment",
	Long:  `Delete an experiment. Its battle history is kept.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentDelete,
}

// Flags
var (
	expGoal    string
	expBoard   string
	expPrompt  string
	expContext string
	expOutput  string
	expNotes   string
	expRating  int
	expLimit   int
)

func init() {
	rootCmd.AddCommand(experimentCmd)
	experimentCmd.AddCommand(experimentCreateCmd)
	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentRateCmd)
	experimentCmd.AddCommand(experimentDeleteCmd)

	experimentCreateCmd.Flags().StringVarP(&expGoal, "goal", "g", "", "What the experiment is trying to achieve")
	experimentCreateCmd.Flags().StringVarP(&expBoard, "board", "b", "", "Board the experiment belongs to")
	experimentCreateCmd.Flags().StringVar(&expPrompt, "prompt", "", "Prompt sent to the agent")
	experimentCreateCmd.Flags().StringVar(&expContext, "context", "", "Context provided to the agent")
	experimentCreateCmd.Flags().StringVar(&expOutput, "output", "", "Output the agent produced")
	experimentCreateCmd.Flags().StringVarP(&expNotes, "notes", "n", "", "Free-form notes")
	experimentCreateCmd.Flags().IntVarP(&expRating, "rating", "r", 0, "Human rating 1-5")

	experimentListCmd.Flags().StringVarP(&expGoal, "goal", "g", "", `Only list experiments with this goal ("No Goal" for none)`)
	experimentListCmd.Flags().IntVarP(&expLimit, "limit", "l", 0, "Maximum number of experiments (0 for all)")
}

func runExperimentCreate(cmd *cobra.Command, args []string) error {
	exp := &domain.Experiment{
		ID:        uuid.New().String(),
		Name:      args[0],
		Goal:      util.StringPtr(expGoal),
		Board:     util.StringPtr(expBoard),
		Prompt:    expPrompt,
		Context:   expContext,
		Output:    expOutput,
		Notes:     util.StringPtr(expNotes),
		EloRating: domain.DefaultEloRating,
	}
	if cmd.Flags().Changed("rating") {
		r, err := validateRating(expRating)
		if err != nil {
			return err
		}
		exp.Rating = r
	}

	return withApp(cmd, func(app *AppContext) error {
		if err := app.Experiments.Create(cmd.Context(), exp); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created experiment %s (%s)\n", exp.Name, exp.ID)
		return nil
	})
}

func runExperimentList(cmd *cobra.Command, args []string) error {
	opts := ports.ListExperimentsOptions{Limit: expLimit}
	if cmd.Flags().Changed("goal") {
		goal := expGoal
		opts.Goal = &goal
	}

	return withApp(cmd, func(app *AppContext) error {
		exps, err := app.Experiments.List(cmd.Context(), opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(exps) == 0 {
			fmt.Fprintln(out, "No experiments found")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tGOAL\tRATING\tELO\tCREATED")
		fmt.Fprintln(w, "--\t----\t----\t------\t---\t-------")
		for _, e := range exps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				e.ID,
				util.Truncate(e.Name, 40),
				util.Truncate(e.GoalLabel(), domain.GoalLabelMaxRunes),
				util.FormatRating(e.Rating),
				e.EloRating,
				util.FormatDateTime(e.CreatedAt),
			)
		}
		return w.Flush()
	})
}

func runExperimentRate(cmd *cobra.Command, args []string) error {
	id := args[0]

	var rating *int
	if !strings.EqualFold(args[1], "none") {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid rating %q: want 1-5 or none", args[1])
		}
		if rating, err = validateRating(n); err != nil {
			return err
		}
	}

	return withApp(cmd, func(app *AppContext) error {
		if err := app.Experiments.UpdateRating(cmd.Context(), id, rating); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rated %s: %s\n", id, util.FormatRating(rating))
		return nil
	})
}

func runExperimentDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(app *AppContext) error {
		if err := app.Experiments.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted experiment %s\n", args[0])
		return nil
	})
}

func validateRating(n int) (*int, error) {
	if n < 1 || n > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5, got %d", n)
	}
	return &n, nil
}
