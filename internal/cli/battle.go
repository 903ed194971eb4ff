package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/rating"
	"github.com/emiliopalmerini/agentlab/internal/util"
)

var battleCmd = &cobra.Command{
	Use:   "battle <winner-id> <loser-id>",
	Short: "Record a pairwise battle",
	Long: `Record that one experiment beat another and update both Elo scores.

The current scores are read first; the battle is logged to the history
with the winner's goal unless --goal is given.

Examples:
  agentlab battle 3f2a... 9c1b...
  agentlab battle 3f2a... 9c1b... --board main --user alice`,
	Args: cobra.ExactArgs(2),
	RunE: runBattle,
}

var (
	battleBoard string
	battleGoal  string
	battleUser  string
)

func init() {
	rootCmd.AddCommand(battleCmd)
	battleCmd.Flags().StringVarP(&battleBoard, "board", "b", "", "Board the battle was judged on")
	battleCmd.Flags().StringVarP(&battleGoal, "goal", "g", "", "Goal label to record (default: the winner's goal)")
	battleCmd.Flags().StringVarP(&battleUser, "user", "u", "", "Acting user id")
}

func runBattle(cmd *cobra.Command, args []string) error {
	if args[0] == args[1] {
		return domain.ErrSelfBattle
	}

	return withApp(cmd, func(app *AppContext) error {
		ctx := cmd.Context()

		winner, err := getExperiment(cmd, app, args[0])
		if err != nil {
			return err
		}
		loser, err := getExperiment(cmd, app, args[1])
		if err != nil {
			return err
		}

		input := rating.NewBattleInput(*winner, *loser, battleBoard, util.StringPtr(battleUser))
		if battleGoal != "" {
			input.Goal = battleGoal
		}

		result, err := app.Rating.RecordBattle(ctx, input)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d -> %d\n", winner.Name, winner.EloRating, result.WinnerRating)
		fmt.Fprintf(out, "%s: %d -> %d\n", loser.Name, loser.EloRating, result.LoserRating)
		if result.Battle == nil {
			fmt.Fprintln(out, "warning: scores updated but the battle could not be added to the history")
		}
		return nil
	})
}

func getExperiment(cmd *cobra.Command, app *AppContext, id string) (*domain.Experiment, error) {
	exp, err := app.Experiments.GetByID(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrExperimentNotFound, id)
	}
	return exp, nil
}
