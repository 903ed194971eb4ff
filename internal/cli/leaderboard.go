package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
	"github.com/emiliopalmerini/agentlab/internal/util"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank experiments by Elo score",
	Long: `Rank experiments by Elo score, strongest first, followed by the most
recent battles.

Examples:
  agentlab leaderboard
  agentlab leaderboard --goal Summarize --limit 10`,
	RunE: runLeaderboard,
}

var (
	leaderboardGoal    string
	leaderboardLimit   int
	leaderboardBattles int
)

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.Flags().StringVarP(&leaderboardGoal, "goal", "g", "", "Only rank experiments with this goal")
	leaderboardCmd.Flags().IntVarP(&leaderboardLimit, "limit", "l", 20, "Number of experiments to show")
	leaderboardCmd.Flags().IntVar(&leaderboardBattles, "battles", 5, "Number of recent battles to show")
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	opts := ports.ListExperimentsOptions{Limit: leaderboardLimit}
	if cmd.Flags().Changed("goal") {
		goal := leaderboardGoal
		opts.Goal = &goal
	}

	return withApp(cmd, func(app *AppContext) error {
		var (
			ranked  []domain.Experiment
			battles []domain.Battle
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			ranked, err = app.Experiments.Leaderboard(ctx, opts)
			return err
		})
		if leaderboardBattles > 0 {
			g.Go(func() error {
				var err error
				battles, err = app.Battles.List(ctx, leaderboardBattles)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(ranked) == 0 {
			fmt.Fprintln(out, "No experiments found")
			return nil
		}

		names := make(map[string]string, len(ranked))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tELO\tNAME\tGOAL\tRATING")
		for i, e := range ranked {
			names[e.ID] = e.Name
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
				i+1, e.EloRating, util.Truncate(e.Name, 40), e.GoalLabel(), util.FormatRating(e.Rating))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if len(battles) == 0 {
			return nil
		}

		now := time.Now()
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Recent battles")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, b := range battles {
			fmt.Fprintf(w, "  %s\t%s (%+d)\tbeat\t%s (%+d)\t%s\n",
				since(b.CreatedAt, now),
				nameOr(names, b.WinnerID), b.WinnerAfter-b.WinnerBefore,
				nameOr(names, b.LoserID), b.LoserAfter-b.LoserBefore,
				b.Goal)
		}
		return w.Flush()
	})
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return util.Truncate(id, 8)
}

// since renders how long ago t was, for compact tables.
func since(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
