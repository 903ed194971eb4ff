package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	Long: `Show the dashboard views over all experiments: summary counters,
rating distribution, creation timeline, top goals and the weekly rating trend.

Examples:
  agentlab stats                  # All experiments
  agentlab stats --goal Translate # Only one goal`,
	RunE: runStats,
}

var statsGoal string

// statsNow is the evaluation instant; local time decides calendar days.
var statsNow = time.Now

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsGoal, "goal", "g", "", "Only include experiments with this goal")
}

func runStats(cmd *cobra.Command, args []string) error {
	opts := ports.ListExperimentsOptions{}
	if cmd.Flags().Changed("goal") {
		goal := statsGoal
		opts.Goal = &goal
	}

	return withApp(cmd, func(app *AppContext) error {
		ctx := cmd.Context()
		exps, err := app.Experiments.List(ctx, opts)
		if err != nil {
			return err
		}

		d := domain.ComputeDashboard(exps, statsNow())
		app.Metrics.RecordDashboard(ctx, d.Summary)

		return printDashboard(cmd.OutOrStdout(), d)
	})
}

func printDashboard(out io.Writer, d domain.Dashboard) error {
	s := d.Summary
	fmt.Fprintln(out, "Summary")
	fmt.Fprintln(out, "=======")
	fmt.Fprintf(out, "  Experiments:       %d\n", s.Total)
	fmt.Fprintf(out, "  Rated / unrated:   %d / %d\n", s.Rated, s.Unrated)
	fmt.Fprintf(out, "  Average rating:    %.2f\n", s.AverageRating)
	fmt.Fprintf(out, "  Success rate:      %d%%\n", s.SuccessRate)
	fmt.Fprintf(out, "  Created this week: %d\n", s.CreatedThisWeek)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Rating distribution")
	for _, b := range d.RatingDistribution {
		fmt.Fprintf(out, "  %d  %-20s %d\n", b.Rating, strings.Repeat("#", min(b.Count, 20)), b.Count)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if len(d.GoalPerformance) > 0 {
		fmt.Fprintln(w, "GOAL\tEXPERIMENTS\tRATED\tAVG RATING")
		for _, g := range d.GoalPerformance {
			fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\n", g.Goal, g.Count, g.RatedCount, g.AverageRating)
		}
		fmt.Fprintln(w)
	}

	if len(d.Timeline) > 0 {
		fmt.Fprintln(w, "DAY\tCREATED\tTOTAL")
		for _, p := range d.Timeline {
			fmt.Fprintf(w, "%s\t%d\t%d\n", p.Date, p.Count, p.Cumulative)
		}
		fmt.Fprintln(w)
	}

	if len(d.RatingTrend) > 0 {
		fmt.Fprintln(w, "WEEK OF\tRATED\tAVG RATING")
		for _, p := range d.RatingTrend {
			fmt.Fprintf(w, "%s\t%d\t%.2f\n", p.Week, p.Count, p.AverageRating)
		}
	}
	return w.Flush()
}
