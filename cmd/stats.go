package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/iotlab/internal/analytics"
	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/abhisek/iotlab/internal/session"
	"github.com/abhisek/iotlab/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show play statistics",
	Long: `Show lifetime totals and recent sessions, or the full report for one
session with --session.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("session", "", "Session ID to report on")
	statsCmd.Flags().Int("limit", 10, "Number of recent sessions to list")
	statsCmd.Flags().Bool("json", false, "Print the report as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sessionID, _ := cmd.Flags().GetString("session")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	events := st.EventRepo()
	w := cmd.OutOrStdout()

	decisions, err := events.QueryDecisions(ctx, store.QueryOpts{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("query decisions: %w", err)
	}
	report := analytics.Aggregate(session.FromEvents(decisions))

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if sessionID == "" {
		snap, err := st.SnapshotRepo().Latest(ctx)
		if err != nil {
			return fmt.Errorf("load totals: %w", err)
		}
		if snap != nil {
			d := snap.Data
			fmt.Fprintf(w, "Lifetime: %d sessions, %d solved, %d XP\n", d.Sessions, d.Solved, d.TotalXP)
			if len(d.BestGrade) > 0 {
				ids := make([]string, 0, len(d.BestGrade))
				for id := range d.BestGrade {
					ids = append(ids, id)
				}
				slices.Sort(ids)
				var parts []string
				for _, id := range ids {
					parts = append(parts, id+" "+d.BestGrade[id])
				}
				fmt.Fprintf(w, "Best grades: %s\n", strings.Join(parts, ", "))
			}
			fmt.Fprintln(w)
		}

		sessions, err := events.ListSessions(ctx, limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) > 0 {
			fmt.Fprintf(w, "%-36s  %-19s  %-8s  %s\n", "Session", "Started", "Mode", "Attempts")
			fmt.Fprintln(w, strings.Repeat("─", 78))
			for _, s := range sessions {
				fmt.Fprintf(w, "%-36s  %-19s  %-8s  %d\n", s.SessionID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Mode, s.Records)
			}
			fmt.Fprintln(w)
		}
	}

	printReport(w, report)
	return nil
}

func printReport(w io.Writer, r analytics.Report) {
	if r.Total == 0 {
		fmt.Fprintln(w, "No attempts recorded yet.")
		return
	}
	fmt.Fprintf(w, "Attempts: %d   Solved: %d   Failed: %d   Timed out: %d\n", r.Total, r.Solved, r.Failed, r.TimedOut)
	fmt.Fprintf(w, "Accuracy: %.0f%%   Assist used: %.0f%%   Unsolved scenarios: %d\n",
		r.AccuracyRate*100, r.BonusUsageFrequency*100, r.UnsolvedQuestions)
	fmt.Fprintf(w, "Hesitation: %.0f   Resilience: %.0f\n", r.HesitationScore, r.ResilienceScore)
	for _, d := range []scenario.Difficulty{scenario.DifficultyEasy, scenario.DifficultyMedium, scenario.DifficultyHard} {
		if secs, ok := r.AvgTimeByDifficulty[d]; ok {
			fmt.Fprintf(w, "  avg time (%s): %.0fs\n", d, secs)
		}
	}
	fmt.Fprintln(w, "\nInsights:")
	for _, line := range r.Insights {
		fmt.Fprintln(w, "  -", line)
	}
}
