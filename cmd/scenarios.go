package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/iotlab/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Browse the scenario bank",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios (optionally filtered by mode)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")

		bank, err := loadBank()
		if err != nil {
			return err
		}

		kinds := []scenario.Kind{scenario.KindCircuit, scenario.KindCrisis}
		switch mode {
		case "":
		case string(scenario.KindCircuit), string(scenario.KindCrisis):
			kinds = []scenario.Kind{scenario.Kind(mode)}
		default:
			return fmt.Errorf("invalid mode %q: must be circuit or crisis", mode)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-20s  %-8s  %-8s  %5s  %s\n", "ID", "Mode", "Level", "Time", "Title")
		fmt.Fprintln(w, strings.Repeat("─", 80))

		n := 0
		for _, k := range kinds {
			for _, t := range bank.List(k) {
				limit := t.TimeLimit
				if limit <= 0 {
					limit = t.Difficulty.DefaultTimeLimit()
				}
				fmt.Fprintf(w, "%-20s  %-8s  %-8s  %4ds  %s\n", t.ID, t.Kind, t.Difficulty, limit, t.Title)
				n++
			}
		}
		fmt.Fprintf(w, "\n%d scenarios\n", n)
		return nil
	},
}

var scenariosShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one resolved instance of a scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, _ := cmd.Flags().GetUint64("seed")
		reveal, _ := cmd.Flags().GetBool("reveal")

		bank, err := loadBank()
		if err != nil {
			return err
		}
		t, err := bank.Get(args[0])
		if err != nil {
			return err
		}
		sc := scenario.NewSeededRandomizer(seed).Resolve(t)

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s: %s (%s, %s)\n\n", sc.TemplateID, sc.Title, sc.Kind, sc.Difficulty)
		fmt.Fprintln(w, sc.Narrative)
		fmt.Fprintf(w, "\nHint: %s\n", sc.Hint)
		fmt.Fprintf(w, "Time limit: %ds   Attempts: %d   XP multiplier: %gx\n",
			sc.TimeLimit, sc.MaxAttempts, sc.Difficulty.Multiplier())

		switch sc.Kind {
		case scenario.KindCircuit:
			fmt.Fprintln(w, "\nRequired wiring:")
			for _, e := range sc.Edges {
				fmt.Fprintf(w, "  %s ─ %s\n", e.A.DisplayName(), e.B.DisplayName())
			}
			if sc.Range != nil {
				fmt.Fprintf(w, "Limiter: %s–%s Ω\n", scenario.FormatMagnitude(sc.Range.Low), scenario.FormatMagnitude(sc.Range.High))
			}
			if sc.Sensor != "" {
				fmt.Fprintf(w, "Sensor: %s\n", sc.Sensor)
			}
			if sc.RequireController {
				fmt.Fprintf(w, "Controller pin: %s\n", sc.Pin)
			}
			fmt.Fprintf(w, "Supply: at least %g V / %g mA\n", sc.MinVolts, sc.MinMilliAmps)
		case scenario.KindCrisis:
			fmt.Fprintln(w, "\nActions:")
			for i, a := range sc.Actions {
				fmt.Fprintf(w, "  %d. %-14s %s\n", i+1, a.ID, a.Label)
			}
			fmt.Fprintf(w, "Plan length: %d steps\n", sc.SequenceLength())
			if reveal {
				fmt.Fprintf(w, "Optimal: %s\n", strings.Join(sc.OptimalSequence, ", "))
			}
		}
		return nil
	},
}

func init() {
	scenariosListCmd.Flags().String("mode", "", "Filter by mode: circuit or crisis")
	scenariosShowCmd.Flags().Uint64("seed", 1, "Seed for scenario randomization")
	scenariosShowCmd.Flags().Bool("reveal", false, "Print the optimal crisis sequence")

	scenariosCmd.AddCommand(scenariosListCmd)
	scenariosCmd.AddCommand(scenariosShowCmd)
}
