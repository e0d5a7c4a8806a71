package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/iotlab/internal/circuit"
	"github.com/abhisek/iotlab/internal/crisis"
	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/scenario"
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a saved board or response plan against a scenario (no database)",
	Long: `Resolve a scenario and grade a submission once, without the TUI.

Circuit scenarios take --board, a YAML board file. Crisis scenarios take
--sequence, either a comma-separated list of action IDs or a YAML file
with a "sequence" list. Use the same --seed to reproduce a resolution.`,
	RunE: runGrade,
}

func init() {
	gradeCmd.Flags().String("scenario", "", "Scenario ID (required)")
	gradeCmd.Flags().Uint64("seed", 1, "Seed for scenario randomization")
	gradeCmd.Flags().String("board", "", "Board YAML file (circuit scenarios)")
	gradeCmd.Flags().String("sequence", "", "Action IDs or a YAML file (crisis scenarios)")
	gradeCmd.Flags().Bool("json", false, "Print the result as JSON")
	_ = gradeCmd.MarkFlagRequired("scenario")
}

type gradeOutput struct {
	Scenario string   `json:"scenario"`
	Kind     string   `json:"kind"`
	Success  bool     `json:"success"`
	Score    float64  `json:"score"`
	Grade    string   `json:"grade"`
	Scores   any      `json:"scores"`
	Errors   []string `json:"errors,omitempty"`
	Feedback string   `json:"feedback"`
}

func runGrade(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("scenario")
	seed, _ := cmd.Flags().GetUint64("seed")
	boardPath, _ := cmd.Flags().GetString("board")
	seqArg, _ := cmd.Flags().GetString("sequence")
	asJSON, _ := cmd.Flags().GetBool("json")

	bank, err := loadBank()
	if err != nil {
		return err
	}
	tmpl, err := bank.Get(id)
	if err != nil {
		return err
	}
	sc := scenario.NewSeededRandomizer(seed).Resolve(tmpl)

	var out gradeOutput
	switch sc.Kind {
	case scenario.KindCircuit:
		if boardPath == "" {
			return fmt.Errorf("%s is a circuit scenario: pass --board", id)
		}
		f, err := os.Open(boardPath)
		if err != nil {
			return err
		}
		defer f.Close()
		board, err := circuit.ReadBoard(f)
		if err != nil {
			return err
		}
		res := circuit.Validate(board, sc)
		out = gradeOutput{
			Success:  res.Success,
			Score:    res.Overall(),
			Errors:   res.Errors,
			Feedback: res.Feedback,
			Scores: map[string]float64{
				"structural":  res.Structural,
				"calibration": res.Calibration,
				"resource":    res.Resource,
			},
		}
	case scenario.KindCrisis:
		if seqArg == "" {
			return fmt.Errorf("%s is a crisis scenario: pass --sequence", id)
		}
		ids, err := readSequence(seqArg)
		if err != nil {
			return err
		}
		slots, err := buildSlots(ids, sc)
		if err != nil {
			return err
		}
		res := crisis.Validate(slots, sc, sc.TimeLimit)
		out = gradeOutput{
			Success:  res.Success,
			Score:    res.Overall(),
			Errors:   res.Errors,
			Feedback: res.Feedback,
			Scores: map[string]any{
				"order":      res.OrderScore,
				"reasoning":  res.ReasoningScore,
				"time_bonus": res.TimeBonus,
				"stability":  res.StabilityDelta,
				"xp":         res.XPEarned,
				"slots":      res.Slots,
			},
		}
	}
	out.Scenario = sc.TemplateID
	out.Kind = string(sc.Kind)
	out.Grade = string(progression.GradeF)
	if out.Success {
		out.Grade = string(progression.GradeFor(out.Score))
	}

	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	status := "FAILED"
	if out.Success {
		status = "PASSED"
	}
	fmt.Fprintf(w, "%s (%s): %s  score %.1f  grade %s\n", out.Scenario, out.Kind, status, out.Score, out.Grade)
	for _, e := range out.Errors {
		fmt.Fprintln(w, "  ✗", e)
	}
	fmt.Fprintln(w, out.Feedback)
	return nil
}

// readSequence accepts "a,b,c" or a path to a YAML file with a sequence key.
func readSequence(arg string) ([]string, error) {
	if _, err := os.Stat(arg); err != nil {
		var slots []string
		for _, s := range strings.Split(arg, ",") {
			slots = append(slots, strings.TrimSpace(s))
		}
		return slots, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Sequence []string `yaml:"sequence"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode sequence: %w", err)
	}
	return doc.Sequence, nil
}

// buildSlots lays ids into a sequence of the scenario's length. Empty ids
// leave a slot empty. Unknown, repeated or surplus actions are rejected.
func buildSlots(ids []string, sc *scenario.Resolved) ([]string, error) {
	n := sc.SequenceLength()
	if len(ids) > n {
		return nil, fmt.Errorf("sequence has %d actions, scenario %s has %d slots", len(ids), sc.TemplateID, n)
	}
	known := make(map[string]bool, len(sc.Actions))
	for _, a := range sc.Actions {
		known[a.ID] = true
	}
	seq := crisis.NewSequence(n)
	for i, id := range ids {
		if id == "" {
			continue
		}
		if !known[id] {
			return nil, fmt.Errorf("slot %d: unknown action %q", i+1, id)
		}
		if prev := seq.SlotOf(id); prev >= 0 {
			return nil, fmt.Errorf("slot %d: action %q already placed in slot %d", i+1, id, prev+1)
		}
		if err := seq.Place(i, id); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i+1, err)
		}
	}
	return seq.Slots(), nil
}
