package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/iotlab/internal/scenario"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--db", filepath.Join(t.TempDir(), "iotlab.db"), "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScenariosList(t *testing.T) {
	out, err := run(t, "scenarios", "list", "--mode", "crisis")
	require.NoError(t, err)
	assert.Contains(t, out, "flooded-basement")
	assert.NotContains(t, out, "soil-moisture")

	_, err = run(t, "scenarios", "list", "--mode", "space")
	assert.Error(t, err)
}

func TestScenariosShow(t *testing.T) {
	out, err := run(t, "scenarios", "show", "gas-leak", "--seed", "9", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "Actions:")
	assert.Contains(t, out, "Optimal:")
}

func TestGradeCircuitBoard(t *testing.T) {
	bank, err := scenario.Default()
	require.NoError(t, err)
	tmpl, err := bank.Get("soil-moisture")
	require.NoError(t, err)
	sc := scenario.NewSeededRandomizer(4).Resolve(tmpl)

	board := fmt.Sprintf(`budget: {volts: %g, milliamps: %g}
components:
  - {id: vcc, type: power}
  - {id: probe, type: sensor, sensor: %s}
  - {id: r1, type: limiter, value: %g}
  - {id: gnd, type: ground}
connections:
  - [vcc, probe]
  - [probe, r1]
  - [r1, gnd]
`, sc.MinVolts, sc.MinMilliAmps, sc.Sensor, sc.Range.Low)
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(board), 0o644))

	out, err := run(t, "grade", "--scenario", "soil-moisture", "--seed", "4", "--board", path, "--json")
	require.NoError(t, err)

	var got gradeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Success, "errors: %v", got.Errors)
	assert.Equal(t, "circuit", got.Kind)
	assert.NotEqual(t, "F", got.Grade)
}

func TestGradeCrisisSequence(t *testing.T) {
	out, err := run(t, "grade", "--scenario", "flooded-basement", "--sequence", "cut-power,notify,start-pump,inspect", "--json=false")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "flooded-basement (crisis): PASSED"), out)

	out, err = run(t, "grade", "--scenario", "flooded-basement", "--sequence", "inspect,start-pump,notify,cut-power", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "FAILED")
}

func TestGradeNeedsMatchingInput(t *testing.T) {
	_, err := run(t, "grade", "--scenario", "flooded-basement", "--sequence", "", "--board", "x.yaml")
	assert.ErrorContains(t, err, "--sequence")
}

func TestStatsEmpty(t *testing.T) {
	out, err := run(t, "stats", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "No attempts recorded yet.")
}

func TestResetRequiresConfirmation(t *testing.T) {
	_, err := run(t, "reset", "--yes=false")
	assert.ErrorContains(t, err, "--yes")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "iotlab")
}

func TestGradeCrisisSequenceRejectsBadSlots(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{"repeated action", "cut-power,cut-power,cut-power,cut-power", "already placed in slot 1"},
		{"too many actions", "cut-power,notify,start-pump,inspect,reboot-hub", "has 4 slots"},
		{"unknown action", "cut-power,dance", "unknown action \"dance\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "grade", "--scenario", "flooded-basement", "--sequence", tt.seq, "--json=false")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestGradeCrisisSequenceEmptySlots(t *testing.T) {
	out, err := run(t, "grade", "--scenario", "flooded-basement", "--sequence", "cut-power", "--json")
	require.NoError(t, err)

	var got gradeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Success)
	assert.Equal(t, "F", got.Grade)
	scores, ok := got.Scores.(map[string]any)
	require.True(t, ok, "scores: %T", got.Scores)
	assert.InDelta(t, 25.0, scores["order"], 0.01)
}
