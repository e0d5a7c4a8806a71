package circuit

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/abhisek/iotlab/internal/scenario"
)

func exampleScenario() *scenario.Resolved {
	return &scenario.Resolved{
		TemplateID: "example",
		Kind:       scenario.KindCircuit,
		Difficulty: scenario.DifficultyEasy,
		Edges: scenario.NormalizeEdges([]scenario.EdgeRequirement{
			{A: scenario.Power, B: scenario.Sensor},
			{A: scenario.Sensor, B: scenario.Limiter},
			{A: scenario.Limiter, B: scenario.Ground},
			{A: scenario.Limiter, B: scenario.Ground},
		}),
		Range:        &scenario.Interval{Low: 100, High: 1000},
		MinVolts:     3.3,
		MinMilliAmps: 500,
		Hint:         "Follow the current from power to ground.",
	}
}

func exampleBoard(t *testing.T) *Board {
	t.Helper()
	b := NewBoard()
	mustPlace(t, b, Component{ID: "pwr", Type: scenario.Power})
	mustPlace(t, b, Component{ID: "sen", Type: scenario.Sensor})
	mustPlace(t, b, Component{ID: "res", Type: scenario.Limiter, Value: 220})
	mustPlace(t, b, Component{ID: "gnd", Type: scenario.Ground})
	for _, pair := range [][2]string{{"pwr", "sen"}, {"sen", "res"}, {"res", "gnd"}} {
		if err := b.Connect(pair[0], pair[1]); err != nil {
			t.Fatalf("Connect: %v", err)
		}
	}
	b.SetBudget(Budget{Volts: 3.3, MilliAmps: 500})
	return b
}

func TestValidate_ExampleCircuitSucceeds(t *testing.T) {
	res := Validate(exampleBoard(t), exampleScenario())
	if !res.Success {
		t.Fatalf("expected success, errors: %v", res.Errors)
	}
	if res.Structural != 100 || res.Calibration != 100 || res.Resource != 100 {
		t.Errorf("scores = %v/%v/%v, want 100/100/100", res.Structural, res.Calibration, res.Resource)
	}
	if res.Overall() != 100 {
		t.Errorf("Overall = %v, want 100", res.Overall())
	}
	if !strings.Contains(res.Feedback, "online") {
		t.Errorf("Feedback = %q", res.Feedback)
	}
}

func TestValidate_IsDeterministic(t *testing.T) {
	b := exampleBoard(t)
	_ = b.SetValue("res", 5000)
	sc := exampleScenario()
	a, c := Validate(b, sc), Validate(b, sc)
	if a.Calibration != c.Calibration || strings.Join(a.Errors, "|") != strings.Join(c.Errors, "|") {
		t.Error("identical inputs gave different results")
	}
}

func TestValidate_MissingEdgeReducesStructural(t *testing.T) {
	b := exampleBoard(t)
	b.Disconnect("sen", "res")
	_ = b.Connect("pwr", "res")
	res := Validate(b, exampleScenario())
	if res.Success {
		t.Fatal("expected failure")
	}
	want := 2.0 / 3.0 * 100
	if res.Structural != want {
		t.Errorf("Structural = %v, want %v", res.Structural, want)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "Missing connection") {
		t.Errorf("Errors = %v", res.Errors)
	}
	if !strings.HasPrefix(res.Feedback, "Almost there") {
		t.Errorf("Feedback = %q, want almost tier", res.Feedback)
	}
}

func TestValidate_TypeLevelAdjacencyOnly(t *testing.T) {
	// Two separate sensors satisfy different edges; no end-to-end path exists
	// through a single sensor but the type-level check still passes.
	b := NewBoard()
	mustPlace(t, b, Component{ID: "pwr", Type: scenario.Power})
	mustPlace(t, b, Component{ID: "s1", Type: scenario.Sensor})
	mustPlace(t, b, Component{ID: "s2", Type: scenario.Sensor})
	mustPlace(t, b, Component{ID: "res", Type: scenario.Limiter, Value: 470})
	mustPlace(t, b, Component{ID: "gnd", Type: scenario.Ground})
	_ = b.Connect("pwr", "s1")
	_ = b.Connect("s2", "res")
	_ = b.Connect("res", "gnd")
	b.SetBudget(Budget{Volts: 5, MilliAmps: 1000})

	res := Validate(b, exampleScenario())
	if res.Structural != 100 {
		t.Errorf("Structural = %v, want 100", res.Structural)
	}
	if !res.Success {
		t.Errorf("expected success, errors: %v", res.Errors)
	}
}

func TestCalibrationScore_BoundsAndFalloff(t *testing.T) {
	iv := scenario.Interval{Low: 100, High: 1000}
	if got := CalibrationScore(100, iv); got != 100 {
		t.Errorf("score at low bound = %v, want 100", got)
	}
	if got := CalibrationScore(1000, iv); got != 100 {
		t.Errorf("score at high bound = %v, want 100", got)
	}

	prev := 100.0
	for _, v := range []float64{1001, 1100, 1300, 1600} {
		s := CalibrationScore(v, iv)
		if s >= prev {
			t.Errorf("score(%v) = %v, not below previous %v", v, s, prev)
		}
		prev = s
	}
	prev = 100.0
	for _, v := range []float64{99, 80, 40, 1} {
		s := CalibrationScore(v, iv)
		if s >= prev {
			t.Errorf("score(%v) = %v, not below previous %v", v, s, prev)
		}
		prev = s
	}
	if got := CalibrationScore(1_000_000, iv); got != 0 {
		t.Errorf("far value score = %v, want 0", got)
	}
}

func TestCalibrationScore_DegenerateInterval(t *testing.T) {
	iv := scenario.Interval{Low: 220, High: 220}
	if got := CalibrationScore(220, iv); got != 100 {
		t.Errorf("exact = %v, want 100", got)
	}
	if got := CalibrationScore(330, iv); got >= 100 || got < 0 {
		t.Errorf("off value = %v", got)
	}
}

func TestValidate_CalibrationErrors(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{47, "too low: minimum is 100"},
		{4700, "too high: maximum is 1k"},
	}
	for _, tt := range tests {
		b := exampleBoard(t)
		_ = b.SetValue("res", tt.value)
		res := Validate(b, exampleScenario())
		if res.Success {
			t.Errorf("value %v: expected failure", tt.value)
		}
		found := false
		for _, e := range res.Errors {
			if strings.Contains(e, tt.want) {
				found = true
			}
		}
		if !found {
			t.Errorf("value %v: errors %v missing %q", tt.value, res.Errors, tt.want)
		}
	}
}

func TestValidate_UnusableLimiterValue(t *testing.T) {
	b := exampleBoard(t)
	for _, v := range []float64{math.NaN(), math.Inf(1), -220} {
		if err := b.SetValue("res", v); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("SetValue(%v) err = %v, want ErrInvalidValue", v, err)
		}
	}

	// A value that bypassed the setters still fails grading.
	b.byID["res"].Value = math.NaN()
	res := Validate(b, exampleScenario())
	if res.Success {
		t.Fatal("expected failure for NaN limiter")
	}
	if res.Calibration != 0 {
		t.Errorf("Calibration = %v, want 0", res.Calibration)
	}
	if math.IsNaN(res.Overall()) {
		t.Error("Overall is NaN")
	}
	if !strings.Contains(strings.Join(res.Errors, "|"), "not a usable value") {
		t.Errorf("Errors = %v", res.Errors)
	}
	if got := CalibrationScore(math.Inf(1), *exampleScenario().Range); got != 0 {
		t.Errorf("CalibrationScore(+Inf) = %v, want 0", got)
	}
}

func TestValidate_BestLimiterWins(t *testing.T) {
	b := exampleBoard(t)
	mustPlace(t, b, Component{ID: "res2", Type: scenario.Limiter, Value: 10})
	_ = b.Connect("res2", "gnd")
	res := Validate(b, exampleScenario())
	if res.Calibration != 100 {
		t.Errorf("Calibration = %v, want 100", res.Calibration)
	}
	if !res.Success {
		t.Errorf("expected success, errors: %v", res.Errors)
	}
}

func TestValidate_NoLimiter(t *testing.T) {
	b := exampleBoard(t)
	_ = b.Remove("res")
	res := Validate(b, exampleScenario())
	if res.Calibration != 0 {
		t.Errorf("Calibration = %v, want 0", res.Calibration)
	}
}

func TestValidate_ResourceBudget(t *testing.T) {
	tests := []struct {
		budget Budget
		want   float64
	}{
		{Budget{3.3, 500}, 100},
		{Budget{5, 200}, 50},
		{Budget{1.8, 900}, 50},
		{Budget{0, 0}, 0},
	}
	for _, tt := range tests {
		b := exampleBoard(t)
		b.SetBudget(tt.budget)
		res := Validate(b, exampleScenario())
		if res.Resource != tt.want {
			t.Errorf("budget %+v: Resource = %v, want %v", tt.budget, res.Resource, tt.want)
		}
	}
}

func TestValidate_MissingPowerAndGroundAreErrors(t *testing.T) {
	b := exampleBoard(t)
	_ = b.Remove("pwr")
	_ = b.Remove("gnd")
	res := Validate(b, exampleScenario())
	if res.Resource != 100 {
		t.Errorf("Resource = %v, want 100 (numeric check independent)", res.Resource)
	}
	joined := strings.Join(res.Errors, "|")
	if !strings.Contains(joined, "No power supply placed") || !strings.Contains(joined, "No ground placed") {
		t.Errorf("Errors = %v", res.Errors)
	}
}

func TestValidate_ControllerChecks(t *testing.T) {
	sc := exampleScenario()
	sc.Edges = nil
	sc.Pin = "GPIO4"

	b := exampleBoard(t)
	res := Validate(b, sc)
	if res.Structural != 80 {
		t.Errorf("missing controller: Structural = %v, want 80", res.Structural)
	}
	if !strings.Contains(strings.Join(res.Errors, "|"), "No controller placed") {
		t.Errorf("Errors = %v", res.Errors)
	}

	mustPlace(t, b, Component{ID: "mcu", Type: scenario.Controller, Pin: "GPIO5"})
	_ = b.Connect("mcu", "pwr")
	res = Validate(b, sc)
	if res.Structural != 90 {
		t.Errorf("wrong pin: Structural = %v, want 90", res.Structural)
	}
	if !res.Success || len(res.Errors) != 0 {
		t.Errorf("wrong pin costs score only: Success = %v, Errors = %v", res.Success, res.Errors)
	}

	_ = b.SetPin("mcu", "GPIO4")
	res = Validate(b, sc)
	if res.Structural != 100 {
		t.Errorf("matching pin: Structural = %v, want 100 (capped)", res.Structural)
	}
	if !res.Success {
		t.Errorf("expected success, errors: %v", res.Errors)
	}
}

func TestValidate_SensorSubTypeErrorWithoutPenalty(t *testing.T) {
	sc := exampleScenario()
	sc.Sensor = "capacitive"
	b := exampleBoard(t)
	_ = b.SetSensor("sen", "resistive")

	res := Validate(b, sc)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Structural != 100 || res.Calibration != 100 || res.Resource != 100 {
		t.Errorf("scores changed: %v/%v/%v", res.Structural, res.Calibration, res.Resource)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "Expected a capacitive sensor" {
		t.Errorf("Errors = %v", res.Errors)
	}
}

func TestValidate_FloatingComponent(t *testing.T) {
	b := exampleBoard(t)
	mustPlace(t, b, Component{ID: "buzzer01", Type: scenario.Actuator})
	res := Validate(b, exampleScenario())
	if res.Success {
		t.Fatal("expected failure for floating component")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "floating") {
		t.Errorf("Errors = %v", res.Errors)
	}
	if res.Structural != 100 {
		t.Errorf("Structural = %v, want 100", res.Structural)
	}
}

func TestValidate_ManyErrorsUsesHint(t *testing.T) {
	res := Validate(NewBoard(), exampleScenario())
	if res.Feedback != "Follow the current from power to ground." {
		t.Errorf("Feedback = %q, want scenario hint", res.Feedback)
	}
}
