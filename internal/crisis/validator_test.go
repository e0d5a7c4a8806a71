package crisis

import (
	"slices"
	"testing"

	"github.com/abhisek/iotlab/internal/scenario"
)

func fourStep(d scenario.Difficulty) *scenario.Resolved {
	return &scenario.Resolved{
		TemplateID: "flood",
		Kind:       scenario.KindCrisis,
		Difficulty: d,
		Actions: []scenario.Action{
			{ID: "cut-power", Label: "Cut mains power"},
			{ID: "notify", Label: "Notify residents"},
			{ID: "start-pump", Label: "Start sump pump"},
			{ID: "inspect", Label: "Inspect wiring"},
			{ID: "open-window", Label: "Open a window"},
		},
		OptimalSequence: []string{"cut-power", "notify", "start-pump", "inspect"},
		Hint:            "Safety before machinery.",
	}
}

func TestValidate_OptimalSequence(t *testing.T) {
	sc := fourStep(scenario.DifficultyEasy)
	res := Validate(slices.Clone(sc.OptimalSequence), sc, 40)

	if !res.Success {
		t.Fatalf("expected success, errors %v", res.Errors)
	}
	if res.OrderScore != 100 {
		t.Errorf("OrderScore = %v, want 100", res.OrderScore)
	}
	if res.ReasoningScore != 100 {
		t.Errorf("ReasoningScore = %v, want 100", res.ReasoningScore)
	}
	if res.StabilityDelta != 10 {
		t.Errorf("StabilityDelta = %d, want 10", res.StabilityDelta)
	}
	if res.TimeBonus != 20 {
		t.Errorf("TimeBonus = %d, want 20", res.TimeBonus)
	}
	if res.XPEarned != 220 {
		t.Errorf("XPEarned = %d, want 220", res.XPEarned)
	}
}

func TestValidate_DifficultyScalesXP(t *testing.T) {
	sc := fourStep(scenario.DifficultyHard)
	res := Validate(slices.Clone(sc.OptimalSequence), sc, 0)
	if res.XPEarned != 400 {
		t.Errorf("XPEarned = %d, want 400", res.XPEarned)
	}
}

func TestValidate_DisplacedFirstActionIsPartial(t *testing.T) {
	sc := fourStep(scenario.DifficultyEasy)
	slots := []string{"", "", "cut-power", ""}
	res := Validate(slots, sc, 30)

	if res.Slots[2] != SlotPartial {
		t.Errorf("slot 2 = %s, want partial", res.Slots[2])
	}
	if res.OrderScore >= 100 {
		t.Errorf("OrderScore = %v, want < 100", res.OrderScore)
	}
	if res.Success {
		t.Error("expected failure")
	}
}

func TestValidate_MoreDisplacementScoresLower(t *testing.T) {
	sc := fourStep(scenario.DifficultyEasy)
	perms := [][]string{
		{"cut-power", "notify", "start-pump", "inspect"},
		{"cut-power", "notify", "inspect", "start-pump"},
		{"cut-power", "start-pump", "inspect", "notify"},
		{"notify", "start-pump", "inspect", "cut-power"},
	}
	prev := 101.0
	for k, p := range perms {
		res := Validate(p, sc, 0)
		if res.OrderScore >= prev {
			t.Errorf("k=%d: OrderScore %v not below %v", k, res.OrderScore, prev)
		}
		prev = res.OrderScore
	}
}

func TestValidate_Classification(t *testing.T) {
	sc := fourStep(scenario.DifficultyEasy)
	res := Validate([]string{"cut-power", "open-window", "", "notify"}, sc, 0)
	want := []SlotClass{SlotCorrect, SlotWrong, SlotWrong, SlotPartial}
	if !slices.Equal(res.Slots, want) {
		t.Errorf("Slots = %v, want %v", res.Slots, want)
	}
	if res.Correct != 1 || res.Partial != 1 {
		t.Errorf("Correct/Partial = %d/%d, want 1/1", res.Correct, res.Partial)
	}
	if len(res.Errors) != 3 {
		t.Errorf("len(Errors) = %d, want 3", len(res.Errors))
	}
}

func TestValidate_StabilityBands(t *testing.T) {
	sc := fourStep(scenario.DifficultyEasy)

	half := Validate([]string{"cut-power", "notify", "", ""}, sc, 0)
	if half.StabilityDelta > -5 || half.StabilityDelta < -10 {
		t.Errorf("half-correct delta = %d, want in [-10,-5]", half.StabilityDelta)
	}

	poor := Validate([]string{"inspect", "", "", ""}, sc, 0)
	if poor.StabilityDelta > -15 || poor.StabilityDelta < -25 {
		t.Errorf("poor delta = %d, want in [-25,-15]", poor.StabilityDelta)
	}
	if poor.XPEarned != 5 {
		t.Errorf("failure XP = %d, want 5 (one partial)", poor.XPEarned)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	sc := fourStep(scenario.DifficultyMedium)
	slots := []string{"notify", "", "inspect", "open-window"}
	a, b := Validate(slots, sc, 12), Validate(slots, sc, 12)
	if a.StabilityDelta != b.StabilityDelta || a.OrderScore != b.OrderScore || a.XPEarned != b.XPEarned {
		t.Error("identical inputs gave different results")
	}
}

func TestValidate_NegativeRemainingTime(t *testing.T) {
	sc := fourStep(scenario.DifficultyEasy)
	res := Validate(slices.Clone(sc.OptimalSequence), sc, -5)
	if res.TimeBonus != 0 {
		t.Errorf("TimeBonus = %d, want 0", res.TimeBonus)
	}
}

func TestValidate_FeedbackTiers(t *testing.T) {
	sc := fourStep(scenario.DifficultyEasy)
	almost := Validate([]string{"cut-power", "notify", "inspect", "start-pump"}, sc, 0)
	if almost.Feedback != "Almost there: 2 step(s) out of place." {
		t.Errorf("Feedback = %q", almost.Feedback)
	}
	far := Validate([]string{"", "", "", ""}, sc, 0)
	if far.Feedback != sc.Hint {
		t.Errorf("Feedback = %q, want hint", far.Feedback)
	}
}
