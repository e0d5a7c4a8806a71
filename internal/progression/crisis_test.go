package progression

import (
	"errors"
	"testing"

	"github.com/abhisek/iotlab/internal/scenario"
)

func simpleCrisis() *scenario.Resolved {
	return &scenario.Resolved{
		TemplateID: "flood",
		Kind:       scenario.KindCrisis,
		Difficulty: scenario.DifficultyEasy,
		Actions: []scenario.Action{
			{ID: "cut", Label: "Cut power"},
			{ID: "notify", Label: "Notify"},
			{ID: "pump", Label: "Pump"},
		},
		OptimalSequence: []string{"cut", "notify", "pump"},
		TimeLimit:       60,
		MaxAttempts:     3,
	}
}

func TestCrisisSession_Success(t *testing.T) {
	s := NewCrisisSession(simpleCrisis(), DefaultConfig())
	for i, id := range []string{"cut", "notify", "pump"} {
		if err := s.Place(i, id); err != nil {
			t.Fatalf("Place: %v", err)
		}
	}
	res, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Success || res.StabilityDelta != 10 {
		t.Errorf("result = %+v", res)
	}
	st := s.State()
	// validator XP (100 + 30 + 100) plus 2 unused attempts * 25
	if st.ScenarioXP != 280 {
		t.Errorf("ScenarioXP = %d, want 280", st.ScenarioXP)
	}
	if st.Grade != GradeS || st.Stability != 100 {
		t.Errorf("state = %+v", st)
	}
}

func TestCrisisSession_UnknownAction(t *testing.T) {
	s := NewCrisisSession(simpleCrisis(), DefaultConfig())
	if err := s.Place(0, "dance"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}
}

func TestCrisisSession_FailureAppliesValidatorStability(t *testing.T) {
	s := NewCrisisSession(simpleCrisis(), DefaultConfig())
	_ = s.Place(0, "pump")
	res, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Success {
		t.Fatal("unexpected success")
	}
	st := s.State()
	if st.Stability != 100+res.StabilityDelta {
		t.Errorf("Stability = %d, want %d", st.Stability, 100+res.StabilityDelta)
	}
	if st.AttemptsLeft != 2 {
		t.Errorf("AttemptsLeft = %d, want 2", st.AttemptsLeft)
	}
	rec := s.Records()[0]
	if !rec.PartialCredit || rec.Outcome != OutcomeFailed {
		t.Errorf("record = %+v", rec)
	}
}

func TestCrisisSession_TimeoutResult(t *testing.T) {
	s := NewCrisisSession(simpleCrisis(), DefaultConfig())
	tok := s.TimerToken()
	for i := 0; i < 60; i++ {
		s.Tick(tok)
	}
	if !s.State().TimedOut {
		t.Fatal("expected timeout")
	}
	if res := s.LastResult(); res == nil || len(res.Slots) != 3 {
		t.Errorf("LastResult = %+v", res)
	}
	if err := s.Place(0, "cut"); !errors.Is(err, ErrTerminal) {
		t.Errorf("Place err = %v, want ErrTerminal", err)
	}
}

func TestCrisisSession_ResetEmptiesSequence(t *testing.T) {
	s := NewCrisisSession(simpleCrisis(), DefaultConfig())
	_ = s.Place(1, "cut")
	s.Reset()
	for _, id := range s.Slots() {
		if id != "" {
			t.Fatalf("Slots = %v, want empty", s.Slots())
		}
	}
}
