package progression

import (
	"errors"
	"testing"
	"time"

	"github.com/abhisek/iotlab/internal/circuit"
	"github.com/abhisek/iotlab/internal/scenario"
)

func simpleCircuit() *scenario.Resolved {
	return &scenario.Resolved{
		TemplateID:  "blink",
		Kind:        scenario.KindCircuit,
		Difficulty:  scenario.DifficultyEasy,
		Edges:       []scenario.EdgeRequirement{{A: scenario.Power, B: scenario.Ground}},
		TimeLimit:   60,
		MaxAttempts: 3,
	}
}

func wireSolution(t *testing.T, s *CircuitSession) {
	t.Helper()
	p, err := s.Place(circuit.Component{Type: scenario.Power})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	g, err := s.Place(circuit.Component{Type: scenario.Ground})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if err := s.Connect(p, g); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}

func TestCircuitSession_SuccessOnFirstAttempt(t *testing.T) {
	s := NewCircuitSession(simpleCircuit(), DefaultConfig())
	wireSolution(t, s)

	res, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, errors %v", res.Errors)
	}

	st := s.State()
	if st.Phase != PhaseSucceeded || !st.Succeeded || st.Failed {
		t.Errorf("state = %+v", st)
	}
	if st.TimerRunning {
		t.Error("timer should stop on success")
	}
	if st.Grade != GradeS {
		t.Errorf("Grade = %s, want S", st.Grade)
	}
	// (100 overall + 60 remaining + 2 unused attempts * 25) * 1
	if st.ScenarioXP != 210 || st.SessionXP != 210 {
		t.Errorf("XP = %d/%d, want 210/210", st.ScenarioXP, st.SessionXP)
	}

	recs := s.Records()
	if len(recs) != 1 || recs[0].Outcome != OutcomeSolved || !recs[0].Correct {
		t.Errorf("records = %+v", recs)
	}
}

func TestCircuitSession_TerminalIsSticky(t *testing.T) {
	s := NewCircuitSession(simpleCircuit(), DefaultConfig())
	wireSolution(t, s)
	_, _ = s.Validate()

	if _, err := s.Place(circuit.Component{Type: scenario.Sensor}); !errors.Is(err, ErrTerminal) {
		t.Errorf("Place err = %v, want ErrTerminal", err)
	}
	if _, err := s.Validate(); !errors.Is(err, ErrTerminal) {
		t.Errorf("Validate err = %v, want ErrTerminal", err)
	}
	if len(s.Records()) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(s.Records()))
	}
}

func TestCircuitSession_AttemptsExhaust(t *testing.T) {
	s := NewCircuitSession(simpleCircuit(), DefaultConfig())

	for i, wantLeft := range []int{2, 1, 0} {
		res, err := s.Validate()
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if res.Success {
			t.Fatalf("attempt %d: unexpected success", i+1)
		}
		if got := s.State().AttemptsLeft; got != wantLeft {
			t.Errorf("attempt %d: AttemptsLeft = %d, want %d", i+1, got, wantLeft)
		}
	}

	st := s.State()
	if !st.Failed || st.Grade != GradeF {
		t.Errorf("state = %+v, want failed with F", st)
	}
	if st.Stability != 100-3*DefaultFailurePenalty {
		t.Errorf("Stability = %d, want %d", st.Stability, 100-3*DefaultFailurePenalty)
	}

	for i := 0; i < 3; i++ {
		if _, err := s.Validate(); !errors.Is(err, ErrTerminal) {
			t.Errorf("post-terminal Validate err = %v", err)
		}
	}
	after := s.State()
	if after.AttemptsLeft != 0 || !after.Failed {
		t.Errorf("terminal state changed: %+v", after)
	}

	recs := s.Records()
	if len(recs) != 3 {
		t.Fatalf("len(Records) = %d, want 3", len(recs))
	}
	for i, r := range recs {
		if r.Outcome != OutcomeFailed || r.Attempt != i+1 {
			t.Errorf("record %d = %+v", i, r)
		}
	}
}

func TestCircuitSession_TimeoutFailsOnce(t *testing.T) {
	s := NewCircuitSession(simpleCircuit(), DefaultConfig())
	tok := s.TimerToken()

	var expiries int
	for i := 0; i < 100; i++ {
		if s.Tick(tok) {
			expiries++
		}
	}
	if expiries != 1 {
		t.Errorf("expiries = %d, want 1", expiries)
	}

	st := s.State()
	if !st.Failed || !st.TimedOut || st.TimerSeconds != 0 || st.AttemptsLeft != 3 {
		t.Errorf("state = %+v", st)
	}
	if st.Grade != GradeF {
		t.Errorf("Grade = %s, want F", st.Grade)
	}
	if res := s.LastResult(); res == nil || res.Errors[0] != "Time expired" {
		t.Errorf("LastResult = %+v", res)
	}

	recs := s.Records()
	if len(recs) != 1 || recs[0].Outcome != OutcomeTimeout || recs[0].ElapsedSeconds != 60 {
		t.Errorf("records = %+v", recs)
	}

	if _, err := s.Validate(); !errors.Is(err, ErrTerminal) {
		t.Errorf("Validate after timeout err = %v, want ErrTerminal", err)
	}
}

func TestCircuitSession_EditClearsStaleResult(t *testing.T) {
	s := NewCircuitSession(simpleCircuit(), DefaultConfig())
	_, _ = s.Validate()
	if s.LastResult() == nil {
		t.Fatal("expected result after Validate")
	}
	if _, err := s.Place(circuit.Component{Type: scenario.Power}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if s.LastResult() != nil {
		t.Error("stale result survived an edit")
	}
}

func TestCircuitSession_ResetRestoresEverything(t *testing.T) {
	s := NewCircuitSession(simpleCircuit(), DefaultConfig())
	wireSolution(t, s)
	_, _ = s.Validate()
	xp := s.State().SessionXP
	oldTok := s.TimerToken()
	gen := s.Generation()

	s.Reset()
	st := s.State()
	if st.Phase != PhaseActive || st.AttemptsLeft != 3 || st.TimerSeconds != 60 || !st.TimerRunning {
		t.Errorf("after reset: %+v", st)
	}
	if st.Grade != GradeNone || st.ScenarioXP != 0 || st.BonusUsed {
		t.Errorf("per-scenario fields not cleared: %+v", st)
	}
	if st.SessionXP != xp {
		t.Errorf("SessionXP = %d, want %d preserved", st.SessionXP, xp)
	}
	if s.Board().Len() != 0 {
		t.Error("board not cleared")
	}
	if s.Generation() == gen {
		t.Error("generation not bumped")
	}

	s.Tick(oldTok)
	if s.State().TimerSeconds != 60 {
		t.Error("tick from before reset was applied")
	}
}

func TestCircuitSession_GrantBonusOncePerScenario(t *testing.T) {
	s := NewCircuitSession(simpleCircuit(), DefaultConfig())
	tok := s.TimerToken()
	for i := 0; i < 25; i++ {
		s.Tick(tok)
	}

	added, ok := s.GrantBonus(10)
	if !ok || added != 10 {
		t.Errorf("GrantBonus = %d,%v, want 10,true", added, ok)
	}
	if _, ok := s.GrantBonus(10); ok {
		t.Error("second bonus granted")
	}
	if s.State().TimerSeconds != 45 {
		t.Errorf("TimerSeconds = %d, want 45", s.State().TimerSeconds)
	}

	_, _ = s.Validate()
	if !s.Records()[0].BonusUsed {
		t.Error("record should carry BonusUsed")
	}

	s.Reset()
	if _, ok := s.GrantBonus(10); !ok {
		t.Error("bonus should be available again after reset")
	}
	if s.State().TimerSeconds != 60 {
		t.Errorf("TimerSeconds = %d, want capped at 60", s.State().TimerSeconds)
	}
}

func TestCircuitSession_OnRecordHook(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var got []DecisionRecord
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return at }
	cfg.OnRecord = func(r DecisionRecord) { got = append(got, r) }

	s := NewCircuitSession(simpleCircuit(), cfg)
	s.NotePointerMove()
	s.NotePointerMove()
	_, _ = s.Validate()

	if len(got) != 1 {
		t.Fatalf("hook calls = %d, want 1", len(got))
	}
	r := got[0]
	if !r.At.Equal(at) || r.PointerMoves != 2 || r.QuestionID != "blink" || r.Mode != scenario.KindCircuit {
		t.Errorf("record = %+v", r)
	}
	if r.Deltas[AxisStability] != -DefaultFailurePenalty {
		t.Errorf("stability delta = %v", r.Deltas[AxisStability])
	}
}

func TestCircuitSession_RecordsAreImmutable(t *testing.T) {
	var hooked []DecisionRecord
	cfg := DefaultConfig()
	cfg.OnRecord = func(r DecisionRecord) { hooked = append(hooked, r) }

	s := NewCircuitSession(simpleCircuit(), cfg)
	_, _ = s.Validate()
	want := s.Records()[0].Deltas[AxisAccuracy]

	recs := s.Records()
	recs[0].Deltas[AxisAccuracy] = 12345
	hooked[0].Deltas[AxisAccuracy] = 54321

	if got := s.Records()[0].Deltas[AxisAccuracy]; got != want {
		t.Errorf("accuracy delta = %v after caller edits, want %v", got, want)
	}
}

func TestCircuitSession_SelectScenarioKeepsSessionXP(t *testing.T) {
	s := NewCircuitSession(simpleCircuit(), DefaultConfig())
	wireSolution(t, s)
	_, _ = s.Validate()
	xp := s.State().SessionXP

	next := simpleCircuit()
	next.TemplateID = "next"
	next.Difficulty = scenario.DifficultyHard
	next.TimeLimit = 0
	next.MaxAttempts = 0
	s.SelectScenario(next)

	st := s.State()
	if st.SessionXP != xp {
		t.Errorf("SessionXP = %d, want %d", st.SessionXP, xp)
	}
	if st.TimerSeconds != scenario.DifficultyHard.DefaultTimeLimit() {
		t.Errorf("TimerSeconds = %d, want difficulty default", st.TimerSeconds)
	}
	if st.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", st.MaxAttempts, DefaultMaxAttempts)
	}
}

func TestCircuitSession_StabilityNeverNegative(t *testing.T) {
	sc := simpleCircuit()
	sc.MaxAttempts = 10
	s := NewCircuitSession(sc, DefaultConfig())
	for i := 0; i < 10; i++ {
		_, _ = s.Validate()
	}
	if st := s.State(); st.Stability != 0 {
		t.Errorf("Stability = %d, want 0", st.Stability)
	}
}
