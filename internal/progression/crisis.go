package progression

import (
	"errors"
	"fmt"
	"math"

	"github.com/abhisek/iotlab/internal/crisis"
	"github.com/abhisek/iotlab/internal/scenario"
)

// ErrUnknownAction is returned when placing an action the scenario does not
// offer.
var ErrUnknownAction = errors.New("progression: unknown action")

// CrisisSession drives one crisis scenario at a time. Like CircuitSession
// it has a single owner.
type CrisisSession struct {
	engine
	seq  *crisis.Sequence
	last *crisis.Result
}

// NewCrisisSession starts sc with an empty sequence.
func NewCrisisSession(sc *scenario.Resolved, cfg Config) *CrisisSession {
	return &CrisisSession{
		engine: newEngine(sc, cfg),
		seq:    crisis.NewSequence(sequenceLength(sc)),
	}
}

func sequenceLength(sc *scenario.Resolved) int {
	if sc == nil {
		return 0
	}
	return sc.SequenceLength()
}

func (s *CrisisSession) Scenario() *scenario.Resolved { return s.sc }
func (s *CrisisSession) State() AttemptState          { return s.state() }
func (s *CrisisSession) Records() []DecisionRecord    { return s.recordsCopy() }
func (s *CrisisSession) TimerToken() uint64           { return s.timer.Token() }
func (s *CrisisSession) Generation() uint64           { return s.generation }
func (s *CrisisSession) Slots() []string              { return s.seq.Slots() }
func (s *CrisisSession) LastResult() *crisis.Result   { return s.last }

func (s *CrisisSession) edit(fn func() error) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	s.last = nil
	return nil
}

// Place puts actionID into slot, moving it from any other slot.
func (s *CrisisSession) Place(slot int, actionID string) error {
	return s.edit(func() error {
		if !s.offers(actionID) {
			return fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
		}
		return s.seq.Place(slot, actionID)
	})
}

func (s *CrisisSession) Clear(slot int) error {
	return s.edit(func() error { return s.seq.Clear(slot) })
}

func (s *CrisisSession) Swap(i, j int) error {
	return s.edit(func() error { return s.seq.Swap(i, j) })
}

func (s *CrisisSession) offers(id string) bool {
	for _, a := range s.sc.Actions {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Validate grades the current sequence and advances the state machine.
func (s *CrisisSession) Validate() (*crisis.Result, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	res := crisis.Validate(s.seq.Slots(), s.sc, s.timer.Remaining())
	s.last = res

	o := attemptOutcome{
		success:   res.Success,
		partial:   res.Correct > 0 || res.Partial > 0,
		score:     res.Overall(),
		xp:        res.XPEarned,
		stability: res.StabilityDelta,
		deltas: map[Axis]float64{
			AxisAccuracy:   res.OrderScore,
			AxisReasoning:  res.ReasoningScore,
			AxisEfficiency: float64(res.TimeBonus),
			AxisStability:  float64(res.StabilityDelta),
		},
	}
	if res.Success {
		o.xp += int(math.Round(float64(s.unusedAttempts()*s.cfg.AttemptBonus) * s.multiplier()))
	}
	s.settle(o)
	return res, nil
}

// Tick advances the countdown by one second. It returns true for the tick
// that expires the scenario.
func (s *CrisisSession) Tick(token uint64) bool {
	if !s.tick(token) {
		return false
	}
	n := sequenceLength(s.sc)
	slots := make([]crisis.SlotClass, n)
	for i := range slots {
		slots[i] = crisis.SlotWrong
	}
	s.last = &crisis.Result{
		Slots:    slots,
		Errors:   []string{"Time expired"},
		Feedback: "Time's up! The situation escalated before the plan was ready.",
	}
	return true
}

func (s *CrisisSession) GrantBonus(seconds int) (int, bool) { return s.grantBonus(seconds) }
func (s *CrisisSession) NotePointerMove()                   { s.notePointerMove() }

// Reset replays the current scenario with an empty sequence.
func (s *CrisisSession) Reset() {
	s.load(s.sc)
	s.seq = crisis.NewSequence(sequenceLength(s.sc))
	s.last = nil
}

// SelectScenario switches to sc.
func (s *CrisisSession) SelectScenario(sc *scenario.Resolved) {
	s.load(sc)
	s.seq = crisis.NewSequence(sequenceLength(sc))
	s.last = nil
}
