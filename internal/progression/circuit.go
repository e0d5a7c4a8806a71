package progression

import (
	"github.com/abhisek/iotlab/internal/circuit"
	"github.com/abhisek/iotlab/internal/scenario"
)

// CircuitSession drives one circuit scenario at a time: the player's board,
// attempts, countdown and grading. It has a single owner and is not safe
// for concurrent use.
type CircuitSession struct {
	engine
	board     *circuit.Board
	validator *circuit.Validator
	last      *circuit.Result
}

// NewCircuitSession starts sc with a fresh board. The countdown is running
// on return; drive it with Tick(TimerToken()).
func NewCircuitSession(sc *scenario.Resolved, cfg Config) *CircuitSession {
	return &CircuitSession{
		engine:    newEngine(sc, cfg),
		board:     circuit.NewBoard(),
		validator: circuit.NewValidator(),
	}
}

func (s *CircuitSession) Scenario() *scenario.Resolved { return s.sc }
func (s *CircuitSession) State() AttemptState          { return s.state() }
func (s *CircuitSession) Records() []DecisionRecord    { return s.recordsCopy() }
func (s *CircuitSession) TimerToken() uint64           { return s.timer.Token() }
func (s *CircuitSession) Generation() uint64           { return s.generation }

// Board returns a copy of the player's board.
func (s *CircuitSession) Board() *circuit.Board { return s.board.Clone() }

// LastResult returns the most recent validation result, or nil if the board
// changed since.
func (s *CircuitSession) LastResult() *circuit.Result { return s.last }

// edit runs a board mutation unless the session is finished.
func (s *CircuitSession) edit(fn func() error) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	s.last = nil
	return nil
}

func (s *CircuitSession) Place(c circuit.Component) (string, error) {
	var id string
	err := s.edit(func() error {
		var err error
		id, err = s.board.Place(c)
		return err
	})
	return id, err
}

func (s *CircuitSession) Remove(id string) error {
	return s.edit(func() error { return s.board.Remove(id) })
}

func (s *CircuitSession) Move(id string, pos circuit.Position) error {
	return s.edit(func() error { return s.board.Move(id, pos) })
}

func (s *CircuitSession) SetValue(id string, v float64) error {
	return s.edit(func() error { return s.board.SetValue(id, v) })
}

func (s *CircuitSession) SetPin(id, pin string) error {
	return s.edit(func() error { return s.board.SetPin(id, pin) })
}

func (s *CircuitSession) SetSensor(id, subType string) error {
	return s.edit(func() error { return s.board.SetSensor(id, subType) })
}

func (s *CircuitSession) Connect(a, b string) error {
	return s.edit(func() error { return s.board.Connect(a, b) })
}

func (s *CircuitSession) Disconnect(a, b string) error {
	return s.edit(func() error {
		s.board.Disconnect(a, b)
		return nil
	})
}

func (s *CircuitSession) SetBudget(b circuit.Budget) error {
	return s.edit(func() error {
		s.board.SetBudget(b)
		return nil
	})
}

// Validate grades the board and advances the state machine.
func (s *CircuitSession) Validate() (*circuit.Result, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	res := s.validator.Validate(s.board, s.sc)
	s.last = res

	overall := res.Overall()
	o := attemptOutcome{
		success: res.Success,
		partial: overall >= 50,
		score:   overall,
	}
	if res.Success {
		o.xp = s.successXP(overall)
	} else {
		o.stability = -s.cfg.FailurePenalty
	}
	o.deltas = map[Axis]float64{
		AxisAccuracy:   res.Structural,
		AxisReasoning:  res.Calibration,
		AxisEfficiency: res.Resource,
		AxisStability:  float64(o.stability),
	}
	s.settle(o)
	return res, nil
}

// Tick advances the countdown by one second. It returns true for the tick
// that expires the scenario.
func (s *CircuitSession) Tick(token uint64) bool {
	if !s.tick(token) {
		return false
	}
	s.last = &circuit.Result{
		Errors:   []string{"Time expired"},
		Feedback: "Time's up! The circuit never came online.",
	}
	return true
}

// GrantBonus adds up to seconds to the countdown, once per scenario.
func (s *CircuitSession) GrantBonus(seconds int) (int, bool) { return s.grantBonus(seconds) }

// NotePointerMove counts pointer activity for the decision record.
func (s *CircuitSession) NotePointerMove() { s.notePointerMove() }

// Reset replays the current scenario from scratch on an empty board.
func (s *CircuitSession) Reset() {
	s.load(s.sc)
	s.board.Clear()
	s.last = nil
}

// SelectScenario switches to sc with a fresh board and budget.
func (s *CircuitSession) SelectScenario(sc *scenario.Resolved) {
	s.load(sc)
	s.board = circuit.NewBoard()
	s.last = nil
}
