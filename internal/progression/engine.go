package progression

import (
	"errors"
	"math"
	"time"

	"github.com/abhisek/iotlab/internal/scenario"
)

// ErrTerminal is returned by mutations on a session that has already
// succeeded or failed. The session is left unchanged.
var ErrTerminal = errors.New("progression: scenario is finished, reset to play again")

// ErrNoScenario is returned when a session has no scenario selected.
var ErrNoScenario = errors.New("progression: no scenario selected")

// Phase is the state machine position.
type Phase int

const (
	PhaseActive Phase = iota
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "active"
	}
}

// Tuning defaults.
const (
	DefaultMaxAttempts    = 3
	DefaultAttemptBonus   = 25
	DefaultFailurePenalty = 15
	InitialStability      = 100
)

// Config tunes a session.
type Config struct {
	// MaxAttempts applies when the scenario does not set its own.
	MaxAttempts int

	// AttemptBonus is the XP per unused attempt on success, before the
	// difficulty multiplier.
	AttemptBonus int

	// FailurePenalty is subtracted from stability on a failed circuit
	// validation. Crisis sessions use the validator's own delta.
	FailurePenalty int

	// Now returns the wall clock used to stamp records. Defaults to time.Now.
	Now func() time.Time

	// OnRecord, if set, is called with each record as it is appended.
	OnRecord func(DecisionRecord)
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    DefaultMaxAttempts,
		AttemptBonus:   DefaultAttemptBonus,
		FailurePenalty: DefaultFailurePenalty,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.AttemptBonus < 0 {
		c.AttemptBonus = 0
	}
	if c.FailurePenalty < 0 {
		c.FailurePenalty = 0
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// AttemptState is a read-only snapshot of a session for rendering.
type AttemptState struct {
	Phase        Phase
	AttemptsLeft int
	MaxAttempts  int
	TimerSeconds int
	TimerLimit   int
	TimerRunning bool
	Succeeded    bool
	Failed       bool
	TimedOut     bool
	Grade        Grade
	ScenarioXP   int
	SessionXP    int
	Stability    int
	BonusUsed    bool
	PointerMoves int
	Generation   uint64
}

// engine holds the state shared by circuit and crisis sessions. Only its
// owning session mutates it.
type engine struct {
	cfg Config
	sc  *scenario.Resolved

	phase        Phase
	timedOut     bool
	attemptsLeft int
	maxAttempts  int
	attempt      int
	ticks        int
	timer        Countdown
	grade        Grade
	scenarioXP   int
	bonusUsed    bool
	pointerMoves int
	generation   uint64

	sessionXP int
	stability int
	records   []DecisionRecord
}

func newEngine(sc *scenario.Resolved, cfg Config) engine {
	e := engine{cfg: cfg.withDefaults(), stability: InitialStability}
	e.load(sc)
	return e
}

// load installs sc and reinitializes every per-scenario field. Session XP,
// stability and records survive.
func (e *engine) load(sc *scenario.Resolved) {
	e.sc = sc
	e.phase = PhaseActive
	e.timedOut = false
	e.attempt = 0
	e.ticks = 0
	e.grade = GradeNone
	e.scenarioXP = 0
	e.bonusUsed = false
	e.pointerMoves = 0
	e.generation++

	e.maxAttempts = e.cfg.MaxAttempts
	limit := 0
	if sc != nil {
		if sc.MaxAttempts > 0 {
			e.maxAttempts = sc.MaxAttempts
		}
		limit = sc.TimeLimit
		if limit <= 0 {
			limit = sc.Difficulty.DefaultTimeLimit()
		}
	}
	e.attemptsLeft = e.maxAttempts
	e.timer.Stop()
	tok := e.timer.token
	e.timer = NewCountdown(limit)
	e.timer.token = tok
	if sc != nil {
		e.timer.Start()
	}
}

func (e *engine) terminal() bool { return e.phase != PhaseActive }

func (e *engine) mutable() error {
	if e.sc == nil {
		return ErrNoScenario
	}
	if e.terminal() {
		return ErrTerminal
	}
	return nil
}

func (e *engine) state() AttemptState {
	return AttemptState{
		Phase:        e.phase,
		AttemptsLeft: e.attemptsLeft,
		MaxAttempts:  e.maxAttempts,
		TimerSeconds: e.timer.Remaining(),
		TimerLimit:   e.timer.Limit(),
		TimerRunning: e.timer.Running(),
		Succeeded:    e.phase == PhaseSucceeded,
		Failed:       e.phase == PhaseFailed,
		TimedOut:     e.timedOut,
		Grade:        e.grade,
		ScenarioXP:   e.scenarioXP,
		SessionXP:    e.sessionXP,
		Stability:    e.stability,
		BonusUsed:    e.bonusUsed,
		PointerMoves: e.pointerMoves,
		Generation:   e.generation,
	}
}

// unusedAttempts counts attempts left after the current one.
func (e *engine) unusedAttempts() int {
	return max(0, e.attemptsLeft-1)
}

func (e *engine) multiplier() float64 {
	return e.sc.Difficulty.Multiplier()
}

// attemptOutcome carries a validator's verdict into the state machine.
type attemptOutcome struct {
	success   bool
	partial   bool
	score     float64
	xp        int
	stability int
	deltas    map[Axis]float64
}

// settle applies one validation verdict. The caller has already checked
// that the session is mutable and the timer has not run out.
func (e *engine) settle(o attemptOutcome) {
	e.attempt++
	elapsed := e.ticks

	if o.success {
		e.phase = PhaseSucceeded
		e.timer.Stop()
		e.grade = GradeFor(o.score)
		e.gain(o.xp)
		e.adjustStability(o.stability)
		e.append(o, OutcomeSolved, elapsed)
		return
	}

	e.attemptsLeft = max(0, e.attemptsLeft-1)
	e.gain(o.xp)
	e.adjustStability(o.stability)
	if e.attemptsLeft == 0 {
		e.phase = PhaseFailed
		e.timer.Stop()
		e.grade = GradeF
	}
	e.append(o, OutcomeFailed, elapsed)
}

// expire moves an active session to Failed because the countdown ran out.
func (e *engine) expire() {
	e.phase = PhaseFailed
	e.timedOut = true
	e.timer.Stop()
	e.grade = GradeF
	e.append(attemptOutcome{deltas: map[Axis]float64{}}, OutcomeTimeout, e.ticks)
}

func (e *engine) gain(xp int) {
	if xp <= 0 {
		return
	}
	e.scenarioXP += xp
	e.sessionXP += xp
}

func (e *engine) adjustStability(delta int) {
	e.stability = max(0, min(100, e.stability+delta))
}

func (e *engine) append(o attemptOutcome, outcome Outcome, elapsed int) {
	attempt := e.attempt
	if attempt == 0 {
		attempt = 1
	}
	rec := DecisionRecord{
		QuestionID:     e.sc.TemplateID,
		Mode:           e.sc.Kind,
		Difficulty:     e.sc.Difficulty,
		Correct:        o.success,
		PartialCredit:  !o.success && o.partial,
		ElapsedSeconds: elapsed,
		Deltas:         cloneDeltas(o.deltas),
		BonusUsed:      e.bonusUsed,
		Attempt:        attempt,
		Outcome:        outcome,
		PointerMoves:   e.pointerMoves,
		Score:          o.score,
		At:             e.cfg.Now(),
	}
	e.records = append(e.records, rec)
	if e.cfg.OnRecord != nil {
		e.cfg.OnRecord(rec.clone())
	}
}

// tick advances the countdown. It reports whether this tick expired the
// scenario.
func (e *engine) tick(token uint64) bool {
	if e.sc == nil || e.terminal() {
		return false
	}
	if token != e.timer.Token() || !e.timer.Running() {
		return false
	}
	e.ticks++
	if !e.timer.Tick(token) {
		return false
	}
	e.expire()
	return true
}

// grantBonus extends the timer once per scenario.
func (e *engine) grantBonus(seconds int) (int, bool) {
	if e.sc == nil || e.terminal() || e.bonusUsed || !e.timer.Running() {
		return 0, false
	}
	e.bonusUsed = true
	return e.timer.Extend(seconds), true
}

func (e *engine) notePointerMove() {
	if e.sc != nil && !e.terminal() {
		e.pointerMoves++
	}
}

func (e *engine) successXP(base float64) int {
	remaining := float64(e.timer.Remaining())
	bonus := float64(e.unusedAttempts() * e.cfg.AttemptBonus)
	return int(math.Round((base + remaining + bonus) * e.multiplier()))
}

func (e *engine) recordsCopy() []DecisionRecord {
	out := make([]DecisionRecord, len(e.records))
	for i, r := range e.records {
		out[i] = r.clone()
	}
	return out
}

// Machine is the mode-independent surface of a session, used by the timer
// loop, the assist controller and persistence.
type Machine interface {
	Scenario() *scenario.Resolved
	State() AttemptState
	Records() []DecisionRecord
	TimerToken() uint64
	Tick(token uint64) bool
	GrantBonus(seconds int) (int, bool)
	NotePointerMove()
	Generation() uint64
	Reset()
	SelectScenario(sc *scenario.Resolved)
}

var (
	_ Machine = (*CircuitSession)(nil)
	_ Machine = (*CrisisSession)(nil)
)
