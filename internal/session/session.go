// Package session runs one play session: it picks and resolves scenarios,
// owns the mode's state machine and assist controller, persists decision
// records, and uploads the summary when the session ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/iotlab/internal/assist"
	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/abhisek/iotlab/internal/store"
	"github.com/abhisek/iotlab/internal/upload"
)

// ErrEnded is returned when using a session after End.
var ErrEnded = errors.New("session: already ended")

// SnapshotsToKeep is how many lifetime snapshots survive pruning.
const SnapshotsToKeep = 5

// Options wires a session to its collaborators. Events, Snapshots and
// Uploader are optional.
type Options struct {
	Bank       *scenario.Bank
	Randomizer *scenario.Randomizer
	Events     store.EventRepo
	Snapshots  store.SnapshotRepo
	Uploader   *upload.Client

	Progression progression.Config
	Assist      assist.Config

	Logger *slog.Logger
	Now    func() time.Time
}

// Session is one sitting of play in a single mode.
type Session struct {
	ID        string
	Mode      scenario.Kind
	StartedAt time.Time

	opts     Options
	template *scenario.Template
	circuit  *progression.CircuitSession
	crisis   *progression.CrisisSession
	machine  progression.Machine
	assist   *assist.Controller
	ended    bool
}

// Start opens a session in mode. If scenarioID is empty the first scenario
// of that mode in the bank is used.
func Start(ctx context.Context, mode scenario.Kind, scenarioID string, opts Options) (*Session, error) {
	if opts.Bank == nil {
		return nil, fmt.Errorf("session: no scenario bank")
	}
	if opts.Randomizer == nil {
		opts.Randomizer = scenario.NewRandomizer(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Assist == (assist.Config{}) {
		opts.Assist = assist.DefaultConfig()
	}

	tmpl, err := pickTemplate(opts.Bank, mode, scenarioID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		Mode:      tmpl.Kind,
		StartedAt: opts.Now(),
		opts:      opts,
		template:  tmpl,
	}

	pcfg := opts.Progression
	pcfg.Now = opts.Now
	userHook := pcfg.OnRecord
	pcfg.OnRecord = func(r progression.DecisionRecord) {
		s.persist(r)
		if userHook != nil {
			userHook(r)
		}
	}

	resolved := opts.Randomizer.Resolve(tmpl)
	switch tmpl.Kind {
	case scenario.KindCrisis:
		s.crisis = progression.NewCrisisSession(resolved, pcfg)
		s.machine = s.crisis
	default:
		s.circuit = progression.NewCircuitSession(resolved, pcfg)
		s.machine = s.circuit
	}
	s.assist = assist.New(s.machine, opts.Assist, s.StartedAt)

	if opts.Events != nil {
		err := opts.Events.AppendSessionEvent(ctx, store.SessionEventData{
			Timestamp:  s.StartedAt,
			SessionID:  s.ID,
			Action:     store.SessionStart,
			Mode:       string(s.Mode),
			ScenarioID: tmpl.ID,
		})
		if err != nil {
			opts.Logger.Warn("failed to record session start", "session_id", s.ID, "error", err)
		}
	}
	opts.Logger.Debug("session started", "session_id", s.ID, "mode", s.Mode, "scenario", tmpl.ID)
	return s, nil
}

func pickTemplate(bank *scenario.Bank, mode scenario.Kind, id string) (*scenario.Template, error) {
	if id != "" {
		t, err := bank.Get(id)
		if err != nil {
			return nil, err
		}
		if mode != "" && t.Kind != mode {
			return nil, fmt.Errorf("scenario %s is a %s scenario, not %s", id, t.Kind, mode)
		}
		return t, nil
	}
	list := bank.List(mode)
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no %s scenarios in bank", scenario.ErrNotFound, mode)
	}
	return list[0], nil
}

// persist appends a record to the event store. Failures are logged and
// never interrupt play.
func (s *Session) persist(r progression.DecisionRecord) {
	if s.opts.Events == nil {
		return
	}
	if err := s.opts.Events.AppendDecision(context.Background(), ToEvent(s.ID, r)); err != nil {
		s.opts.Logger.Warn("failed to record decision", "session_id", s.ID, "question", r.QuestionID, "error", err)
	}
}

// Circuit returns the circuit state machine, or nil in crisis mode.
func (s *Session) Circuit() *progression.CircuitSession { return s.circuit }

// Crisis returns the crisis state machine, or nil in circuit mode.
func (s *Session) Crisis() *progression.CrisisSession { return s.crisis }

// Machine returns the active state machine.
func (s *Session) Machine() progression.Machine { return s.machine }

// Assist returns the inactivity assist controller.
func (s *Session) Assist() *assist.Controller { return s.assist }

// Template returns the template currently in play.
func (s *Session) Template() *scenario.Template { return s.template }

// Ended reports whether End has been called.
func (s *Session) Ended() bool { return s.ended }

// Second is the once-per-second driver: it advances the countdown carrying
// token and gives the assist controller a chance to fire. It reports
// whether the scenario timed out and how many bonus seconds were granted.
func (s *Session) Second(token uint64, now time.Time) (expired bool, bonus int) {
	if s.ended {
		return false, 0
	}
	expired = s.machine.Tick(token)
	if !expired {
		if added, ok := s.assist.Check(now); ok {
			bonus = added
			s.opts.Logger.Debug("assist bonus granted", "session_id", s.ID, "seconds", added)
		}
	}
	return expired, bonus
}

// PointerMoved feeds pointer activity to the assist controller.
func (s *Session) PointerMoved(x, y int, now time.Time) {
	if !s.ended {
		s.assist.PointerMoved(x, y, now)
	}
}

// Reset replays the current scenario with the same resolved values.
func (s *Session) Reset() error {
	if s.ended {
		return ErrEnded
	}
	s.machine.Reset()
	return nil
}

// Reroll resolves the current template again with fresh random values.
func (s *Session) Reroll() error {
	if s.ended {
		return ErrEnded
	}
	s.machine.SelectScenario(s.opts.Randomizer.Resolve(s.template))
	return nil
}

// Advance moves to the next scenario of the same mode.
func (s *Session) Advance() error {
	if s.ended {
		return ErrEnded
	}
	next, err := s.opts.Bank.Next(s.template.ID)
	if err != nil {
		return err
	}
	s.template = next
	s.machine.SelectScenario(s.opts.Randomizer.Resolve(next))
	return nil
}

// Summary builds the current session summary.
func (s *Session) Summary() *Summary {
	sum := BuildSummary(s.ID, s.Mode, s.StartedAt, s.opts.Now(), s.machine.State(), s.machine.Records())
	sum.ScenarioID = s.template.ID
	return sum
}

// End closes the session and records it. It is Close followed by Record.
func (s *Session) End(ctx context.Context) (*Summary, error) {
	sum, err := s.Close()
	if err != nil {
		return nil, err
	}
	s.Record(ctx, sum)
	return sum, nil
}

// Close marks the session ended and returns its final summary. It does no
// I/O, so it must run on the goroutine that drives the session.
func (s *Session) Close() (*Summary, error) {
	if s.ended {
		return nil, ErrEnded
	}
	s.ended = true
	return s.Summary(), nil
}

// Record writes the end event, updates lifetime totals and uploads sum.
// It only reads state fixed by Close and may run on another goroutine.
// Persistence and upload failures are logged, never returned.
func (s *Session) Record(ctx context.Context, sum *Summary) {
	if s.opts.Events != nil {
		err := s.opts.Events.AppendSessionEvent(ctx, store.SessionEventData{
			Timestamp:    sum.EndedAt,
			SessionID:    s.ID,
			Action:       store.SessionEnd,
			Mode:         string(s.Mode),
			ScenarioID:   sum.ScenarioID,
			TotalXP:      sum.TotalXP,
			Stability:    sum.Stability,
			Records:      len(sum.Records),
			DurationSecs: int(sum.Duration().Seconds()),
		})
		if err != nil {
			s.opts.Logger.Warn("failed to record session end", "session_id", s.ID, "error", err)
		}
	}

	s.saveSnapshot(ctx, sum)

	if s.opts.Uploader.Enabled() {
		s.opts.Uploader.SendBestEffort(ctx, sum.Payload())
	}
}

// saveSnapshot folds this session into the lifetime totals.
func (s *Session) saveSnapshot(ctx context.Context, sum *Summary) {
	repo := s.opts.Snapshots
	if repo == nil {
		return
	}
	prev, err := repo.Latest(ctx)
	if err != nil {
		s.opts.Logger.Warn("failed to load snapshot", "error", err)
		return
	}
	data := store.SnapshotData{Version: 1}
	if prev != nil {
		data = prev.Data
	}
	data = MergeTotals(data, sum)

	if err := repo.Save(ctx, &store.Snapshot{Timestamp: sum.EndedAt, Data: data}); err != nil {
		s.opts.Logger.Warn("failed to save snapshot", "error", err)
		return
	}
	if err := repo.Prune(ctx, SnapshotsToKeep); err != nil {
		s.opts.Logger.Warn("failed to prune snapshots", "error", err)
	}
}
