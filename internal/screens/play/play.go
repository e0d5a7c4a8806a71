// Package play is the interactive scenario screen for both circuit and
// crisis modes.
package play

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/router"
	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/abhisek/iotlab/internal/screen"
	"github.com/abhisek/iotlab/internal/screens/summary"
	"github.com/abhisek/iotlab/internal/session"
	"github.com/abhisek/iotlab/internal/ui/components"
	"github.com/abhisek/iotlab/internal/ui/layout"
)

// editKind is what the open text input will change.
type editKind int

const (
	editNone editKind = iota
	editValue
	editSensor
	editPin
	editBudget
)

// PlayScreen implements screen.Screen for an active session.
type PlayScreen struct {
	sess *session.Session
	now  func() time.Time

	cursor   int
	wireFrom string

	edit     editKind
	editID   string
	input    components.TextInput
	quitting bool
	ending   bool

	flash      string
	bonusFlash int
}

var _ screen.Screen = (*PlayScreen)(nil)
var _ screen.KeyHintProvider = (*PlayScreen)(nil)
var _ screen.StatusProvider = (*PlayScreen)(nil)

// New creates a play screen for a started session.
func New(s *session.Session, now func() time.Time) *PlayScreen {
	if now == nil {
		now = time.Now
	}
	return &PlayScreen{sess: s, now: now}
}

func (p *PlayScreen) Init() tea.Cmd {
	return p.tick()
}

func (p *PlayScreen) Title() string {
	sc := p.sess.Machine().Scenario()
	if p.sess.Mode == scenario.KindCrisis {
		return "Crisis Desk · " + sc.Title
	}
	return "Circuit Lab · " + sc.Title
}

func (p *PlayScreen) Status() layout.Status {
	st := p.sess.Machine().State()
	return layout.Status{XP: st.SessionXP, Stability: st.Stability, Visible: true}
}

func (p *PlayScreen) KeyHints() []layout.KeyHint {
	switch {
	case p.quitting:
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	case p.edit != editNone:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Apply"},
			{Key: "Esc", Description: "Cancel"},
		}
	case p.state().Phase != progression.PhaseActive:
		return []layout.KeyHint{
			{Key: "N", Description: "Next scenario"},
			{Key: "n", Description: "Reroll"},
			{Key: "r", Description: "Retry"},
			{Key: "q", Description: "End session"},
		}
	case p.sess.Mode == scenario.KindCrisis:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Slot"},
			{Key: "1-9", Description: "Place action"},
			{Key: "⌫", Description: "Clear"},
			{Key: "K/J", Description: "Swap"},
			{Key: "v", Description: "Validate"},
			{Key: "r", Description: "Reset"},
			{Key: "q", Description: "End"},
		}
	default:
		return []layout.KeyHint{
			{Key: "1-6", Description: "Place"},
			{Key: "Tab", Description: "Select"},
			{Key: "c", Description: "Wire"},
			{Key: "e", Description: "Edit"},
			{Key: "b", Description: "Budget"},
			{Key: "x", Description: "Remove"},
			{Key: "v", Description: "Validate"},
			{Key: "q", Description: "End"},
		}
	}
}

func (p *PlayScreen) state() progression.AttemptState {
	return p.sess.Machine().State()
}

func (p *PlayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return p, p.handleTick(msg)

	case tea.MouseMotionMsg:
		if p.ending {
			return p, nil
		}
		m := msg.Mouse()
		p.sess.PointerMoved(m.X, m.Y, p.now())
		return p, nil

	case sessionEndedMsg:
		return p, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: summary.New(msg.summary)}
		}

	case tea.KeyMsg:
		return p, p.handleKey(msg)
	}

	if p.edit != editNone {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *PlayScreen) tick() tea.Cmd {
	token := p.sess.Machine().TimerToken()
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{token: token, at: t}
	})
}

func (p *PlayScreen) handleTick(msg tickMsg) tea.Cmd {
	if p.ending || msg.token != p.sess.Machine().TimerToken() {
		return nil
	}
	expired, bonus := p.sess.Second(msg.token, msg.at)
	if bonus > 0 {
		p.bonusFlash = bonus
	}
	if expired {
		p.cancelEdit()
		return nil
	}
	if p.state().TimerRunning {
		return p.tick()
	}
	return nil
}

func (p *PlayScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if p.ending {
		return nil
	}

	if p.quitting {
		switch key {
		case "y", "Y":
			p.quitting = false
			return p.end()
		case "n", "N", "esc":
			p.quitting = false
		}
		return nil
	}

	if p.edit != editNone {
		switch key {
		case "esc":
			p.cancelEdit()
			return nil
		case "enter":
			p.applyEdit()
			return nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return cmd
	}

	p.flash = ""
	if key == "esc" && p.wireFrom != "" {
		p.wireFrom = ""
		return nil
	}
	switch key {
	case "q", "esc":
		p.quitting = true
		return nil
	case "v", "enter":
		p.validate()
		return nil
	case "r":
		return p.restart(p.sess.Reset)
	case "n":
		return p.restart(p.sess.Reroll)
	case "N", "shift+n":
		return p.restart(p.sess.Advance)
	}

	if p.sess.Mode == scenario.KindCrisis {
		p.crisisKey(key)
	} else {
		return p.circuitKey(key)
	}
	return nil
}

// restart runs a scenario change and starts a tick chain for the new
// countdown token.
func (p *PlayScreen) restart(fn func() error) tea.Cmd {
	if err := fn(); err != nil {
		p.fail(err)
		return nil
	}
	p.cursor = 0
	p.wireFrom = ""
	p.bonusFlash = 0
	p.cancelEdit()
	return p.tick()
}

func (p *PlayScreen) validate() {
	var err error
	if cs := p.sess.Circuit(); cs != nil {
		_, err = cs.Validate()
	} else {
		_, err = p.sess.Crisis().Validate()
	}
	if err != nil {
		p.fail(err)
	}
}

func (p *PlayScreen) end() tea.Cmd {
	p.ending = true
	p.cancelEdit()
	s := p.sess
	sum, err := s.Close()
	if err != nil {
		sum = s.Summary()
		return func() tea.Msg { return sessionEndedMsg{summary: sum, err: err} }
	}
	return func() tea.Msg {
		s.Record(context.Background(), sum)
		return sessionEndedMsg{summary: sum}
	}
}

func (p *PlayScreen) fail(err error) {
	switch {
	case errors.Is(err, progression.ErrTerminal):
		p.flash = "This scenario is over. Press N for the next one or r to retry."
	default:
		p.flash = err.Error()
	}
}

func (p *PlayScreen) cancelEdit() {
	p.edit = editNone
	p.editID = ""
}
