package assist

import (
	"testing"
	"time"

	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/scenario"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newSession(limit int) *progression.CircuitSession {
	return progression.NewCircuitSession(&scenario.Resolved{
		TemplateID: "idle",
		Kind:       scenario.KindCircuit,
		Difficulty: scenario.DifficultyEasy,
		TimeLimit:  limit,
	}, progression.DefaultConfig())
}

func burn(s *progression.CircuitSession, n int) {
	tok := s.TimerToken()
	for i := 0; i < n; i++ {
		s.Tick(tok)
	}
}

func TestController_GrantsAfterInactivity(t *testing.T) {
	s := newSession(60)
	burn(s, 30)
	c := New(s, DefaultConfig(), t0)

	if _, ok := c.Check(t0.Add(19 * time.Second)); ok {
		t.Error("bonus fired before the window elapsed")
	}
	added, ok := c.Check(t0.Add(20 * time.Second))
	if !ok || added != 10 {
		t.Errorf("Check = %d,%v, want 10,true", added, ok)
	}
	if got := s.State().TimerSeconds; got != 40 {
		t.Errorf("TimerSeconds = %d, want 40", got)
	}
	if _, ok := c.Check(t0.Add(time.Minute)); ok {
		t.Error("bonus fired twice")
	}
}

func TestController_MovementResetsWindow(t *testing.T) {
	s := newSession(60)
	burn(s, 30)
	c := New(s, DefaultConfig(), t0)

	c.PointerMoved(0, 0, t0.Add(5*time.Second))
	c.PointerMoved(10, 0, t0.Add(15*time.Second))
	if _, ok := c.Check(t0.Add(25 * time.Second)); ok {
		t.Error("bonus fired although the pointer moved 10s ago")
	}
	if s.State().PointerMoves != 1 {
		t.Errorf("PointerMoves = %d, want 1", s.State().PointerMoves)
	}
	if _, ok := c.Check(t0.Add(35 * time.Second)); !ok {
		t.Error("bonus should fire 20s after the last move")
	}
}

func TestController_IgnoresJitter(t *testing.T) {
	s := newSession(60)
	burn(s, 30)
	c := New(s, DefaultConfig(), t0)

	c.PointerMoved(5, 5, t0)
	for i := 1; i <= 20; i++ {
		c.PointerMoved(5+i%2, 5, t0.Add(time.Duration(i)*time.Second))
	}
	if _, ok := c.Check(t0.Add(20 * time.Second)); !ok {
		t.Error("sub-threshold moves should not count as activity")
	}
}

func TestController_RearmsOnReset(t *testing.T) {
	s := newSession(60)
	burn(s, 30)
	c := New(s, DefaultConfig(), t0)
	if _, ok := c.Check(t0.Add(20 * time.Second)); !ok {
		t.Fatal("expected first bonus")
	}

	s.Reset()
	burn(s, 30)
	now := t0.Add(21 * time.Second)
	if _, ok := c.Check(now); ok {
		t.Error("inactivity clock should restart on reset")
	}
	if !c.Used() && c.Idle(now) != 0 {
		t.Errorf("Idle = %v, want 0 right after rearm", c.Idle(now))
	}
	if _, ok := c.Check(now.Add(20 * time.Second)); !ok {
		t.Error("bonus should be available again after reset")
	}
}

func TestController_SkipsTerminalSessions(t *testing.T) {
	s := newSession(5)
	burn(s, 5)
	c := New(s, DefaultConfig(), t0)
	if _, ok := c.Check(t0.Add(time.Hour)); ok {
		t.Error("bonus fired on a finished session")
	}
}
