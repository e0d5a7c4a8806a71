// Package assist grants a one-time timer extension to players who stop
// moving the pointer for a while.
package assist

import (
	"math"
	"time"

	"github.com/abhisek/iotlab/internal/progression"
)

// Defaults.
const (
	DefaultInactivityWindow = 20 * time.Second
	DefaultMinDistance      = 3
	DefaultBonusSeconds     = 10
)

// Config tunes the controller.
type Config struct {
	// InactivityWindow is how long the pointer must stay put.
	InactivityWindow time.Duration

	// MinDistance is the smallest move, in cells, that counts as activity.
	MinDistance float64

	// BonusSeconds is added to the countdown when the bonus fires.
	BonusSeconds int
}

// DefaultConfig returns the standard assist tuning.
func DefaultConfig() Config {
	return Config{
		InactivityWindow: DefaultInactivityWindow,
		MinDistance:      DefaultMinDistance,
		BonusSeconds:     DefaultBonusSeconds,
	}
}

// Target is the session the controller watches.
type Target interface {
	State() progression.AttemptState
	GrantBonus(seconds int) (int, bool)
	NotePointerMove()
	Generation() uint64
}

// Controller watches pointer activity and grants the bonus at most once per
// scenario generation. It only mutates the target's timer.
type Controller struct {
	cfg    Config
	target Target

	gen      uint64
	anchorX  float64
	anchorY  float64
	anchored bool
	lastMove time.Time
	used     bool
}

// New returns a controller for target whose inactivity clock starts at now.
func New(target Target, cfg Config, now time.Time) *Controller {
	d := DefaultConfig()
	if cfg.InactivityWindow <= 0 {
		cfg.InactivityWindow = d.InactivityWindow
	}
	if cfg.MinDistance < 0 {
		cfg.MinDistance = 0
	}
	if cfg.BonusSeconds <= 0 {
		cfg.BonusSeconds = d.BonusSeconds
	}
	c := &Controller{cfg: cfg, target: target}
	c.rearm(now)
	return c
}

func (c *Controller) rearm(now time.Time) {
	c.gen = c.target.Generation()
	c.anchored = false
	c.lastMove = now
	c.used = false
}

func (c *Controller) sync(now time.Time) {
	if c.target.Generation() != c.gen {
		c.rearm(now)
	}
}

// PointerMoved records a pointer position. Moves shorter than MinDistance
// from the last counted position are ignored.
func (c *Controller) PointerMoved(x, y int, now time.Time) {
	c.sync(now)
	fx, fy := float64(x), float64(y)
	if c.anchored && math.Hypot(fx-c.anchorX, fy-c.anchorY) < c.cfg.MinDistance {
		return
	}
	first := !c.anchored
	c.anchorX, c.anchorY, c.anchored = fx, fy, true
	c.lastMove = now
	if !first {
		c.target.NotePointerMove()
	}
}

// Check grants the bonus if the pointer has been idle for the whole window.
// It returns the seconds added and whether the bonus fired on this call.
func (c *Controller) Check(now time.Time) (int, bool) {
	c.sync(now)
	if c.used {
		return 0, false
	}
	st := c.target.State()
	if st.Phase != progression.PhaseActive || !st.TimerRunning || st.BonusUsed {
		return 0, false
	}
	if now.Sub(c.lastMove) < c.cfg.InactivityWindow {
		return 0, false
	}
	added, ok := c.target.GrantBonus(c.cfg.BonusSeconds)
	if !ok {
		return 0, false
	}
	c.used = true
	return added, true
}

// Used reports whether the bonus fired for the current generation.
func (c *Controller) Used() bool { return c.used }

// Idle returns how long the pointer has been still as of now.
func (c *Controller) Idle(now time.Time) time.Duration {
	c.sync(now)
	return now.Sub(c.lastMove)
}
