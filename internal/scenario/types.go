package scenario

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind selects which game mode a scenario belongs to.
type Kind string

const (
	KindCircuit Kind = "circuit"
	KindCrisis  Kind = "crisis"
)

// Difficulty is the authoring difficulty of a scenario.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AllDifficulties returns all difficulties in ascending order.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// Multiplier returns the XP multiplier for the difficulty.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyMedium:
		return 1.5
	case DifficultyHard:
		return 2
	default:
		return 1
	}
}

// DefaultTimeLimit is the countdown, in seconds, used when a template
// does not set one.
func (d Difficulty) DefaultTimeLimit() int {
	switch d {
	case DifficultyMedium:
		return 150
	case DifficultyHard:
		return 120
	default:
		return 180
	}
}

// ComponentType is the closed set of parts a player can place on a board.
type ComponentType string

const (
	Controller ComponentType = "controller"
	Limiter    ComponentType = "limiter"
	Actuator   ComponentType = "actuator"
	Sensor     ComponentType = "sensor"
	Power      ComponentType = "power"
	Ground     ComponentType = "ground"
)

// AllComponentTypes returns every component type in palette order.
func AllComponentTypes() []ComponentType {
	return []ComponentType{Controller, Limiter, Actuator, Sensor, Power, Ground}
}

// Valid reports whether t is a member of the closed enumeration.
func (t ComponentType) Valid() bool {
	switch t {
	case Controller, Limiter, Actuator, Sensor, Power, Ground:
		return true
	}
	return false
}

// DisplayName returns a human-readable label for the component type.
func (t ComponentType) DisplayName() string {
	switch t {
	case Controller:
		return "Controller"
	case Limiter:
		return "Resistor"
	case Actuator:
		return "Actuator"
	case Sensor:
		return "Sensor"
	case Power:
		return "Power supply"
	case Ground:
		return "Ground"
	default:
		return string(t)
	}
}

// EdgeRequirement demands at least one connection between a component of
// type A and a component of type B. Edges are unordered.
type EdgeRequirement struct {
	A ComponentType
	B ComponentType
}

// Matches reports whether a connection between types x and y satisfies e.
func (e EdgeRequirement) Matches(x, y ComponentType) bool {
	return (e.A == x && e.B == y) || (e.A == y && e.B == x)
}

func (e EdgeRequirement) String() string {
	return e.A.DisplayName() + " ↔ " + e.B.DisplayName()
}

// NormalizeEdges drops duplicate requirements, treating A-B and B-A as equal.
// Order of first occurrence is preserved.
func NormalizeEdges(edges []EdgeRequirement) []EdgeRequirement {
	out := make([]EdgeRequirement, 0, len(edges))
	for _, e := range edges {
		dup := false
		for _, seen := range out {
			if seen.Matches(e.A, e.B) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

// Interval is a closed numeric range [Low, High].
type Interval struct {
	Low  float64
	High float64
}

// Contains reports whether v lies within the interval, bounds included.
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Low && v <= iv.High
}

// Mid returns the interval midpoint.
func (iv Interval) Mid() float64 {
	return (iv.Low + iv.High) / 2
}

// Width returns High - Low.
func (iv Interval) Width() float64 {
	return iv.High - iv.Low
}

func (iv Interval) String() string {
	return FormatMagnitude(iv.Low) + "–" + FormatMagnitude(iv.High)
}

// RangePool bounds the numeric values the randomizer may draw.
type RangePool struct {
	Min float64
	Max float64
}

// Pools holds the randomizable value sets of a template. A nil or empty
// pool means the template's fixed requirement is used as-is.
type Pools struct {
	Pins    []string
	Sensors []string
	Range   *RangePool
}

// Requirements are the structural constraints a player's artifact must meet.
// Pin, Sensor and Range act as defaults when the matching pool is empty.
type Requirements struct {
	Edges             []EdgeRequirement
	Range             *Interval
	Pin               string
	Sensor            string
	RequireController bool
	MinVolts          float64
	MinMilliAmps      float64
}

// Action is one entry in a crisis scenario's action catalogue.
type Action struct {
	ID    string
	Label string
}

// Template is an immutable authoring record loaded from a scenario bank.
type Template struct {
	ID           string
	Kind         Kind
	Title        string
	Difficulty   Difficulty
	Narrative    Narrative
	Hint         Narrative
	Pools        Pools
	Requirements Requirements

	// Crisis-only fields.
	Actions         []Action
	OptimalSequence []string

	TimeLimit   int // seconds
	MaxAttempts int
}

// Resolved is one concrete, playable instance of a Template. It is created
// once per selection and never mutated afterwards.
type Resolved struct {
	TemplateID string
	Kind       Kind
	Title      string
	Difficulty Difficulty
	Narrative  string
	Hint       string

	Edges             []EdgeRequirement
	Range             *Interval
	Pin               string
	Sensor            string
	RequireController bool
	MinVolts          float64
	MinMilliAmps      float64

	Actions         []Action
	OptimalSequence []string

	TimeLimit   int
	MaxAttempts int
}

// SequenceLength returns the number of slots in a crisis scenario.
func (r *Resolved) SequenceLength() int {
	return len(r.OptimalSequence)
}

// ActionLabel returns the label for an action id, or the id itself.
func (r *Resolved) ActionLabel(id string) string {
	for _, a := range r.Actions {
		if a.ID == id {
			return a.Label
		}
	}
	return id
}

// FormatMagnitude renders a component value compactly: 220, 4.7k, 100k.
func FormatMagnitude(v float64) string {
	if v >= 1000 {
		return strconv.FormatFloat(v/1000, 'f', -1, 64) + "k"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ErrInvalidMagnitude is returned for values that are not finite and
// non-negative.
var ErrInvalidMagnitude = errors.New("invalid magnitude")

// ValidMagnitude reports whether v is finite and not negative.
func ValidMagnitude(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// ParseMagnitude parses values written as 220, 4.7k or 1M.
func ParseMagnitude(s string) (float64, error) {
	s = strings.TrimSpace(s)
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"), strings.HasSuffix(s, "K"):
		mult = 1000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"):
		mult = 1_000_000
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	v *= mult
	if !ValidMagnitude(v) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMagnitude, s)
	}
	return v, nil
}
