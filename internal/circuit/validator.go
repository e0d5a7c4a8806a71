package circuit

import (
	"fmt"
	"math"

	"github.com/abhisek/iotlab/internal/scenario"
)

// Score weights applied by the structural check.
const (
	MissingControllerPenalty = 20
	PinMismatchPenalty       = 10
	PinMatchBonus            = 10
	ResourcePointsPerBudget  = 50
)

// Result is the outcome of grading a board. It is built fresh by every
// Validate call and never modified afterwards.
type Result struct {
	Success     bool
	Structural  float64
	Calibration float64
	Resource    float64
	Errors      []string
	Feedback    string
}

// Overall is the mean of the three sub-scores.
func (r *Result) Overall() float64 {
	return (r.Structural + r.Calibration + r.Resource) / 3
}

// Check contributes one part of the grade. Checks are stateless.
type Check interface {
	// Name returns a short identifier, e.g. "structural".
	Name() string

	// Apply inspects the board and records scores and errors on res.
	Apply(b *Board, sc *scenario.Resolved, res *Result)
}

// DefaultChecks returns the standard check chain.
func DefaultChecks() []Check {
	return []Check{
		&StructuralCheck{},
		&CalibrationCheck{},
		&ResourceCheck{},
		&SensorCheck{},
		&FloatingCheck{},
	}
}

// Validator grades boards against resolved circuit scenarios.
type Validator struct {
	checks []Check
}

// NewValidator returns a validator running the default check chain.
func NewValidator() *Validator {
	return &Validator{checks: DefaultChecks()}
}

// Validate grades b against sc. Identical inputs give identical results.
func (v *Validator) Validate(b *Board, sc *scenario.Resolved) *Result {
	res := &Result{}
	for _, c := range v.checks {
		c.Apply(b, sc, res)
	}
	res.Success = len(res.Errors) == 0
	res.Feedback = feedback(res, sc)
	return res
}

// Validate grades b with the default check chain.
func Validate(b *Board, sc *scenario.Resolved) *Result {
	return NewValidator().Validate(b, sc)
}

func feedback(res *Result, sc *scenario.Resolved) string {
	switch {
	case res.Success:
		return "Circuit online! Every connection checks out."
	case len(res.Errors) <= 2:
		return fmt.Sprintf("Almost there: %d issue(s) left to fix.", len(res.Errors))
	case sc.Hint != "":
		return sc.Hint
	default:
		return "Trace the circuit from power to ground and check each part."
	}
}

// StructuralCheck matches required type-level edges and the controller pin.
// It checks adjacency between component types, not end-to-end paths.
type StructuralCheck struct{}

func (c *StructuralCheck) Name() string { return "structural" }

func (c *StructuralCheck) Apply(b *Board, sc *scenario.Resolved, res *Result) {
	score := 100.0
	if len(sc.Edges) > 0 {
		matched := 0
		for _, req := range sc.Edges {
			if hasTypedEdge(b, req) {
				matched++
				continue
			}
			res.Errors = append(res.Errors, fmt.Sprintf("Missing connection: %s", req))
		}
		score = float64(matched) / float64(len(sc.Edges)) * 100
	}

	if needsController(sc) {
		ctrls := b.ComponentsOfType(scenario.Controller)
		switch {
		case len(ctrls) == 0:
			score -= MissingControllerPenalty
			res.Errors = append(res.Errors, "No controller placed")
		case sc.Pin != "":
			if controllerOnPin(ctrls, sc.Pin) {
				score += PinMatchBonus
			} else {
				score -= PinMismatchPenalty
			}
		}
	}
	res.Structural = clamp(score)
}

func hasTypedEdge(b *Board, req scenario.EdgeRequirement) bool {
	for _, conn := range b.connections {
		x, y := b.byID[conn.A], b.byID[conn.B]
		if x == nil || y == nil {
			continue
		}
		if req.Matches(x.Type, y.Type) {
			return true
		}
	}
	return false
}

func needsController(sc *scenario.Resolved) bool {
	if sc.RequireController || sc.Pin != "" {
		return true
	}
	for _, e := range sc.Edges {
		if e.A == scenario.Controller || e.B == scenario.Controller {
			return true
		}
	}
	return false
}

func controllerOnPin(ctrls []Component, pin string) bool {
	for _, c := range ctrls {
		if c.Pin == pin {
			return true
		}
	}
	return false
}

// CalibrationCheck compares limiter values against the accepted interval.
// The best-scoring limiter sets the score.
type CalibrationCheck struct{}

func (c *CalibrationCheck) Name() string { return "calibration" }

func (c *CalibrationCheck) Apply(b *Board, sc *scenario.Resolved, res *Result) {
	if sc.Range == nil {
		res.Calibration = 100
		return
	}
	limiters := b.ComponentsOfType(scenario.Limiter)
	if len(limiters) == 0 {
		res.Calibration = 0
		res.Errors = append(res.Errors, fmt.Sprintf("No resistor placed: expected %s", sc.Range))
		return
	}

	best := limiters[0]
	bestScore := CalibrationScore(best.Value, *sc.Range)
	for _, l := range limiters[1:] {
		if s := CalibrationScore(l.Value, *sc.Range); s > bestScore {
			best, bestScore = l, s
		}
	}
	res.Calibration = bestScore

	switch {
	case !scenario.ValidMagnitude(best.Value):
		res.Calibration = 0
		res.Errors = append(res.Errors, fmt.Sprintf("Resistor value %v is not a usable value", best.Value))
	case best.Value < sc.Range.Low:
		res.Errors = append(res.Errors, fmt.Sprintf("Resistor %s is too low: minimum is %s",
			scenario.FormatMagnitude(best.Value), scenario.FormatMagnitude(sc.Range.Low)))
	case best.Value > sc.Range.High:
		res.Errors = append(res.Errors, fmt.Sprintf("Resistor %s is too high: maximum is %s",
			scenario.FormatMagnitude(best.Value), scenario.FormatMagnitude(sc.Range.High)))
	}
}

// CalibrationScore is 100 inside iv and falls off linearly with distance
// from the midpoint outside it, floored at 0.
func CalibrationScore(v float64, iv scenario.Interval) float64 {
	if !scenario.ValidMagnitude(v) {
		return 0
	}
	if iv.Contains(v) {
		return 100
	}
	span := iv.Width()
	if span <= 0 {
		span = math.Max(math.Abs(iv.Mid()), 1)
	}
	excess := math.Abs(v-iv.Mid()) - iv.Width()/2
	return clamp(100 - 100*excess/span)
}

// ResourceCheck scores the supply budget and requires power and ground.
type ResourceCheck struct{}

func (c *ResourceCheck) Name() string { return "resource" }

func (c *ResourceCheck) Apply(b *Board, sc *scenario.Resolved, res *Result) {
	budget := b.Budget()
	score := 0.0
	if budget.Volts >= sc.MinVolts {
		score += ResourcePointsPerBudget
	}
	if budget.MilliAmps >= sc.MinMilliAmps {
		score += ResourcePointsPerBudget
	}
	res.Resource = score

	if len(b.ComponentsOfType(scenario.Power)) == 0 {
		res.Errors = append(res.Errors, "No power supply placed")
	}
	if len(b.ComponentsOfType(scenario.Ground)) == 0 {
		res.Errors = append(res.Errors, "No ground placed")
	}
}

// SensorCheck requires a sensor of the scenario's sub-type. It reports an
// error but does not change any score.
type SensorCheck struct{}

func (c *SensorCheck) Name() string { return "sensor" }

func (c *SensorCheck) Apply(b *Board, sc *scenario.Resolved, res *Result) {
	if sc.Sensor == "" {
		return
	}
	for _, s := range b.ComponentsOfType(scenario.Sensor) {
		if s.Sensor == sc.Sensor {
			return
		}
	}
	res.Errors = append(res.Errors, fmt.Sprintf("Expected a %s sensor", sc.Sensor))
}

// FloatingCheck reports components with no wires attached.
type FloatingCheck struct{}

func (c *FloatingCheck) Name() string { return "floating" }

func (c *FloatingCheck) Apply(b *Board, _ *scenario.Resolved, res *Result) {
	for _, comp := range b.components {
		if b.Degree(comp.ID) == 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("%s %s is floating", comp.Type.DisplayName(), shortID(comp.ID)))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
