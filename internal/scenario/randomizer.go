package scenario

import (
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
)

// StandardMagnitudes is the set of component values a drawn range snaps to.
var StandardMagnitudes = []float64{
	10, 22, 33, 47, 68,
	100, 150, 220, 330, 470, 680,
	1000, 1500, 2200, 3300, 4700, 6800,
	10000, 22000, 47000, 100000,
}

// Randomizer resolves templates into playable scenarios using an injected
// random source.
type Randomizer struct {
	rng *rand.Rand
}

// NewRandomizer creates a Randomizer. A nil source selects a randomly
// seeded PCG source.
func NewRandomizer(src rand.Source) *Randomizer {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Randomizer{rng: rand.New(src)}
}

// NewSeededRandomizer creates a Randomizer with a deterministic source.
func NewSeededRandomizer(seed uint64) *Randomizer {
	return NewRandomizer(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Resolve draws one value from each pool of t and renders the narrative.
func (r *Randomizer) Resolve(t *Template) *Resolved {
	req := t.Requirements
	res := &Resolved{
		TemplateID:        t.ID,
		Kind:              t.Kind,
		Title:             t.Title,
		Difficulty:        t.Difficulty,
		Edges:             NormalizeEdges(req.Edges),
		Pin:               req.Pin,
		Sensor:            req.Sensor,
		RequireController: req.RequireController,
		MinVolts:          req.MinVolts,
		MinMilliAmps:      req.MinMilliAmps,
		OptimalSequence:   slices.Clone(t.OptimalSequence),
		TimeLimit:         t.TimeLimit,
		MaxAttempts:       t.MaxAttempts,
	}
	if res.TimeLimit <= 0 {
		res.TimeLimit = t.Difficulty.DefaultTimeLimit()
	}
	if res.MaxAttempts <= 0 {
		res.MaxAttempts = 3
	}

	if len(t.Pools.Pins) > 0 {
		res.Pin = t.Pools.Pins[r.rng.IntN(len(t.Pools.Pins))]
	}
	if len(t.Pools.Sensors) > 0 {
		res.Sensor = t.Pools.Sensors[r.rng.IntN(len(t.Pools.Sensors))]
	}
	if t.Pools.Range != nil {
		iv := r.drawRange(*t.Pools.Range)
		res.Range = &iv
	} else if req.Range != nil {
		iv := *req.Range
		res.Range = &iv
	}

	if len(t.Actions) > 0 {
		res.Actions = slices.Clone(t.Actions)
		r.rng.Shuffle(len(res.Actions), func(i, j int) {
			res.Actions[i], res.Actions[j] = res.Actions[j], res.Actions[i]
		})
	}

	subs := res.Substitutions()
	res.Narrative = t.Narrative.Render(subs)
	res.Hint = t.Hint.Render(subs)
	return res
}

// Substitutions returns the placeholder values of a resolved scenario.
func (r *Resolved) Substitutions() Substitutions {
	subs := Substitutions{
		PlaceholderPin:     r.Pin,
		PlaceholderSensor:  r.Sensor,
		PlaceholderVoltage: strconv.FormatFloat(r.MinVolts, 'f', -1, 64),
		PlaceholderCurrent: strconv.FormatFloat(r.MinMilliAmps, 'f', -1, 64),
	}
	if r.Range != nil {
		subs[PlaceholderLow] = FormatMagnitude(r.Range.Low)
		subs[PlaceholderHigh] = FormatMagnitude(r.Range.High)
	}
	return subs
}

// drawRange draws low and high independently and snaps each to the nearest
// standard magnitude inside the pool bounds.
func (r *Randomizer) drawRange(p RangePool) Interval {
	lo, hi := p.Min, p.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	candidates := magnitudesWithin(lo, hi)

	a := Snap(lo+r.rng.Float64()*(hi-lo), candidates)
	b := Snap(lo+r.rng.Float64()*(hi-lo), candidates)
	if a > b {
		a, b = b, a
	}
	if a == b && len(candidates) > 1 {
		i := slices.Index(candidates, a)
		if i < len(candidates)-1 {
			b = candidates[i+1]
		} else {
			a = candidates[i-1]
		}
	}
	return Interval{Low: a, High: b}
}

// magnitudesWithin returns the standard magnitudes inside [lo, hi]. When
// none fall inside, the bounds themselves are the only candidates.
func magnitudesWithin(lo, hi float64) []float64 {
	var out []float64
	for _, m := range StandardMagnitudes {
		if m >= lo && m <= hi {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		if lo == hi {
			return []float64{lo}
		}
		return []float64{lo, hi}
	}
	return out
}

// Snap returns the candidate nearest to v. Ties resolve to the smaller one.
// candidates must be non-empty and sorted ascending.
func Snap(v float64, candidates []float64) float64 {
	best := candidates[0]
	bestDist := math.Abs(v - best)
	for _, c := range candidates[1:] {
		if d := math.Abs(v - c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
