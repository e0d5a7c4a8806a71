package crisis

import (
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/abhisek/iotlab/internal/scenario"
)

// SlotClass classifies one slot of a submitted sequence.
type SlotClass string

const (
	SlotCorrect SlotClass = "correct"
	SlotPartial SlotClass = "partial"
	SlotWrong   SlotClass = "wrong"
)

// Scoring constants.
const (
	correctOrderPoints   = 25
	partialOrderPoints   = 12
	correctReasonPoints  = 120
	partialReasonPoints  = 40
	TimeBonusPerSecond   = 0.5
	SuccessStability     = 10
	FailureXPPerPartial  = 5
	minorStabilityBase   = 5
	minorStabilityJitter = 6
	majorStabilityBase   = 15
	majorStabilityJitter = 11
)

// Result is the outcome of grading a sequence. Built fresh per call.
type Result struct {
	Success        bool
	OrderScore     float64
	ReasoningScore float64
	TimeBonus      int
	StabilityDelta int
	XPEarned       int
	Slots          []SlotClass
	Correct        int
	Partial        int
	Errors         []string
	Feedback       string
}

// Overall is the mean of order and reasoning scores.
func (r *Result) Overall() float64 {
	return (r.OrderScore + r.ReasoningScore) / 2
}

// Classify labels each slot against the optimal sequence.
func Classify(slots, optimal []string) []SlotClass {
	inOptimal := make(map[string]bool, len(optimal))
	for _, id := range optimal {
		inOptimal[id] = true
	}
	out := make([]SlotClass, len(optimal))
	for i := range optimal {
		var id string
		if i < len(slots) {
			id = slots[i]
		}
		switch {
		case id == "":
			out[i] = SlotWrong
		case id == optimal[i]:
			out[i] = SlotCorrect
		case inOptimal[id]:
			out[i] = SlotPartial
		default:
			out[i] = SlotWrong
		}
	}
	return out
}

// Validate grades slots against sc. remaining is the countdown left in
// seconds; negative values count as zero. The stability penalty band is
// jittered by a hash of the scenario and slot contents, so identical inputs
// always produce identical results.
func Validate(slots []string, sc *scenario.Resolved, remaining int) *Result {
	optimal := sc.OptimalSequence
	n := len(optimal)
	res := &Result{Slots: Classify(slots, optimal)}

	for i, c := range res.Slots {
		switch c {
		case SlotCorrect:
			res.Correct++
		case SlotPartial:
			res.Partial++
			res.Errors = append(res.Errors, fmt.Sprintf("Step %d: %q belongs elsewhere in the plan", i+1, sc.ActionLabel(slots[i])))
		default:
			if i >= len(slots) || slots[i] == "" {
				res.Errors = append(res.Errors, fmt.Sprintf("Step %d is empty", i+1))
			} else {
				res.Errors = append(res.Errors, fmt.Sprintf("Step %d: %q does not help here", i+1, sc.ActionLabel(slots[i])))
			}
		}
	}

	if n > 0 {
		res.OrderScore = float64(res.Correct*correctOrderPoints+res.Partial*partialOrderPoints) * 4 / float64(n)
		res.ReasoningScore = math.Min(100, float64(res.Correct*correctReasonPoints+res.Partial*partialReasonPoints)/float64(n))
	}
	res.Success = n > 0 && res.Correct == n
	res.TimeBonus = int(float64(max(0, remaining)) * TimeBonusPerSecond)

	mult := sc.Difficulty.Multiplier()
	switch {
	case res.Success:
		res.StabilityDelta = SuccessStability
		res.XPEarned = int(math.Round((res.OrderScore + float64(res.TimeBonus) + res.ReasoningScore) * mult))
	case res.Correct*2 >= n:
		res.StabilityDelta = -(minorStabilityBase + int(jitter(sc.TemplateID, slots)%minorStabilityJitter))
		res.XPEarned = int(math.Round(float64(res.Partial*FailureXPPerPartial) * mult))
	default:
		res.StabilityDelta = -(majorStabilityBase + int(jitter(sc.TemplateID, slots)%majorStabilityJitter))
		res.XPEarned = int(math.Round(float64(res.Partial*FailureXPPerPartial) * mult))
	}

	res.Feedback = feedback(res, n, sc)
	return res
}

func jitter(id string, slots []string) uint64 {
	return xxhash.Sum64String(id + "\x00" + strings.Join(slots, "\x00"))
}

func feedback(res *Result, n int, sc *scenario.Resolved) string {
	switch {
	case res.Success:
		return "Crisis contained! Every step landed in the right order."
	case n-res.Correct <= 2:
		return fmt.Sprintf("Almost there: %d step(s) out of place.", n-res.Correct)
	case sc.Hint != "":
		return sc.Hint
	default:
		return "Think about what must happen first to keep people safe."
	}
}
