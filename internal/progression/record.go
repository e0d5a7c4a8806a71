package progression

import (
	"time"

	"github.com/abhisek/iotlab/internal/scenario"
)

// Outcome is the final disposition written on a DecisionRecord.
type Outcome string

const (
	OutcomeSolved  Outcome = "solved"
	OutcomeFailed  Outcome = "failed"
	OutcomeTimeout Outcome = "timeout"
)

// Axis names one per-attempt score delta dimension.
type Axis string

const (
	AxisAccuracy   Axis = "accuracy"
	AxisReasoning  Axis = "reasoning"
	AxisEfficiency Axis = "efficiency"
	AxisStability  Axis = "stability"
)

// DecisionRecord is the immutable audit entry for one validation attempt
// or timeout.
type DecisionRecord struct {
	QuestionID     string
	Mode           scenario.Kind
	Difficulty     scenario.Difficulty
	Correct        bool
	PartialCredit  bool
	ElapsedSeconds int
	Deltas         map[Axis]float64
	BonusUsed      bool
	Attempt        int
	Outcome        Outcome
	PointerMoves   int
	Score          float64
	At             time.Time
}

// clone returns a copy that shares no maps with r.
func (r DecisionRecord) clone() DecisionRecord {
	r.Deltas = cloneDeltas(r.Deltas)
	return r
}

func cloneDeltas(d map[Axis]float64) map[Axis]float64 {
	if d == nil {
		return nil
	}
	out := make(map[Axis]float64, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
