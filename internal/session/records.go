package session

import (
	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/abhisek/iotlab/internal/store"
)

// ToEvent converts a decision record to its stored form.
func ToEvent(sessionID string, r progression.DecisionRecord) store.DecisionEventData {
	var deltas map[string]float64
	if len(r.Deltas) > 0 {
		deltas = make(map[string]float64, len(r.Deltas))
		for k, v := range r.Deltas {
			deltas[string(k)] = v
		}
	}
	return store.DecisionEventData{
		Timestamp:      r.At,
		SessionID:      sessionID,
		QuestionID:     r.QuestionID,
		Mode:           string(r.Mode),
		Difficulty:     string(r.Difficulty),
		Correct:        r.Correct,
		PartialCredit:  r.PartialCredit,
		ElapsedSeconds: r.ElapsedSeconds,
		Deltas:         deltas,
		BonusUsed:      r.BonusUsed,
		Attempt:        r.Attempt,
		Outcome:        string(r.Outcome),
		PointerMoves:   r.PointerMoves,
		Score:          r.Score,
	}
}

// FromEvent converts a stored decision back to a record.
func FromEvent(e store.DecisionEventData) progression.DecisionRecord {
	var deltas map[progression.Axis]float64
	if len(e.Deltas) > 0 {
		deltas = make(map[progression.Axis]float64, len(e.Deltas))
		for k, v := range e.Deltas {
			deltas[progression.Axis(k)] = v
		}
	}
	return progression.DecisionRecord{
		QuestionID:     e.QuestionID,
		Mode:           scenario.Kind(e.Mode),
		Difficulty:     scenario.Difficulty(e.Difficulty),
		Correct:        e.Correct,
		PartialCredit:  e.PartialCredit,
		ElapsedSeconds: e.ElapsedSeconds,
		Deltas:         deltas,
		BonusUsed:      e.BonusUsed,
		Attempt:        e.Attempt,
		Outcome:        progression.Outcome(e.Outcome),
		PointerMoves:   e.PointerMoves,
		Score:          e.Score,
		At:             e.Timestamp,
	}
}

// FromEvents converts a slice of stored decisions.
func FromEvents(events []store.DecisionEventData) []progression.DecisionRecord {
	out := make([]progression.DecisionRecord, 0, len(events))
	for _, e := range events {
		out = append(out, FromEvent(e))
	}
	return out
}
