package upload

import (
	"fmt"
	"time"

	"github.com/abhisek/iotlab/internal/analytics"
	"github.com/abhisek/iotlab/internal/progression"
)

// Payload is the session summary posted at session end.
type Payload struct {
	SessionID string           `json:"session_id"`
	Mode      string           `json:"mode"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   time.Time        `json:"ended_at"`
	TotalXP   int              `json:"total_xp"`
	Stability int              `json:"stability"`
	Records   []Record         `json:"records"`
	Report    analytics.Report `json:"report"`
}

// Record is the wire form of a decision record.
type Record struct {
	QuestionID     string             `json:"question_id"`
	Mode           string             `json:"mode"`
	Difficulty     string             `json:"difficulty"`
	Correct        bool               `json:"correct"`
	PartialCredit  bool               `json:"partial_credit"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	Deltas         map[string]float64 `json:"deltas,omitempty"`
	BonusUsed      bool               `json:"bonus_used"`
	Attempt        int                `json:"attempt"`
	Outcome        string             `json:"outcome"`
	PointerMoves   int                `json:"pointer_moves"`
	Score          float64            `json:"score"`
	At             time.Time          `json:"at"`
}

// FromDecision converts a decision record to its wire form.
func FromDecision(r progression.DecisionRecord) Record {
	var deltas map[string]float64
	if len(r.Deltas) > 0 {
		deltas = make(map[string]float64, len(r.Deltas))
		for k, v := range r.Deltas {
			deltas[string(k)] = v
		}
	}
	return Record{
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
		At:             r.At,
	}
}

// Validate reports the first structural problem with p.
func (p Payload) Validate() error {
	if p.SessionID == "" {
		return errMissing("session_id")
	}
	for i, r := range p.Records {
		if r.QuestionID == "" {
			return errMissing(fmt.Sprintf("records[%d].question_id", i))
		}
		switch r.Outcome {
		case string(progression.OutcomeSolved), string(progression.OutcomeFailed), string(progression.OutcomeTimeout):
		default:
			return &FieldError{Field: fmt.Sprintf("records[%d].outcome", i), Reason: "unknown outcome " + r.Outcome}
		}
	}
	return nil
}
