// Package analytics folds a session's decision records into summary
// metrics and player-facing insights.
package analytics

import (
	"math"

	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/scenario"
)

// Scoring weights.
const (
	hesitationBonusWeight     = 60
	hesitationLowMoveWeight   = 25
	hesitationUnsolvedPenalty = 8
	lowActivityMoves          = 3

	resilienceRetrySolve = 20
	resiliencePartial    = 5
	resilienceAnySolved  = 10

	rushedSeconds = 15
)

// Report is the session-level summary. All rates are fractions in [0,1];
// derived scores are in [0,100].
type Report struct {
	Total    int `json:"total"`
	Solved   int `json:"solved"`
	Failed   int `json:"failed"`
	TimedOut int `json:"timed_out"`

	AccuracyRate        float64                         `json:"accuracy_rate"`
	AvgTimeByDifficulty map[scenario.Difficulty]float64 `json:"avg_time_by_difficulty"`
	BonusUsageFrequency float64                         `json:"bonus_usage_frequency"`
	HesitationScore     float64                         `json:"hesitation_score"`
	ResilienceScore     float64                         `json:"resilience_score"`
	AvgDeltas           map[progression.Axis]float64    `json:"avg_deltas"`
	UnsolvedQuestions   int                             `json:"unsolved_questions"`

	Insights []string `json:"insights"`
}

// Aggregate computes a report from records. It does not modify its input.
func Aggregate(records []progression.DecisionRecord) Report {
	r := Report{
		AvgTimeByDifficulty: make(map[scenario.Difficulty]float64),
		AvgDeltas:           make(map[progression.Axis]float64),
	}
	r.Total = len(records)
	if r.Total == 0 {
		r.Insights = Insights(r, records)
		return r
	}

	timeSum := make(map[scenario.Difficulty]int)
	timeCount := make(map[scenario.Difficulty]int)
	deltaSum := make(map[progression.Axis]float64)
	deltaCount := make(map[progression.Axis]int)
	solvedQ := make(map[string]bool)
	seenQ := make(map[string]bool)
	var bonus, lowMoves int

	for _, rec := range records {
		switch rec.Outcome {
		case progression.OutcomeSolved:
			r.Solved++
			solvedQ[rec.QuestionID] = true
		case progression.OutcomeTimeout:
			r.TimedOut++
		default:
			r.Failed++
		}
		seenQ[rec.QuestionID] = true
		timeSum[rec.Difficulty] += rec.ElapsedSeconds
		timeCount[rec.Difficulty]++
		if rec.BonusUsed {
			bonus++
		}
		if rec.PointerMoves < lowActivityMoves {
			lowMoves++
		}
		for axis, v := range rec.Deltas {
			deltaSum[axis] += v
			deltaCount[axis]++
		}
	}

	for d, n := range timeCount {
		r.AvgTimeByDifficulty[d] = float64(timeSum[d]) / float64(n)
	}
	for axis, n := range deltaCount {
		r.AvgDeltas[axis] = deltaSum[axis] / float64(n)
	}
	for q := range seenQ {
		if !solvedQ[q] {
			r.UnsolvedQuestions++
		}
	}

	total := float64(r.Total)
	r.AccuracyRate = float64(r.Solved) / total
	r.BonusUsageFrequency = float64(bonus) / total
	r.HesitationScore = clamp(r.BonusUsageFrequency*hesitationBonusWeight +
		float64(lowMoves)/total*hesitationLowMoveWeight +
		float64(r.UnsolvedQuestions*hesitationUnsolvedPenalty))
	r.ResilienceScore = resilience(records, r.Solved > 0)
	r.Insights = Insights(r, records)
	return r
}

func resilience(records []progression.DecisionRecord, anySolved bool) float64 {
	score := 0.0
	for _, rec := range records {
		if rec.Outcome == progression.OutcomeSolved && rec.Attempt > 1 {
			score += resilienceRetrySolve
		}
		if rec.PartialCredit {
			score += resiliencePartial
		}
	}
	if anySolved {
		score += resilienceAnySolved
	}
	return clamp(score)
}

// rushedShare is the fraction of failed attempts submitted within
// rushedSeconds.
func rushedShare(records []progression.DecisionRecord) float64 {
	var failed, rushed int
	for _, rec := range records {
		if rec.Outcome != progression.OutcomeFailed {
			continue
		}
		failed++
		if rec.ElapsedSeconds < rushedSeconds {
			rushed++
		}
	}
	if failed == 0 {
		return 0
	}
	return float64(rushed) / float64(failed)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
