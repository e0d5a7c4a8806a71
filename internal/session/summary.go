package session

import (
	"time"

	"github.com/abhisek/iotlab/internal/analytics"
	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/abhisek/iotlab/internal/store"
	"github.com/abhisek/iotlab/internal/upload"
)

// Summary holds the end-of-session data shown to the player and uploaded.
type Summary struct {
	SessionID string
	Mode      scenario.Kind

	// ScenarioID is the scenario in play when the session ended.
	ScenarioID string

	StartedAt time.Time
	EndedAt   time.Time
	TotalXP   int
	Stability int
	Records   []progression.DecisionRecord
	Report    analytics.Report
}

// BuildSummary creates a Summary from a machine's final state and records.
func BuildSummary(id string, mode scenario.Kind, started, ended time.Time, st progression.AttemptState, records []progression.DecisionRecord) *Summary {
	return &Summary{
		SessionID: id,
		Mode:      mode,
		StartedAt: started,
		EndedAt:   ended,
		TotalXP:   st.SessionXP,
		Stability: st.Stability,
		Records:   records,
		Report:    analytics.Aggregate(records),
	}
}

// Duration is the wall-clock length of the session.
func (s *Summary) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// Payload converts the summary to its upload form.
func (s *Summary) Payload() upload.Payload {
	p := upload.Payload{
		SessionID: s.SessionID,
		Mode:      string(s.Mode),
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		TotalXP:   s.TotalXP,
		Stability: s.Stability,
		Report:    s.Report,
	}
	for _, r := range s.Records {
		p.Records = append(p.Records, upload.FromDecision(r))
	}
	return p
}

// MergeTotals adds a finished session to lifetime totals. Best grades are
// kept per scenario.
func MergeTotals(data store.SnapshotData, sum *Summary) store.SnapshotData {
	data.Version = 1
	data.TotalXP += sum.TotalXP
	data.Sessions++
	best := make(map[string]string, len(data.BestGrade))
	for k, v := range data.BestGrade {
		best[k] = v
	}
	for _, r := range sum.Records {
		if r.Outcome != progression.OutcomeSolved {
			continue
		}
		data.Solved++
		g := progression.GradeFor(r.Score)
		if cur, ok := best[r.QuestionID]; !ok || gradeRank(g) > gradeRank(progression.Grade(cur)) {
			best[r.QuestionID] = string(g)
		}
	}
	if len(best) > 0 {
		data.BestGrade = best
	}
	return data
}

func gradeRank(g progression.Grade) int {
	switch g {
	case progression.GradeS:
		return 6
	case progression.GradeA:
		return 5
	case progression.GradeB:
		return 4
	case progression.GradeC:
		return 3
	case progression.GradeD:
		return 2
	case progression.GradeF:
		return 1
	default:
		return 0
	}
}
