package analytics

import (
	"fmt"

	"github.com/abhisek/iotlab/internal/progression"
)

// Insight thresholds.
const (
	HighAccuracy    = 0.8
	LowAccuracy     = 0.4
	RushedShare     = 0.5
	ImbalanceGap    = 25.0
	HighHesitation  = 50.0
	HighResilience  = 50.0
	MaxInsightCount = 4
)

// Rule produces at most one insight line from a report.
type Rule interface {
	Name() string
	Apply(r Report, records []progression.DecisionRecord) (string, bool)
}

// DefaultRules returns the insight rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		accuracyRule{},
		rushedRule{},
		imbalanceRule{},
		hesitationRule{},
		resilienceRule{},
	}
}

// Insights runs the default rules against r and keeps the first few hits.
func Insights(r Report, records []progression.DecisionRecord) []string {
	if r.Total == 0 {
		return []string{"No attempts recorded yet. Pick a scenario to get started."}
	}
	var out []string
	for _, rule := range DefaultRules() {
		if line, ok := rule.Apply(r, records); ok {
			out = append(out, line)
		}
		if len(out) == MaxInsightCount {
			break
		}
	}
	return out
}

type accuracyRule struct{}

func (accuracyRule) Name() string { return "accuracy" }

func (accuracyRule) Apply(r Report, _ []progression.DecisionRecord) (string, bool) {
	pct := int(r.AccuracyRate*100 + 0.5)
	switch {
	case r.AccuracyRate >= HighAccuracy:
		return fmt.Sprintf("Sharp work: %d%% of your submissions were correct.", pct), true
	case r.AccuracyRate < LowAccuracy:
		return fmt.Sprintf("Only %d%% of submissions passed. Check every requirement before validating.", pct), true
	}
	return "", false
}

type rushedRule struct{}

func (rushedRule) Name() string { return "rushed" }

func (rushedRule) Apply(_ Report, records []progression.DecisionRecord) (string, bool) {
	if rushedShare(records) >= RushedShare {
		return "Most misses came within seconds of starting. Take a moment to trace the problem first.", true
	}
	return "", false
}

type imbalanceRule struct{}

func (imbalanceRule) Name() string { return "imbalance" }

func (imbalanceRule) Apply(r Report, _ []progression.DecisionRecord) (string, bool) {
	reasoning := r.AvgDeltas[progression.AxisReasoning]
	efficiency := r.AvgDeltas[progression.AxisEfficiency]
	switch {
	case reasoning-efficiency >= ImbalanceGap:
		return "Your reasoning is solid but efficiency lags. Work on budgets and pace.", true
	case efficiency-reasoning >= ImbalanceGap:
		return "You move fast, but the reasoning behind each step needs more care.", true
	}
	return "", false
}

type hesitationRule struct{}

func (hesitationRule) Name() string { return "hesitation" }

func (hesitationRule) Apply(r Report, _ []progression.DecisionRecord) (string, bool) {
	if r.HesitationScore >= HighHesitation {
		return "You hesitated often. Sketch a plan before the clock starts.", true
	}
	return "", false
}

type resilienceRule struct{}

func (resilienceRule) Name() string { return "resilience" }

func (resilienceRule) Apply(r Report, _ []progression.DecisionRecord) (string, bool) {
	if r.ResilienceScore >= HighResilience {
		return "Great persistence: you recovered after missed attempts.", true
	}
	return "", false
}
