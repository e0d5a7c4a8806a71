package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var decisionSelectColumns = []string{
	colSequence, colTimestamp, colSessionID, "question_id", "mode", "difficulty",
	"correct", "partial_credit", "elapsed_seconds", "deltas", "bonus_used",
	"attempt", "outcome", "pointer_moves", "score",
}

func (r *eventRepo) AppendDecision(ctx context.Context, data DecisionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	deltas, err := json.Marshal(data.Deltas)
	if err != nil {
		return fmt.Errorf("marshal deltas: %w", err)
	}
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	q, args := builder.Insert(decisionTable).
		Columns(decisionSelectColumns...).
		Values(seqNum, ts.UTC(), data.SessionID, data.QuestionID, data.Mode, data.Difficulty,
			data.Correct, data.PartialCredit, data.ElapsedSeconds, string(deltas), data.BonusUsed,
			data.Attempt, data.Outcome, data.PointerMoves, data.Score).
		Query()
	if err := exec(ctx, r.drv, q, args); err != nil {
		return fmt.Errorf("save decision record: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryDecisions(ctx context.Context, opts QueryOpts) ([]DecisionEventData, error) {
	sel := builder.Select(decisionSelectColumns...).From(entsql.Table(decisionTable))
	q, args := filter(sel, opts).Query()

	var out []DecisionEventData
	err := queryRows(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		var (
			d      DecisionEventData
			deltas string
		)
		if err := rows.Scan(&d.Sequence, &d.Timestamp, &d.SessionID, &d.QuestionID, &d.Mode, &d.Difficulty,
			&d.Correct, &d.PartialCredit, &d.ElapsedSeconds, &deltas, &d.BonusUsed,
			&d.Attempt, &d.Outcome, &d.PointerMoves, &d.Score); err != nil {
			return err
		}
		if deltas != "" && deltas != "null" {
			if err := json.Unmarshal([]byte(deltas), &d.Deltas); err != nil {
				return fmt.Errorf("unmarshal deltas: %w", err)
			}
		}
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query decision records: %w", err)
	}
	return out, nil
}
