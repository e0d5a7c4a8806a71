package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var sessionSelectColumns = []string{
	colSequence, colTimestamp, colSessionID, "action", "mode", "scenario_id",
	"total_xp", "stability", "records", "duration_secs",
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var scenarioID any
	if data.ScenarioID != "" {
		scenarioID = data.ScenarioID
	}

	q, args := builder.Insert(sessionTable).
		Columns(sessionSelectColumns...).
		Values(seqNum, ts.UTC(), data.SessionID, data.Action, data.Mode, scenarioID,
			data.TotalXP, data.Stability, data.Records, data.DurationSecs).
		Query()
	if err := exec(ctx, r.drv, q, args); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEventData, error) {
	sel := builder.Select(sessionSelectColumns...).From(entsql.Table(sessionTable))
	q, args := filter(sel, opts).Query()

	var out []SessionEventData
	err := queryRows(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		var (
			e          SessionEventData
			scenarioID sql.NullString
		)
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.SessionID, &e.Action, &e.Mode, &scenarioID,
			&e.TotalXP, &e.Stability, &e.Records, &e.DurationSecs); err != nil {
			return err
		}
		e.ScenarioID = scenarioID.String
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) ListSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	sel := builder.Select(colSessionID, colTimestamp, "mode").
		From(entsql.Table(sessionTable)).
		Where(entsql.EQ("action", SessionStart)).
		OrderBy(entsql.Desc(colSequence))
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()

	var out []SessionInfo
	err := queryRows(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		var info SessionInfo
		if err := rows.Scan(&info.SessionID, &info.StartedAt, &info.Mode); err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	for i := range out {
		n, err := r.countDecisions(ctx, out[i].SessionID)
		if err != nil {
			return nil, err
		}
		out[i].Records = n
	}
	return out, nil
}

func (r *eventRepo) countDecisions(ctx context.Context, sessionID string) (int, error) {
	q, args := builder.Select(entsql.Count("*")).
		From(entsql.Table(decisionTable)).
		Where(entsql.EQ(colSessionID, sessionID)).
		Query()
	var n int
	err := queryRows(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		return rows.Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count decision records: %w", err)
	}
	return n, nil
}
