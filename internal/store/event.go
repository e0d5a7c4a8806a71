package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

var builder = entsql.Dialect(dialect.SQLite)

// eventRepo implements EventRepo on top of the ent SQL driver.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

// sequenceCounter hands out one monotonic sequence shared by every event
// table, so decisions and session markers interleave in a single order.
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// queryRows runs q and calls scan for each row.
func queryRows(ctx context.Context, drv *entsql.Driver, q string, args []any, scan func(*entsql.Rows) error) error {
	rows := &entsql.Rows{}
	if err := drv.Query(ctx, q, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// exec runs an insert/update/delete built with the ent SQL builder.
func exec(ctx context.Context, drv *entsql.Driver, q string, args []any) error {
	var res sql.Result
	return drv.Exec(ctx, q, args, &res)
}

// filter applies opts to an event selector, ordering by sequence.
func filter(sel *entsql.Selector, opts QueryOpts) *entsql.Selector {
	var preds []*entsql.Predicate
	if opts.SessionID != "" {
		preds = append(preds, entsql.EQ(colSessionID, opts.SessionID))
	}
	if opts.After > 0 {
		preds = append(preds, entsql.GT(colSequence, opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT(colSequence, opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE(colTimestamp, opts.From))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE(colTimestamp, opts.To))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Asc(colSequence))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return sel
}
