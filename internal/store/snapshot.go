package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// snapshotRepo implements SnapshotRepo using the ent SQL builder.
type snapshotRepo struct {
	drv *entsql.Driver
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	q, args := builder.Insert(snapshotTable).
		Columns(colSequence, colTimestamp, "data").
		Values(snap.Sequence, ts.UTC(), data).
		Query()
	if err := exec(ctx, r.drv, q, args); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context) (*Snapshot, error) {
	q, args := builder.Select(colID, colSequence, colTimestamp, "data").
		From(entsql.Table(snapshotTable)).
		OrderBy(entsql.Desc(colTimestamp), entsql.Desc(colID)).
		Limit(1).
		Query()

	var snap *Snapshot
	err := queryRows(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		var (
			s    Snapshot
			data []byte
		)
		if err := rows.Scan(&s.ID, &s.Sequence, &s.Timestamp, &data); err != nil {
			return err
		}
		if err := json.Unmarshal(data, &s.Data); err != nil {
			return fmt.Errorf("unmarshal snapshot data: %w", err)
		}
		snap = &s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	return snap, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, keep int) error {
	// Find the id threshold: the Nth most recent snapshot.
	q, args := builder.Select(colID).
		From(entsql.Table(snapshotTable)).
		OrderBy(entsql.Desc(colTimestamp), entsql.Desc(colID)).
		Offset(keep).
		Limit(1).
		Query()

	var threshold int
	found := false
	err := queryRows(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		found = true
		return rows.Scan(&threshold)
	})
	if err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}
	if !found {
		return nil // fewer than keep snapshots exist
	}

	q, args = builder.Delete(snapshotTable).
		Where(entsql.LTE(colID, threshold)).
		Query()
	if err := exec(ctx, r.drv, q, args); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
