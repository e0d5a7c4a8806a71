package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var uploadSelectColumns = []string{colSessionID, "received_at", "mode", "total_xp", "records", "accuracy", "payload"}

// uploadRepo implements UploadRepo using the ent SQL builder.
type uploadRepo struct {
	drv *entsql.Driver
}

func (r *uploadRepo) Save(ctx context.Context, u Upload) error {
	if u.SessionID == "" {
		return fmt.Errorf("save upload: empty session id")
	}
	if u.ReceivedAt.IsZero() {
		u.ReceivedAt = time.Now()
	}
	q, args := builder.Insert(uploadTable).
		Columns(uploadSelectColumns...).
		Values(u.SessionID, u.ReceivedAt.UTC(), u.Mode, u.TotalXP, u.Records, u.Accuracy, u.Payload).
		OnConflict(
			entsql.ConflictColumns(colSessionID),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := exec(ctx, r.drv, q, args); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	return nil
}

func (r *uploadRepo) Get(ctx context.Context, sessionID string) (*Upload, error) {
	q, args := builder.Select(uploadSelectColumns...).
		From(entsql.Table(uploadTable)).
		Where(entsql.EQ(colSessionID, sessionID)).
		Limit(1).
		Query()
	ups, err := r.scan(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("upload %s: %w", sessionID, ErrNotFound)
	}
	return &ups[0], nil
}

func (r *uploadRepo) List(ctx context.Context, limit int) ([]Upload, error) {
	sel := builder.Select(uploadSelectColumns...).
		From(entsql.Table(uploadTable)).
		OrderBy(entsql.Desc("received_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()
	ups, err := r.scan(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return ups, nil
}

func (r *uploadRepo) scan(ctx context.Context, q string, args []any) ([]Upload, error) {
	var out []Upload
	err := queryRows(ctx, r.drv, q, args, func(rows *entsql.Rows) error {
		var u Upload
		if err := rows.Scan(&u.SessionID, &u.ReceivedAt, &u.Mode, &u.TotalXP, &u.Records, &u.Accuracy, &u.Payload); err != nil {
			return err
		}
		out = append(out, u)
		return nil
	})
	return out, err
}
