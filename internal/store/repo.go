package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	SessionID string    // only this session ("" = all)
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	Before    int64     // sequence < Before
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
}

// DecisionEventData is one stored decision record.
type DecisionEventData struct {
	Sequence       int64
	Timestamp      time.Time
	SessionID      string
	QuestionID     string
	Mode           string
	Difficulty     string
	Correct        bool
	PartialCredit  bool
	ElapsedSeconds int
	Deltas         map[string]float64
	BonusUsed      bool
	Attempt        int
	Outcome        string
	PointerMoves   int
	Score          float64
}

// Session event actions.
const (
	SessionStart = "start"
	SessionEnd   = "end"
)

// SessionEventData marks the start or end of a play session.
type SessionEventData struct {
	Sequence     int64
	Timestamp    time.Time
	SessionID    string
	Action       string
	Mode         string
	ScenarioID   string
	TotalXP      int
	Stability    int
	Records      int
	DurationSecs int
}

// SessionInfo summarizes one stored session.
type SessionInfo struct {
	SessionID string
	StartedAt time.Time
	Mode      string
	Records   int
}

// EventRepo provides append and query access to play events.
type EventRepo interface {
	// AppendDecision records a decision record for a session.
	AppendDecision(ctx context.Context, data DecisionEventData) error

	// AppendSessionEvent records a session start or end.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// QueryDecisions returns decision records in sequence order.
	QueryDecisions(ctx context.Context, opts QueryOpts) ([]DecisionEventData, error)

	// QuerySessionEvents returns session events in sequence order.
	QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEventData, error)

	// ListSessions returns started sessions, newest first.
	ListSessions(ctx context.Context, limit int) ([]SessionInfo, error)
}

// Upload is a session summary received by the collector.
type Upload struct {
	SessionID  string
	ReceivedAt time.Time
	Mode       string
	TotalXP    int
	Records    int
	Accuracy   float64
	Payload    []byte
}

// UploadRepo stores received session uploads. Saving the same session
// twice replaces the earlier upload.
type UploadRepo interface {
	Save(ctx context.Context, u Upload) error
	Get(ctx context.Context, sessionID string) (*Upload, error)
	List(ctx context.Context, limit int) ([]Upload, error)
}

// SnapshotData captures lifetime player totals.
type SnapshotData struct {
	Version   int               `json:"version"`
	TotalXP   int               `json:"total_xp"`
	Sessions  int               `json:"sessions"`
	Solved    int               `json:"solved"`
	BestGrade map[string]string `json:"best_grade,omitempty"`
}

// Snapshot represents a point-in-time capture of player totals.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages player total snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}
