package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names.
const (
	decisionTable = "decision_records"
	sessionTable  = "session_events"
	uploadTable   = "session_uploads"
	snapshotTable = "profile_snapshots"

	colID        = "id"
	colSequence  = "sequence"
	colTimestamp = "timestamp"
	colSessionID = "session_id"
)

func idColumn() *schema.Column {
	return &schema.Column{Name: colID, Type: field.TypeInt, Increment: true}
}

// eventColumns are shared by every append-only event table, mirroring the
// sequence/timestamp pair each event carries.
func eventColumns() []*schema.Column {
	return []*schema.Column{
		idColumn(),
		{Name: colSequence, Type: field.TypeInt64, Unique: true},
		{Name: colTimestamp, Type: field.TypeTime},
		{Name: colSessionID, Type: field.TypeString},
	}
}

var decisionColumns = append(eventColumns(),
	&schema.Column{Name: "question_id", Type: field.TypeString},
	&schema.Column{Name: "mode", Type: field.TypeString},
	&schema.Column{Name: "difficulty", Type: field.TypeString},
	&schema.Column{Name: "correct", Type: field.TypeBool},
	&schema.Column{Name: "partial_credit", Type: field.TypeBool},
	&schema.Column{Name: "elapsed_seconds", Type: field.TypeInt},
	&schema.Column{Name: "deltas", Type: field.TypeString, Size: 2048},
	&schema.Column{Name: "bonus_used", Type: field.TypeBool},
	&schema.Column{Name: "attempt", Type: field.TypeInt},
	&schema.Column{Name: "outcome", Type: field.TypeString},
	&schema.Column{Name: "pointer_moves", Type: field.TypeInt},
	&schema.Column{Name: "score", Type: field.TypeFloat64},
)

var decisionRecordsTable = &schema.Table{
	Name:       decisionTable,
	Columns:    decisionColumns,
	PrimaryKey: []*schema.Column{decisionColumns[0]},
	Indexes: []*schema.Index{
		{Name: "decisionrecord_session_id", Columns: []*schema.Column{decisionColumns[3]}},
	},
}

var sessionColumns = append(eventColumns(),
	&schema.Column{Name: "action", Type: field.TypeString},
	&schema.Column{Name: "mode", Type: field.TypeString},
	&schema.Column{Name: "scenario_id", Type: field.TypeString, Nullable: true},
	&schema.Column{Name: "total_xp", Type: field.TypeInt},
	&schema.Column{Name: "stability", Type: field.TypeInt},
	&schema.Column{Name: "records", Type: field.TypeInt},
	&schema.Column{Name: "duration_secs", Type: field.TypeInt},
)

var sessionEventsTable = &schema.Table{
	Name:       sessionTable,
	Columns:    sessionColumns,
	PrimaryKey: []*schema.Column{sessionColumns[0]},
	Indexes: []*schema.Index{
		{Name: "sessionevent_session_id", Columns: []*schema.Column{sessionColumns[3]}},
	},
}

var uploadColumns = []*schema.Column{
	idColumn(),
	{Name: colSessionID, Type: field.TypeString, Unique: true},
	{Name: "received_at", Type: field.TypeTime},
	{Name: "mode", Type: field.TypeString, Default: ""},
	{Name: "total_xp", Type: field.TypeInt, Default: 0},
	{Name: "records", Type: field.TypeInt},
	{Name: "accuracy", Type: field.TypeFloat64},
	{Name: "payload", Type: field.TypeBytes},
}

var sessionUploadsTable = &schema.Table{
	Name:       uploadTable,
	Columns:    uploadColumns,
	PrimaryKey: []*schema.Column{uploadColumns[0]},
}

var snapshotColumns = []*schema.Column{
	idColumn(),
	{Name: colSequence, Type: field.TypeInt64},
	{Name: colTimestamp, Type: field.TypeTime},
	{Name: "data", Type: field.TypeBytes},
}

var profileSnapshotsTable = &schema.Table{
	Name:       snapshotTable,
	Columns:    snapshotColumns,
	PrimaryKey: []*schema.Column{snapshotColumns[0]},
}

var tables = []*schema.Table{
	decisionRecordsTable,
	sessionEventsTable,
	sessionUploadsTable,
	profileSnapshotsTable,
}
