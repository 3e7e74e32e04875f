package model

import "time"

// Snapshot is one immutable, timestamped Report for a (subject, bureau)
// pair. Snapshots form a linked history per key via PreviousID; they are
// created exactly once per successful pull and never mutated.
type Snapshot struct {
	ID          int64
	SubjectID   string
	Bureau      Bureau
	PreviousID  *int64 // nil on the first pull for this key.
	PullID      string
	Report      Report
	ChangeCount int
	CreatedAt   time.Time
}
