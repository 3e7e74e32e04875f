package model

import "time"

// PullStatus tracks the lifecycle of one report pull attempt.
type PullStatus string

const (
	PullInProgress PullStatus = "in_progress"
	PullCompleted  PullStatus = "completed"
	PullFailed     PullStatus = "failed"
)

// PullRecord is the append-only audit trail entry for one attempt to fetch
// a report for (subject, bureau). Created at pull start, finalized exactly
// once on completion or failure.
type PullRecord struct {
	ID                 string
	SubjectID          string
	Bureau             Bureau
	Status             PullStatus
	RequestedBy        string
	PermissiblePurpose string
	ReportID           string
	ErrorMessage       string
	StartedAt          time.Time
	FinishedAt         *time.Time
}

// PullOutcome is the result of one pullOne pipeline run, returned to callers
// and aggregated per bureau by pullAll.
type PullOutcome struct {
	Bureau      Bureau     `json:"bureau"`
	Status      PullStatus `json:"status"`
	PullID      string     `json:"pull_id"`
	ReportID    string     `json:"report_id,omitempty"`
	SnapshotID  int64      `json:"snapshot_id,omitempty"`
	ChangeCount int        `json:"change_count"`
	Sandbox     bool       `json:"sandbox"`
	Error       string     `json:"error,omitempty"`
}
