package model

import "time"

// ChangeType identifies the kind of delta detected between two snapshots.
type ChangeType string

const (
	ChangeScore           ChangeType = "score_change"
	ChangeNewNegative     ChangeType = "new_negative_item"
	ChangeRemovedNegative ChangeType = "removed_negative_item"
	ChangeNewAccount      ChangeType = "new_account"
	ChangeBalance         ChangeType = "balance_change"
	ChangeNewInquiry      ChangeType = "new_inquiry"
	ChangeUtilization     ChangeType = "utilization_change"
)

// ChangeCategory groups change types for filtering.
type ChangeCategory string

const (
	CategoryScore        ChangeCategory = "score"
	CategoryNegativeItem ChangeCategory = "negative_item"
	CategoryAccount      ChangeCategory = "account"
	CategoryInquiry      ChangeCategory = "inquiry"
	CategorySummary      ChangeCategory = "summary"
)

// Severity ranks how material a change is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Change is one detected delta between two consecutive snapshots of the
// same subject and bureau. Persisted alongside the snapshot that produced
// it; never mutated.
type Change struct {
	ID                 int64
	SubjectID          string
	Bureau             Bureau
	SnapshotID         int64
	PreviousSnapshotID int64
	Type               ChangeType
	Category           ChangeCategory
	Severity           Severity
	Description        string
	PreviousValue      string
	CurrentValue       string
	Delta              *float64
	IsPositive         bool // True when the change favors the subject.
	CreatedAt          time.Time
}

// ChangeThresholds carries the tunable comparison thresholds used by the
// change detector. The defaults mirror long-standing production values;
// they are configuration, not business law.
type ChangeThresholds struct {
	ScoreDeltaHigh    int     // |score delta| above this is high severity.
	BalanceDeltaMin   float64 // Absolute balance move that always registers.
	BalancePctMin     float64 // Percent balance move that always registers.
	BalancePctHigh    float64 // Percent balance move that is high severity.
	UtilizationPPMin  float64 // Utilization move (percentage points) that registers.
	UtilizationPPHigh float64 // Utilization move that is high severity.
}

// DefaultChangeThresholds returns the production default thresholds.
func DefaultChangeThresholds() ChangeThresholds {
	return ChangeThresholds{
		ScoreDeltaHigh:    35,
		BalanceDeltaMin:   500,
		BalancePctMin:     10,
		BalancePctHigh:    25,
		UtilizationPPMin:  5,
		UtilizationPPHigh: 15,
	}
}

// ChangeFilter narrows change history queries. Zero-value fields match all.
type ChangeFilter struct {
	Bureau   Bureau
	Category ChangeCategory
	Severity Severity
	Limit    int
}
