package model

import "time"

// DiscrepancyType identifies a cross-bureau discrepancy signal.
type DiscrepancyType string

const (
	DiscrepancyScoreSpread  DiscrepancyType = "score_spread"
	DiscrepancyNegativeItem DiscrepancyType = "negative_item_discrepancy"
)

// DiscrepancyFlag is one cross-bureau discrepancy signal with the bureaus
// at the extremes of the spread.
type DiscrepancyFlag struct {
	Type        DiscrepancyType `json:"type"`
	Severity    Severity        `json:"severity"`
	Spread      float64         `json:"spread"`
	LowBureau   Bureau          `json:"low_bureau"`
	HighBureau  Bureau          `json:"high_bureau"`
	Description string          `json:"description"`
}

// AnalysisResult is the read-only output of cross-bureau reconciliation
// over the latest snapshot per bureau.
type AnalysisResult struct {
	SubjectID          string            `json:"subject_id"`
	Sufficient         bool              `json:"sufficient"` // False below 2 bureaus with data.
	Bureaus            []Bureau          `json:"bureaus"`
	Scores             map[Bureau]int    `json:"scores"`
	NegativeItemCounts map[Bureau]int    `json:"negative_item_counts"`
	Flags              []DiscrepancyFlag `json:"flags"`
	GeneratedAt        time.Time         `json:"generated_at"`
}
